package handler

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/response"
)

const maxWebhookBody = 64 << 10

type paymentService interface {
	CreatePaymentIntent(ctx context.Context, userID string, req service.CreatePaymentIntentRequest) (*models.PaymentIntentResult, error)
	HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.WebhookResult, error)
}

type payoutService interface {
	ConnectAccount(ctx context.Context, tutorID string) (*models.PayoutOnboarding, error)
	Status(ctx context.Context, tutorID string) (*models.PayoutStatus, error)
}

// PaymentHandler exposes card payments, provider webhooks and tutor payouts.
type PaymentHandler struct {
	payments paymentService
	payouts  payoutService
}

// NewPaymentHandler constructs a PaymentHandler.
func NewPaymentHandler(payments paymentService, payouts payoutService) *PaymentHandler {
	return &PaymentHandler{payments: payments, payouts: payouts}
}

// CreateIntent godoc
// @Summary Create a payment intent
// @Description Amounts are in dollars; zero or missing falls back to the default amount.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Idempotency-Key header string false "Client idempotency key"
// @Param payload body service.CreatePaymentIntentRequest false "Amount"
// @Success 201 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /payments/intent [post]
func (h *PaymentHandler) CreateIntent(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreatePaymentIntentRequest
	if c.Request.ContentLength != 0 {
		if !bindJSON(c, &req, "invalid payment payload") {
			return
		}
	}
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader("Idempotency-Key"))

	intent, err := h.payments.CreatePaymentIntent(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, intent)
}

// Webhook godoc
// @Summary Payment provider webhook
// @Description The Stripe-Signature header authenticates the request.
// @Tags Payments
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Provider signature"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /payments/webhook [post]
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable webhook body"))
		return
	}
	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing Stripe-Signature header"))
		return
	}

	result, err := h.payments.HandleWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ConnectPayouts godoc
// @Summary Start payout onboarding
// @Tags Payouts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payouts/connect [post]
func (h *PaymentHandler) ConnectPayouts(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	onboarding, err := h.payouts.ConnectAccount(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, onboarding, nil)
}

// PayoutStatus godoc
// @Summary Payout account status
// @Tags Payouts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /payouts/status [get]
func (h *PaymentHandler) PayoutStatus(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	status, err := h.payouts.Status(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
