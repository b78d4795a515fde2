package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/payment"
)

const (
	WebhookStatusProcessed = "processed"
	WebhookStatusDuplicate = "duplicate"
	WebhookStatusIgnored   = "ignored"
)

type paymentIntentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountCents int64, customer payment.Customer, idempotencyKey string) (*payment.PaymentIntent, error)
	ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error)
}

type paymentEventRepository interface {
	ApplyEvent(ctx context.Context, evt *models.PaymentEvent, transactionID string, status *models.PaymentStatus) (bool, error)
}

type userFinder interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// CreatePaymentIntentRequest asks for a card payment in whole currency units.
type CreatePaymentIntentRequest struct {
	Amount         float64 `json:"amount"`
	IdempotencyKey string  `json:"-"`
}

// PaymentService opens card payments and reconciles provider webhooks.
type PaymentService struct {
	provider      paymentIntentProvider
	events        paymentEventRepository
	users         userFinder
	metrics       *MetricsService
	clock         clock.Clock
	defaultAmount int64
	logger        *zap.Logger
}

// NewPaymentService constructs a PaymentService. defaultAmount applies when
// a request carries no positive amount.
func NewPaymentService(provider paymentIntentProvider, events paymentEventRepository, users userFinder, metrics *MetricsService, clk clock.Clock, defaultAmount int64, logger *zap.Logger) *PaymentService {
	if defaultAmount <= 0 {
		defaultAmount = 50
	}
	if clk == nil {
		clk = clock.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{provider: provider, events: events, users: users, metrics: metrics, clock: clk, defaultAmount: defaultAmount, logger: logger}
}

// CreatePaymentIntent opens a payment intent charged to the caller.
func (s *PaymentService) CreatePaymentIntent(ctx context.Context, userID string, req CreatePaymentIntentRequest) (*models.PaymentIntentResult, error) {
	amount := req.Amount
	if amount <= 0 {
		amount = float64(s.defaultAmount)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	intent, err := s.provider.CreatePaymentIntent(ctx, payment.ToMinorUnits(amount), payment.Customer{Email: user.Email, Name: user.FullName}, req.IdempotencyKey)
	if err != nil {
		s.metrics.RecordPaymentProviderError("create_payment_intent")
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "payments are not configured")
		}
		s.logger.Error("payment intent creation failed", zap.String("user_id", userID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, "failed to create payment intent")
	}

	return &models.PaymentIntentResult{
		ClientSecret:    intent.ClientSecret,
		PaymentIntentID: intent.ID,
		AmountCents:     intent.AmountCents,
		Currency:        intent.Currency,
	}, nil
}

// HandleWebhook verifies and applies a provider event exactly once.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.WebhookResult, error) {
	evt, err := s.provider.ParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "webhooks are not configured")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid webhook signature")
	}

	status := paymentStatusForEvent(evt.Type)
	record := &models.PaymentEvent{
		ProviderEventID: evt.ID,
		EventType:       evt.Type,
		Payload:         evt.Payload,
		ReceivedAt:      s.clock.Now().UTC(),
	}
	applied, err := s.events.ApplyEvent(ctx, record, evt.PaymentIntentID, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record webhook")
	}

	result := &models.WebhookResult{EventID: evt.ID, Status: WebhookStatusProcessed}
	switch {
	case !applied:
		result.Status = WebhookStatusDuplicate
	case status == nil:
		result.Status = WebhookStatusIgnored
	}
	s.logger.Info("payment webhook handled",
		zap.String("event_id", evt.ID),
		zap.String("type", evt.Type),
		zap.String("payment_intent_id", evt.PaymentIntentID),
		zap.String("status", result.Status))
	return result, nil
}

func paymentStatusForEvent(eventType string) *models.PaymentStatus {
	var status models.PaymentStatus
	switch eventType {
	case "payment_intent.succeeded":
		status = models.PaymentPaid
	case "payment_intent.payment_failed":
		status = models.PaymentFailed
	case "charge.refunded":
		status = models.PaymentRefunded
	default:
		return nil
	}
	return &status
}
