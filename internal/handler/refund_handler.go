package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type refundService interface {
	Create(ctx context.Context, userID string, req service.CreateRefundRequest) (*models.RefundRequest, error)
	List(ctx context.Context, filter models.RefundFilter) ([]models.RefundRequest, *models.Pagination, error)
	Get(ctx context.Context, actor service.Actor, id string) (*models.RefundRequest, error)
	Statistics(ctx context.Context) (*models.RefundStatistics, error)
	Process(ctx context.Context, adminID, id string, req service.ProcessRefundRequest) (*models.RefundRequest, error)
}

// RefundHandler wires refund requests and their admin review.
type RefundHandler struct {
	service refundService
}

// NewRefundHandler constructs a RefundHandler.
func NewRefundHandler(svc refundService) *RefundHandler {
	return &RefundHandler{service: svc}
}

// Create godoc
// @Summary Request a refund
// @Tags Refunds
// @Accept json
// @Produce json
// @Param payload body service.CreateRefundRequest true "Refund payload"
// @Success 201 {object} response.Envelope
// @Router /refunds [post]
func (h *RefundHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateRefundRequest
	if !bindJSON(c, &req, "invalid refund payload") {
		return
	}
	refund, err := h.service.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, refund)
}

// List godoc
// @Summary List refund requests
// @Tags Refunds
// @Produce json
// @Param status query string false "PENDING, APPROVED, REJECTED, COMPLETED or FAILED"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /refunds [get]
func (h *RefundHandler) List(c *gin.Context) {
	filter := models.RefundFilter{UserID: strings.TrimSpace(c.Query("user_id"))}
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		s := models.RefundStatus(status)
		filter.Status = &s
	}
	filter.Page, filter.PageSize = pageParams(c)

	refunds, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refunds, pagination)
}

// Get godoc
// @Summary Get a refund request
// @Tags Refunds
// @Produce json
// @Param id path string true "Refund ID"
// @Success 200 {object} response.Envelope
// @Router /refunds/{id} [get]
func (h *RefundHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	refund, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refund, nil)
}

// Statistics godoc
// @Summary Refund counts by status
// @Tags Refunds
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /refunds/statistics [get]
func (h *RefundHandler) Statistics(c *gin.Context) {
	stats, err := h.service.Statistics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Process godoc
// @Summary Approve or reject a refund
// @Description Approved refunds are executed against the payment provider in the background.
// @Tags Refunds
// @Accept json
// @Produce json
// @Param id path string true "Refund ID"
// @Param payload body service.ProcessRefundRequest true "Decision"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /refunds/{id}/process [put]
func (h *RefundHandler) Process(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.ProcessRefundRequest
	if !bindJSON(c, &req, "invalid decision payload") {
		return
	}
	refund, err := h.service.Process(c.Request.Context(), actor.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, refund, nil)
}
