package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type sessionService interface {
	List(ctx context.Context, actor service.Actor, filter models.SessionFilter) ([]models.TeachingSession, *models.Pagination, error)
	Update(ctx context.Context, actor service.Actor, id string, req service.UpdateSessionRequest) (*models.TeachingSession, error)
	Reschedule(ctx context.Context, actor service.Actor, id string, req service.RescheduleSessionRequest) (*models.TeachingSession, error)
	Export(ctx context.Context, actor service.Actor, req service.ExportSessionsRequest) (*service.ExportedFile, error)
}

// SessionHandler wires teaching session endpoints.
type SessionHandler struct {
	service sessionService
}

// NewSessionHandler constructs a SessionHandler.
func NewSessionHandler(svc sessionService) *SessionHandler {
	return &SessionHandler{service: svc}
}

// List godoc
// @Summary List teaching sessions visible to the caller
// @Tags Sessions
// @Produce json
// @Param status query string false "NOT_YET, COMPLETED, CANCELLED or ABSENT"
// @Param subscription_id query string false "Subscription ID"
// @Param from query string false "Start bound (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End bound (RFC3339 or YYYY-MM-DD)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /sessions [get]
func (h *SessionHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	filter := models.SessionFilter{SubscriptionID: strings.TrimSpace(c.Query("subscription_id"))}
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		s := models.SessionStatus(status)
		filter.Status = &s
	}
	var err error
	if filter.From, err = optionalTime(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.To, err = optionalTime(c, "to"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Page, filter.PageSize = pageParams(c)

	sessions, pagination, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, pagination)
}

// Export godoc
// @Summary Download the caller's sessions
// @Tags Sessions
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv (default) or pdf"
// @Param from query string false "Start bound"
// @Param to query string false "End bound"
// @Success 200 {file} file
// @Router /sessions/export [get]
func (h *SessionHandler) Export(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	req := service.ExportSessionsRequest{Format: c.DefaultQuery("format", service.ExportFormatCSV)}
	var err error
	if req.From, err = optionalTime(c, "from"); err != nil {
		response.Error(c, err)
		return
	}
	if req.To, err = optionalTime(c, "to"); err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.Export(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Update godoc
// @Summary Record a session outcome
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.UpdateSessionRequest true "Outcome payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id} [put]
func (h *SessionHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateSessionRequest
	if !bindJSON(c, &req, "invalid session payload") {
		return
	}
	session, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}

// Reschedule godoc
// @Summary Move a session
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body service.RescheduleSessionRequest true "New window"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /sessions/{id}/reschedule [put]
func (h *SessionHandler) Reschedule(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.RescheduleSessionRequest
	if !bindJSON(c, &req, "invalid reschedule payload") {
		return
	}
	session, err := h.service.Reschedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, session, nil)
}
