package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type childService interface {
	List(ctx context.Context, parentID string) ([]models.Child, error)
	Create(ctx context.Context, parentID string, req service.ChildRequest) (*models.Child, error)
	Update(ctx context.Context, parentID, id string, req service.ChildRequest) (*models.Child, error)
	Delete(ctx context.Context, parentID, id string) error
}

// ChildHandler lets parents manage their children.
type ChildHandler struct {
	service childService
}

// NewChildHandler constructs a ChildHandler.
func NewChildHandler(svc childService) *ChildHandler {
	return &ChildHandler{service: svc}
}

// List godoc
// @Summary List own children
// @Tags Children
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /children [get]
func (h *ChildHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	children, err := h.service.List(c.Request.Context(), actor.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, children, nil)
}

// Create godoc
// @Summary Add a child
// @Tags Children
// @Accept json
// @Produce json
// @Param payload body service.ChildRequest true "Child payload"
// @Success 201 {object} response.Envelope
// @Router /children [post]
func (h *ChildHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.ChildRequest
	if !bindJSON(c, &req, "invalid child payload") {
		return
	}
	child, err := h.service.Create(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, child)
}

// Update godoc
// @Summary Update a child
// @Tags Children
// @Accept json
// @Produce json
// @Param id path string true "Child ID"
// @Param payload body service.ChildRequest true "Child payload"
// @Success 200 {object} response.Envelope
// @Router /children/{id} [put]
func (h *ChildHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.ChildRequest
	if !bindJSON(c, &req, "invalid child payload") {
		return
	}
	child, err := h.service.Update(c.Request.Context(), actor.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, child, nil)
}

// Delete godoc
// @Summary Remove a child
// @Tags Children
// @Param id path string true "Child ID"
// @Success 204
// @Router /children/{id} [delete]
func (h *ChildHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
