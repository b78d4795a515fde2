package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type userService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool, actorID string, meta models.LoginRequest) (*models.User, error)
}

// UserHandler exposes admin user management.
type UserHandler struct {
	service userService
}

// NewUserHandler constructs a UserHandler.
func NewUserHandler(svc userService) *UserHandler {
	return &UserHandler{service: svc}
}

// List godoc
// @Summary List users
// @Tags Users
// @Produce json
// @Param role query string false "ADMIN, TUTOR, PARENT or CHILD"
// @Param active query bool false "Filter by active status"
// @Param search query string false "Search by name or email"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *UserHandler) List(c *gin.Context) {
	filter := models.UserFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		Active:    optionalBool(c, "active"),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if role := strings.ToUpper(strings.TrimSpace(c.Query("role"))); role != "" {
		r := models.UserRole(role)
		filter.Role = &r
	}
	filter.Page, filter.PageSize = pageParams(c)

	users, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

// Get godoc
// @Summary Get user
// @Tags Users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /users/{id} [get]
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// SetActive godoc
// @Summary Activate or deactivate a user
// @Tags Users
// @Accept json
// @Produce json
// @Param id path string true "User ID"
// @Param payload body service.SetActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /users/{id}/active [patch]
func (h *UserHandler) SetActive(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.SetActiveRequest
	if !bindJSON(c, &req, "invalid payload") {
		return
	}
	if req.Active == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active is required"))
		return
	}

	user, err := h.service.SetActive(c.Request.Context(), c.Param("id"), *req.Active, actor.ID, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
