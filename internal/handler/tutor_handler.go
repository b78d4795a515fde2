package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/middleware"
	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type tutorService interface {
	List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, *models.Pagination, bool, error)
	Get(ctx context.Context, id string) (*models.TutorDetail, error)
	UpdateProfile(ctx context.Context, tutorID string, req service.UpdateTutorProfileRequest) (*models.Tutor, error)
}

// TutorHandler serves the public tutor directory and the tutor's own profile.
type TutorHandler struct {
	service tutorService
}

// NewTutorHandler constructs a TutorHandler.
func NewTutorHandler(svc tutorService) *TutorHandler {
	return &TutorHandler{service: svc}
}

// List godoc
// @Summary List tutors
// @Tags Tutors
// @Produce json
// @Param search query string false "Search by name or subject"
// @Param subject query string false "Subject taught"
// @Param min_rating query number false "Minimum average rating"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tutors [get]
func (h *TutorHandler) List(c *gin.Context) {
	filter := models.TutorFilter{
		Search:  strings.TrimSpace(c.Query("search")),
		Subject: strings.TrimSpace(c.Query("subject")),
	}
	minRating, err := optionalFloat(c, "min_rating")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter.MinRating = minRating
	filter.Page, filter.PageSize = pageParams(c)

	tutors, pagination, hit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, tutors, pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Tutor profile with courses and reviews
// @Tags Tutors
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id} [get]
func (h *TutorHandler) Get(c *gin.Context) {
	tutor, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tutor, nil)
}

// UpdateMe godoc
// @Summary Update own tutor profile
// @Tags Tutors
// @Accept json
// @Produce json
// @Param payload body service.UpdateTutorProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /tutors/me [put]
func (h *TutorHandler) UpdateMe(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateTutorProfileRequest
	if !bindJSON(c, &req, "invalid profile payload") {
		return
	}
	tutor, err := h.service.UpdateProfile(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tutor, nil)
}
