package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/middleware"
	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type availabilityService interface {
	GetTutorAvailability(ctx context.Context, tutorID string) (*models.TutorAvailability, error)
	UpdateTutorAvailability(ctx context.Context, tutorID string, req service.UpdateAvailabilityRequest) (*models.TutorAvailability, error)
	GetCourseAvailability(ctx context.Context, courseID string) ([]models.DailySlots, bool, error)
}

// AvailabilityHandler serves weekly tutor windows and bookable course slots.
type AvailabilityHandler struct {
	service availabilityService
}

// NewAvailabilityHandler constructs an AvailabilityHandler.
func NewAvailabilityHandler(svc availabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{service: svc}
}

// GetTutor godoc
// @Summary Tutor weekly availability
// @Tags Availability
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/availability [get]
func (h *AvailabilityHandler) GetTutor(c *gin.Context) {
	availability, err := h.service.GetTutorAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// UpdateMine godoc
// @Summary Replace own weekly availability
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.UpdateAvailabilityRequest true "Availability payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /tutors/me/availability [put]
func (h *AvailabilityHandler) UpdateMine(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateAvailabilityRequest
	if !bindJSON(c, &req, "invalid availability payload") {
		return
	}
	availability, err := h.service.UpdateTutorAvailability(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, availability, nil)
}

// GetCourse godoc
// @Summary Bookable slots for a course
// @Description Free start times per day over the booking horizon.
// @Tags Availability
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/availability [get]
func (h *AvailabilityHandler) GetCourse(c *gin.Context) {
	slots, hit, err := h.service.GetCourseAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, slots, nil, middleware.ExtractMeta(c))
}
