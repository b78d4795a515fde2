package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/service"
	"github.com/vnvodich/tutor-api/pkg/response"
)

type reviewService interface {
	AddTutorReview(ctx context.Context, parentID, tutorID string, req service.ReviewRequest) (*models.TutorReview, error)
	AddCourseReview(ctx context.Context, parentID, courseID string, req service.ReviewRequest) (*models.CourseReview, error)
	ListTutorReviews(ctx context.Context, tutorID string) (*models.TutorReviewSummary, error)
	ListCourseReviews(ctx context.Context, courseID string) (*models.CourseReviewSummary, error)
}

// ReviewHandler wires tutor and course reviews.
type ReviewHandler struct {
	service reviewService
}

// NewReviewHandler constructs a ReviewHandler.
func NewReviewHandler(svc reviewService) *ReviewHandler {
	return &ReviewHandler{service: svc}
}

// ListTutor godoc
// @Summary Tutor reviews with average rating
// @Tags Reviews
// @Produce json
// @Param id path string true "Tutor ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/reviews [get]
func (h *ReviewHandler) ListTutor(c *gin.Context) {
	summary, err := h.service.ListTutorReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AddTutor godoc
// @Summary Review a tutor
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Tutor ID"
// @Param payload body service.ReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /tutors/{id}/reviews [post]
func (h *ReviewHandler) AddTutor(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	review, err := h.service.AddTutorReview(c.Request.Context(), actor.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// ListCourse godoc
// @Summary Course reviews with average rating
// @Tags Reviews
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/reviews [get]
func (h *ReviewHandler) ListCourse(c *gin.Context) {
	summary, err := h.service.ListCourseReviews(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// AddCourse godoc
// @Summary Review a course
// @Tags Reviews
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.ReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /courses/{id}/reviews [post]
func (h *ReviewHandler) AddCourse(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.ReviewRequest
	if !bindJSON(c, &req, "invalid review payload") {
		return
	}
	review, err := h.service.AddCourseReview(c.Request.Context(), actor.ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}
