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

type courseService interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.CourseDetail, error)
	CreateDraft(ctx context.Context, tutorID string, req service.CreateCourseRequest) (*models.Course, error)
	Update(ctx context.Context, actor service.Actor, id string, req service.UpdateCourseRequest) (*models.Course, error)
	Delete(ctx context.Context, actor service.Actor, id string) error
	AddLesson(ctx context.Context, actor service.Actor, courseID string, req service.LessonRequest) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, actor service.Actor, courseID, lessonID string, req service.LessonRequest) (*models.Lesson, error)
	DeleteLesson(ctx context.Context, actor service.Actor, courseID, lessonID string) error
}

// CourseHandler wires the course catalogue and lesson management.
type CourseHandler struct {
	service courseService
}

// NewCourseHandler constructs a CourseHandler.
func NewCourseHandler(svc courseService) *CourseHandler {
	return &CourseHandler{service: svc}
}

// List godoc
// @Summary List courses
// @Tags Courses
// @Produce json
// @Param tutor_id query string false "Tutor ID"
// @Param subject query string false "Subject"
// @Param grade query string false "Grade"
// @Param status query string false "DRAFT, PUBLISHED or ARCHIVED"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param search query string false "Title search"
// @Param sort query string false "Sort field (title,price,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CourseHandler) List(c *gin.Context) {
	filter := models.CourseFilter{
		TutorID:   strings.TrimSpace(c.Query("tutor_id")),
		Subject:   strings.TrimSpace(c.Query("subject")),
		Grade:     strings.TrimSpace(c.Query("grade")),
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if status := strings.ToUpper(strings.TrimSpace(c.Query("status"))); status != "" {
		s := models.CourseStatus(status)
		filter.Status = &s
	}
	var err error
	if filter.MinPrice, err = optionalFloat(c, "min_price"); err != nil {
		response.Error(c, err)
		return
	}
	if filter.MaxPrice, err = optionalFloat(c, "max_price"); err != nil {
		response.Error(c, err)
		return
	}
	filter.Page, filter.PageSize = pageParams(c)

	courses, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Course detail with lessons
// @Tags Courses
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /courses/{id} [get]
func (h *CourseHandler) Get(c *gin.Context) {
	course, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Create a draft course
// @Tags Courses
// @Accept json
// @Produce json
// @Param payload body service.CreateCourseRequest true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /courses [post]
func (h *CourseHandler) Create(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.CreateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.CreateDraft(c.Request.Context(), actor.ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Update course
// @Description Publishing requires at least five lessons.
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.UpdateCourseRequest true "Course payload"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /courses/{id} [put]
func (h *CourseHandler) Update(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.UpdateCourseRequest
	if !bindJSON(c, &req, "invalid course payload") {
		return
	}
	course, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete course
// @Tags Courses
// @Param id path string true "Course ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /courses/{id} [delete]
func (h *CourseHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddLesson godoc
// @Summary Append a lesson
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param payload body service.LessonRequest true "Lesson payload"
// @Success 201 {object} response.Envelope
// @Router /courses/{id}/lessons [post]
func (h *CourseHandler) AddLesson(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.AddLesson(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lesson)
}

// UpdateLesson godoc
// @Summary Update a lesson
// @Tags Courses
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Param payload body service.LessonRequest true "Lesson payload"
// @Success 200 {object} response.Envelope
// @Router /courses/{id}/lessons/{lessonId} [put]
func (h *CourseHandler) UpdateLesson(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	var req service.LessonRequest
	if !bindJSON(c, &req, "invalid lesson payload") {
		return
	}
	lesson, err := h.service.UpdateLesson(c.Request.Context(), actor, c.Param("id"), c.Param("lessonId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags Courses
// @Param id path string true "Course ID"
// @Param lessonId path string true "Lesson ID"
// @Success 204
// @Router /courses/{id}/lessons/{lessonId} [delete]
func (h *CourseHandler) DeleteLesson(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		return
	}
	if err := h.service.DeleteLesson(c.Request.Context(), actor, c.Param("id"), c.Param("lessonId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
