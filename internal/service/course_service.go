package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error)
	FindLesson(ctx context.Context, courseID, lessonID string) (*models.Lesson, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	HasSubscriptions(ctx context.Context, courseID string) (bool, error)
	Delete(ctx context.Context, id string) error
	AddLesson(ctx context.Context, lesson *models.Lesson) error
	UpdateLesson(ctx context.Context, lesson *models.Lesson) error
	DeleteLesson(ctx context.Context, courseID, lessonID string) error
}

// CreateCourseRequest opens a new draft course.
type CreateCourseRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description *string `json:"description"`
	Subject     string  `json:"subject" validate:"required,max=100"`
	Grade       *string `json:"grade" validate:"omitempty,max=50"`
	Price       float64 `json:"price" validate:"gte=0"`
	ImageURL    *string `json:"image_url" validate:"omitempty,url"`
}

// UpdateCourseRequest patches a course; nil fields are left unchanged.
type UpdateCourseRequest struct {
	Title       *string              `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string              `json:"description"`
	Subject     *string              `json:"subject" validate:"omitempty,min=1,max=100"`
	Grade       *string              `json:"grade" validate:"omitempty,max=50"`
	Price       *float64             `json:"price" validate:"omitempty,gte=0"`
	Status      *models.CourseStatus `json:"status" validate:"omitempty,oneof=DRAFT PUBLISHED ARCHIVED"`
	ImageURL    *string              `json:"image_url" validate:"omitempty,url"`
}

// LessonRequest is the create and update payload for a lesson.
type LessonRequest struct {
	Title              string  `json:"title" validate:"required,max=200"`
	Description        *string `json:"description"`
	LearningObjectives *string `json:"learning_objectives"`
	MaterialsNeeded    *string `json:"materials_needed"`
}

// CourseService manages the course catalogue and its lessons.
type CourseService struct {
	repo      courseRepository
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs a CourseService.
func NewCourseService(repo courseRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, cache: cache, validator: validate, logger: logger}
}

// List returns courses matching the filter.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "min_price must not exceed max_price")
	}
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	return courses, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a course with its lessons in order.
func (s *CourseService) Get(ctx context.Context, id string) (*models.CourseDetail, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListLessons(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return &models.CourseDetail{Course: *course, Lessons: lessons}, nil
}

// CreateDraft opens a DRAFT course owned by the tutor.
func (s *CourseService) CreateDraft(ctx context.Context, tutorID string, req CreateCourseRequest) (*models.Course, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Subject = strings.TrimSpace(req.Subject)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course := &models.Course{
		TutorID:      tutorID,
		Title:        req.Title,
		Description:  trimOptional(req.Description),
		Subject:      req.Subject,
		Grade:        trimOptional(req.Grade),
		Price:        req.Price,
		TotalLessons: 0,
		Status:       models.CourseStatusDraft,
		ImageURL:     trimOptional(req.ImageURL),
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create course")
	}
	s.cache.Invalidate(ctx, repository.TutorListPattern())
	return course, nil
}

// Update edits an owned course. Publishing needs MinLessonsToPublish lessons.
func (s *CourseService) Update(ctx context.Context, actor Actor, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.owned(ctx, actor, id, false)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		course.Title = strings.TrimSpace(*req.Title)
	}
	if req.Subject != nil {
		course.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Description != nil {
		course.Description = trimOptional(req.Description)
	}
	if req.Grade != nil {
		course.Grade = trimOptional(req.Grade)
	}
	if req.Price != nil {
		course.Price = *req.Price
	}
	if req.ImageURL != nil {
		course.ImageURL = trimOptional(req.ImageURL)
	}
	if req.Status != nil && *req.Status != course.Status {
		if *req.Status == models.CourseStatusPublished && course.TotalLessons < models.MinLessonsToPublish {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed,
				fmt.Sprintf("course needs at least %d lessons to publish, has %d", models.MinLessonsToPublish, course.TotalLessons))
		}
		course.Status = *req.Status
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	s.cache.Invalidate(ctx, repository.TutorListPattern(), repository.TutorCourseAvailabilityKey(course.TutorID, course.ID))
	return course, nil
}

// Delete removes a course nobody has subscribed to.
func (s *CourseService) Delete(ctx context.Context, actor Actor, id string) error {
	course, err := s.owned(ctx, actor, id, true)
	if err != nil {
		return err
	}
	subscribed, err := s.repo.HasSubscriptions(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check subscriptions")
	}
	if subscribed {
		return appErrors.Clone(appErrors.ErrConflict, "course has subscriptions")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return appErrors.Clone(appErrors.ErrConflict, "course has subscriptions")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete course")
	}
	s.cache.Invalidate(ctx, repository.TutorListPattern(), repository.TutorCourseAvailabilityKey(course.TutorID, course.ID))
	return nil
}

// AddLesson appends a lesson to an owned course.
func (s *CourseService) AddLesson(ctx context.Context, actor Actor, courseID string, req LessonRequest) (*models.Lesson, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if _, err := s.owned(ctx, actor, courseID, false); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		CourseID:           courseID,
		Title:              req.Title,
		Description:        trimOptional(req.Description),
		LearningObjectives: trimOptional(req.LearningObjectives),
		MaterialsNeeded:    trimOptional(req.MaterialsNeeded),
	}
	if err := s.repo.AddLesson(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add lesson")
	}
	return lesson, nil
}

// UpdateLesson edits a lesson of an owned course.
func (s *CourseService) UpdateLesson(ctx context.Context, actor Actor, courseID, lessonID string, req LessonRequest) (*models.Lesson, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if _, err := s.owned(ctx, actor, courseID, false); err != nil {
		return nil, err
	}

	lesson, err := s.repo.FindLesson(ctx, courseID, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lesson")
	}
	lesson.Title = req.Title
	lesson.Description = trimOptional(req.Description)
	lesson.LearningObjectives = trimOptional(req.LearningObjectives)
	lesson.MaterialsNeeded = trimOptional(req.MaterialsNeeded)

	if err := s.repo.UpdateLesson(ctx, lesson); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update lesson")
	}
	return lesson, nil
}

// DeleteLesson removes a lesson and renumbers the rest.
func (s *CourseService) DeleteLesson(ctx context.Context, actor Actor, courseID, lessonID string) error {
	if _, err := s.owned(ctx, actor, courseID, false); err != nil {
		return err
	}
	if err := s.repo.DeleteLesson(ctx, courseID, lessonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete lesson")
	}
	return nil
}

func (s *CourseService) load(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func (s *CourseService) owned(ctx context.Context, actor Actor, id string, adminAllowed bool) (*models.Course, error) {
	course, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if course.TutorID == actor.ID || (adminAllowed && actor.IsAdmin()) {
		return course, nil
	}
	return nil, appErrors.Clone(appErrors.ErrForbidden, "course belongs to another tutor")
}
