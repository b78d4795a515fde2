package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type tutorRepository interface {
	List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, int, error)
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	UpdateProfile(ctx context.Context, tutor *models.Tutor) error
}

type tutorCourseReader interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
}

type tutorReviewReader interface {
	ListTutorReviews(ctx context.Context, tutorID string) ([]models.TutorReview, error)
}

// UpdateTutorProfileRequest carries the editable tutor profile.
type UpdateTutorProfileRequest struct {
	Bio            *string `json:"bio" validate:"omitempty,max=4000"`
	Qualifications *string `json:"qualifications" validate:"omitempty,max=2000"`
	TeachingStyle  *string `json:"teaching_style" validate:"omitempty,max=2000"`
	DemoVideoURL   *string `json:"demo_video_url" validate:"omitempty,url"`
}

type tutorListPage struct {
	Tutors     []models.Tutor     `json:"tutors"`
	Pagination *models.Pagination `json:"pagination"`
}

// TutorService serves the public tutor directory and tutor self-service.
type TutorService struct {
	repo      tutorRepository
	courses   tutorCourseReader
	reviews   tutorReviewReader
	cache     *CacheService
	listTTL   time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTutorService constructs a TutorService.
func NewTutorService(repo tutorRepository, courses tutorCourseReader, reviews tutorReviewReader, cache *CacheService, listTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *TutorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TutorService{repo: repo, courses: courses, reviews: reviews, cache: cache, listTTL: listTTL, validator: validate, logger: logger}
}

// List returns tutors matching the filter. The second return reports a cache hit.
func (s *TutorService) List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, *models.Pagination, bool, error) {
	key := repository.TutorListCacheKey(tutorFilterFingerprint(filter))

	var cached tutorListPage
	if s.cache.Get(ctx, key, &cached) {
		return cached.Tutors, cached.Pagination, true, nil
	}

	tutors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tutors")
	}
	if tutors == nil {
		tutors = []models.Tutor{}
	}
	pagination := models.NewPagination(filter.Page, filter.PageSize, total)
	s.cache.Set(ctx, key, tutorListPage{Tutors: tutors, Pagination: pagination}, s.listTTL)
	return tutors, pagination, false, nil
}

// Get returns a tutor profile with published courses and reviews.
func (s *TutorService) Get(ctx context.Context, id string) (*models.TutorDetail, error) {
	tutor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	published := models.CourseStatusPublished
	courses, _, err := s.courses.List(ctx, models.CourseFilter{TutorID: id, Status: &published, PageSize: 100})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor courses")
	}
	reviews, err := s.reviews.ListTutorReviews(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor reviews")
	}
	if courses == nil {
		courses = []models.Course{}
	}
	if reviews == nil {
		reviews = []models.TutorReview{}
	}
	return &models.TutorDetail{Tutor: *tutor, Courses: courses, Reviews: reviews}, nil
}

// UpdateProfile lets a tutor edit their own profile.
func (s *TutorService) UpdateProfile(ctx context.Context, tutorID string, req UpdateTutorProfileRequest) (*models.Tutor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid tutor profile payload")
	}

	tutor, err := s.repo.FindByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	tutor.Bio = trimOptional(req.Bio)
	tutor.Qualifications = trimOptional(req.Qualifications)
	tutor.TeachingStyle = trimOptional(req.TeachingStyle)
	tutor.DemoVideoURL = trimOptional(req.DemoVideoURL)

	if err := s.repo.UpdateProfile(ctx, tutor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update tutor profile")
	}

	s.cache.Invalidate(ctx, repository.TutorListPattern())
	return tutor, nil
}

func tutorFilterFingerprint(filter models.TutorFilter) string {
	pagination := models.NewPagination(filter.Page, filter.PageSize, 0)
	minRating := "-"
	if filter.MinRating != nil {
		minRating = fmt.Sprintf("%.1f", *filter.MinRating)
	}
	return fmt.Sprintf("q=%s|subject=%s|min=%s|p=%d|n=%d",
		strings.ToLower(strings.TrimSpace(filter.Search)),
		strings.ToLower(strings.TrimSpace(filter.Subject)),
		minRating, pagination.Page, pagination.PageSize)
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
