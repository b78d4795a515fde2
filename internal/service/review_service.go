package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
)

type reviewRepository interface {
	CreateTutorReview(ctx context.Context, review *models.TutorReview) error
	CreateCourseReview(ctx context.Context, review *models.CourseReview) error
	ListTutorReviews(ctx context.Context, tutorID string) ([]models.TutorReview, error)
	ListCourseReviews(ctx context.Context, courseID string) ([]models.CourseReview, error)
	TutorSummary(ctx context.Context, tutorID string) (models.RatingSummary, error)
	CourseSummary(ctx context.Context, courseID string) (models.RatingSummary, error)
}

type enrolmentChecker interface {
	ParentHasTutor(ctx context.Context, parentID, tutorID string) (bool, error)
	ParentHasCourse(ctx context.Context, parentID, courseID string) (bool, error)
}

type tutorFinder interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
}

// ReviewRequest is a parent's rating with optional text.
type ReviewRequest struct {
	Rating  int     `json:"rating" validate:"required,min=1,max=5"`
	Content *string `json:"content" validate:"omitempty,max=2000"`
}

// ReviewService collects ratings from parents who booked the tutor or course.
type ReviewService struct {
	repo      reviewRepository
	enrolment enrolmentChecker
	tutors    tutorFinder
	courses   courseFinder
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReviewService constructs a ReviewService.
func NewReviewService(repo reviewRepository, enrolment enrolmentChecker, tutors tutorFinder, courses courseFinder, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{repo: repo, enrolment: enrolment, tutors: tutors, courses: courses, cache: cache, validator: validate, logger: logger}
}

// AddTutorReview rates a tutor the parent has booked.
func (s *ReviewService) AddTutorReview(ctx context.Context, parentID, tutorID string, req ReviewRequest) (*models.TutorReview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be between 1 and 5")
	}
	if _, err := s.loadTutor(ctx, tutorID); err != nil {
		return nil, err
	}
	ok, err := s.enrolment.ParentHasTutor(ctx, parentID, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrolment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents who booked this tutor can review")
	}

	review := &models.TutorReview{TutorID: tutorID, ParentID: parentID, Rating: req.Rating, Content: trimOptional(req.Content)}
	if err := s.repo.CreateTutorReview(ctx, review); err != nil {
		return nil, mapReviewWriteError(err)
	}
	s.cache.Invalidate(ctx, repository.TutorListPattern())
	s.logger.Info("tutor review added", zap.String("tutor_id", tutorID), zap.Int("rating", req.Rating))
	return review, nil
}

// AddCourseReview rates a course the parent has booked.
func (s *ReviewService) AddCourseReview(ctx context.Context, parentID, courseID string, req ReviewRequest) (*models.CourseReview, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "rating must be between 1 and 5")
	}
	if _, err := s.loadCourse(ctx, courseID); err != nil {
		return nil, err
	}
	ok, err := s.enrolment.ParentHasCourse(ctx, parentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrolment")
	}
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only parents who booked this course can review")
	}

	review := &models.CourseReview{CourseID: courseID, ParentID: parentID, Rating: req.Rating, Content: trimOptional(req.Content)}
	if err := s.repo.CreateCourseReview(ctx, review); err != nil {
		return nil, mapReviewWriteError(err)
	}
	s.logger.Info("course review added", zap.String("course_id", courseID), zap.Int("rating", req.Rating))
	return review, nil
}

// ListTutorReviews returns a tutor's reviews with the rating summary.
func (s *ReviewService) ListTutorReviews(ctx context.Context, tutorID string) (*models.TutorReviewSummary, error) {
	tutor, err := s.loadTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListTutorReviews(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	summary, err := s.repo.TutorSummary(ctx, tutorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise reviews")
	}
	if reviews == nil {
		reviews = []models.TutorReview{}
	}
	return &models.TutorReviewSummary{TutorID: tutor.ID, TutorName: tutor.FullName, RatingSummary: summary, Reviews: reviews}, nil
}

// ListCourseReviews returns a course's reviews with the rating summary.
func (s *ReviewService) ListCourseReviews(ctx context.Context, courseID string) (*models.CourseReviewSummary, error) {
	course, err := s.loadCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	reviews, err := s.repo.ListCourseReviews(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	summary, err := s.repo.CourseSummary(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to summarise reviews")
	}
	if reviews == nil {
		reviews = []models.CourseReview{}
	}
	return &models.CourseReviewSummary{CourseID: course.ID, CourseTitle: course.Title, RatingSummary: summary, Reviews: reviews}, nil
}

func (s *ReviewService) loadTutor(ctx context.Context, tutorID string) (*models.Tutor, error) {
	tutor, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return tutor, nil
}

func (s *ReviewService) loadCourse(ctx context.Context, courseID string) (*models.Course, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

func mapReviewWriteError(err error) error {
	if repository.IsCheckViolation(err) {
		return appErrors.Clone(appErrors.ErrValidation, "rating must be between 1 and 5")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save review")
}
