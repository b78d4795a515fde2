package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vnvodich/tutor-api/internal/models"
)

// ReviewRepository stores parent reviews of tutors and courses.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateTutorReview inserts a tutor review.
func (r *ReviewRepository) CreateTutorReview(ctx context.Context, review *models.TutorReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO tutor_reviews (id, tutor_id, parent_id, rating, content, created_at) VALUES (:id, :tutor_id, :parent_id, :rating, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create tutor review: %w", err)
	}
	return nil
}

// CreateCourseReview inserts a course review.
func (r *ReviewRepository) CreateCourseReview(ctx context.Context, review *models.CourseReview) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO course_reviews (id, course_id, parent_id, rating, content, created_at) VALUES (:id, :course_id, :parent_id, :rating, :content, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, review); err != nil {
		return fmt.Errorf("create course review: %w", err)
	}
	return nil
}

// ListTutorReviews returns a tutor's reviews, newest first.
func (r *ReviewRepository) ListTutorReviews(ctx context.Context, tutorID string) ([]models.TutorReview, error) {
	const query = `SELECT tr.id, tr.tutor_id, tr.parent_id, u.full_name AS parent_name, tr.rating, tr.content, tr.created_at
		FROM tutor_reviews tr JOIN users u ON u.id = tr.parent_id
		WHERE tr.tutor_id = $1 ORDER BY tr.created_at DESC`
	var reviews []models.TutorReview
	if err := r.db.SelectContext(ctx, &reviews, query, tutorID); err != nil {
		return nil, fmt.Errorf("list tutor reviews: %w", err)
	}
	return reviews, nil
}

// ListCourseReviews returns a course's reviews, newest first.
func (r *ReviewRepository) ListCourseReviews(ctx context.Context, courseID string) ([]models.CourseReview, error) {
	const query = `SELECT cr.id, cr.course_id, cr.parent_id, u.full_name AS parent_name, cr.rating, cr.content, cr.created_at
		FROM course_reviews cr JOIN users u ON u.id = cr.parent_id
		WHERE cr.course_id = $1 ORDER BY cr.created_at DESC`
	var reviews []models.CourseReview
	if err := r.db.SelectContext(ctx, &reviews, query, courseID); err != nil {
		return nil, fmt.Errorf("list course reviews: %w", err)
	}
	return reviews, nil
}

// TutorSummary aggregates a tutor's ratings rounded to one decimal.
func (r *ReviewRepository) TutorSummary(ctx context.Context, tutorID string) (models.RatingSummary, error) {
	const query = `SELECT ROUND(COALESCE(AVG(rating), 0)::numeric, 1) AS average_rating, COUNT(*) AS total_reviews FROM tutor_reviews WHERE tutor_id = $1`
	var summary models.RatingSummary
	if err := r.db.GetContext(ctx, &summary, query, tutorID); err != nil {
		return summary, fmt.Errorf("summarise tutor reviews: %w", err)
	}
	return summary, nil
}

// CourseSummary aggregates a course's ratings rounded to one decimal.
func (r *ReviewRepository) CourseSummary(ctx context.Context, courseID string) (models.RatingSummary, error) {
	const query = `SELECT ROUND(COALESCE(AVG(rating), 0)::numeric, 1) AS average_rating, COUNT(*) AS total_reviews FROM course_reviews WHERE course_id = $1`
	var summary models.RatingSummary
	if err := r.db.GetContext(ctx, &summary, query, courseID); err != nil {
		return summary, fmt.Errorf("summarise course reviews: %w", err)
	}
	return summary, nil
}
