package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vnvodich/tutor-api/internal/models"
)

const tutorSelect = `SELECT t.id, u.full_name, u.email, t.bio, t.qualifications, t.teaching_style, t.demo_video_url, t.stripe_account_id,
	ROUND(COALESCE(r.avg_rating, 0)::numeric, 1) AS average_rating, COALESCE(r.review_count, 0) AS review_count, t.created_at, t.updated_at`

const tutorFrom = `FROM tutors t
	JOIN users u ON u.id = t.id
	LEFT JOIN (SELECT tutor_id, AVG(rating) AS avg_rating, COUNT(*) AS review_count FROM tutor_reviews GROUP BY tutor_id) r ON r.tutor_id = t.id`

// TutorRepository reads and updates tutor profiles.
type TutorRepository struct {
	db *sqlx.DB
}

// NewTutorRepository constructs a TutorRepository.
func NewTutorRepository(db *sqlx.DB) *TutorRepository {
	return &TutorRepository{db: db}
}

// List returns active tutors matching the filter, best rated first.
func (r *TutorRepository) List(ctx context.Context, filter models.TutorFilter) ([]models.Tutor, int, error) {
	baseQuery := tutorFrom + ` WHERE u.active = TRUE`
	var conditions []string
	var args []interface{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(u.full_name) LIKE $%d OR EXISTS (SELECT 1 FROM courses c WHERE c.tutor_id = t.id AND LOWER(c.subject) LIKE $%d))", idx, idx))
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	if subject := strings.TrimSpace(filter.Subject); subject != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM courses c WHERE c.tutor_id = t.id AND LOWER(c.subject) = $%d)", len(args)+1))
		args = append(args, strings.ToLower(subject))
	}
	if filter.MinRating != nil {
		conditions = append(conditions, fmt.Sprintf("COALESCE(r.avg_rating, 0) >= $%d", len(args)+1))
		args = append(args, *filter.MinRating)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	_, pageSize, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("%s %s ORDER BY average_rating DESC, u.full_name ASC LIMIT %d OFFSET %d", tutorSelect, baseQuery, pageSize, offset)

	var tutors []models.Tutor
	if err := r.db.SelectContext(ctx, &tutors, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list tutors: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tutors: %w", err)
	}
	return tutors, total, nil
}

// FindByID returns a tutor profile with its rating aggregate.
func (r *TutorRepository) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	query := tutorSelect + " " + tutorFrom + ` WHERE t.id = $1`
	var tutor models.Tutor
	if err := r.db.GetContext(ctx, &tutor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find tutor: %w", err)
	}
	return &tutor, nil
}

// UpdateProfile stores the editable profile fields.
func (r *TutorRepository) UpdateProfile(ctx context.Context, tutor *models.Tutor) error {
	tutor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tutors SET bio = :bio, qualifications = :qualifications, teaching_style = :teaching_style, demo_video_url = :demo_video_url, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, tutor)
	if err != nil {
		return fmt.Errorf("update tutor profile: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStripeAccount links a connected payout account to the tutor.
func (r *TutorRepository) SetStripeAccount(ctx context.Context, tutorID, accountID string) error {
	const query = `UPDATE tutors SET stripe_account_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, tutorID, accountID, time.Now().UTC()); err != nil {
		return fmt.Errorf("set tutor stripe account: %w", err)
	}
	return nil
}
