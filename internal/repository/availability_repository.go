package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vnvodich/tutor-api/internal/models"
)

// AvailabilityRepository stores the weekly working windows of tutors.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// FindByTutor returns the availability header and its day rows. A tutor who
// never configured availability yields sql.ErrNoRows.
func (r *AvailabilityRepository) FindByTutor(ctx context.Context, tutorID string) (*models.Availability, []models.AvailabilityDay, error) {
	const headerQuery = `SELECT id, tutor_id, time_gap_minutes, created_at, updated_at FROM availabilities WHERE tutor_id = $1`
	var availability models.Availability
	if err := r.db.GetContext(ctx, &availability, headerQuery, tutorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("find availability: %w", err)
	}

	const daysQuery = `SELECT id, availability_id, day, to_char(start_time, 'HH24:MI') AS start_time, to_char(end_time, 'HH24:MI') AS end_time FROM availability_days WHERE availability_id = $1`
	var days []models.AvailabilityDay
	if err := r.db.SelectContext(ctx, &days, daysQuery, availability.ID); err != nil {
		return nil, nil, fmt.Errorf("list availability days: %w", err)
	}
	return &availability, days, nil
}

// Replace upserts the header and swaps every day row in one transaction.
func (r *AvailabilityRepository) Replace(ctx context.Context, tutorID string, timeGapMinutes int, days []models.AvailabilityDay) (availability *models.Availability, err error) {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin replace availability: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	availability = &models.Availability{}
	const upsert = `INSERT INTO availabilities (id, tutor_id, time_gap_minutes, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)
		ON CONFLICT (tutor_id) DO UPDATE SET time_gap_minutes = EXCLUDED.time_gap_minutes, updated_at = EXCLUDED.updated_at
		RETURNING id, tutor_id, time_gap_minutes, created_at, updated_at`
	if err = tx.GetContext(ctx, availability, upsert, uuid.NewString(), tutorID, timeGapMinutes, now); err != nil {
		return nil, fmt.Errorf("upsert availability: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM availability_days WHERE availability_id = $1`, availability.ID); err != nil {
		return nil, fmt.Errorf("clear availability days: %w", err)
	}

	const insertDay = `INSERT INTO availability_days (id, availability_id, day, start_time, end_time) VALUES (:id, :availability_id, :day, :start_time, :end_time)`
	for i := range days {
		days[i].AvailabilityID = availability.ID
		if days[i].ID == "" {
			days[i].ID = uuid.NewString()
		}
		if _, err = sqlx.NamedExecContext(ctx, tx, insertDay, &days[i]); err != nil {
			return nil, fmt.Errorf("insert availability day: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit replace availability: %w", err)
	}
	return availability, nil
}
