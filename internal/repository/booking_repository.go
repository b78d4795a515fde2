package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/vnvodich/tutor-api/internal/models"
)

// BookingRepository persists course subscriptions together with their sessions.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create writes the subscription, its schedule templates, every session and
// the outbox event in a single transaction. A session colliding with another
// booking of the same tutor fails on uq_teaching_sessions_tutor_start.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking, evt *models.OutboxEvent) (err error) {
	now := time.Now().UTC()
	sub := &booking.CourseSubscription
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now
	if evt != nil && evt.AggregateID == "" {
		evt.AggregateID = sub.ID
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create booking: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertSubscription = `INSERT INTO course_subscriptions (id, course_id, child_id, parent_id, status, payment_status, price, sessions_remaining, transaction_id, meeting_url, created_at, updated_at) VALUES (:id, :course_id, :child_id, :parent_id, :status, :payment_status, :price, :sessions_remaining, :transaction_id, :meeting_url, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, tx, insertSubscription, sub); err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}

	const insertSchedule = `INSERT INTO subscription_schedules (id, subscription_id, start_time, end_time) VALUES (:id, :subscription_id, :start_time, :end_time)`
	for i := range booking.Schedules {
		schedule := &booking.Schedules[i]
		if schedule.ID == "" {
			schedule.ID = uuid.NewString()
		}
		schedule.SubscriptionID = sub.ID
		if _, err = sqlx.NamedExecContext(ctx, tx, insertSchedule, schedule); err != nil {
			return fmt.Errorf("insert subscription schedule: %w", err)
		}
	}

	const insertSession = `INSERT INTO teaching_sessions (id, subscription_id, tutor_id, sequence, lesson_title, start_time, end_time, status, meeting_url, created_at, updated_at) VALUES (:id, :subscription_id, :tutor_id, :sequence, :lesson_title, :start_time, :end_time, :status, :meeting_url, :created_at, :updated_at)`
	for i := range booking.Sessions {
		session := &booking.Sessions[i]
		if session.ID == "" {
			session.ID = uuid.NewString()
		}
		session.SubscriptionID = sub.ID
		session.CreatedAt = now
		session.UpdatedAt = now
		if _, err = sqlx.NamedExecContext(ctx, tx, insertSession, session); err != nil {
			return fmt.Errorf("insert teaching session: %w", err)
		}
	}

	if err = insertOutboxEvent(ctx, tx, evt); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create booking: %w", err)
	}
	return nil
}

// ListByParent returns a parent's subscriptions, newest first.
func (r *BookingRepository) ListByParent(ctx context.Context, parentID string) ([]models.CourseSubscription, error) {
	const query = `SELECT s.id, s.course_id, s.child_id, s.parent_id, s.status, s.payment_status, s.price, s.sessions_remaining, s.transaction_id, s.meeting_url,
		c.title AS course_title, ch.full_name AS child_name, c.tutor_id, s.created_at, s.updated_at
		FROM course_subscriptions s
		JOIN courses c ON c.id = s.course_id
		JOIN children ch ON ch.id = s.child_id
		WHERE s.parent_id = $1
		ORDER BY s.created_at DESC`
	var subs []models.CourseSubscription
	if err := r.db.SelectContext(ctx, &subs, query, parentID); err != nil {
		return nil, fmt.Errorf("list parent subscriptions: %w", err)
	}
	return subs, nil
}

// ListSessions returns sessions of the given subscriptions ordered by sequence.
func (r *BookingRepository) ListSessions(ctx context.Context, subscriptionIDs []string) ([]models.TeachingSession, error) {
	if len(subscriptionIDs) == 0 {
		return nil, nil
	}
	query := `SELECT ` + sessionColumns + ` FROM teaching_sessions ts WHERE ts.subscription_id = ANY($1) ORDER BY ts.subscription_id, ts.sequence`
	var sessions []models.TeachingSession
	if err := r.db.SelectContext(ctx, &sessions, query, pq.Array(subscriptionIDs)); err != nil {
		return nil, fmt.Errorf("list subscription sessions: %w", err)
	}
	return sessions, nil
}

// ParentHasCourse reports whether the parent holds a subscription to the course.
func (r *BookingRepository) ParentHasCourse(ctx context.Context, parentID, courseID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM course_subscriptions WHERE parent_id = $1 AND course_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, parentID, courseID); err != nil {
		return false, fmt.Errorf("check parent course subscription: %w", err)
	}
	return exists, nil
}

// ParentHasTutor reports whether the parent holds a subscription to any course of the tutor.
func (r *BookingRepository) ParentHasTutor(ctx context.Context, parentID, tutorID string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM course_subscriptions s JOIN courses c ON c.id = s.course_id WHERE s.parent_id = $1 AND c.tutor_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, parentID, tutorID); err != nil {
		return false, fmt.Errorf("check parent tutor subscription: %w", err)
	}
	return exists, nil
}
