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
	"github.com/vnvodich/tutor-api/internal/scheduling"
)

// ErrSessionStateChanged is returned when a session left NOT_YET between read and write.
var ErrSessionStateChanged = errors.New("teaching session is no longer pending")

const sessionColumns = `ts.id, ts.subscription_id, ts.tutor_id, ts.sequence, ts.lesson_title, ts.start_time, ts.end_time, ts.status, ts.meeting_url,
	ts.topics_covered, ts.homework_assigned, ts.rating, ts.teaching_quality, ts.comment, ts.created_at, ts.updated_at`

const sessionJoins = `FROM teaching_sessions ts
	JOIN course_subscriptions s ON s.id = ts.subscription_id
	JOIN courses c ON c.id = s.course_id
	JOIN children ch ON ch.id = s.child_id`

// SessionRepository reads and updates individual teaching sessions.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs a SessionRepository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// List returns sessions in chronological order for the given scope.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.TeachingSession, int, error) {
	baseQuery := sessionJoins + ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.ParentID != "" {
		conditions = append(conditions, fmt.Sprintf("s.parent_id = $%d", len(args)+1))
		args = append(args, filter.ParentID)
	}
	if filter.TutorID != "" {
		conditions = append(conditions, fmt.Sprintf("ts.tutor_id = $%d", len(args)+1))
		args = append(args, filter.TutorID)
	}
	if filter.SubscriptionID != "" {
		conditions = append(conditions, fmt.Sprintf("ts.subscription_id = $%d", len(args)+1))
		args = append(args, filter.SubscriptionID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("ts.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("ts.start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("ts.start_time < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	_, pageSize, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s, c.title AS course_title, ch.full_name AS child_name, s.parent_id %s ORDER BY ts.start_time ASC LIMIT %d OFFSET %d", sessionColumns, baseQuery, pageSize, offset)

	var sessions []models.TeachingSession
	if err := r.db.SelectContext(ctx, &sessions, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list teaching sessions: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teaching sessions: %w", err)
	}
	return sessions, total, nil
}

// FindByID returns a session with its owning parent.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.TeachingSession, error) {
	query := fmt.Sprintf("SELECT %s, c.title AS course_title, ch.full_name AS child_name, s.parent_id %s WHERE ts.id = $1", sessionColumns, sessionJoins)
	var session models.TeachingSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find teaching session: %w", err)
	}
	return &session, nil
}

// RecordOutcome stores the lesson report. When the session becomes COMPLETED
// the subscription counter is decremented in the same transaction and the
// subscription completes once it reaches zero.
func (r *SessionRepository) RecordOutcome(ctx context.Context, session *models.TeachingSession) (err error) {
	session.UpdatedAt = time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record session outcome: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE teaching_sessions SET status = :status, topics_covered = :topics_covered, homework_assigned = :homework_assigned, rating = :rating, teaching_quality = :teaching_quality, comment = :comment, updated_at = :updated_at WHERE id = :id AND status = 'NOT_YET'`
	res, err := sqlx.NamedExecContext(ctx, tx, update, session)
	if err != nil {
		return fmt.Errorf("update teaching session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update teaching session rows: %w", err)
	}
	if affected == 0 {
		err = ErrSessionStateChanged
		return err
	}

	if session.Status == models.SessionCompleted {
		const decrement = `UPDATE course_subscriptions SET sessions_remaining = GREATEST(sessions_remaining - 1, 0),
			status = CASE WHEN sessions_remaining - 1 <= 0 THEN 'COMPLETED' ELSE status END, updated_at = $2 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, decrement, session.SubscriptionID, session.UpdatedAt); err != nil {
			return fmt.Errorf("decrement sessions remaining: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit record session outcome: %w", err)
	}
	return nil
}

// Reschedule moves a pending session and queues the change event.
func (r *SessionRepository) Reschedule(ctx context.Context, id string, start, end time.Time, evt *models.OutboxEvent) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reschedule session: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE teaching_sessions SET start_time = $2, end_time = $3, updated_at = $4 WHERE id = $1 AND status = 'NOT_YET'`
	res, err := tx.ExecContext(ctx, update, id, start, end, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("reschedule teaching session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reschedule teaching session rows: %w", err)
	}
	if affected == 0 {
		err = ErrSessionStateChanged
		return err
	}

	if err = insertOutboxEvent(ctx, tx, evt); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reschedule session: %w", err)
	}
	return nil
}

type bookedRow struct {
	StartTime time.Time `db:"start_time"`
	EndTime   time.Time `db:"end_time"`
}

// BookedIntervals returns the tutor's non-cancelled sessions touching [from, to).
// excludeID leaves one session out, which rescheduling uses for itself.
func (r *SessionRepository) BookedIntervals(ctx context.Context, tutorID string, from, to time.Time, excludeID string) ([]scheduling.Interval, error) {
	query := `SELECT start_time, end_time FROM teaching_sessions WHERE tutor_id = $1 AND status <> 'CANCELLED' AND start_time < $3 AND end_time > $2`
	args := []interface{}{tutorID, from, to}
	if excludeID != "" {
		query += ` AND id <> $4`
		args = append(args, excludeID)
	}
	query += ` ORDER BY start_time ASC`

	var rows []bookedRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list booked intervals: %w", err)
	}
	intervals := make([]scheduling.Interval, 0, len(rows))
	for _, row := range rows {
		intervals = append(intervals, scheduling.Interval{Start: row.StartTime, End: row.EndTime})
	}
	return intervals, nil
}
