package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/vnvodich/tutor-api/internal/models"
)

// ErrRefundAlreadyProcessed is returned when a decision targets a non-pending request.
var ErrRefundAlreadyProcessed = errors.New("refund request already processed")

const refundColumns = `id, user_id, subscription_id, order_id, amount, card_last4, reason, status, admin_note, processed_by, processed_at, provider_refund_id, created_at, updated_at`

// RefundRepository persists refund requests and their outcomes.
type RefundRepository struct {
	db *sqlx.DB
}

// NewRefundRepository constructs a RefundRepository.
func NewRefundRepository(db *sqlx.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

// Create inserts a refund request.
func (r *RefundRepository) Create(ctx context.Context, refund *models.RefundRequest) error {
	if refund.ID == "" {
		refund.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	refund.CreatedAt = now
	refund.UpdatedAt = now
	const query = `INSERT INTO refund_requests (id, user_id, subscription_id, order_id, amount, card_last4, reason, status, created_at, updated_at) VALUES (:id, :user_id, :subscription_id, :order_id, :amount, :card_last4, :reason, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, refund); err != nil {
		return fmt.Errorf("create refund request: %w", err)
	}
	return nil
}

// FindByID returns a refund request.
func (r *RefundRepository) FindByID(ctx context.Context, id string) (*models.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refund_requests WHERE id = $1`
	var refund models.RefundRequest
	if err := r.db.GetContext(ctx, &refund, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find refund request: %w", err)
	}
	return &refund, nil
}

// List returns refund requests, newest first.
func (r *RefundRepository) List(ctx context.Context, filter models.RefundFilter) ([]models.RefundRequest, int, error) {
	baseQuery := `FROM refund_requests WHERE 1=1`
	var conditions []string
	var args []interface{}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	_, pageSize, offset := pageBounds(filter.Page, filter.PageSize)
	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", refundColumns, baseQuery, pageSize, offset)

	var refunds []models.RefundRequest
	if err := r.db.SelectContext(ctx, &refunds, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list refund requests: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+baseQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count refund requests: %w", err)
	}
	return refunds, total, nil
}

// ListIDsByStatus returns ids of requests in the given status, oldest first.
func (r *RefundRepository) ListIDsByStatus(ctx context.Context, status models.RefundStatus, limit int) ([]string, error) {
	const query = `SELECT id FROM refund_requests WHERE status = $1 ORDER BY created_at ASC LIMIT $2`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, status, limit); err != nil {
		return nil, fmt.Errorf("list refund ids by status: %w", err)
	}
	return ids, nil
}

// Decide records an admin decision on a pending request.
func (r *RefundRepository) Decide(ctx context.Context, id string, status models.RefundStatus, adminNote *string, adminID string, at time.Time) error {
	const query = `UPDATE refund_requests SET status = $2, admin_note = $3, processed_by = $4, processed_at = $5, updated_at = $5 WHERE id = $1 AND status = 'PENDING'`
	res, err := r.db.ExecContext(ctx, query, id, status, adminNote, adminID, at)
	if err != nil {
		return fmt.Errorf("decide refund request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decide refund request rows: %w", err)
	}
	if affected == 0 {
		return ErrRefundAlreadyProcessed
	}
	return nil
}

// Complete stores the provider outcome of an approved refund and queues the event.
// A REFUNDED payment status is applied to the linked subscription on success.
func (r *RefundRepository) Complete(ctx context.Context, id string, status models.RefundStatus, providerRefundID *string, evt *models.OutboxEvent) (err error) {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete refund: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const update = `UPDATE refund_requests SET status = $2, provider_refund_id = $3, updated_at = $4 WHERE id = $1 AND status = 'APPROVED' RETURNING subscription_id`
	var subscriptionID sql.NullString
	if err = tx.GetContext(ctx, &subscriptionID, update, id, status, providerRefundID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrRefundAlreadyProcessed
			return err
		}
		return fmt.Errorf("complete refund request: %w", err)
	}

	if status == models.RefundCompleted && subscriptionID.Valid {
		if _, err = tx.ExecContext(ctx, `UPDATE course_subscriptions SET payment_status = 'REFUNDED', updated_at = $2 WHERE id = $1`, subscriptionID.String, now); err != nil {
			return fmt.Errorf("mark subscription refunded: %w", err)
		}
	}

	if err = insertOutboxEvent(ctx, tx, evt); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit complete refund: %w", err)
	}
	return nil
}

// Statistics counts requests per status and sums completed amounts.
func (r *RefundRepository) Statistics(ctx context.Context) (*models.RefundStatistics, error) {
	const query = `SELECT
		COUNT(*) FILTER (WHERE status = 'PENDING') AS pending,
		COUNT(*) FILTER (WHERE status = 'APPROVED') AS approved,
		COUNT(*) FILTER (WHERE status = 'REJECTED') AS rejected,
		COUNT(*) FILTER (WHERE status = 'COMPLETED') AS completed,
		COUNT(*) FILTER (WHERE status = 'FAILED') AS failed,
		COALESCE(SUM(amount) FILTER (WHERE status = 'COMPLETED'), 0) AS total_refunded
		FROM refund_requests`
	var stats models.RefundStatistics
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("refund statistics: %w", err)
	}
	return &stats, nil
}
