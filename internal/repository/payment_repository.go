package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/vnvodich/tutor-api/internal/models"
)

// PaymentRepository records provider webhooks and applies payment state.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs a PaymentRepository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// ApplyEvent stores the webhook and, when status is set, updates every
// subscription paid through transactionID. Both happen in one transaction.
// It returns false without touching subscriptions when the event was seen before.
func (r *PaymentRepository) ApplyEvent(ctx context.Context, evt *models.PaymentEvent, transactionID string, status *models.PaymentStatus) (applied bool, err error) {
	if evt.ReceivedAt.IsZero() {
		evt.ReceivedAt = time.Now().UTC()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin apply payment event: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insert = `INSERT INTO payment_events (provider_event_id, event_type, payload, received_at) VALUES (:provider_event_id, :event_type, :payload, :received_at) ON CONFLICT (provider_event_id) DO NOTHING`
	res, err := sqlx.NamedExecContext(ctx, tx, insert, evt)
	if err != nil {
		return false, fmt.Errorf("insert payment event: %w", err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert payment event rows: %w", err)
	}
	if inserted == 0 {
		err = tx.Commit()
		return false, err
	}

	if status != nil && transactionID != "" {
		const update = `UPDATE course_subscriptions SET payment_status = $2, updated_at = $3 WHERE transaction_id = $1`
		if _, err = tx.ExecContext(ctx, update, transactionID, *status, evt.ReceivedAt); err != nil {
			return false, fmt.Errorf("update subscription payment status: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit apply payment event: %w", err)
	}
	return true, nil
}
