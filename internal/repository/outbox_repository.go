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

// OutboxRepository reads pending domain events for publication.
type OutboxRepository struct {
	db *sqlx.DB
}

// NewOutboxRepository constructs an OutboxRepository.
func NewOutboxRepository(db *sqlx.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// PublishBatch locks up to limit unpublished events, hands them to publish and
// marks them published when publish succeeds. Rows locked by another instance
// are skipped. It returns the number of events published.
func (r *OutboxRepository) PublishBatch(ctx context.Context, limit int, publish func([]models.OutboxEvent) error) (count int, err error) {
	if limit <= 0 {
		limit = 50
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox batch: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const selectQuery = `SELECT id, event_id, event_type, aggregate_id, payload, traceparent, created_at, published_at FROM outbox_events WHERE published_at IS NULL ORDER BY id ASC LIMIT $1 FOR UPDATE SKIP LOCKED`
	var events []models.OutboxEvent
	if err = tx.SelectContext(ctx, &events, selectQuery, limit); err != nil {
		return 0, fmt.Errorf("fetch unpublished events: %w", err)
	}
	if len(events) == 0 {
		err = tx.Commit()
		return 0, err
	}

	if err = publish(events); err != nil {
		return 0, err
	}

	ids := make([]int64, 0, len(events))
	for _, evt := range events {
		ids = append(ids, evt.ID)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE outbox_events SET published_at = $2 WHERE id = ANY($1)`, pq.Array(ids), time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("mark events published: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox batch: %w", err)
	}
	return len(events), nil
}

func insertOutboxEvent(ctx context.Context, exec sqlx.ExtContext, evt *models.OutboxEvent) error {
	if evt == nil {
		return nil
	}
	if evt.EventID == "" {
		evt.EventID = uuid.NewString()
	}
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO outbox_events (event_id, event_type, aggregate_id, payload, traceparent, created_at) VALUES (:event_id, :event_type, :aggregate_id, :payload, :traceparent, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, evt); err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
