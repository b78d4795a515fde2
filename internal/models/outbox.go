package models

import "time"

// Outbox event types, also used as Kafka topics.
const (
	EventBookingCreated     = "booking.created"
	EventSessionRescheduled = "session.rescheduled"
	EventRefundProcessed    = "refund.processed"
)

// OutboxEvent is a domain event awaiting publication.
type OutboxEvent struct {
	ID          int64      `db:"id" json:"id"`
	EventID     string     `db:"event_id" json:"event_id"`
	EventType   string     `db:"event_type" json:"event_type"`
	AggregateID string     `db:"aggregate_id" json:"aggregate_id"`
	Payload     []byte     `db:"payload" json:"payload"`
	Traceparent *string    `db:"traceparent" json:"traceparent,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	PublishedAt *time.Time `db:"published_at" json:"published_at,omitempty"`
}
