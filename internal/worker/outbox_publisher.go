package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/pkg/events"
)

type outboxStore interface {
	PublishBatch(ctx context.Context, limit int, publish func([]models.OutboxEvent) error) (int, error)
}

// EventPublisher writes messages to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, msgs ...events.Message) error
}

type publishRecorder interface {
	RecordOutboxPublished(n int)
}

// OutboxConfig tunes the polling loop.
type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

// OutboxPublisher relays committed outbox rows to the event broker.
type OutboxPublisher struct {
	store     outboxStore
	publisher EventPublisher
	metrics   publishRecorder
	logger    *zap.Logger
	interval  time.Duration
	batchSize int
}

// NewOutboxPublisher constructs an OutboxPublisher. A nil publisher disables it.
func NewOutboxPublisher(store outboxStore, publisher EventPublisher, metrics publishRecorder, cfg OutboxConfig, logger *zap.Logger) *OutboxPublisher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OutboxPublisher{
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
		interval:  cfg.PollInterval,
		batchSize: cfg.BatchSize,
	}
}

// Run polls until ctx is cancelled. Each tick drains full batches before waiting again.
func (p *OutboxPublisher) Run(ctx context.Context) {
	if p.publisher == nil {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("outbox publisher started", zap.Duration("interval", p.interval), zap.Int("batch_size", p.batchSize))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("outbox publisher stopped")
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

func (p *OutboxPublisher) drain(ctx context.Context) {
	for ctx.Err() == nil {
		n, err := p.PublishOnce(ctx)
		if err != nil {
			p.logger.Error("outbox publish failed", zap.Error(err))
			return
		}
		if n < p.batchSize {
			return
		}
	}
}

// PublishOnce relays a single batch and reports how many events were sent.
func (p *OutboxPublisher) PublishOnce(ctx context.Context) (int, error) {
	n, err := p.store.PublishBatch(ctx, p.batchSize, func(batch []models.OutboxEvent) error {
		msgs := make([]events.Message, 0, len(batch))
		for _, evt := range batch {
			msg := events.Message{
				EventID:     evt.EventID,
				EventType:   evt.EventType,
				AggregateID: evt.AggregateID,
				Payload:     evt.Payload,
			}
			if evt.Traceparent != nil {
				msg.Traceparent = *evt.Traceparent
			}
			msgs = append(msgs, msg)
		}
		return p.publisher.Publish(ctx, msgs...)
	})
	if err != nil {
		return 0, err
	}
	if n > 0 {
		if p.metrics != nil {
			p.metrics.RecordOutboxPublished(n)
		}
		p.logger.Debug("outbox events published", zap.Int("count", n))
	}
	return n, nil
}
