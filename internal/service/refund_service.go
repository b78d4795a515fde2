package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/internal/repository"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/jobs"
	"github.com/vnvodich/tutor-api/pkg/payment"
)

const (
	refundJobType      = "refund.execute"
	refundSweepBatch   = 100
	defaultRefundSweep = time.Minute
)

type refundRepository interface {
	Create(ctx context.Context, refund *models.RefundRequest) error
	FindByID(ctx context.Context, id string) (*models.RefundRequest, error)
	List(ctx context.Context, filter models.RefundFilter) ([]models.RefundRequest, int, error)
	ListIDsByStatus(ctx context.Context, status models.RefundStatus, limit int) ([]string, error)
	Decide(ctx context.Context, id string, status models.RefundStatus, adminNote *string, adminID string, at time.Time) error
	Complete(ctx context.Context, id string, status models.RefundStatus, providerRefundID *string, evt *models.OutboxEvent) error
	Statistics(ctx context.Context) (*models.RefundStatistics, error)
}

type refundProvider interface {
	Refund(ctx context.Context, paymentIntentID string, amountCents int64, idempotencyKey string) (*payment.Refund, error)
}

type refundQueue interface {
	Enqueue(job jobs.Job[string]) error
}

// CreateRefundRequest asks for a card payment to be returned.
type CreateRefundRequest struct {
	SubscriptionID *string `json:"subscription_id" validate:"omitempty,uuid"`
	OrderID        string  `json:"order_id" validate:"required,max=255"`
	Amount         float64 `json:"amount" validate:"required,gt=0"`
	CardNumber     string  `json:"card_number" validate:"omitempty,min=4,max=32"`
	Reason         string  `json:"reason" validate:"required,max=2000"`
}

// ProcessRefundRequest is an admin decision on a pending refund.
type ProcessRefundRequest struct {
	Status    models.RefundStatus `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	AdminNote *string             `json:"admin_note" validate:"omitempty,max=2000"`
}

// RefundJobConfig tunes the background refund executor. SweepInterval is how
// often APPROVED requests that are not queued get picked up again.
type RefundJobConfig struct {
	Workers       int
	MaxRetries    int
	RetryDelay    time.Duration
	SweepInterval time.Duration
}

type refundProcessedPayload struct {
	RefundID         string              `json:"refund_id"`
	OrderID          string              `json:"order_id"`
	SubscriptionID   *string             `json:"subscription_id,omitempty"`
	Amount           float64             `json:"amount"`
	Status           models.RefundStatus `json:"status"`
	ProviderRefundID *string             `json:"provider_refund_id,omitempty"`
}

// RefundService runs the refund request queue: parents file, admins decide
// and approved requests are paid back by a background worker.
type RefundService struct {
	repo      refundRepository
	provider  refundProvider
	queue     refundQueue
	workers   *jobs.Queue[string]
	metrics   *MetricsService
	clock     clock.Clock
	validator *validator.Validate
	logger    *zap.Logger

	sweepEvery time.Duration
	mu         sync.Mutex
	inFlight   map[string]struct{}
	stopSweep  context.CancelFunc
	sweeping   sync.WaitGroup
}

// NewRefundService constructs a RefundService with its own worker queue.
func NewRefundService(repo refundRepository, provider refundProvider, metrics *MetricsService, clk clock.Clock, cfg RefundJobConfig, validate *validator.Validate, logger *zap.Logger) *RefundService {
	if clk == nil {
		clk = clock.New(nil)
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultRefundSweep
	}
	svc := &RefundService{
		repo:       repo,
		provider:   provider,
		metrics:    metrics,
		clock:      clk,
		validator:  validate,
		logger:     logger,
		sweepEvery: cfg.SweepInterval,
		inFlight:   make(map[string]struct{}),
	}
	svc.workers = jobs.NewQueue("refunds", svc.executeRefund, jobs.QueueConfig[string]{
		Workers:     cfg.Workers,
		MaxRetries:  cfg.MaxRetries,
		RetryDelay:  cfg.RetryDelay,
		OnExhausted: svc.refundExhausted,
		Logger:      logger,
	})
	svc.queue = svc.workers
	return svc
}

// Start launches the refund workers, queues requests left APPROVED by a
// previous run and keeps sweeping for them until Stop.
func (s *RefundService) Start(ctx context.Context) {
	s.workers.Start(ctx)

	sweepCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.stopSweep = cancel
	s.mu.Unlock()

	s.sweeping.Add(1)
	go func() {
		defer s.sweeping.Done()
		s.SweepApproved(sweepCtx)
		ticker := time.NewTicker(s.sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				s.SweepApproved(sweepCtx)
			}
		}
	}()
}

// Stop ends the sweep and waits for in-flight refunds to finish.
func (s *RefundService) Stop() {
	s.mu.Lock()
	cancel := s.stopSweep
	s.stopSweep = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.sweeping.Wait()
	s.workers.Stop()
}

// SweepApproved queues every APPROVED request that is not already being
// executed. It returns how many were queued.
func (s *RefundService) SweepApproved(ctx context.Context) int {
	ids, err := s.repo.ListIDsByStatus(ctx, models.RefundApproved, refundSweepBatch)
	if err != nil {
		s.logger.Error("failed to list approved refunds", zap.Error(err))
		return 0
	}
	queued := 0
	for _, id := range ids {
		ok, err := s.enqueue(id)
		if err != nil {
			s.logger.Warn("failed to queue approved refund", zap.String("refund_id", id), zap.Error(err))
			break
		}
		if ok {
			queued++
		}
	}
	if queued > 0 {
		s.logger.Info("approved refunds queued", zap.Int("count", queued))
	}
	return queued
}

// Create files a refund request. Only the last four card digits are kept.
func (s *RefundService) Create(ctx context.Context, userID string, req CreateRefundRequest) (*models.RefundRequest, error) {
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Reason = strings.TrimSpace(req.Reason)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refund payload")
	}

	refund := &models.RefundRequest{
		UserID:         userID,
		SubscriptionID: trimOptional(req.SubscriptionID),
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		CardLast4:      maskCard(req.CardNumber),
		Reason:         req.Reason,
		Status:         models.RefundPending,
	}
	if err := s.repo.Create(ctx, refund); err != nil {
		if repository.IsForeignKeyViolation(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subscription not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refund request")
	}
	s.logger.Info("refund requested", zap.String("refund_id", refund.ID), zap.String("order_id", refund.OrderID))
	return refund, nil
}

// List returns refund requests for the admin queue.
func (s *RefundService) List(ctx context.Context, filter models.RefundFilter) ([]models.RefundRequest, *models.Pagination, error) {
	refunds, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list refunds")
	}
	return refunds, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a refund request visible to the actor.
func (s *RefundService) Get(ctx context.Context, actor Actor, id string) (*models.RefundRequest, error) {
	refund, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && refund.UserID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "refund request not found")
	}
	return refund, nil
}

// Statistics summarises the refund queue.
func (s *RefundService) Statistics(ctx context.Context) (*models.RefundStatistics, error) {
	stats, err := s.repo.Statistics(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refund statistics")
	}
	return stats, nil
}

// Process records the admin decision. Approved requests are queued for payout.
func (s *RefundService) Process(ctx context.Context, adminID, id string, req ProcessRefundRequest) (*models.RefundRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be APPROVED or REJECTED")
	}
	if _, err := s.load(ctx, id); err != nil {
		return nil, err
	}

	note := trimOptional(req.AdminNote)
	if err := s.repo.Decide(ctx, id, req.Status, note, adminID, s.clock.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrRefundAlreadyProcessed) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "refund request already processed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to process refund")
	}

	if req.Status == models.RefundApproved {
		if _, err := s.enqueue(id); err != nil {
			s.logger.Warn("approved refund left for the next sweep", zap.String("refund_id", id), zap.Error(err))
		}
	}
	s.logger.Info("refund processed", zap.String("refund_id", id), zap.String("status", string(req.Status)), zap.String("admin_id", adminID))
	return s.load(ctx, id)
}

// executeRefund pays back an approved request. Provider errors are retried
// by the queue, except when payments are not configured at all.
func (s *RefundService) executeRefund(ctx context.Context, job jobs.Job[string]) (err error) {
	defer func() {
		if err == nil {
			s.release(job.Payload)
		}
	}()
	refund, err := s.repo.FindByID(ctx, job.Payload)
	if err != nil {
		return err
	}
	if refund.Status != models.RefundApproved {
		s.logger.Warn("skipping refund job for non-approved request", zap.String("refund_id", refund.ID), zap.String("status", string(refund.Status)))
		return nil
	}

	result, err := s.provider.Refund(ctx, refund.OrderID, payment.ToMinorUnits(refund.Amount), "refund-"+refund.ID)
	if err != nil {
		s.metrics.RecordPaymentProviderError("refund")
		if errors.Is(err, payment.ErrNotConfigured) {
			return s.complete(ctx, refund, models.RefundFailed, nil)
		}
		return err
	}
	return s.complete(ctx, refund, models.RefundCompleted, &result.ID)
}

func (s *RefundService) refundExhausted(ctx context.Context, job jobs.Job[string], cause error) {
	defer s.release(job.Payload)
	refund, err := s.repo.FindByID(ctx, job.Payload)
	if err != nil {
		s.logger.Error("failed to load exhausted refund", zap.String("refund_id", job.Payload), zap.Error(err))
		return
	}
	if err := s.complete(ctx, refund, models.RefundFailed, nil); err != nil {
		s.logger.Error("failed to mark refund failed", zap.String("refund_id", refund.ID), zap.NamedError("cause", cause), zap.Error(err))
	}
}

// enqueue queues a refund unless it is already in flight. It reports whether
// a job was added.
func (s *RefundService) enqueue(id string) (bool, error) {
	s.mu.Lock()
	if _, busy := s.inFlight[id]; busy {
		s.mu.Unlock()
		return false, nil
	}
	s.inFlight[id] = struct{}{}
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job[string]{ID: id, Type: refundJobType, Payload: id}); err != nil {
		s.release(id)
		return false, err
	}
	return true, nil
}

func (s *RefundService) release(id string) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

func (s *RefundService) complete(ctx context.Context, refund *models.RefundRequest, status models.RefundStatus, providerRefundID *string) error {
	evt, err := newOutboxEvent(ctx, models.EventRefundProcessed, refund.ID, refundProcessedPayload{
		RefundID:         refund.ID,
		OrderID:          refund.OrderID,
		SubscriptionID:   refund.SubscriptionID,
		Amount:           refund.Amount,
		Status:           status,
		ProviderRefundID: providerRefundID,
	})
	if err != nil {
		return err
	}
	if err := s.repo.Complete(ctx, refund.ID, status, providerRefundID, evt); err != nil {
		if errors.Is(err, repository.ErrRefundAlreadyProcessed) {
			s.logger.Warn("refund already settled", zap.String("refund_id", refund.ID))
			return nil
		}
		return err
	}
	s.metrics.RecordRefundJob(strings.ToLower(string(status)))
	s.logger.Info("refund settled", zap.String("refund_id", refund.ID), zap.String("status", string(status)))
	return nil
}

func (s *RefundService) load(ctx context.Context, id string) (*models.RefundRequest, error) {
	refund, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "refund request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load refund request")
	}
	return refund, nil
}

// maskCard keeps the last four digits of a card number.
func maskCard(number string) *string {
	digits := make([]rune, 0, len(number))
	for _, r := range number {
		if unicode.IsDigit(r) {
			digits = append(digits, r)
		}
	}
	if len(digits) < 4 {
		return nil
	}
	last4 := string(digits[len(digits)-4:])
	return &last4
}
