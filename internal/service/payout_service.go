package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/vnvodich/tutor-api/internal/models"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/payment"
)

type payoutProvider interface {
	CreateConnectedAccount(ctx context.Context, email string) (*payment.ConnectedAccount, error)
	OnboardingLink(ctx context.Context, accountID string) (string, error)
	GetConnectedAccount(ctx context.Context, accountID string) (*payment.ConnectedAccount, error)
}

type payoutTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.Tutor, error)
	SetStripeAccount(ctx context.Context, tutorID, accountID string) error
}

// PayoutService onboards tutors onto connected payout accounts.
type PayoutService struct {
	provider payoutProvider
	tutors   payoutTutorRepository
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewPayoutService constructs a PayoutService.
func NewPayoutService(provider payoutProvider, tutors payoutTutorRepository, metrics *MetricsService, logger *zap.Logger) *PayoutService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PayoutService{provider: provider, tutors: tutors, metrics: metrics, logger: logger}
}

// ConnectAccount creates the tutor's account on first use and returns a fresh onboarding link.
func (s *PayoutService) ConnectAccount(ctx context.Context, tutorID string) (*models.PayoutOnboarding, error) {
	tutor, err := s.loadTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}

	accountID := ""
	if tutor.StripeAccountID != nil {
		accountID = *tutor.StripeAccountID
	}
	if accountID == "" {
		acct, err := s.provider.CreateConnectedAccount(ctx, tutor.Email)
		if err != nil {
			return nil, s.providerError("create_connected_account", err)
		}
		accountID = acct.ID
		if err := s.tutors.SetStripeAccount(ctx, tutorID, accountID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store payout account")
		}
		s.logger.Info("connected account created", zap.String("tutor_id", tutorID), zap.String("account_id", accountID))
	}

	link, err := s.provider.OnboardingLink(ctx, accountID)
	if err != nil {
		return nil, s.providerError("onboarding_link", err)
	}
	return &models.PayoutOnboarding{AccountID: accountID, OnboardingURL: link}, nil
}

// Status reports how far the tutor's payout onboarding has progressed.
func (s *PayoutService) Status(ctx context.Context, tutorID string) (*models.PayoutStatus, error) {
	tutor, err := s.loadTutor(ctx, tutorID)
	if err != nil {
		return nil, err
	}
	if tutor.StripeAccountID == nil || *tutor.StripeAccountID == "" {
		return &models.PayoutStatus{}, nil
	}

	acct, err := s.provider.GetConnectedAccount(ctx, *tutor.StripeAccountID)
	if err != nil {
		return nil, s.providerError("get_connected_account", err)
	}
	return &models.PayoutStatus{
		Connected:      true,
		ChargesEnabled: acct.ChargesEnabled,
		PayoutsEnabled: acct.PayoutsEnabled,
		FullyOnboarded: acct.ChargesEnabled && acct.PayoutsEnabled && acct.DetailsSubmitted,
	}, nil
}

func (s *PayoutService) loadTutor(ctx context.Context, tutorID string) (*models.Tutor, error) {
	tutor, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	return tutor, nil
}

func (s *PayoutService) providerError(operation string, err error) error {
	s.metrics.RecordPaymentProviderError(operation)
	if errors.Is(err, payment.ErrNotConfigured) {
		return appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "payouts are not configured")
	}
	s.logger.Error("payout provider call failed", zap.String("operation", operation), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrPaymentProvider.Code, appErrors.ErrPaymentProvider.Status, "payout provider request failed")
}
