package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnvodich/tutor-api/internal/models"
	"github.com/vnvodich/tutor-api/pkg/clock"
	appErrors "github.com/vnvodich/tutor-api/pkg/errors"
	"github.com/vnvodich/tutor-api/pkg/payment"
)

type stubPaymentProvider struct {
	intentAmount int64
	customer     payment.Customer
	intentErr    error
	webhookEvent *payment.WebhookEvent
	webhookErr   error

	account     *payment.ConnectedAccount
	createdFor  string
	createErr   error
	linkAccount string
	refunds     []string
	refundErr   error
}

func (s *stubPaymentProvider) CreatePaymentIntent(ctx context.Context, amountCents int64, customer payment.Customer, key string) (*payment.PaymentIntent, error) {
	if s.intentErr != nil {
		return nil, s.intentErr
	}
	s.intentAmount = amountCents
	s.customer = customer
	return &payment.PaymentIntent{ID: "pi_1", ClientSecret: "pi_1_secret", AmountCents: amountCents, Currency: "usd"}, nil
}

func (s *stubPaymentProvider) ParseWebhook(payload []byte, signature string) (*payment.WebhookEvent, error) {
	if s.webhookErr != nil {
		return nil, s.webhookErr
	}
	return s.webhookEvent, nil
}

func (s *stubPaymentProvider) CreateConnectedAccount(ctx context.Context, email string) (*payment.ConnectedAccount, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.createdFor = email
	return &payment.ConnectedAccount{ID: "acct_new"}, nil
}

func (s *stubPaymentProvider) OnboardingLink(ctx context.Context, accountID string) (string, error) {
	s.linkAccount = accountID
	return "https://connect.example/onboard/" + accountID, nil
}

func (s *stubPaymentProvider) GetConnectedAccount(ctx context.Context, accountID string) (*payment.ConnectedAccount, error) {
	return s.account, nil
}

func (s *stubPaymentProvider) Refund(ctx context.Context, paymentIntentID string, amountCents int64, key string) (*payment.Refund, error) {
	if s.refundErr != nil {
		return nil, s.refundErr
	}
	s.refunds = append(s.refunds, paymentIntentID)
	return &payment.Refund{ID: "re_1", Status: "succeeded"}, nil
}

type stubPaymentEvents struct {
	seen          map[string]bool
	transactionID string
	status        *models.PaymentStatus
}

func (s *stubPaymentEvents) ApplyEvent(ctx context.Context, evt *models.PaymentEvent, transactionID string, status *models.PaymentStatus) (bool, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	if s.seen[evt.ProviderEventID] {
		return false, nil
	}
	s.seen[evt.ProviderEventID] = true
	s.transactionID = transactionID
	s.status = status
	return true, nil
}

type stubUserFinder struct {
	users map[string]*models.User
}

func (s *stubUserFinder) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func parentUsers() *stubUserFinder {
	return &stubUserFinder{users: map[string]*models.User{"p1": {ID: "p1", Email: "parent@example.com", FullName: "Hoa", Role: models.RoleParent}}}
}

func TestPaymentServiceDefaultsAmount(t *testing.T) {
	provider := &stubPaymentProvider{}
	svc := NewPaymentService(provider, &stubPaymentEvents{}, parentUsers(), nil, nil, 50, nil)

	result, err := svc.CreatePaymentIntent(context.Background(), "p1", CreatePaymentIntentRequest{Amount: 0})
	require.NoError(t, err)
	assert.Equal(t, int64(5000), provider.intentAmount)
	assert.Equal(t, "parent@example.com", provider.customer.Email)
	assert.Equal(t, "pi_1_secret", result.ClientSecret)
	assert.Equal(t, "pi_1", result.PaymentIntentID)
}

func TestPaymentServiceConvertsAmountToCents(t *testing.T) {
	provider := &stubPaymentProvider{}
	svc := NewPaymentService(provider, &stubPaymentEvents{}, parentUsers(), nil, nil, 50, nil)

	_, err := svc.CreatePaymentIntent(context.Background(), "p1", CreatePaymentIntentRequest{Amount: 12.34})
	require.NoError(t, err)
	assert.Equal(t, int64(1234), provider.intentAmount)
}

func TestPaymentServiceProviderFailure(t *testing.T) {
	metrics := NewMetricsService()
	provider := &stubPaymentProvider{intentErr: errors.New("card_declined")}
	svc := NewPaymentService(provider, &stubPaymentEvents{}, parentUsers(), metrics, nil, 50, nil)

	_, err := svc.CreatePaymentIntent(context.Background(), "p1", CreatePaymentIntentRequest{Amount: 10})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPaymentProvider.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.paymentProviderErrors.WithLabelValues("create_payment_intent")))
}

func TestPaymentServiceNotConfigured(t *testing.T) {
	provider := &stubPaymentProvider{intentErr: payment.ErrNotConfigured}
	svc := NewPaymentService(provider, &stubPaymentEvents{}, parentUsers(), nil, nil, 50, nil)

	_, err := svc.CreatePaymentIntent(context.Background(), "p1", CreatePaymentIntentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrServiceUnavailable.Code, appErrors.FromError(err).Code)
}

func TestPaymentServiceWebhookIdempotent(t *testing.T) {
	provider := &stubPaymentProvider{webhookEvent: &payment.WebhookEvent{ID: "evt_1", Type: "payment_intent.succeeded", PaymentIntentID: "pi_1"}}
	events := &stubPaymentEvents{}
	svc := NewPaymentService(provider, events, parentUsers(), nil, clock.Fixed{At: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)}, 50, nil)

	first, err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookStatusProcessed, first.Status)
	assert.Equal(t, "pi_1", events.transactionID)
	require.NotNil(t, events.status)
	assert.Equal(t, models.PaymentPaid, *events.status)

	second, err := svc.HandleWebhook(context.Background(), []byte(`{}`), "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookStatusDuplicate, second.Status)
}

func TestPaymentServiceWebhookStatuses(t *testing.T) {
	cases := map[string]*models.PaymentStatus{
		"payment_intent.payment_failed": ptrPaymentStatus(models.PaymentFailed),
		"charge.refunded":               ptrPaymentStatus(models.PaymentRefunded),
		"customer.created":              nil,
	}
	for eventType, want := range cases {
		assert.Equal(t, want, paymentStatusForEvent(eventType), eventType)
	}

	provider := &stubPaymentProvider{webhookEvent: &payment.WebhookEvent{ID: "evt_2", Type: "customer.created"}}
	svc := NewPaymentService(provider, &stubPaymentEvents{}, parentUsers(), nil, nil, 50, nil)
	result, err := svc.HandleWebhook(context.Background(), nil, "sig")
	require.NoError(t, err)
	assert.Equal(t, WebhookStatusIgnored, result.Status)
}

func TestPaymentServiceWebhookBadSignature(t *testing.T) {
	provider := &stubPaymentProvider{webhookErr: errors.New("signature mismatch")}
	svc := NewPaymentService(provider, &stubPaymentEvents{}, parentUsers(), nil, nil, 50, nil)

	_, err := svc.HandleWebhook(context.Background(), []byte(`{}`), "bad")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func ptrPaymentStatus(status models.PaymentStatus) *models.PaymentStatus {
	return &status
}

type stubPayoutTutors struct {
	tutor     *models.Tutor
	storedFor string
}

func (s *stubPayoutTutors) FindByID(ctx context.Context, id string) (*models.Tutor, error) {
	if s.tutor == nil || s.tutor.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.tutor, nil
}

func (s *stubPayoutTutors) SetStripeAccount(ctx context.Context, tutorID, accountID string) error {
	s.storedFor = accountID
	return nil
}

func TestPayoutServiceConnectCreatesAccountOnce(t *testing.T) {
	provider := &stubPaymentProvider{}
	tutors := &stubPayoutTutors{tutor: &models.Tutor{ID: "t1", Email: "tutor@example.com"}}
	svc := NewPayoutService(provider, tutors, nil, nil)

	onboarding, err := svc.ConnectAccount(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "acct_new", onboarding.AccountID)
	assert.Equal(t, "tutor@example.com", provider.createdFor)
	assert.Equal(t, "acct_new", tutors.storedFor)
	assert.Contains(t, onboarding.OnboardingURL, "acct_new")

	existing := "acct_old"
	tutors.tutor.StripeAccountID = &existing
	provider.createdFor = ""
	onboarding, err = svc.ConnectAccount(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "acct_old", onboarding.AccountID)
	assert.Empty(t, provider.createdFor)
}

func TestPayoutServiceStatus(t *testing.T) {
	provider := &stubPaymentProvider{account: &payment.ConnectedAccount{ID: "acct_1", ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true}}
	tutors := &stubPayoutTutors{tutor: &models.Tutor{ID: "t1"}}
	svc := NewPayoutService(provider, tutors, nil, nil)

	status, err := svc.Status(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, status.Connected)

	acct := "acct_1"
	tutors.tutor.StripeAccountID = &acct
	status, err = svc.Status(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.True(t, status.FullyOnboarded)
}
