package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/stripe/stripe-go/v79/webhook"

	"github.com/vnvodich/tutor-api/pkg/config"
)

// ErrNotConfigured is returned when no Stripe secret key is set.
var ErrNotConfigured = errors.New("stripe is not configured")

// Customer identifies the payer for a payment intent.
type Customer struct {
	Email string
	Name  string
}

// PaymentIntent is the subset of the Stripe object returned to clients.
type PaymentIntent struct {
	ID           string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
	AmountCents  int64  `json:"amount"`
	Currency     string `json:"currency"`
	CustomerID   string `json:"customer_id"`
}

// Refund is a processed refund.
type Refund struct {
	ID     string
	Status string
}

// ConnectedAccount describes a tutor payout account.
type ConnectedAccount struct {
	ID               string
	ChargesEnabled   bool
	PayoutsEnabled   bool
	DetailsSubmitted bool
}

// WebhookEvent is a verified provider event reduced to what bookkeeping needs.
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	OccurredAt      time.Time
	Payload         []byte
}

// StripeProvider implements card processing and Connect payouts on Stripe.
type StripeProvider struct {
	api              *client.API
	currency         string
	country          string
	refreshURL       string
	returnURL        string
	webhookSecret    string
	webhookTolerance time.Duration
}

// NewStripeProvider builds a provider with its own API client rather than
// the package-level stripe.Key.
func NewStripeProvider(cfg config.StripeConfig, backends *stripe.Backends) *StripeProvider {
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	var api *client.API
	if cfg.SecretKey != "" {
		api = client.New(cfg.SecretKey, backends)
	}
	return &StripeProvider{
		api:              api,
		currency:         currency,
		country:          cfg.ConnectCountry,
		refreshURL:       cfg.ConnectRefreshURL,
		returnURL:        cfg.ConnectReturnURL,
		webhookSecret:    cfg.WebhookSecret,
		webhookTolerance: cfg.WebhookTolerance,
	}
}

// ToMinorUnits converts a whole-currency amount to cents.
func ToMinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreatePaymentIntent finds or creates the customer by email and opens a
// card payment intent for amountCents.
func (p *StripeProvider) CreatePaymentIntent(ctx context.Context, amountCents int64, customer Customer, idempotencyKey string) (*PaymentIntent, error) {
	if p.api == nil {
		return nil, ErrNotConfigured
	}
	customerID, err := p.findOrCreateCustomer(ctx, customer)
	if err != nil {
		return nil, err
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(p.currency),
		Customer: stripe.String(customerID),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.IdempotencyKey = stripe.String(idempotencyKey)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}
	return &PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
		AmountCents:  pi.Amount,
		Currency:     string(pi.Currency),
		CustomerID:   customerID,
	}, nil
}

func (p *StripeProvider) findOrCreateCustomer(ctx context.Context, customer Customer) (string, error) {
	listParams := &stripe.CustomerListParams{Email: stripe.String(customer.Email)}
	listParams.Context = ctx
	listParams.Limit = stripe.Int64(1)
	iter := p.api.Customers.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}

	params := &stripe.CustomerParams{
		Email: stripe.String(customer.Email),
		Name:  stripe.String(customer.Name),
	}
	params.Context = ctx
	created, err := p.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return created.ID, nil
}

// Refund returns amountCents of the payment intent's charge to the card.
func (p *StripeProvider) Refund(ctx context.Context, paymentIntentID string, amountCents int64, idempotencyKey string) (*Refund, error) {
	if p.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
		Amount:        stripe.Int64(amountCents),
	}
	params.Context = ctx
	if idempotencyKey != "" {
		params.IdempotencyKey = stripe.String(idempotencyKey)
	}
	r, err := p.api.Refunds.New(params)
	if err != nil {
		return nil, fmt.Errorf("create refund: %w", err)
	}
	return &Refund{ID: r.ID, Status: string(r.Status)}, nil
}

// CreateConnectedAccount opens an Express account able to take card
// payments and receive transfers.
func (p *StripeProvider) CreateConnectedAccount(ctx context.Context, email string) (*ConnectedAccount, error) {
	if p.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.AccountParams{
		Type:    stripe.String(string(stripe.AccountTypeExpress)),
		Country: stripe.String(p.country),
		Email:   stripe.String(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	params.Context = ctx
	acct, err := p.api.Accounts.New(params)
	if err != nil {
		return nil, fmt.Errorf("create connected account: %w", err)
	}
	return toConnectedAccount(acct), nil
}

// OnboardingLink returns a hosted onboarding URL for the account.
func (p *StripeProvider) OnboardingLink(ctx context.Context, accountID string) (string, error) {
	if p.api == nil {
		return "", ErrNotConfigured
	}
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(p.refreshURL),
		ReturnURL:  stripe.String(p.returnURL),
		Type:       stripe.String(string(stripe.AccountLinkTypeAccountOnboarding)),
	}
	params.Context = ctx
	link, err := p.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("create account link: %w", err)
	}
	return link.URL, nil
}

// GetConnectedAccount fetches the current capability flags.
func (p *StripeProvider) GetConnectedAccount(ctx context.Context, accountID string) (*ConnectedAccount, error) {
	if p.api == nil {
		return nil, ErrNotConfigured
	}
	params := &stripe.AccountParams{}
	params.Context = ctx
	acct, err := p.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("get connected account: %w", err)
	}
	return toConnectedAccount(acct), nil
}

// ParseWebhook verifies the Stripe-Signature header and extracts the
// payment intent the event refers to.
func (p *StripeProvider) ParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if strings.TrimSpace(p.webhookSecret) == "" {
		return nil, ErrNotConfigured
	}
	evt, err := webhook.ConstructEventWithTolerance(payload, signature, p.webhookSecret, p.webhookTolerance)
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}

	out := &WebhookEvent{
		ID:         evt.ID,
		Type:       string(evt.Type),
		OccurredAt: time.Unix(evt.Created, 0).UTC(),
		Payload:    payload,
	}
	if evt.Data == nil {
		return out, nil
	}

	switch {
	case strings.HasPrefix(out.Type, "payment_intent."):
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(evt.Data.Raw, &pi); err != nil {
			return nil, fmt.Errorf("decode payment intent: %w", err)
		}
		out.PaymentIntentID = pi.ID
	case strings.HasPrefix(out.Type, "charge."):
		var ch stripe.Charge
		if err := json.Unmarshal(evt.Data.Raw, &ch); err != nil {
			return nil, fmt.Errorf("decode charge: %w", err)
		}
		if ch.PaymentIntent != nil {
			out.PaymentIntentID = ch.PaymentIntent.ID
		}
	}
	return out, nil
}

func toConnectedAccount(acct *stripe.Account) *ConnectedAccount {
	return &ConnectedAccount{
		ID:               acct.ID,
		ChargesEnabled:   acct.ChargesEnabled,
		PayoutsEnabled:   acct.PayoutsEnabled,
		DetailsSubmitted: acct.DetailsSubmitted,
	}
}
