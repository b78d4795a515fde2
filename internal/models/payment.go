package models

import "time"

// PaymentEvent is a processed provider webhook, keyed for idempotency.
type PaymentEvent struct {
	ProviderEventID string    `db:"provider_event_id" json:"provider_event_id"`
	EventType       string    `db:"event_type" json:"event_type"`
	Payload         []byte    `db:"payload" json:"-"`
	ReceivedAt      time.Time `db:"received_at" json:"received_at"`
}

// PaymentIntentResult is returned to the client to confirm a card payment.
type PaymentIntentResult struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
	AmountCents     int64  `json:"amount_cents"`
	Currency        string `json:"currency"`
}

// WebhookResult reports how a webhook delivery was handled.
type WebhookResult struct {
	Status  string `json:"status"`
	EventID string `json:"event_id"`
}

// PayoutStatus summarises a tutor's connected account.
type PayoutStatus struct {
	Connected      bool `json:"connected"`
	ChargesEnabled bool `json:"charges_enabled"`
	PayoutsEnabled bool `json:"payouts_enabled"`
	FullyOnboarded bool `json:"fully_onboarded"`
}

// PayoutOnboarding carries the hosted onboarding link for a tutor.
type PayoutOnboarding struct {
	AccountID     string `json:"account_id"`
	OnboardingURL string `json:"onboarding_url"`
}
