package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a named template of billing defaults applied at signup.
type Plan struct {
	ID                        uuid.UUID
	Key                       string
	Name                      string
	PriceID                   string // Stripe price used for checkout; may be empty
	DefaultShouldSetupBilling bool
	IsActive                  bool
}

// TeamBilling mirrors the payment processor's view of a team.
//
// BillingPeriodEnds stays nil until the processor confirms payment through a
// webhook. User-initiated code paths never write it.
type TeamBilling struct {
	ID                    uuid.UUID
	TeamID                uuid.UUID
	PlanID                *uuid.UUID
	StripeCustomerID      string
	StripeCheckoutSession string
	ShouldSetupBilling    bool
	BillingPeriodEnds     *time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// IsBillingActive reports whether a confirmed billing period extends strictly past now.
func (b *TeamBilling) IsBillingActive(now time.Time) bool {
	return b.BillingPeriodEnds != nil && b.BillingPeriodEnds.After(now)
}

// BillingStatus is the billing block of the current-user payload.
type BillingStatus struct {
	ShouldSetupBilling    bool       `json:"should_setup_billing"`
	StripeCheckoutSession string     `json:"stripe_checkout_session"`
	BillingPeriodEnds     *time.Time `json:"billing_period_ends,omitempty"`
}

// Webhook outcomes reported by the billing service.
const (
	WebhookApplied   = "applied"
	WebhookDuplicate = "duplicate"
	WebhookIgnored   = "ignored"
	WebhookUnmatched = "unmatched"
)
