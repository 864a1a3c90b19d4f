// Package billing wraps the payment processor behind small capability interfaces.
//
// Reconciliation code depends on CheckoutSessionCreator, PortalSessionCreator
// and WebhookVerifier rather than on the Stripe SDK, so it can run offline with
// the mock provider.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/webhook"
)

// ErrInvalidSignature is returned when a webhook payload fails verification.
var ErrInvalidSignature = errors.New("billing: invalid webhook signature")

// CheckoutParams describes the hosted checkout a team is sent to.
type CheckoutParams struct {
	TeamID        string // Stored as client_reference_id and subscription metadata
	CustomerID    string // Existing Stripe customer, if any
	CustomerEmail string // Used only when CustomerID is empty
	PriceID       string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSessionCreator starts hosted checkout flows.
type CheckoutSessionCreator interface {
	// CreateCheckoutSession returns the new session's identifier.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)

	// CheckoutSessionURL resolves a stored session identifier to its hosted URL.
	CheckoutSessionURL(ctx context.Context, sessionID string) (string, error)
}

// PortalSessionCreator opens the hosted billing-management portal.
type PortalSessionCreator interface {
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// WebhookVerifier authenticates and parses webhook payloads.
type WebhookVerifier interface {
	// VerifyWebhook returns ErrInvalidSignature (wrapped) when the signature does not match.
	VerifyWebhook(payload []byte, signature string) (stripe.Event, error)
}

// Provider is the full set of processor capabilities the application uses.
type Provider interface {
	CheckoutSessionCreator
	PortalSessionCreator
	WebhookVerifier
}

// StripeProvider is the Stripe-backed Provider.
type StripeProvider struct {
	webhookSecret string
	logger        *slog.Logger
}

// NewStripeProvider configures the Stripe SDK with secretKey.
// The webhookSecret (whsec_...) verifies incoming webhook signatures.
func NewStripeProvider(secretKey, webhookSecret string, logger *slog.Logger) *StripeProvider {
	stripe.Key = secretKey

	return &StripeProvider{
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

func (p *StripeProvider) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error) {
	sp := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		ClientReferenceID: stripe.String(params.TeamID),
		SuccessURL:        stripe.String(params.SuccessURL),
		CancelURL:         stripe.String(params.CancelURL),
		// Subscription and invoice events carry this even when they arrive
		// before checkout.session.completed.
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: map[string]string{TeamIDMetadataKey: params.TeamID},
		},
	}
	sp.Context = ctx

	if params.PriceID != "" {
		sp.LineItems = []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(params.PriceID),
				Quantity: stripe.Int64(1),
			},
		}
	}

	// Stripe rejects requests that set both customer and customer_email.
	if params.CustomerID != "" {
		sp.Customer = stripe.String(params.CustomerID)
	} else if params.CustomerEmail != "" {
		sp.CustomerEmail = stripe.String(params.CustomerEmail)
	}

	p.logger.Debug("creating stripe checkout session",
		"team_id", params.TeamID,
		"customer_email", params.CustomerEmail,
		"price_id", params.PriceID,
	)

	sess, err := checkoutsession.New(sp)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.ID, nil
}

func (p *StripeProvider) CheckoutSessionURL(ctx context.Context, sessionID string) (string, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := checkoutsession.Get(sessionID, params)
	if err != nil {
		return "", fmt.Errorf("stripe get checkout session: %w", err)
	}
	if sess.URL == "" {
		return "", fmt.Errorf("stripe checkout session %s has no hosted url (status %s)", sessionID, sess.Status)
	}
	return sess.URL, nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return verifyWebhook(payload, signature, p.webhookSecret)
}

// verifyWebhook checks the Stripe-Signature header against secret.
// API version mismatches are tolerated; only the fields read by
// DecodeNotification matter.
func verifyWebhook(payload []byte, signature, secret string) (stripe.Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return event, nil
}

// VerifyWithSecret is verifyWebhook for providers that hold their own secret.
func VerifyWithSecret(payload []byte, signature, secret string) (stripe.Event, error) {
	return verifyWebhook(payload, signature, secret)
}

var _ Provider = (*StripeProvider)(nil)
