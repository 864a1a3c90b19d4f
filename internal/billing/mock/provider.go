// Package mock provides an offline billing provider for development and tests.
package mock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DukeRupert/multitenancy/internal/billing"
	"github.com/stripe/stripe-go/v79"
)

// CheckoutSessionID is the session id returned for every checkout.
const CheckoutSessionID = "cs_1234567890"

// DefaultWebhookSecret signs webhooks when no secret is configured.
const DefaultWebhookSecret = "whsec_mock"

// Provider is a mock billing provider. It never contacts the processor.
type Provider struct {
	logger        *slog.Logger
	webhookSecret string

	mu sync.Mutex

	// Configurable responses for testing
	SessionID            string // Returned instead of CheckoutSessionID when set
	CheckoutSessionError error
	CheckoutURL          string
	CheckoutURLError     error
	PortalURL            string
	PortalSessionError   error

	// Call tracking for testing
	CheckoutSessionCalls int
	CheckoutURLCalls     int
	PortalSessionCalls   int
	LastCheckoutParams   billing.CheckoutParams
}

// New creates a mock provider that verifies webhooks with webhookSecret,
// or DefaultWebhookSecret when it is empty.
func New(webhookSecret string, logger *slog.Logger) *Provider {
	if webhookSecret == "" {
		webhookSecret = DefaultWebhookSecret
	}
	return &Provider{
		logger:        logger,
		webhookSecret: webhookSecret,
	}
}

// CreateCheckoutSession logs the request it would have sent and returns
// SessionID, or CheckoutSessionID when that is empty.
func (p *Provider) CreateCheckoutSession(ctx context.Context, params billing.CheckoutParams) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CheckoutSessionCalls++
	p.LastCheckoutParams = params

	p.logger.Info("mock checkout session requested",
		"payload", map[string]any{
			"payment_method_types": []string{"card"},
			"mode":                 "subscription",
			"price":                params.PriceID,
			"customer":             params.CustomerID,
			"customer_email":       params.CustomerEmail,
			"client_reference_id":  params.TeamID,
			"success_url":          params.SuccessURL,
			"cancel_url":           params.CancelURL,
			"subscription_data": map[string]any{
				"metadata": map[string]string{billing.TeamIDMetadataKey: params.TeamID},
			},
		},
	)

	if p.CheckoutSessionError != nil {
		return "", p.CheckoutSessionError
	}
	if p.SessionID != "" {
		return p.SessionID, nil
	}
	return CheckoutSessionID, nil
}

// CheckoutSessionURL returns CheckoutURL, or a local hosted page for sessionID.
func (p *Provider) CheckoutSessionURL(ctx context.Context, sessionID string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CheckoutURLCalls++

	if p.CheckoutURLError != nil {
		return "", p.CheckoutURLError
	}
	if p.CheckoutURL != "" {
		return p.CheckoutURL, nil
	}
	return fmt.Sprintf("/billing/hosted?session_id=%s", sessionID), nil
}

func (p *Provider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.PortalSessionCalls++

	p.logger.Info("mock portal session requested", "customer", customerID, "return_url", returnURL)

	if p.PortalSessionError != nil {
		return "", p.PortalSessionError
	}
	if p.PortalURL != "" {
		return p.PortalURL, nil
	}
	return returnURL, nil
}

// VerifyWebhook checks payloads signed with the provider's shared secret.
func (p *Provider) VerifyWebhook(payload []byte, signature string) (stripe.Event, error) {
	return billing.VerifyWithSecret(payload, signature, p.webhookSecret)
}

// WebhookSecret returns the secret webhook payloads must be signed with.
func (p *Provider) WebhookSecret() string {
	return p.webhookSecret
}

var _ billing.Provider = (*Provider)(nil)
