// This file implements the Stripe webhook handler for processing billing events.
//
// Route:
//   - POST /billing/stripe_webhook -> HandleStripeWebhook
//
// This route is PUBLIC (no auth middleware) because Stripe calls it directly.
// Authentication is via the Stripe webhook signature verification.

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/service"
)

// maxWebhookBodyBytes bounds the webhook body (64KB).
const maxWebhookBodyBytes = 65536

// WebhookHandler handles incoming webhook events from Stripe.
type WebhookHandler struct {
	billing service.BillingService
	logger  *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(billing service.BillingService, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		billing: billing,
		logger:  logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
// These routes are PUBLIC and take no auth middleware.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /billing/stripe_webhook", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies and applies one webhook delivery.
//
// A bad signature is rejected with 401 and a storage failure with 500 so
// Stripe redelivers. Every other outcome, including unknown event types
// and duplicates, is acknowledged with 200.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.logger.Warn("webhook body too large", "limit", maxWebhookBodyBytes)
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	outcome, err := h.billing.HandleWebhook(r.Context(), body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if domain.IsCode(err, domain.EUNAUTHORIZED) {
			h.logger.Warn("webhook signature verification failed", "error", err)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		h.logger.Error("failed to apply webhook", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	h.logger.Debug("stripe webhook handled", "outcome", outcome)
	w.WriteHeader(http.StatusOK)
}
