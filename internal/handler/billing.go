// Package handler contains HTTP handlers for team signup and billing.
//
// This file implements the billing redirects and outcome pages.
//
// Routes handled:
//   - GET /billing/setup   -> Setup (redirect to hosted checkout)
//   - GET /billing/manage  -> Manage (redirect to the customer portal)
//   - GET /billing/welcome -> outcome page after a completed checkout
//   - GET /billing/failed  -> outcome page after a cancelled checkout
//   - GET /billing/hosted  -> outcome page for self-hosted plans
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/multitenancy/internal/service"
	"github.com/DukeRupert/multitenancy/internal/session"
)

// BillingHandler handles billing redirects and the static outcome pages.
type BillingHandler struct {
	billing  service.BillingService
	renderer *Renderer
	logger   *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(billing service.BillingService, renderer *Renderer, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		billing:  billing,
		renderer: renderer,
		logger:   logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /billing/setup", requireUser(http.HandlerFunc(h.Setup)))
	mux.Handle("GET /billing/manage", requireUser(http.HandlerFunc(h.Manage)))
	mux.HandleFunc("GET /billing/welcome", h.page("billing_welcome"))
	mux.HandleFunc("GET /billing/failed", h.page("billing_failed"))
	mux.HandleFunc("GET /billing/hosted", h.page("billing_hosted"))
}

// Setup redirects to hosted checkout for the team's stored session.
// Teams without a session are sent home.
func (h *BillingHandler) Setup(w http.ResponseWriter, r *http.Request) {
	user := session.GetUser(r.Context())
	if user == nil {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	url, err := h.billing.CheckoutURL(r.Context(), user.TeamID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if url == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, url, http.StatusSeeOther)
}

// Manage redirects to the processor's customer portal.
// Teams that never completed checkout are sent home.
func (h *BillingHandler) Manage(w http.ResponseWriter, r *http.Request) {
	user := session.GetUser(r.Context())
	if user == nil {
		http.Redirect(w, r, "/signup", http.StatusSeeOther)
		return
	}

	url, err := h.billing.PortalURL(r.Context(), user.TeamID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if url == "" {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, url, http.StatusSeeOther)
}

func (h *BillingHandler) page(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.renderer.RenderHTTP(w, http.StatusOK, name, nil)
	}
}
