package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"

	"github.com/DukeRupert/multitenancy/internal/billing"
	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/metrics"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
	"github.com/stripe/stripe-go/v79"
)

// Checkout return paths, relative to the configured base URL.
const (
	CheckoutSuccessPath = "/billing/welcome"
	CheckoutCancelPath  = "/billing/failed"
)

// =============================================================================
// Interface Definition
// =============================================================================

// BillingService keeps each team's billing record in step with the payment processor.
type BillingService interface {
	// Reconcile ensures the team has a billing record and, when billing must
	// be set up but no paid period is active, opens a new checkout session.
	// Returns nil when the team does not need to set up billing.
	// Returns domain.EUNAVAILABLE when the processor call fails.
	Reconcile(ctx context.Context, user *domain.User) (*domain.BillingStatus, error)

	// HandleWebhook verifies a raw webhook delivery and applies it.
	// Returns domain.EUNAUTHORIZED when the signature does not verify.
	HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error)

	// ApplyWebhookEvent applies a verified event exactly once and reports
	// one of the domain.Webhook* outcomes.
	ApplyWebhookEvent(ctx context.Context, event stripe.Event) (string, error)

	// CheckoutURL returns the hosted checkout URL for the team's stored
	// session, or "" when there is none.
	CheckoutURL(ctx context.Context, teamID uuid.UUID) (string, error)

	// PortalURL returns a customer portal URL for the team, or "" when the
	// team has no processor customer yet.
	PortalURL(ctx context.Context, teamID uuid.UUID) (string, error)
}

// BillingServiceConfig holds billing settings.
type BillingServiceConfig struct {
	BaseURL        string // Public URL checkout and portal sessions return to
	DefaultPriceID string // Used when the team's plan has no price
	Clock          Clock
}

// =============================================================================
// Implementation
// =============================================================================

type billingService struct {
	store    Store
	provider billing.Provider
	config   BillingServiceConfig
	now      Clock
	logger   *slog.Logger
}

// NewBillingService creates a new BillingService instance.
func NewBillingService(store Store, provider billing.Provider, config BillingServiceConfig, logger *slog.Logger) BillingService {
	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	return &billingService{
		store:    store,
		provider: provider,
		config:   config,
		now:      clockOrDefault(config.Clock),
		logger:   logger,
	}
}

// =============================================================================
// Reconcile Implementation
// =============================================================================

// Reconcile implements the billing block of the current-user payload.
//
//   - should_setup_billing false: nil, the payload omits billing
//   - should_setup_billing true, period active: the stored session and period end
//   - should_setup_billing true, no active period: a fresh checkout session
//
// Processor errors are not retried.
func (s *billingService) Reconcile(ctx context.Context, user *domain.User) (*domain.BillingStatus, error) {
	const op = "BillingService.Reconcile"

	tb, err := s.ensureTeamBilling(ctx, user.TeamID)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load team billing")
	}

	if !tb.ShouldSetupBilling {
		return nil, nil
	}

	if tb.IsBillingActive(s.now()) {
		return &domain.BillingStatus{
			ShouldSetupBilling:    true,
			StripeCheckoutSession: tb.StripeCheckoutSession,
			BillingPeriodEnds:     tb.BillingPeriodEnds,
		}, nil
	}

	priceID, err := s.priceFor(ctx, tb)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to load plan")
	}

	sessionID, err := s.provider.CreateCheckoutSession(ctx, billing.CheckoutParams{
		TeamID:        tb.TeamID.String(),
		CustomerID:    tb.StripeCustomerID,
		CustomerEmail: user.Email,
		PriceID:       priceID,
		SuccessURL:    s.config.BaseURL + CheckoutSuccessPath,
		CancelURL:     s.config.BaseURL + CheckoutCancelPath,
	})
	metrics.CheckoutSessionRequested(err)
	if err != nil {
		return nil, domain.Unavailable(err, op, "Failed to create checkout session")
	}

	err = s.store.UpdateTeamBillingCheckoutSession(ctx, repository.UpdateTeamBillingCheckoutSessionParams{
		ID:                    tb.ID,
		StripeCheckoutSession: sessionID,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to store checkout session")
	}

	s.logger.Info("checkout session created", "team_id", tb.TeamID, "session_id", sessionID)

	return &domain.BillingStatus{
		ShouldSetupBilling:    true,
		StripeCheckoutSession: sessionID,
	}, nil
}

// ensureTeamBilling returns the team's billing record, creating a default
// one if missing. Concurrent callers converge on the same row.
func (s *billingService) ensureTeamBilling(ctx context.Context, teamID uuid.UUID) (*domain.TeamBilling, error) {
	tb, err := s.store.GetTeamBillingByTeamID(ctx, teamID)
	if err == nil {
		return repoTeamBillingToDomain(tb), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	tb, err = s.store.CreateTeamBilling(ctx, repository.CreateTeamBillingParams{TeamID: teamID})
	if err == nil {
		return repoTeamBillingToDomain(tb), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// Another request inserted the row first
	tb, err = s.store.GetTeamBillingByTeamID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return repoTeamBillingToDomain(tb), nil
}

// priceFor returns the plan's price, falling back to the configured default.
func (s *billingService) priceFor(ctx context.Context, tb *domain.TeamBilling) (string, error) {
	if tb.PlanID == nil {
		return s.config.DefaultPriceID, nil
	}

	plan, err := s.store.GetPlanByID(ctx, *tb.PlanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.config.DefaultPriceID, nil
		}
		return "", err
	}

	if p := repoPlanToDomain(plan); p.PriceID != "" {
		return p.PriceID, nil
	}
	return s.config.DefaultPriceID, nil
}

// =============================================================================
// Webhook Implementation
// =============================================================================

// HandleWebhook verifies the signature before anything is read from the payload.
func (s *billingService) HandleWebhook(ctx context.Context, payload []byte, signature string) (string, error) {
	const op = "BillingService.HandleWebhook"

	event, err := s.provider.VerifyWebhook(payload, signature)
	if err != nil {
		s.logger.Warn("rejected webhook", "error", err)
		return "", domain.Wrap(err, domain.EUNAUTHORIZED, op, "Invalid webhook signature")
	}

	return s.ApplyWebhookEvent(ctx, event)
}

// ApplyWebhookEvent records the event id and applies its effect in one
// transaction. A redelivered id is acknowledged without work. Period writes
// only move forward and never apply an event older than the last one written,
// so an out-of-order delivery cannot shorten or revive a period.
//
// Events that reference no known team are acknowledged but not recorded, so a
// later redelivery can still apply once the team is linked.
func (s *billingService) ApplyWebhookEvent(ctx context.Context, event stripe.Event) (string, error) {
	const op = "BillingService.ApplyWebhookEvent"

	eventType := string(event.Type)
	logger := s.logger.With("event_id", event.ID, "event_type", eventType)

	n, err := billing.DecodeNotification(event)
	if err != nil {
		logger.Warn("ignoring malformed webhook event", "error", err)
		metrics.WebhookProcessed(eventType, domain.WebhookIgnored)
		return domain.WebhookIgnored, nil
	}
	if n.Kind == billing.NotificationIgnored {
		logger.Debug("ignoring webhook event")
		metrics.WebhookProcessed(eventType, domain.WebhookIgnored)
		return domain.WebhookIgnored, nil
	}
	if n.OccurredAt.IsZero() {
		n.OccurredAt = s.now()
	}

	var outcome string
	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		tb, err := findTeamBilling(ctx, q, n)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				outcome = domain.WebhookUnmatched
				return nil
			}
			return err
		}

		var raw pqtype.NullRawMessage
		if event.Data != nil && len(event.Data.Raw) > 0 {
			raw = pqtype.NullRawMessage{RawMessage: event.Data.Raw, Valid: true}
		}

		isNew, err := q.RecordWebhookEvent(ctx, repository.RecordWebhookEventParams{
			ID:      event.ID,
			Type:    eventType,
			Payload: raw,
		})
		if err != nil {
			return err
		}
		if !isNew {
			outcome = domain.WebhookDuplicate
			return nil
		}

		if err := s.apply(ctx, q, tb, n); err != nil {
			return err
		}
		outcome = domain.WebhookApplied
		return nil
	})
	if err != nil {
		return "", domain.Internal(err, op, "Failed to apply webhook event")
	}

	metrics.WebhookProcessed(eventType, outcome)

	switch outcome {
	case domain.WebhookUnmatched:
		logger.Warn("webhook event matched no team billing",
			"checkout_session", n.CheckoutSessionID,
			"customer", n.CustomerID,
			"team_reference", n.TeamID,
		)
	case domain.WebhookDuplicate:
		logger.Info("duplicate webhook event acknowledged")
	default:
		logger.Info("webhook event applied", "kind", n.Kind.String())
	}

	return outcome, nil
}

// findTeamBilling prefers the team reference set at checkout, then falls back
// to the stored checkout session or customer.
func findTeamBilling(ctx context.Context, q repository.Querier, n billing.Notification) (repository.TeamBilling, error) {
	if teamID, err := uuid.Parse(n.TeamID); err == nil {
		tb, err := q.GetTeamBillingByTeamID(ctx, teamID)
		if !errors.Is(err, sql.ErrNoRows) {
			return tb, err
		}
	}

	if n.Kind == billing.NotificationCheckoutCompleted {
		return q.GetTeamBillingByCheckoutSession(ctx, n.CheckoutSessionID)
	}
	return q.GetTeamBillingByCustomerID(ctx, n.CustomerID)
}

func (s *billingService) apply(ctx context.Context, q repository.Querier, tb repository.TeamBilling, n billing.Notification) error {
	// Subscription events can arrive before the checkout completion that
	// would otherwise link the customer.
	if n.CustomerID != "" && n.CustomerID != tb.StripeCustomerID {
		err := q.UpdateTeamBillingCustomerID(ctx, repository.UpdateTeamBillingCustomerIDParams{
			ID:               tb.ID,
			StripeCustomerID: n.CustomerID,
		})
		if err != nil {
			return err
		}
	}

	switch n.Kind {
	case billing.NotificationCheckoutCompleted, billing.NotificationPeriodConfirmed:
		if n.PeriodEnds.IsZero() {
			return nil
		}
		_, err := q.ExtendBillingPeriod(ctx, repository.BillingPeriodParams{
			ID:                tb.ID,
			BillingPeriodEnds: n.PeriodEnds,
			EventAt:           n.OccurredAt,
		})
		return err

	case billing.NotificationSubscriptionEnded:
		ends := n.PeriodEnds
		if ends.IsZero() {
			ends = s.now()
		}
		_, err := q.EndBillingPeriod(ctx, repository.BillingPeriodParams{
			ID:                tb.ID,
			BillingPeriodEnds: ends,
			EventAt:           n.OccurredAt,
		})
		return err
	}
	return nil
}

// =============================================================================
// Redirect Targets
// =============================================================================

func (s *billingService) CheckoutURL(ctx context.Context, teamID uuid.UUID) (string, error) {
	const op = "BillingService.CheckoutURL"

	tb, err := s.store.GetTeamBillingByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", domain.Internal(err, op, "Failed to load team billing")
	}
	if tb.StripeCheckoutSession == "" {
		return "", nil
	}

	url, err := s.provider.CheckoutSessionURL(ctx, tb.StripeCheckoutSession)
	if err != nil {
		return "", domain.Unavailable(err, op, "Failed to retrieve checkout session")
	}
	return url, nil
}

func (s *billingService) PortalURL(ctx context.Context, teamID uuid.UUID) (string, error) {
	const op = "BillingService.PortalURL"

	tb, err := s.store.GetTeamBillingByTeamID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", domain.Internal(err, op, "Failed to load team billing")
	}
	if tb.StripeCustomerID == "" {
		return "", nil
	}

	url, err := s.provider.CreatePortalSession(ctx, tb.StripeCustomerID, s.config.BaseURL+"/")
	if err != nil {
		return "", domain.Unavailable(err, op, "Failed to create portal session")
	}
	return url, nil
}
