package service

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	analyticsmock "github.com/DukeRupert/multitenancy/internal/analytics/mock"
	billingmock "github.com/DukeRupert/multitenancy/internal/billing/mock"
	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/repository/repotest"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

// fixture wires every service against the in-memory store and mocks.
type fixture struct {
	store     *repotest.Store
	provider  *billingmock.Provider
	analytics *analyticsmock.Client
	logs      *bytes.Buffer
	now       time.Time

	users   UserService
	signup  SignupService
	billing BillingService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		store:     repotest.New(),
		analytics: analyticsmock.New(),
		logs:      &bytes.Buffer{},
		now:       time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC),
	}
	clock := func() time.Time { return f.now }
	f.store.Now = clock

	f.provider = billingmock.New("", slog.New(slog.NewTextHandler(f.logs, nil)))

	f.users = NewUserService(f.store, newTestLogger())
	f.signup = NewSignupService(f.store, f.analytics, SignupServiceConfig{Clock: clock}, newTestLogger())
	f.billing = NewBillingService(f.store, f.provider, BillingServiceConfig{
		BaseURL:        "https://app.example.com/",
		DefaultPriceID: "price_default",
		Clock:          clock,
	}, newTestLogger())

	return f
}

func (f *fixture) createPlan(t *testing.T, key string, shouldSetupBilling, active bool, priceID string) repository.Plan {
	t.Helper()
	plan, err := f.store.CreatePlan(context.Background(), repository.CreatePlanParams{
		Key:                       key,
		Name:                      key,
		PriceID:                   priceID,
		DefaultShouldSetupBilling: shouldSetupBilling,
		IsActive:                  active,
	})
	require.NoError(t, err)
	return plan
}

func (f *fixture) signUp(t *testing.T, email, plan string) *domain.SignupResult {
	t.Helper()
	result, err := f.signup.Signup(context.Background(), domain.SignupParams{
		FirstName:   "John",
		Email:       email,
		Password:    "notsecure",
		CompanyName: "Hedgehogs United, LLC",
		Plan:        plan,
	})
	require.NoError(t, err)
	return result
}

func (f *fixture) teamBilling(t *testing.T, result *domain.SignupResult) repository.TeamBilling {
	t.Helper()
	tb, err := f.store.GetTeamBillingByTeamID(context.Background(), result.Team.ID)
	require.NoError(t, err)
	return tb
}
