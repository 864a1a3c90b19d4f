package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	analyticsmock "github.com/DukeRupert/multitenancy/internal/analytics/mock"
	billingmock "github.com/DukeRupert/multitenancy/internal/billing/mock"
	"github.com/DukeRupert/multitenancy/internal/csrf"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/repository/repotest"
	"github.com/DukeRupert/multitenancy/internal/service"
	"github.com/DukeRupert/multitenancy/internal/session"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

// testApp serves every handler against the in-memory store and mocks.
type testApp struct {
	store     *repotest.Store
	provider  *billingmock.Provider
	analytics *analyticsmock.Client
	users     service.UserService
	billing   service.BillingService
	mux       *http.ServeMux
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	logger := newTestLogger()

	renderer, err := NewRendererFromFS(Templates(), logger)
	require.NoError(t, err)

	a := &testApp{
		store:     repotest.New(),
		provider:  billingmock.New("", logger),
		analytics: analyticsmock.New(),
		mux:       http.NewServeMux(),
	}
	a.users = service.NewUserService(a.store, logger)
	a.billing = service.NewBillingService(a.store, a.provider, service.BillingServiceConfig{
		BaseURL:        "http://localhost:8000",
		DefaultPriceID: "price_default",
	}, logger)
	signup := service.NewSignupService(a.store, a.analytics, service.SignupServiceConfig{}, logger)

	passthrough := func(next http.Handler) http.Handler { return next }

	NewSignupHandler(signup, renderer, logger, false).RegisterRoutes(a.mux, passthrough)
	NewUserHandler(a.users, a.billing, renderer, logger).RegisterRoutes(a.mux, a.requireUser)
	NewBillingHandler(a.billing, renderer, logger).RegisterRoutes(a.mux, a.requireUser)
	NewWebhookHandler(a.billing, logger).RegisterRoutes(a.mux)

	return a
}

// requireUser stands in for the auth middleware, which imports this package.
func (a *testApp) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			UnauthorizedResponse(w, r, newTestLogger())
			return
		}
		user, err := a.users.GetBySessionToken(r.Context(), cookie.Value)
		if err != nil {
			UnauthorizedResponse(w, r, newTestLogger())
			return
		}
		next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
	})
}

func (a *testApp) createPlan(t *testing.T, key string, shouldSetupBilling bool) {
	t.Helper()
	_, err := a.store.CreatePlan(context.Background(), repository.CreatePlanParams{
		Key:                       key,
		Name:                      key,
		DefaultShouldSetupBilling: shouldSetupBilling,
		IsActive:                  true,
	})
	require.NoError(t, err)
}

func (a *testApp) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.mux.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, target string, body any) *http.Request {
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(body)
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// signUp creates an account through the API and returns its session cookie.
func (a *testApp) signUp(t *testing.T, email, plan string) *http.Cookie {
	t.Helper()
	rec := a.do(jsonRequest("POST", "/api/team/signup/", map[string]any{
		"first_name":   "John",
		"email":        email,
		"password":     "notsecure",
		"company_name": "Hedgehogs United, LLC",
		"plan":         plan,
	}))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(t, rec)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", session.CookieName)
	return nil
}

const testCSRFToken = "csrf-test-token"

// formRequest builds a browser form post carrying a valid CSRF token.
func formRequest(target string, values map[string]string) *http.Request {
	parts := []string{csrf.FieldName + "=" + testCSRFToken}
	for k, v := range values {
		parts = append(parts, k+"="+v)
	}
	req := httptest.NewRequest("POST", target, strings.NewReader(strings.Join(parts, "&")))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "text/html")
	req.AddCookie(&http.Cookie{Name: csrf.CookieName, Value: testCSRFToken})
	return req
}
