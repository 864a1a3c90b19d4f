package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/multitenancy/internal/domain"
)

// =============================================================================
// Error Response Tests - Security Focus
// =============================================================================

func TestValidationErrorResponse_DoesNotExposeOperationName(t *testing.T) {
	logger := newTestLogger()

	ve := domain.NewValidationError("SignupService.Signup", "email", "Enter a valid email address.")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ValidationErrorResponse(w, r, logger, ve)
	})

	req := httptest.NewRequest("POST", "/signup", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if strings.Contains(body, "SignupService") {
		t.Errorf("response exposes internal operation name: %s", body)
	}
	if !strings.Contains(body, "check your input") {
		t.Errorf("response should have helpful guidance, got: %s", body)
	}
	if !strings.Contains(body, "email: Enter a valid email address.") {
		t.Errorf("response should list the field message, got: %s", body)
	}
}

func TestValidationErrorResponse_JSON_ReturnsFields(t *testing.T) {
	logger := newTestLogger()

	ve := &domain.ValidationError{Op: "SignupService.Signup"}
	ve.Add("email", "There is already an account with this email address.")
	ve.Add("password", "Password must be at least 8 characters.")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ValidationErrorResponse(w, r, logger, ve)
	})

	req := httptest.NewRequest("POST", "/api/team/signup/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	if strings.Contains(rec.Body.String(), "SignupService") {
		t.Errorf("JSON response exposes internal operation name: %s", rec.Body.String())
	}

	var body JSONError
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if body.Error.Code != domain.EINVALID {
		t.Errorf("code = %q, want %q", body.Error.Code, domain.EINVALID)
	}
	if body.Error.Fields["email"] != "There is already an account with this email address." {
		t.Errorf("email field = %q", body.Error.Fields["email"])
	}
	if len(body.Error.Fields) != 2 {
		t.Errorf("fields = %v, want 2 entries", body.Error.Fields)
	}
}

func TestValidationErrorResponse_FallsBackForOtherErrors(t *testing.T) {
	logger := newTestLogger()

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ValidationErrorResponse(w, r, logger, domain.Conflict("op", "Already exists"))
	})

	req := httptest.NewRequest("POST", "/api/team/signup/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
}

func TestErrorResponse_InternalErrorHidesDetails(t *testing.T) {
	logger := newTestLogger()

	dbErr := &mockDatabaseError{message: "pq: relation \"team_billing\" does not exist"}
	internalErr := domain.Internal(dbErr, "BillingService.Reconcile", "Failed to load billing")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, internalErr)
	})

	req := httptest.NewRequest("GET", "/billing/setup", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	if strings.Contains(body, "pq:") {
		t.Errorf("response exposes database error: %s", body)
	}
	if strings.Contains(body, "team_billing") {
		t.Errorf("response exposes database schema: %s", body)
	}
	if strings.Contains(body, "BillingService") {
		t.Errorf("response exposes internal operation: %s", body)
	}
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic internal error message, got: %s", body)
	}
}

func TestErrorResponse_UnavailableHidesDetails_JSON(t *testing.T) {
	logger := newTestLogger()

	stripeErr := errors.New("stripe: api_key sk_test_123 rejected")
	err := domain.Unavailable(stripeErr, "BillingService.Reconcile", "Failed to create checkout session")

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, err)
	})

	req := httptest.NewRequest("GET", "/api/user/", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", rec.Header().Get("Content-Type"))
	}
	if strings.Contains(body, "sk_test") {
		t.Errorf("JSON response exposes processor error: %s", body)
	}
	if !strings.Contains(body, "internal error") {
		t.Errorf("JSON response should contain generic error, got: %s", body)
	}
}

func TestErrorResponse_UnwrappedErrorReturnsGeneric(t *testing.T) {
	logger := newTestLogger()

	rawErr := &mockDatabaseError{message: "FATAL: password authentication failed for user \"postgres\""}

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(w, r, logger, rawErr)
	})

	req := httptest.NewRequest("GET", "/billing/manage", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	body := rec.Body.String()

	if strings.Contains(body, "FATAL") {
		t.Errorf("response exposes raw error: %s", body)
	}
	if strings.Contains(body, "postgres") {
		t.Errorf("response exposes database user: %s", body)
	}
	if !strings.Contains(body, "internal error") {
		t.Errorf("response should contain generic message, got: %s", body)
	}
}

func TestErrorCodeToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{domain.EINVALID, http.StatusBadRequest},
		{domain.EUNAUTHORIZED, http.StatusUnauthorized},
		{domain.EFORBIDDEN, http.StatusForbidden},
		{domain.ENOTFOUND, http.StatusNotFound},
		{domain.ECONFLICT, http.StatusConflict},
		{domain.ETOOLARGE, http.StatusRequestEntityTooLarge},
		{domain.EINTERNAL, http.StatusInternalServerError},
		{domain.EUNAVAILABLE, http.StatusBadGateway},
		{"something_else", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := ErrorCodeToHTTPStatus(tt.code); got != tt.want {
				t.Errorf("ErrorCodeToHTTPStatus(%q) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}
}

// mockDatabaseError simulates a database error for testing
type mockDatabaseError struct {
	message string
}

func (e *mockDatabaseError) Error() string {
	return e.message
}
