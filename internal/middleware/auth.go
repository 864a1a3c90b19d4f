// Package middleware contains HTTP middleware for the signup and billing server.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/handler"
	"github.com/DukeRupert/multitenancy/internal/session"
)

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// SessionResolver resolves a raw session token to its user.
// service.UserService satisfies it.
type SessionResolver interface {
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)
}

// AuthMiddleware provides authentication middleware functionality.
//
// Create one instance and use its methods as middleware.
type AuthMiddleware struct {
	sessions SessionResolver
	logger   *slog.Logger
	isSecure bool // Whether to set Secure flag on cookies (true in production)
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
func NewAuthMiddleware(sessions SessionResolver, logger *slog.Logger, isSecure bool) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
		logger:   logger,
		isSecure: isSecure,
	}
}

// GetUser retrieves the authenticated user from the request context.
// Returns nil if no user is authenticated.
func GetUser(ctx context.Context) *domain.User {
	return session.GetUser(ctx)
}

// =============================================================================
// WithUser Middleware
// =============================================================================

// WithUser loads the user from the session cookie when one is present.
//
// The request always continues. An invalid or expired session clears the
// cookie and continues without a user; a storage failure leaves the cookie
// alone.
//
// Flow:
//
//	Request -> WithUser -> Handler
//	           |
//	           +-> Read cookie
//	           +-> Validate session (if cookie exists)
//	           +-> Set user in context (if valid)
//	           +-> Call next handler (always)
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(session.CookieName)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		user, err := m.sessions.GetBySessionToken(r.Context(), cookie.Value)
		if err != nil {
			if domain.IsCode(err, domain.EUNAUTHORIZED) {
				session.ClearCookie(w, m.isSecure)
			} else {
				m.logger.Error("failed to resolve session", "error", err, "path", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(session.WithUser(r.Context(), user)))
	})
}

// =============================================================================
// RequireUser Middleware
// =============================================================================

// RequireUser requires an authenticated user set by WithUser.
//
// API requests without a user get 401 JSON; page requests are redirected
// to the signup page.
//
// IMPORTANT: This middleware must be used AFTER WithUser in the middleware chain.
//
//	mux.Handle("GET /billing/setup", Stack(authMw.WithUser, authMw.RequireUser)(h))
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if session.GetUser(r.Context()) == nil {
			if isAPIRequest(r) {
				handler.UnauthorizedResponse(w, r, m.logger)
				return
			}
			http.Redirect(w, r, "/signup", http.StatusSeeOther)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Request Helpers
// =============================================================================

// isAPIRequest determines if the request expects a JSON response.
//
// Checks:
// 1. Accept header contains application/json
// 2. Content-Type is application/json
// 3. URL path starts with /api/
func isAPIRequest(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}

	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		return true
	}

	return strings.HasPrefix(r.URL.Path, "/api/")
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(loggingMw, authMw.WithUser, authMw.RequireUser)
//	mux.Handle("GET /api/user/", stack(userHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
)
