// Package session holds the session cookie and the request-context user
// shared by the handler and middleware packages.
//
// It sits below both packages so neither has to import the other for
// cookie names or context keys.
package session

import (
	"context"
	"net/http"
	"time"

	"github.com/DukeRupert/multitenancy/internal/domain"
)

const (
	// CookieName is the name of the cookie that stores the session token.
	CookieName = "multitenancy_session"

	// CookiePath ensures the cookie is sent with all requests.
	CookiePath = "/"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const userContextKey contextKey = "user"

// GetUser retrieves the authenticated user from the context.
//
// Returns nil if no user is authenticated.
func GetUser(ctx context.Context) *domain.User {
	user, ok := ctx.Value(userContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// WithUser stores a user in the context.
func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// SetCookie writes the session cookie. maxAge should match the lifetime of
// the server-side session row.
func SetCookie(w http.ResponseWriter, token string, maxAge time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     CookiePath,
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie on the client.
func ClearCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     CookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
