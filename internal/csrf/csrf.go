// Package csrf protects form posts with a double-submit cookie.
//
// The signup page sets a random token in a cookie and repeats it in a hidden
// field. A cross-site form can make the browser send the cookie but cannot
// read it, so it cannot fill in the field.
package csrf

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"net/http"
)

const (
	// CookieName is the name of the CSRF token cookie.
	CookieName = "csrf_token"

	// FieldName is the hidden form field carrying the token.
	FieldName = "csrf_token"

	// tokenBytes is the amount of randomness per token (256 bits).
	tokenBytes = 32

	// CookieMaxAge is the lifetime of the token cookie in seconds.
	CookieMaxAge = 3600
)

// GenerateToken returns 32 random bytes, base64 URL-encoded.
func GenerateToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("csrf: read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Valid reports whether the request's form field matches its cookie.
// The form must already be parsed.
func Valid(r *http.Request) bool {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	field := r.PostFormValue(FieldName)
	if field == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(field)) == 1
}

// EnsureToken returns the request's existing token, or issues a new one in
// a cookie. Call it on every page that renders a protected form.
func EnsureToken(w http.ResponseWriter, r *http.Request, isSecure bool) (string, error) {
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	token, err := GenerateToken()
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   CookieMaxAge,
		HttpOnly: true, // the token reaches the form through the template
		Secure:   isSecure,
		SameSite: http.SameSiteStrictMode,
	})
	return token, nil
}
