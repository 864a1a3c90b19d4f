// Package domain contains core business types for teams, users, and billing.
//
// These types are separate from the repository models so the billing rules can
// be expressed without sql.Null* plumbing.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Team is a tenant that owns one or more users and one billing record.
type Team struct {
	ID            uuid.UUID
	Name          string
	APIToken      string
	IngestedEvent bool
	CreatedAt     time.Time
}

// User is a member of exactly one team.
type User struct {
	ID           uuid.UUID
	TeamID       uuid.UUID
	Email        string
	PasswordHash string // Never expose this in API responses
	FirstName    string
	DistinctID   string
	EmailOptIn   bool
	CreatedAt    time.Time
}

// DisplayName returns the user's first name or email if the name is empty.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}

// Session represents an authenticated session.
type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string // SHA-256 hash of the session token
	ExpiresAt time.Time
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// SignupParams contains the raw parameters of a team signup.
type SignupParams struct {
	FirstName   string
	Email       string
	Password    string // Raw password, hashed by the service
	CompanyName string
	EmailOptIn  bool
	Plan        string // Optional plan key; unknown keys are ignored
}

// SignupResult is returned after a successful signup.
type SignupResult struct {
	User         *User
	Team         *Team
	SessionToken    string        // Raw session token, returned once
	SessionDuration time.Duration // Lifetime of the session behind SessionToken
	Billing         *TeamBilling  // nil when no valid plan was supplied
}
