package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/google/uuid"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// Cost 12 provides good security (~250ms on modern hardware) while being
	// fast enough for signup flows.
	BcryptCost = 12

	// SessionTokenBytes is the number of random bytes for session tokens.
	// The token is then hex-encoded to 64 characters for storage/transmission.
	SessionTokenBytes = 32

	// DefaultSessionDuration is how long a session remains valid when the
	// config does not say otherwise.
	DefaultSessionDuration = 7 * 24 * time.Hour

	// MinSessionDuration and MaxSessionDuration bound a configured duration.
	MinSessionDuration = 15 * time.Minute
	MaxSessionDuration = 30 * 24 * time.Hour

	// MinPasswordLength is the minimum password length.
	MinPasswordLength = 8

	// MaxPasswordLength prevents DoS via bcrypt on very long passwords.
	// bcrypt has a 72-byte limit anyway, but we cap earlier for clarity.
	MaxPasswordLength = 72

	// APITokenBytes is the number of random bytes in a team's ingestion token.
	APITokenBytes = 32
)

// =============================================================================
// Interface Definition
// =============================================================================

// UserService resolves the authenticated user and their team.
type UserService interface {
	// GetByID retrieves a user by their ID.
	// Returns domain.ENOTFOUND if user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetBySessionToken retrieves a user by their session token.
	// Returns domain.EUNAUTHORIZED if token is invalid or expired.
	GetBySessionToken(ctx context.Context, token string) (*domain.User, error)

	// GetTeam retrieves the team a user belongs to.
	// Returns domain.ENOTFOUND if the team does not exist.
	GetTeam(ctx context.Context, teamID uuid.UUID) (*domain.Team, error)
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	store  Store
	logger *slog.Logger
}

// NewUserService creates a new UserService instance.
func NewUserService(store Store, logger *slog.Logger) UserService {
	return &userService{
		store:  store,
		logger: logger,
	}
}

// GetByID retrieves a user by their ID.
func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "UserService.GetByID"

	repoUser, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "user", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)

	// Clear password hash for security
	user.PasswordHash = ""

	return user, nil
}

// GetBySessionToken retrieves a user by their session token.
//
// Flow:
// 1. Hash the provided raw token
// 2. Look up session by token hash (expired sessions are filtered by the query)
// 3. Look up associated user
func (s *userService) GetBySessionToken(ctx context.Context, token string) (*domain.User, error) {
	const op = "UserService.GetBySessionToken"

	// Tokens are 64 hex characters
	if len(token) != SessionTokenBytes*2 {
		return nil, domain.Unauthorized(op, "Invalid or expired session")
	}

	session, err := s.store.GetSessionByTokenHash(ctx, hashSessionToken(token))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve session")
	}

	repoUser, err := s.store.GetUserByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Unlikely but possible if user was deleted
			return nil, domain.Unauthorized(op, "Invalid or expired session")
		}
		return nil, domain.Internal(err, op, "Failed to retrieve user")
	}

	user := repoUserToDomain(repoUser)
	user.PasswordHash = ""

	return user, nil
}

// GetTeam retrieves a team by ID.
func (s *userService) GetTeam(ctx context.Context, teamID uuid.UUID) (*domain.Team, error) {
	const op = "UserService.GetTeam"

	repoTeam, err := s.store.GetTeamByID(ctx, teamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "team", teamID.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve team")
	}

	return repoTeamToDomain(repoTeam), nil
}

// =============================================================================
// Session Helpers
// =============================================================================

// createSession stores a new session for userID and returns the raw token.
// Only the SHA-256 hash of the token is persisted.
func createSession(ctx context.Context, q repository.Querier, userID uuid.UUID, now time.Time, duration time.Duration) (string, error) {
	token, err := generateSessionToken()
	if err != nil {
		return "", err
	}

	_, err = q.CreateSession(ctx, repository.CreateSessionParams{
		UserID:    userID,
		TokenHash: hashSessionToken(token),
		ExpiresAt: now.Add(duration),
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// normalizeSessionDuration applies the default and clamps to the allowed range.
func normalizeSessionDuration(d time.Duration) time.Duration {
	switch {
	case d == 0:
		return DefaultSessionDuration
	case d < MinSessionDuration:
		return MinSessionDuration
	case d > MaxSessionDuration:
		return MaxSessionDuration
	}
	return d
}

// generateSessionToken creates a cryptographically secure session token.
//
// Returns a 64-character hex string representing 32 random bytes.
func generateSessionToken() (string, error) {
	return randomHex(SessionTokenBytes)
}

// generateAPIToken creates the token a team's SDKs send events with.
func generateAPIToken() (string, error) {
	return randomHex(APITokenBytes)
}

func randomHex(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// hashSessionToken creates a SHA-256 hash of a session token.
//
// Session tokens are high-entropy random values, so a fast hash is enough;
// a leaked sessions table cannot be replayed.
func hashSessionToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// =============================================================================
// Conversion Helpers
// =============================================================================

func repoUserToDomain(u repository.User) *domain.User {
	return &domain.User{
		ID:           u.ID,
		TeamID:       u.TeamID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		FirstName:    u.FirstName,
		DistinctID:   u.DistinctID,
		EmailOptIn:   u.EmailOptIn,
		CreatedAt:    u.CreatedAt,
	}
}

func repoTeamToDomain(t repository.Team) *domain.Team {
	return &domain.Team{
		ID:            t.ID,
		Name:          t.Name,
		APIToken:      t.ApiToken,
		IngestedEvent: t.IngestedEvent,
		CreatedAt:     t.CreatedAt,
	}
}

func repoPlanToDomain(p repository.Plan) *domain.Plan {
	return &domain.Plan{
		ID:                        p.ID,
		Key:                       p.Key,
		Name:                      p.Name,
		PriceID:                   p.PriceID,
		DefaultShouldSetupBilling: p.DefaultShouldSetupBilling,
		IsActive:                  p.IsActive,
	}
}

func repoTeamBillingToDomain(b repository.TeamBilling) *domain.TeamBilling {
	var planID *uuid.UUID
	if b.PlanID.Valid {
		id := b.PlanID.UUID
		planID = &id
	}

	var periodEnds *time.Time
	if b.BillingPeriodEnds.Valid {
		t := b.BillingPeriodEnds.Time
		periodEnds = &t
	}

	return &domain.TeamBilling{
		ID:                    b.ID,
		TeamID:                b.TeamID,
		PlanID:                planID,
		StripeCustomerID:      b.StripeCustomerID,
		StripeCheckoutSession: b.StripeCheckoutSession,
		ShouldSetupBilling:    b.ShouldSetupBilling,
		BillingPeriodEnds:     periodEnds,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
	}
}

// =============================================================================
// Validation Helpers
// =============================================================================

// validateEmail validates an email address format.
//
// Checks:
// - Basic format validation (contains @, has domain)
// - Length limits (RFC 5321: 254 chars max)
func validateEmail(email string) error {
	if email == "" {
		return domain.Invalid("", "Email is required")
	}

	if len(email) > 254 {
		return domain.Invalid("", "Email must be 254 characters or less")
	}

	// Must contain exactly one @, and domain part must have a dot
	if strings.Count(email, "@") != 1 {
		return domain.Invalid("", "Email must contain exactly one @ symbol")
	}

	atIndex := strings.Index(email, "@")
	if atIndex == 0 {
		return domain.Invalid("", "Email cannot start with @")
	}
	if atIndex == len(email)-1 {
		return domain.Invalid("", "Email cannot end with @")
	}

	if !strings.Contains(email[atIndex+1:], ".") {
		return domain.Invalid("", "Email domain must contain a dot")
	}

	if strings.Contains(email, "..") {
		return domain.Invalid("", "Email cannot contain consecutive dots")
	}

	if strings.ContainsAny(email, " \t\r\n") {
		return domain.Invalid("", "Email cannot contain whitespace")
	}

	return nil
}

// validatePassword validates password length requirements.
//
// Rules:
// - Minimum length: 8 characters
// - Maximum length: 72 characters (bcrypt limit)
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}

	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}

	return nil
}
