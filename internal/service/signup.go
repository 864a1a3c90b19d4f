package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/multitenancy/internal/analytics"
	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/metrics"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/worker"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultTeamName is used when signup omits the company name.
const DefaultTeamName = "Default"

// SignupService creates a team and its first user in one step.
type SignupService interface {
	// Signup validates params, then creates the team, the user, the optional
	// plan-derived billing record, a session and the messaging task in a
	// single transaction.
	// Returns *domain.ValidationError for invalid input or a taken email.
	Signup(ctx context.Context, params domain.SignupParams) (*domain.SignupResult, error)
}

// SignupServiceConfig holds signup settings.
type SignupServiceConfig struct {
	SessionDuration time.Duration
	EEAvailable     bool   // Reported on the identify call
	Realm           string // Reported on the identify call; defaults to "cloud"
	Clock           Clock
}

type signupService struct {
	store     Store
	analytics analytics.Client
	config    SignupServiceConfig
	now       Clock
	logger    *slog.Logger
}

// NewSignupService creates a new SignupService instance.
func NewSignupService(store Store, client analytics.Client, config SignupServiceConfig, logger *slog.Logger) SignupService {
	config.SessionDuration = normalizeSessionDuration(config.SessionDuration)
	if config.Realm == "" {
		config.Realm = "cloud"
	}
	if client == nil {
		client = analytics.Noop{}
	}

	return &signupService{
		store:     store,
		analytics: client,
		config:    config,
		now:       clockOrDefault(config.Clock),
		logger:    logger,
	}
}

// Signup creates a team and its first user.
//
// Flow:
// 1. Normalize and validate input (email format, password length, email availability)
// 2. Hash the password with bcrypt
// 3. In one transaction: team, user, billing (valid plan only), session, messaging job
// 4. After commit: analytics capture + identify
//
// An unknown or inactive plan key is ignored; the signup still succeeds
// without a billing record.
func (s *signupService) Signup(ctx context.Context, params domain.SignupParams) (*domain.SignupResult, error) {
	const op = "SignupService.Signup"

	params.Email = strings.ToLower(strings.TrimSpace(params.Email))
	params.FirstName = strings.TrimSpace(params.FirstName)
	params.CompanyName = strings.TrimSpace(params.CompanyName)
	params.Plan = strings.TrimSpace(params.Plan)

	if err := s.validate(ctx, op, params); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	teamName := params.CompanyName
	if teamName == "" {
		teamName = DefaultTeamName
	}

	apiToken, err := generateAPIToken()
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to generate API token")
	}

	var (
		result      domain.SignupResult
		isFirstUser bool
	)

	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		userCount, err := q.CountUsers(ctx)
		if err != nil {
			return domain.Internal(err, op, "Failed to count users")
		}
		isFirstUser = userCount == 0

		repoTeam, err := q.CreateTeam(ctx, repository.CreateTeamParams{
			Name:     teamName,
			ApiToken: apiToken,
		})
		if err != nil {
			return domain.Internal(err, op, "Failed to create team")
		}

		repoUser, err := q.CreateUser(ctx, repository.CreateUserParams{
			TeamID:       repoTeam.ID,
			Email:        params.Email,
			PasswordHash: string(passwordHash),
			FirstName:    params.FirstName,
			DistinctID:   uuid.NewString(),
			EmailOptIn:   params.EmailOptIn,
		})
		if err != nil {
			// Lost a race with a concurrent signup for the same email
			if constraint, ok := repository.UniqueConstraint(err); ok && constraint == "users_email_key" {
				return domain.NewValidationError(op, "email", "There is already an account with this email address.")
			}
			return domain.Internal(err, op, "Failed to create user")
		}

		billing, err := s.applyPlan(ctx, q, repoTeam.ID, params.Plan)
		if err != nil {
			return domain.Internal(err, op, "Failed to apply plan")
		}

		token, err := createSession(ctx, q, repoUser.ID, s.now(), s.config.SessionDuration)
		if err != nil {
			return domain.Internal(err, op, "Failed to create session")
		}

		if _, err := worker.EnqueueSignupMessaging(ctx, q, repoUser.ID, repoTeam.ID); err != nil {
			return domain.Internal(err, op, "Failed to schedule signup messaging")
		}

		result = domain.SignupResult{
			User:            repoUserToDomain(repoUser),
			Team:            repoTeamToDomain(repoTeam),
			SessionToken:    token,
			SessionDuration: s.config.SessionDuration,
			Billing:         billing,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.User.PasswordHash = ""

	s.analytics.Capture(result.User.DistinctID, "user signed up", map[string]any{
		"is_first_user":      isFirstUser,
		"is_team_first_user": true,
	})
	s.analytics.Identify(result.User.DistinctID, map[string]any{
		"email":        result.User.Email,
		"realm":        s.config.Realm,
		"ee_available": s.config.EEAvailable,
	})

	metrics.SignupRecorded(result.Billing != nil)

	s.logger.Info("team signed up",
		"user_id", result.User.ID,
		"team_id", result.Team.ID,
		"plan_applied", result.Billing != nil,
	)

	return &result, nil
}

// validate collects every field error before returning.
func (s *signupService) validate(ctx context.Context, op string, params domain.SignupParams) error {
	verr := &domain.ValidationError{Op: op}

	if params.FirstName == "" {
		verr.Add("first_name", "This field is required.")
	}

	if err := validateEmail(params.Email); err != nil {
		verr.Add("email", domain.ErrorMessage(err))
	}

	if err := validatePassword(params.Password); err != nil {
		verr.Add("password", domain.ErrorMessage(err))
	}

	if _, ok := verr.Fields["email"]; !ok {
		_, err := s.store.GetUserByEmail(ctx, params.Email)
		switch {
		case err == nil:
			verr.Add("email", "There is already an account with this email address.")
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Internal(err, op, "Failed to check email availability")
		}
	}

	return verr.OrNil()
}

// applyPlan creates the team's billing record from an active plan.
// Returns nil, nil when key is empty or does not name an active plan.
func (s *signupService) applyPlan(ctx context.Context, q repository.Querier, teamID uuid.UUID, key string) (*domain.TeamBilling, error) {
	if key == "" {
		return nil, nil
	}

	plan, err := q.GetPlanByKey(ctx, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("ignoring unknown plan at signup", "plan", key)
			return nil, nil
		}
		return nil, err
	}
	if !plan.IsActive {
		s.logger.Debug("ignoring inactive plan at signup", "plan", key)
		return nil, nil
	}

	tb, err := q.CreateTeamBilling(ctx, repository.CreateTeamBillingParams{
		TeamID:             teamID,
		PlanID:             uuid.NullUUID{UUID: plan.ID, Valid: true},
		ShouldSetupBilling: plan.DefaultShouldSetupBilling,
	})
	if err != nil {
		return nil, err
	}

	return repoTeamBillingToDomain(tb), nil
}
