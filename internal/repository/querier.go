package repository

import (
	"context"

	"github.com/google/uuid"
)

// Querier is implemented by *Queries. Services depend on it so tests can
// substitute an in-memory store.
type Querier interface {
	// teams
	CreateTeam(ctx context.Context, arg CreateTeamParams) (Team, error)
	GetTeamByID(ctx context.Context, id uuid.UUID) (Team, error)
	SetTeamIngestedEvent(ctx context.Context, arg SetTeamIngestedEventParams) (int64, error)

	// users
	CountUsers(ctx context.Context) (int64, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)

	// sessions
	CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error)
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (Session, error)
	DeleteExpiredSessions(ctx context.Context) (int64, error)

	// plans
	CreatePlan(ctx context.Context, arg CreatePlanParams) (Plan, error)
	GetPlanByID(ctx context.Context, id uuid.UUID) (Plan, error)
	GetPlanByKey(ctx context.Context, key string) (Plan, error)
	ListPlans(ctx context.Context) ([]Plan, error)

	// team billing
	CreateTeamBilling(ctx context.Context, arg CreateTeamBillingParams) (TeamBilling, error)
	GetTeamBillingByTeamID(ctx context.Context, teamID uuid.UUID) (TeamBilling, error)
	GetTeamBillingByCheckoutSession(ctx context.Context, session string) (TeamBilling, error)
	GetTeamBillingByCustomerID(ctx context.Context, customerID string) (TeamBilling, error)
	UpdateTeamBillingCheckoutSession(ctx context.Context, arg UpdateTeamBillingCheckoutSessionParams) error
	UpdateTeamBillingCustomerID(ctx context.Context, arg UpdateTeamBillingCustomerIDParams) error
	ExtendBillingPeriod(ctx context.Context, arg BillingPeriodParams) (int64, error)
	EndBillingPeriod(ctx context.Context, arg BillingPeriodParams) (int64, error)

	// messaging
	CreateMessagingRecord(ctx context.Context, arg CreateMessagingRecordParams) (bool, error)
	GetMessagingRecord(ctx context.Context, arg GetMessagingRecordParams) (UserMessagingRecord, error)

	// webhook events
	RecordWebhookEvent(ctx context.Context, arg RecordWebhookEventParams) (bool, error)

	// jobs
	EnqueueJob(ctx context.Context, arg EnqueueJobParams) (Job, error)
	DequeueJob(ctx context.Context) (Job, error)
	UpdateJobStarted(ctx context.Context, id uuid.UUID) error
	UpdateJobCompleted(ctx context.Context, id uuid.UUID) error
	UpdateJobFailed(ctx context.Context, arg UpdateJobFailedParams) (string, error)
	RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error)
}

var _ Querier = (*Queries)(nil)
