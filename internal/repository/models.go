package repository

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

type Team struct {
	ID            uuid.UUID
	Name          string
	ApiToken      string
	IngestedEvent bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type User struct {
	ID           uuid.UUID
	TeamID       uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	DistinctID   string
	EmailOptIn   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Session struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Plan struct {
	ID                        uuid.UUID
	Key                       string
	Name                      string
	PriceID                   string
	DefaultShouldSetupBilling bool
	IsActive                  bool
	CreatedAt                 time.Time
}

type TeamBilling struct {
	ID                    uuid.UUID
	TeamID                uuid.UUID
	PlanID                uuid.NullUUID
	StripeCustomerID      string
	StripeCheckoutSession string
	ShouldSetupBilling    bool
	BillingPeriodEnds     sql.NullTime
	BillingEventAt        sql.NullTime
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type UserMessagingRecord struct {
	ID       int64
	UserID   uuid.UUID
	Campaign string
	SentAt   sql.NullTime
}

type StripeWebhookEvent struct {
	ID          string
	Type        string
	Payload     pqtype.NullRawMessage
	ProcessedAt time.Time
}

type Job struct {
	ID           uuid.UUID
	JobType      string
	Payload      []byte
	Status       string
	Priority     int32
	Attempts     int32
	MaxAttempts  int32
	ScheduledAt  time.Time
	StartedAt    sql.NullTime
	CompletedAt  sql.NullTime
	ErrorMessage sql.NullString
	CreatedAt    time.Time
}
