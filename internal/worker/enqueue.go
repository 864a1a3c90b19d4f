package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/google/uuid"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeSignupMessaging          = "process_team_signup_messaging"
	JobTypeNoEventIngestionFollowUp = "no_event_ingestion_follow_up"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// MessagingPayload is the payload of both signup messaging job types.
type MessagingPayload struct {
	UserID uuid.UUID `json:"user_id"`
	TeamID uuid.UUID `json:"team_id"`
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
// Pass a transaction-bound Querier to make the job part of a larger write.
func EnqueueJob(
	ctx context.Context,
	queries repository.Querier,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	// Marshal the payload to JSON
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Default parameters
	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	// Apply options
	for _, opt := range opts {
		opt(&params)
	}

	job, err := queries.EnqueueJob(ctx, params)
	if err != nil {
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueSignupMessaging schedules the signup messaging workflow for a new user.
// Called inside the signup transaction, so the task exists iff the signup committed.
func EnqueueSignupMessaging(
	ctx context.Context,
	queries repository.Querier,
	userID uuid.UUID,
	teamID uuid.UUID,
	opts ...EnqueueOption,
) (repository.Job, error) {
	payload := MessagingPayload{
		UserID: userID,
		TeamID: teamID,
	}

	return EnqueueJob(ctx, queries, JobTypeSignupMessaging, payload, opts...)
}

// EnqueueNoEventIngestionFollowUp schedules the follow-up check for a user.
func EnqueueNoEventIngestionFollowUp(
	ctx context.Context,
	queries repository.Querier,
	userID uuid.UUID,
	teamID uuid.UUID,
	delay time.Duration,
) (repository.Job, error) {
	payload := MessagingPayload{
		UserID: userID,
		TeamID: teamID,
	}

	return EnqueueJob(ctx, queries, JobTypeNoEventIngestionFollowUp, payload,
		WithDelay(delay),
		WithPriority(PriorityLow),
		WithMaxAttempts(5),
	)
}
