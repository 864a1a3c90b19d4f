// Package jobs contains the worker.JobHandler implementations.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/worker"
)

// SignupMessagingHandler runs once per signup and schedules the campaign
// checks that follow it.
type SignupMessagingHandler struct {
	queries       repository.Querier
	followUpDelay time.Duration
	logger        *slog.Logger
}

// NewSignupMessagingHandler creates a handler that schedules the
// no-event-ingestion follow-up followUpDelay after signup.
func NewSignupMessagingHandler(queries repository.Querier, followUpDelay time.Duration, logger *slog.Logger) *SignupMessagingHandler {
	return &SignupMessagingHandler{
		queries:       queries,
		followUpDelay: followUpDelay,
		logger:        logger,
	}
}

// Type returns the job type identifier.
func (h *SignupMessagingHandler) Type() string {
	return worker.JobTypeSignupMessaging
}

// Handle schedules the follow-up job.
func (h *SignupMessagingHandler) Handle(ctx context.Context, payload []byte) error {
	p, err := worker.DecodePayload[worker.MessagingPayload](payload)
	if err != nil {
		return err
	}

	job, err := worker.EnqueueNoEventIngestionFollowUp(ctx, h.queries, p.UserID, p.TeamID, h.followUpDelay)
	if err != nil {
		return fmt.Errorf("schedule follow-up: %w", err)
	}

	h.logger.Info("Scheduled signup follow-up",
		"user_id", p.UserID,
		"team_id", p.TeamID,
		"job_id", job.ID,
		"scheduled_at", job.ScheduledAt,
	)

	return nil
}

var _ worker.JobHandler = (*SignupMessagingHandler)(nil)
