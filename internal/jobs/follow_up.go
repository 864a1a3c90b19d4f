package jobs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/DukeRupert/multitenancy/internal/domain"
	"github.com/DukeRupert/multitenancy/internal/email"
	"github.com/DukeRupert/multitenancy/internal/metrics"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/worker"
)

// Message statuses reported to metrics.
const (
	MessageSent    = "sent"
	MessageSkipped = "skipped"
	MessageFailed  = "failed"
)

// NoEventIngestionFollowUpHandler emails users whose team still has not sent
// an event. Each user receives the campaign at most once.
type NoEventIngestionFollowUpHandler struct {
	queries repository.Querier
	sender  email.Sender
	logger  *slog.Logger
	now     func() time.Time
}

// NewNoEventIngestionFollowUpHandler creates a new handler for follow-up jobs.
func NewNoEventIngestionFollowUpHandler(queries repository.Querier, sender email.Sender, logger *slog.Logger) *NoEventIngestionFollowUpHandler {
	return &NoEventIngestionFollowUpHandler{
		queries: queries,
		sender:  sender,
		logger:  logger,
		now:     time.Now,
	}
}

// Type returns the job type identifier.
func (h *NoEventIngestionFollowUpHandler) Type() string {
	return worker.JobTypeNoEventIngestionFollowUp
}

// Handle checks the team and sends the follow-up.
//
// The ledger entry is written before the email goes out. A crash or SMTP
// failure after the insert loses that email rather than sending it twice.
func (h *NoEventIngestionFollowUpHandler) Handle(ctx context.Context, payload []byte) error {
	p, err := worker.DecodePayload[worker.MessagingPayload](payload)
	if err != nil {
		return err
	}

	campaign := string(domain.CampaignNoEventIngestionFollowUp)
	logger := h.logger.With("user_id", p.UserID, "team_id", p.TeamID, "campaign", campaign)

	team, err := h.queries.GetTeamByID(ctx, p.TeamID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worker.NewPermanentError(fmt.Errorf("team not found: %s", p.TeamID))
		}
		return fmt.Errorf("fetch team: %w", err)
	}

	if team.IngestedEvent {
		logger.Info("Team has ingested events, skipping follow-up")
		metrics.MessageRecorded(campaign, MessageSkipped)
		return nil
	}

	user, err := h.queries.GetUserByID(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worker.NewPermanentError(fmt.Errorf("user not found: %s", p.UserID))
		}
		return fmt.Errorf("fetch user: %w", err)
	}

	created, err := h.queries.CreateMessagingRecord(ctx, repository.CreateMessagingRecordParams{
		UserID:   user.ID,
		Campaign: campaign,
		SentAt:   h.now(),
	})
	if err != nil {
		return fmt.Errorf("record message: %w", err)
	}
	if !created {
		logger.Info("Follow-up already sent")
		metrics.MessageRecorded(campaign, MessageSkipped)
		return nil
	}

	name := user.FirstName
	if name == "" {
		name = user.Email
	}

	if err := h.sender.SendNoEventIngestionFollowUp(ctx, user.Email, name); err != nil {
		metrics.MessageRecorded(campaign, MessageFailed)
		// The ledger already holds the entry; a retry would not send.
		return worker.NewPermanentError(fmt.Errorf("send follow-up: %w", err))
	}

	metrics.MessageRecorded(campaign, MessageSent)
	logger.Info("Sent follow-up email")

	return nil
}

var _ worker.JobHandler = (*NoEventIngestionFollowUpHandler)(nil)
