package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	emailmock "github.com/DukeRupert/multitenancy/internal/email/mock"
	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/repository/repotest"
	"github.com/DukeRupert/multitenancy/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

func seedUser(t *testing.T, store *repotest.Store, firstName string) (repository.Team, repository.User) {
	t.Helper()
	ctx := context.Background()

	team, err := store.CreateTeam(ctx, repository.CreateTeamParams{Name: "Hedgehogs", ApiToken: "tok_" + firstName})
	require.NoError(t, err)

	user, err := store.CreateUser(ctx, repository.CreateUserParams{
		TeamID:       team.ID,
		Email:        firstName + "@posthog.com",
		PasswordHash: "x",
		FirstName:    firstName,
		DistinctID:   "distinct_" + firstName,
	})
	require.NoError(t, err)

	return team, user
}

func payloadFor(t *testing.T, team repository.Team, user repository.User) []byte {
	t.Helper()
	b, err := json.Marshal(worker.MessagingPayload{UserID: user.ID, TeamID: team.ID})
	require.NoError(t, err)
	return b
}

// =============================================================================
// SignupMessagingHandler
// =============================================================================

func TestSignupMessagingHandler_SchedulesFollowUp(t *testing.T) {
	store := repotest.New()
	team, user := seedUser(t, store, "john")
	h := NewSignupMessagingHandler(store, 72*time.Hour, newTestLogger())

	assert.Equal(t, worker.JobTypeSignupMessaging, h.Type())

	before := time.Now()
	require.NoError(t, h.Handle(context.Background(), payloadFor(t, team, user)))

	jobs := store.JobsOfType(worker.JobTypeNoEventIngestionFollowUp)
	require.Len(t, jobs, 1)
	assert.False(t, jobs[0].ScheduledAt.Before(before.Add(72*time.Hour)))
	assert.Equal(t, int32(worker.PriorityLow), jobs[0].Priority)

	var p worker.MessagingPayload
	require.NoError(t, json.Unmarshal(jobs[0].Payload, &p))
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, team.ID, p.TeamID)
}

func TestSignupMessagingHandler_BadPayloadIsPermanent(t *testing.T) {
	h := NewSignupMessagingHandler(repotest.New(), time.Hour, newTestLogger())

	err := h.Handle(context.Background(), []byte("not json"))
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))
}

func TestSignupMessagingHandler_EnqueueErrorIsRetryable(t *testing.T) {
	store := repotest.New()
	team, user := seedUser(t, store, "john")
	store.Errors["EnqueueJob"] = errors.New("connection reset")

	h := NewSignupMessagingHandler(store, time.Hour, newTestLogger())

	err := h.Handle(context.Background(), payloadFor(t, team, user))
	require.Error(t, err)
	assert.False(t, worker.IsPermanent(err))
}

// =============================================================================
// NoEventIngestionFollowUpHandler
// =============================================================================

func TestFollowUp_SendsOnce(t *testing.T) {
	store := repotest.New()
	team, user := seedUser(t, store, "john")
	sender := emailmock.New()
	h := NewNoEventIngestionFollowUpHandler(store, sender, newTestLogger())

	assert.Equal(t, worker.JobTypeNoEventIngestionFollowUp, h.Type())

	payload := payloadFor(t, team, user)
	require.NoError(t, h.Handle(context.Background(), payload))
	require.NoError(t, h.Handle(context.Background(), payload))

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "john@posthog.com", sent[0].To)
	assert.Equal(t, "john", sent[0].Name)

	records := store.MessagingRecords()
	require.Len(t, records, 1)
	assert.Equal(t, user.ID, records[0].UserID)
	assert.Equal(t, "no_event_ingestion_follow_up", records[0].Campaign)
	assert.True(t, records[0].SentAt.Valid)
}

func TestFollowUp_SkipsTeamsWithEvents(t *testing.T) {
	store := repotest.New()
	team, user := seedUser(t, store, "john")
	_, err := store.SetTeamIngestedEvent(context.Background(), repository.SetTeamIngestedEventParams{ID: team.ID, IngestedEvent: true})
	require.NoError(t, err)

	sender := emailmock.New()
	h := NewNoEventIngestionFollowUpHandler(store, sender, newTestLogger())

	require.NoError(t, h.Handle(context.Background(), payloadFor(t, team, user)))
	assert.Empty(t, sender.Sent())
	assert.Empty(t, store.MessagingRecords())
}

func TestFollowUp_SendFailureDoesNotResend(t *testing.T) {
	store := repotest.New()
	team, user := seedUser(t, store, "john")
	sender := emailmock.New()
	sender.Error = errors.New("smtp: connection refused")
	h := NewNoEventIngestionFollowUpHandler(store, sender, newTestLogger())

	payload := payloadFor(t, team, user)
	err := h.Handle(context.Background(), payload)
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))

	sender.Error = nil
	require.NoError(t, h.Handle(context.Background(), payload))
	assert.Empty(t, sender.Sent())
	assert.Len(t, store.MessagingRecords(), 1)
}

func TestFollowUp_MissingRowsArePermanent(t *testing.T) {
	// Rows live in a different store than the one the handler reads
	team, user := seedUser(t, repotest.New(), "john")
	h := NewNoEventIngestionFollowUpHandler(repotest.New(), emailmock.New(), newTestLogger())

	err := h.Handle(context.Background(), payloadFor(t, team, user))
	require.Error(t, err)
	assert.True(t, worker.IsPermanent(err))
}

func TestFollowUp_StorageErrorIsRetryable(t *testing.T) {
	store := repotest.New()
	team, user := seedUser(t, store, "john")
	store.Errors["CreateMessagingRecord"] = errors.New("connection reset")
	sender := emailmock.New()
	h := NewNoEventIngestionFollowUpHandler(store, sender, newTestLogger())

	err := h.Handle(context.Background(), payloadFor(t, team, user))
	require.Error(t, err)
	assert.False(t, worker.IsPermanent(err))
	assert.Empty(t, sender.Sent())
}

// =============================================================================
// End to end through the worker
// =============================================================================

func TestMessagingFlowThroughWorker(t *testing.T) {
	store := repotest.New()
	team, user := seedUser(t, store, "john")
	sender := emailmock.New()

	ctx := context.Background()
	_, err := worker.EnqueueSignupMessaging(ctx, store, user.ID, team.ID)
	require.NoError(t, err)

	w, err := worker.New(store, worker.Config{
		Concurrency:         1,
		PollInterval:        time.Second,
		JobTimeout:          time.Second,
		StaleJobThreshold:   time.Minute,
		ShutdownTimeout:     time.Second,
		MaintenanceInterval: time.Hour,
	}, newTestLogger())
	require.NoError(t, err)

	// Zero delay so the follow-up runs in the same test
	w.Register(NewSignupMessagingHandler(store, 0, newTestLogger()))
	w.Register(NewNoEventIngestionFollowUpHandler(store, sender, newTestLogger()))

	w.Start(ctx)
	defer w.Stop()

	require.Eventually(t, func() bool {
		return len(sender.Sent()) == 1
	}, 10*time.Second, 50*time.Millisecond)
}
