package worker

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/DukeRupert/multitenancy/internal/repository/repotest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid default config",
			config:  DefaultConfig(),
			wantErr: false,
		},
		{
			name: "concurrency too low",
			config: Config{
				Concurrency:       0,
				PollInterval:      5 * time.Second,
				JobTimeout:        5 * time.Minute,
				ShutdownTimeout:   30 * time.Second,
				StaleJobThreshold: 10 * time.Minute,
			},
			wantErr: true,
		},
		{
			name: "concurrency too high",
			config: Config{
				Concurrency:       101,
				PollInterval:      5 * time.Second,
				JobTimeout:        5 * time.Minute,
				ShutdownTimeout:   30 * time.Second,
				StaleJobThreshold: 10 * time.Minute,
			},
			wantErr: true,
		},
		{
			name: "poll interval too short",
			config: Config{
				Concurrency:       2,
				PollInterval:      500 * time.Millisecond,
				JobTimeout:        5 * time.Minute,
				ShutdownTimeout:   30 * time.Second,
				StaleJobThreshold: 10 * time.Minute,
			},
			wantErr: true,
		},
		{
			name: "maintenance interval too short",
			config: Config{
				Concurrency:         2,
				PollInterval:        5 * time.Second,
				JobTimeout:          5 * time.Minute,
				ShutdownTimeout:     30 * time.Second,
				StaleJobThreshold:   10 * time.Minute,
				MaintenanceInterval: 10 * time.Second,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Config.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsPermanent(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "permanent error",
			err:  NewPermanentError(context.Canceled),
			want: true,
		},
		{
			name: "regular error",
			err:  context.Canceled,
			want: false,
		},
		{
			name: "nil error",
			err:  nil,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsPermanent(tt.err); got != tt.want {
				t.Errorf("IsPermanent() = %v, want %v", got, tt.want)
			}
		})
	}
}

// =============================================================================
// Job processing
// =============================================================================

type recordingHandler struct {
	jobType  string
	err      error
	payloads [][]byte
}

func (h *recordingHandler) Type() string { return h.jobType }

func (h *recordingHandler) Handle(ctx context.Context, payload []byte) error {
	h.payloads = append(h.payloads, payload)
	return h.err
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError, // Only show errors in tests
	}))
}

func newTestWorker(t *testing.T, store *repotest.Store) *Worker {
	t.Helper()
	w, err := New(store, DefaultConfig(), newTestLogger())
	require.NoError(t, err)
	return w
}

func TestProcessNextJob_NoJobs(t *testing.T) {
	store := repotest.New()
	w := newTestWorker(t, store)

	err := w.processNextJob(context.Background(), w.logger)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestProcessNextJob_Completes(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	w := newTestWorker(t, store)
	h := &recordingHandler{jobType: JobTypeSignupMessaging}
	w.Register(h)

	userID, teamID := uuid.New(), uuid.New()
	_, err := EnqueueSignupMessaging(ctx, store, userID, teamID)
	require.NoError(t, err)

	require.NoError(t, w.processNextJob(ctx, w.logger))

	require.Len(t, h.payloads, 1)
	payload, err := DecodePayload[MessagingPayload](h.payloads[0])
	require.NoError(t, err)
	assert.Equal(t, userID, payload.UserID)
	assert.Equal(t, teamID, payload.TeamID)

	jobs := store.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "completed", jobs[0].Status)
	assert.Equal(t, int32(1), jobs[0].Attempts)
}

func TestProcessNextJob_RetryableFailure(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	w := newTestWorker(t, store)
	w.Register(&recordingHandler{jobType: JobTypeSignupMessaging, err: errors.New("smtp timeout")})

	_, err := EnqueueSignupMessaging(ctx, store, uuid.New(), uuid.New())
	require.NoError(t, err)

	err = w.processNextJob(ctx, w.logger)
	require.Error(t, err)

	job := store.Jobs()[0]
	assert.Equal(t, "pending", job.Status)
	assert.Equal(t, "smtp timeout", job.ErrorMessage.String)
	assert.True(t, job.ScheduledAt.After(time.Now()), "retry should be scheduled in the future")
}

func TestProcessNextJob_PermanentFailure(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	w := newTestWorker(t, store)
	w.Register(&recordingHandler{jobType: JobTypeSignupMessaging, err: NewPermanentError(errors.New("user deleted"))})

	_, err := EnqueueSignupMessaging(ctx, store, uuid.New(), uuid.New())
	require.NoError(t, err)

	require.Error(t, w.processNextJob(ctx, w.logger))
	assert.Equal(t, "failed", store.Jobs()[0].Status)
}

func TestProcessNextJob_UnknownJobType(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	w := newTestWorker(t, store)

	_, err := EnqueueJob(ctx, store, "unknown_job", map[string]string{})
	require.NoError(t, err)

	require.Error(t, w.processNextJob(ctx, w.logger))
	assert.Equal(t, "failed", store.Jobs()[0].Status)
}

func TestProcessNextJob_SkipsDelayedJobs(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	w := newTestWorker(t, store)
	h := &recordingHandler{jobType: JobTypeNoEventIngestionFollowUp}
	w.Register(h)

	_, err := EnqueueNoEventIngestionFollowUp(ctx, store, uuid.New(), uuid.New(), time.Hour)
	require.NoError(t, err)

	err = w.processNextJob(ctx, w.logger)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.Empty(t, h.payloads)

	store.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, w.processNextJob(ctx, w.logger))
	assert.Len(t, h.payloads, 1)
}

func TestMaintain_RecoversStaleJobsAndPurgesSessions(t *testing.T) {
	ctx := context.Background()
	store := repotest.New()
	w := newTestWorker(t, store)

	job, err := EnqueueSignupMessaging(ctx, store, uuid.New(), uuid.New())
	require.NoError(t, err)
	require.NoError(t, store.UpdateJobStarted(ctx, job.ID))

	_, err = store.CreateSession(ctx, repositorySession(uuid.New(), time.Now().Add(-time.Minute)))
	require.NoError(t, err)

	store.Now = func() time.Time { return time.Now().Add(time.Hour) }
	w.maintain(ctx)

	assert.Equal(t, "pending", store.Jobs()[0].Status)
	n, err := store.DeleteExpiredSessions(ctx)
	require.NoError(t, err)
	assert.Zero(t, n, "expired sessions should already be gone")
}

func TestDecodePayload_Malformed(t *testing.T) {
	_, err := DecodePayload[MessagingPayload]([]byte("not json"))
	require.Error(t, err)
	assert.True(t, IsPermanent(err))
}

func TestEnqueueNoEventIngestionFollowUp_Options(t *testing.T) {
	store := repotest.New()
	before := time.Now()

	job, err := EnqueueNoEventIngestionFollowUp(context.Background(), store, uuid.New(), uuid.New(), 72*time.Hour)
	require.NoError(t, err)

	assert.Equal(t, JobTypeNoEventIngestionFollowUp, job.JobType)
	assert.Equal(t, int32(PriorityLow), job.Priority)
	assert.Equal(t, int32(5), job.MaxAttempts)
	assert.WithinDuration(t, before.Add(72*time.Hour), job.ScheduledAt, time.Minute)
}

func repositorySession(userID uuid.UUID, expiresAt time.Time) repository.CreateSessionParams {
	return repository.CreateSessionParams{
		UserID:    userID,
		TokenHash: uuid.NewString(),
		ExpiresAt: expiresAt,
	}
}
