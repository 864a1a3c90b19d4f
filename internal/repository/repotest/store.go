// Package repotest provides an in-memory repository for tests.
//
// Store implements repository.Querier with the same observable semantics as
// the SQL in package repository: unique indexes, ON CONFLICT DO NOTHING,
// monotonic billing period writes and job backoff. Transactions are not
// isolated; a failed ExecTx restores the state from before it began.
package repotest

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/DukeRupert/multitenancy/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

type state struct {
	teams     map[uuid.UUID]repository.Team
	users     map[uuid.UUID]repository.User
	sessions  map[uuid.UUID]repository.Session
	plans     map[uuid.UUID]repository.Plan
	billing   map[uuid.UUID]repository.TeamBilling
	messaging []repository.UserMessagingRecord
	webhooks  map[string]repository.StripeWebhookEvent
	jobs      map[uuid.UUID]repository.Job
	jobOrder  []uuid.UUID
}

func newState() *state {
	return &state{
		teams:    make(map[uuid.UUID]repository.Team),
		users:    make(map[uuid.UUID]repository.User),
		sessions: make(map[uuid.UUID]repository.Session),
		plans:    make(map[uuid.UUID]repository.Plan),
		billing:  make(map[uuid.UUID]repository.TeamBilling),
		webhooks: make(map[string]repository.StripeWebhookEvent),
		jobs:     make(map[uuid.UUID]repository.Job),
	}
}

func (s *state) clone() *state {
	c := newState()
	for k, v := range s.teams {
		c.teams[k] = v
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.sessions {
		c.sessions[k] = v
	}
	for k, v := range s.plans {
		c.plans[k] = v
	}
	for k, v := range s.billing {
		c.billing[k] = v
	}
	c.messaging = append(c.messaging, s.messaging...)
	for k, v := range s.webhooks {
		c.webhooks[k] = v
	}
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	c.jobOrder = append(c.jobOrder, s.jobOrder...)
	return c
}

// Store is an in-memory repository.Querier with transaction support.
type Store struct {
	mu sync.Mutex
	st *state

	// Now is the clock used wherever the SQL uses NOW().
	Now func() time.Time

	// Errors forces the named method (e.g. "CreateTeamBilling") to fail.
	Errors map[string]error

	// BeforeCreateTeamBilling runs once, ahead of the next CreateTeamBilling
	// insert. Tests use it to land a competing insert first.
	BeforeCreateTeamBilling func(arg repository.CreateTeamBillingParams)

	// Commits and Rollbacks count finished ExecTx calls.
	Commits   int
	Rollbacks int
}

// New returns an empty store using the wall clock.
func New() *Store {
	return &Store{
		st:     newState(),
		Now:    time.Now,
		Errors: make(map[string]error),
	}
}

// ExecTx runs fn against the store. When fn fails, every write it made is discarded.
func (s *Store) ExecTx(ctx context.Context, fn func(repository.Querier) error) error {
	s.mu.Lock()
	if err := s.Errors["ExecTx"]; err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := s.st.clone()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.st = snapshot
		s.Rollbacks++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.Commits++
	s.mu.Unlock()
	return nil
}

// lock acquires the mutex and returns the injected error for method, if any.
func (s *Store) lock(method string) error {
	s.mu.Lock()
	return s.Errors[method]
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{
		Code:           "23505",
		Message:        fmt.Sprintf("duplicate key value violates unique constraint %q", constraint),
		ConstraintName: constraint,
	}
}

// =============================================================================
// Teams
// =============================================================================

func (s *Store) CreateTeam(ctx context.Context, arg repository.CreateTeamParams) (repository.Team, error) {
	defer s.mu.Unlock()
	if err := s.lock("CreateTeam"); err != nil {
		return repository.Team{}, err
	}
	for _, t := range s.st.teams {
		if t.ApiToken == arg.ApiToken {
			return repository.Team{}, fmt.Errorf("%w: %w", repository.ErrUniqueViolation, uniqueViolation("teams_api_token_key"))
		}
	}
	now := s.Now()
	t := repository.Team{
		ID:        uuid.New(),
		Name:      arg.Name,
		ApiToken:  arg.ApiToken,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.st.teams[t.ID] = t
	return t, nil
}

func (s *Store) GetTeamByID(ctx context.Context, id uuid.UUID) (repository.Team, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetTeamByID"); err != nil {
		return repository.Team{}, err
	}
	t, ok := s.st.teams[id]
	if !ok {
		return repository.Team{}, sql.ErrNoRows
	}
	return t, nil
}

func (s *Store) SetTeamIngestedEvent(ctx context.Context, arg repository.SetTeamIngestedEventParams) (int64, error) {
	defer s.mu.Unlock()
	if err := s.lock("SetTeamIngestedEvent"); err != nil {
		return 0, err
	}
	t, ok := s.st.teams[arg.ID]
	if !ok {
		return 0, nil
	}
	t.IngestedEvent = arg.IngestedEvent
	t.UpdatedAt = s.Now()
	s.st.teams[t.ID] = t
	return 1, nil
}

// =============================================================================
// Users
// =============================================================================

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	defer s.mu.Unlock()
	if err := s.lock("CountUsers"); err != nil {
		return 0, err
	}
	return int64(len(s.st.users)), nil
}

func (s *Store) CreateUser(ctx context.Context, arg repository.CreateUserParams) (repository.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("CreateUser"); err != nil {
		return repository.User{}, err
	}
	if _, ok := s.st.teams[arg.TeamID]; !ok {
		return repository.User{}, fmt.Errorf("insert user: team %s does not exist", arg.TeamID)
	}
	for _, u := range s.st.users {
		if u.Email == arg.Email {
			return repository.User{}, fmt.Errorf("%w: %w", repository.ErrUniqueViolation, uniqueViolation("users_email_key"))
		}
		if u.DistinctID == arg.DistinctID {
			return repository.User{}, fmt.Errorf("%w: %w", repository.ErrUniqueViolation, uniqueViolation("users_distinct_id_key"))
		}
	}
	now := s.Now()
	u := repository.User{
		ID:           uuid.New(),
		TeamID:       arg.TeamID,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		FirstName:    arg.FirstName,
		DistinctID:   arg.DistinctID,
		EmailOptIn:   arg.EmailOptIn,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.st.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (repository.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetUserByEmail"); err != nil {
		return repository.User{}, err
	}
	for _, u := range s.st.users {
		if u.Email == email {
			return u, nil
		}
	}
	return repository.User{}, sql.ErrNoRows
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (repository.User, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetUserByID"); err != nil {
		return repository.User{}, err
	}
	u, ok := s.st.users[id]
	if !ok {
		return repository.User{}, sql.ErrNoRows
	}
	return u, nil
}

// =============================================================================
// Sessions
// =============================================================================

func (s *Store) CreateSession(ctx context.Context, arg repository.CreateSessionParams) (repository.Session, error) {
	defer s.mu.Unlock()
	if err := s.lock("CreateSession"); err != nil {
		return repository.Session{}, err
	}
	sess := repository.Session{
		ID:        uuid.New(),
		UserID:    arg.UserID,
		TokenHash: arg.TokenHash,
		ExpiresAt: arg.ExpiresAt,
		CreatedAt: s.Now(),
	}
	s.st.sessions[sess.ID] = sess
	return sess, nil
}

func (s *Store) GetSessionByTokenHash(ctx context.Context, tokenHash string) (repository.Session, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetSessionByTokenHash"); err != nil {
		return repository.Session{}, err
	}
	now := s.Now()
	for _, sess := range s.st.sessions {
		if sess.TokenHash == tokenHash && sess.ExpiresAt.After(now) {
			return sess, nil
		}
	}
	return repository.Session{}, sql.ErrNoRows
}

func (s *Store) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	defer s.mu.Unlock()
	if err := s.lock("DeleteExpiredSessions"); err != nil {
		return 0, err
	}
	now := s.Now()
	var n int64
	for id, sess := range s.st.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.st.sessions, id)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Plans
// =============================================================================

func (s *Store) CreatePlan(ctx context.Context, arg repository.CreatePlanParams) (repository.Plan, error) {
	defer s.mu.Unlock()
	if err := s.lock("CreatePlan"); err != nil {
		return repository.Plan{}, err
	}
	for _, p := range s.st.plans {
		if p.Key == arg.Key {
			return repository.Plan{}, fmt.Errorf("%w: %w", repository.ErrUniqueViolation, uniqueViolation("plans_key_key"))
		}
	}
	p := repository.Plan{
		ID:                        uuid.New(),
		Key:                       arg.Key,
		Name:                      arg.Name,
		PriceID:                   arg.PriceID,
		DefaultShouldSetupBilling: arg.DefaultShouldSetupBilling,
		IsActive:                  arg.IsActive,
		CreatedAt:                 s.Now(),
	}
	s.st.plans[p.ID] = p
	return p, nil
}

func (s *Store) GetPlanByID(ctx context.Context, id uuid.UUID) (repository.Plan, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetPlanByID"); err != nil {
		return repository.Plan{}, err
	}
	p, ok := s.st.plans[id]
	if !ok {
		return repository.Plan{}, sql.ErrNoRows
	}
	return p, nil
}

func (s *Store) GetPlanByKey(ctx context.Context, key string) (repository.Plan, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetPlanByKey"); err != nil {
		return repository.Plan{}, err
	}
	for _, p := range s.st.plans {
		if p.Key == key {
			return p, nil
		}
	}
	return repository.Plan{}, sql.ErrNoRows
}

func (s *Store) ListPlans(ctx context.Context) ([]repository.Plan, error) {
	defer s.mu.Unlock()
	if err := s.lock("ListPlans"); err != nil {
		return nil, err
	}
	plans := make([]repository.Plan, 0, len(s.st.plans))
	for _, p := range s.st.plans {
		plans = append(plans, p)
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].Key < plans[j].Key })
	return plans, nil
}

// =============================================================================
// Team billing
// =============================================================================

func (s *Store) CreateTeamBilling(ctx context.Context, arg repository.CreateTeamBillingParams) (repository.TeamBilling, error) {
	s.mu.Lock()
	hook := s.BeforeCreateTeamBilling
	s.BeforeCreateTeamBilling = nil
	s.mu.Unlock()
	if hook != nil {
		hook(arg)
	}

	defer s.mu.Unlock()
	if err := s.lock("CreateTeamBilling"); err != nil {
		return repository.TeamBilling{}, err
	}
	for _, b := range s.st.billing {
		if b.TeamID == arg.TeamID {
			return repository.TeamBilling{}, sql.ErrNoRows
		}
	}
	now := s.Now()
	b := repository.TeamBilling{
		ID:                 uuid.New(),
		TeamID:             arg.TeamID,
		PlanID:             arg.PlanID,
		ShouldSetupBilling: arg.ShouldSetupBilling,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.st.billing[b.ID] = b
	return b, nil
}

func (s *Store) GetTeamBillingByTeamID(ctx context.Context, teamID uuid.UUID) (repository.TeamBilling, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetTeamBillingByTeamID"); err != nil {
		return repository.TeamBilling{}, err
	}
	for _, b := range s.st.billing {
		if b.TeamID == teamID {
			return b, nil
		}
	}
	return repository.TeamBilling{}, sql.ErrNoRows
}

func (s *Store) GetTeamBillingByCheckoutSession(ctx context.Context, session string) (repository.TeamBilling, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetTeamBillingByCheckoutSession"); err != nil {
		return repository.TeamBilling{}, err
	}
	if session == "" {
		return repository.TeamBilling{}, sql.ErrNoRows
	}
	for _, b := range s.st.billing {
		if b.StripeCheckoutSession == session {
			return b, nil
		}
	}
	return repository.TeamBilling{}, sql.ErrNoRows
}

func (s *Store) GetTeamBillingByCustomerID(ctx context.Context, customerID string) (repository.TeamBilling, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetTeamBillingByCustomerID"); err != nil {
		return repository.TeamBilling{}, err
	}
	if customerID == "" {
		return repository.TeamBilling{}, sql.ErrNoRows
	}
	var (
		found  repository.TeamBilling
		exists bool
	)
	for _, b := range s.st.billing {
		if b.StripeCustomerID == customerID && (!exists || b.UpdatedAt.After(found.UpdatedAt)) {
			found, exists = b, true
		}
	}
	if !exists {
		return repository.TeamBilling{}, sql.ErrNoRows
	}
	return found, nil
}

func (s *Store) UpdateTeamBillingCheckoutSession(ctx context.Context, arg repository.UpdateTeamBillingCheckoutSessionParams) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateTeamBillingCheckoutSession"); err != nil {
		return err
	}
	if b, ok := s.st.billing[arg.ID]; ok {
		b.StripeCheckoutSession = arg.StripeCheckoutSession
		b.UpdatedAt = s.Now()
		s.st.billing[b.ID] = b
	}
	return nil
}

func (s *Store) UpdateTeamBillingCustomerID(ctx context.Context, arg repository.UpdateTeamBillingCustomerIDParams) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateTeamBillingCustomerID"); err != nil {
		return err
	}
	if b, ok := s.st.billing[arg.ID]; ok {
		b.StripeCustomerID = arg.StripeCustomerID
		b.UpdatedAt = s.Now()
		s.st.billing[b.ID] = b
	}
	return nil
}

func (s *Store) ExtendBillingPeriod(ctx context.Context, arg repository.BillingPeriodParams) (int64, error) {
	defer s.mu.Unlock()
	if err := s.lock("ExtendBillingPeriod"); err != nil {
		return 0, err
	}
	b, ok := s.st.billing[arg.ID]
	if !ok {
		return 0, nil
	}
	if b.BillingPeriodEnds.Valid && !b.BillingPeriodEnds.Time.Before(arg.BillingPeriodEnds) {
		return 0, nil
	}
	if staleEvent(b, arg.EventAt) {
		return 0, nil
	}
	b.BillingPeriodEnds = sql.NullTime{Time: arg.BillingPeriodEnds, Valid: true}
	b.BillingEventAt = sql.NullTime{Time: arg.EventAt, Valid: true}
	b.UpdatedAt = s.Now()
	s.st.billing[b.ID] = b
	return 1, nil
}

func (s *Store) EndBillingPeriod(ctx context.Context, arg repository.BillingPeriodParams) (int64, error) {
	defer s.mu.Unlock()
	if err := s.lock("EndBillingPeriod"); err != nil {
		return 0, err
	}
	b, ok := s.st.billing[arg.ID]
	if !ok || !b.BillingPeriodEnds.Valid || !b.BillingPeriodEnds.Time.After(arg.BillingPeriodEnds) {
		return 0, nil
	}
	if staleEvent(b, arg.EventAt) {
		return 0, nil
	}
	b.BillingPeriodEnds = sql.NullTime{Time: arg.BillingPeriodEnds, Valid: true}
	b.BillingEventAt = sql.NullTime{Time: arg.EventAt, Valid: true}
	b.UpdatedAt = s.Now()
	s.st.billing[b.ID] = b
	return 1, nil
}

// staleEvent reports whether the row already reflects an event later than at.
func staleEvent(b repository.TeamBilling, at time.Time) bool {
	return b.BillingEventAt.Valid && b.BillingEventAt.Time.After(at)
}

// =============================================================================
// Messaging ledger
// =============================================================================

func (s *Store) CreateMessagingRecord(ctx context.Context, arg repository.CreateMessagingRecordParams) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("CreateMessagingRecord"); err != nil {
		return false, err
	}
	for _, r := range s.st.messaging {
		if r.UserID == arg.UserID && r.Campaign == arg.Campaign {
			return false, nil
		}
	}
	s.st.messaging = append(s.st.messaging, repository.UserMessagingRecord{
		ID:       int64(len(s.st.messaging) + 1),
		UserID:   arg.UserID,
		Campaign: arg.Campaign,
		SentAt:   sql.NullTime{Time: arg.SentAt, Valid: !arg.SentAt.IsZero()},
	})
	return true, nil
}

func (s *Store) GetMessagingRecord(ctx context.Context, arg repository.GetMessagingRecordParams) (repository.UserMessagingRecord, error) {
	defer s.mu.Unlock()
	if err := s.lock("GetMessagingRecord"); err != nil {
		return repository.UserMessagingRecord{}, err
	}
	for _, r := range s.st.messaging {
		if r.UserID == arg.UserID && r.Campaign == arg.Campaign {
			return r, nil
		}
	}
	return repository.UserMessagingRecord{}, sql.ErrNoRows
}

// =============================================================================
// Webhook events
// =============================================================================

func (s *Store) RecordWebhookEvent(ctx context.Context, arg repository.RecordWebhookEventParams) (bool, error) {
	defer s.mu.Unlock()
	if err := s.lock("RecordWebhookEvent"); err != nil {
		return false, err
	}
	if _, ok := s.st.webhooks[arg.ID]; ok {
		return false, nil
	}
	s.st.webhooks[arg.ID] = repository.StripeWebhookEvent{
		ID:          arg.ID,
		Type:        arg.Type,
		Payload:     arg.Payload,
		ProcessedAt: s.Now(),
	}
	return true, nil
}

// =============================================================================
// Jobs
// =============================================================================

func (s *Store) EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error) {
	defer s.mu.Unlock()
	if err := s.lock("EnqueueJob"); err != nil {
		return repository.Job{}, err
	}
	j := repository.Job{
		ID:          uuid.New(),
		JobType:     arg.JobType,
		Payload:     append([]byte(nil), arg.Payload...),
		Status:      "pending",
		Priority:    arg.Priority,
		MaxAttempts: arg.MaxAttempts,
		ScheduledAt: arg.ScheduledAt,
		CreatedAt:   s.Now(),
	}
	s.st.jobs[j.ID] = j
	s.st.jobOrder = append(s.st.jobOrder, j.ID)
	return j, nil
}

func (s *Store) DequeueJob(ctx context.Context) (repository.Job, error) {
	defer s.mu.Unlock()
	if err := s.lock("DequeueJob"); err != nil {
		return repository.Job{}, err
	}
	now := s.Now()
	var (
		best  repository.Job
		found bool
	)
	for _, id := range s.st.jobOrder {
		j := s.st.jobs[id]
		if j.Status != "pending" || j.ScheduledAt.After(now) {
			continue
		}
		if !found || j.Priority > best.Priority ||
			(j.Priority == best.Priority && j.ScheduledAt.Before(best.ScheduledAt)) {
			best, found = j, true
		}
	}
	if !found {
		return repository.Job{}, sql.ErrNoRows
	}
	return best, nil
}

func (s *Store) UpdateJobStarted(ctx context.Context, id uuid.UUID) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateJobStarted"); err != nil {
		return err
	}
	j, ok := s.st.jobs[id]
	if !ok {
		return nil
	}
	j.Status = "running"
	j.StartedAt = sql.NullTime{Time: s.Now(), Valid: true}
	j.Attempts++
	s.st.jobs[id] = j
	return nil
}

func (s *Store) UpdateJobCompleted(ctx context.Context, id uuid.UUID) error {
	defer s.mu.Unlock()
	if err := s.lock("UpdateJobCompleted"); err != nil {
		return err
	}
	j, ok := s.st.jobs[id]
	if !ok {
		return nil
	}
	j.Status = "completed"
	j.CompletedAt = sql.NullTime{Time: s.Now(), Valid: true}
	j.ErrorMessage = sql.NullString{}
	s.st.jobs[id] = j
	return nil
}

func (s *Store) UpdateJobFailed(ctx context.Context, arg repository.UpdateJobFailedParams) (string, error) {
	defer s.mu.Unlock()
	if err := s.lock("UpdateJobFailed"); err != nil {
		return "", err
	}
	j, ok := s.st.jobs[arg.ID]
	if !ok {
		return "", sql.ErrNoRows
	}
	now := s.Now()
	j.ErrorMessage = arg.ErrorMessage
	if arg.Permanent || j.Attempts >= j.MaxAttempts {
		j.Status = "failed"
		j.CompletedAt = sql.NullTime{Time: now, Valid: true}
	} else {
		backoff := math.Pow(2, math.Max(float64(j.Attempts-1), 0)) * 30
		j.Status = "pending"
		j.ScheduledAt = now.Add(time.Duration(backoff) * time.Second)
		j.CompletedAt = sql.NullTime{}
	}
	s.st.jobs[arg.ID] = j
	return j.Status, nil
}

func (s *Store) RecoverStaleJobs(ctx context.Context, thresholdSeconds float64) (int64, error) {
	defer s.mu.Unlock()
	if err := s.lock("RecoverStaleJobs"); err != nil {
		return 0, err
	}
	cutoff := s.Now().Add(-time.Duration(thresholdSeconds * float64(time.Second)))
	var n int64
	for id, j := range s.st.jobs {
		if j.Status == "running" && j.StartedAt.Valid && j.StartedAt.Time.Before(cutoff) {
			j.Status = "pending"
			j.StartedAt = sql.NullTime{}
			s.st.jobs[id] = j
			n++
		}
	}
	return n, nil
}

// =============================================================================
// Inspection helpers
// =============================================================================

// Jobs returns every job in enqueue order.
func (s *Store) Jobs() []repository.Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	jobs := make([]repository.Job, 0, len(s.st.jobOrder))
	for _, id := range s.st.jobOrder {
		jobs = append(jobs, s.st.jobs[id])
	}
	return jobs
}

// JobsOfType returns the jobs with the given job_type in enqueue order.
func (s *Store) JobsOfType(jobType string) []repository.Job {
	var out []repository.Job
	for _, j := range s.Jobs() {
		if j.JobType == jobType {
			out = append(out, j)
		}
	}
	return out
}

// TeamBillings returns every billing row.
func (s *Store) TeamBillings() []repository.TeamBilling {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]repository.TeamBilling, 0, len(s.st.billing))
	for _, b := range s.st.billing {
		out = append(out, b)
	}
	return out
}

// MessagingRecords returns the messaging ledger in insertion order.
func (s *Store) MessagingRecords() []repository.UserMessagingRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.UserMessagingRecord(nil), s.st.messaging...)
}

// WebhookEventCount returns the number of recorded webhook events.
func (s *Store) WebhookEventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.webhooks)
}

// Counts returns the number of teams and users.
func (s *Store) Counts() (teams, users int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.st.teams), len(s.st.users)
}

var _ repository.Querier = (*Store)(nil)
