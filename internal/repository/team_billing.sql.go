package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const teamBillingColumns = `id, team_id, plan_id, stripe_customer_id, stripe_checkout_session, should_setup_billing, billing_period_ends, billing_event_at, created_at, updated_at`

func scanTeamBilling(row interface{ Scan(...interface{}) error }) (TeamBilling, error) {
	var i TeamBilling
	err := row.Scan(
		&i.ID,
		&i.TeamID,
		&i.PlanID,
		&i.StripeCustomerID,
		&i.StripeCheckoutSession,
		&i.ShouldSetupBilling,
		&i.BillingPeriodEnds,
		&i.BillingEventAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// createTeamBilling yields no row (sql.ErrNoRows) when the team already has one.
const createTeamBilling = `
INSERT INTO team_billing (team_id, plan_id, should_setup_billing)
VALUES ($1, $2, $3)
ON CONFLICT (team_id) DO NOTHING
RETURNING ` + teamBillingColumns

type CreateTeamBillingParams struct {
	TeamID             uuid.UUID
	PlanID             uuid.NullUUID
	ShouldSetupBilling bool
}

func (q *Queries) CreateTeamBilling(ctx context.Context, arg CreateTeamBillingParams) (TeamBilling, error) {
	row := q.db.QueryRowContext(ctx, createTeamBilling, arg.TeamID, arg.PlanID, arg.ShouldSetupBilling)
	i, err := scanTeamBilling(row)
	return i, translate(err)
}

const getTeamBillingByTeamID = `SELECT ` + teamBillingColumns + ` FROM team_billing WHERE team_id = $1`

func (q *Queries) GetTeamBillingByTeamID(ctx context.Context, teamID uuid.UUID) (TeamBilling, error) {
	return scanTeamBilling(q.db.QueryRowContext(ctx, getTeamBillingByTeamID, teamID))
}

const getTeamBillingByCheckoutSession = `
SELECT ` + teamBillingColumns + `
FROM team_billing
WHERE stripe_checkout_session = $1 AND stripe_checkout_session <> ''
`

func (q *Queries) GetTeamBillingByCheckoutSession(ctx context.Context, session string) (TeamBilling, error) {
	return scanTeamBilling(q.db.QueryRowContext(ctx, getTeamBillingByCheckoutSession, session))
}

const getTeamBillingByCustomerID = `
SELECT ` + teamBillingColumns + `
FROM team_billing
WHERE stripe_customer_id = $1 AND stripe_customer_id <> ''
ORDER BY updated_at DESC
LIMIT 1
`

func (q *Queries) GetTeamBillingByCustomerID(ctx context.Context, customerID string) (TeamBilling, error) {
	return scanTeamBilling(q.db.QueryRowContext(ctx, getTeamBillingByCustomerID, customerID))
}

const updateTeamBillingCheckoutSession = `
UPDATE team_billing
SET stripe_checkout_session = $2, updated_at = NOW()
WHERE id = $1
`

type UpdateTeamBillingCheckoutSessionParams struct {
	ID                    uuid.UUID
	StripeCheckoutSession string
}

func (q *Queries) UpdateTeamBillingCheckoutSession(ctx context.Context, arg UpdateTeamBillingCheckoutSessionParams) error {
	_, err := q.db.ExecContext(ctx, updateTeamBillingCheckoutSession, arg.ID, arg.StripeCheckoutSession)
	return err
}

const updateTeamBillingCustomerID = `
UPDATE team_billing
SET stripe_customer_id = $2, updated_at = NOW()
WHERE id = $1
`

type UpdateTeamBillingCustomerIDParams struct {
	ID               uuid.UUID
	StripeCustomerID string
}

func (q *Queries) UpdateTeamBillingCustomerID(ctx context.Context, arg UpdateTeamBillingCustomerIDParams) error {
	_, err := q.db.ExecContext(ctx, updateTeamBillingCustomerID, arg.ID, arg.StripeCustomerID)
	return err
}

// BillingPeriodParams carries the processor's event time in EventAt. A write
// is skipped when the row already reflects a later event.
type BillingPeriodParams struct {
	ID                uuid.UUID
	BillingPeriodEnds time.Time
	EventAt           time.Time
}

// extendBillingPeriod only ever moves the period end forward, so replayed or
// out-of-order events leave the row untouched.
const extendBillingPeriod = `
UPDATE team_billing
SET billing_period_ends = $2, billing_event_at = $3, updated_at = NOW()
WHERE id = $1
  AND (billing_period_ends IS NULL OR billing_period_ends < $2)
  AND (billing_event_at IS NULL OR billing_event_at <= $3)
`

func (q *Queries) ExtendBillingPeriod(ctx context.Context, arg BillingPeriodParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, extendBillingPeriod, arg.ID, arg.BillingPeriodEnds, arg.EventAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// endBillingPeriod only shortens an existing confirmed period.
const endBillingPeriod = `
UPDATE team_billing
SET billing_period_ends = $2, billing_event_at = $3, updated_at = NOW()
WHERE id = $1
  AND billing_period_ends > $2
  AND (billing_event_at IS NULL OR billing_event_at <= $3)
`

func (q *Queries) EndBillingPeriod(ctx context.Context, arg BillingPeriodParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, endBillingPeriod, arg.ID, arg.BillingPeriodEnds, arg.EventAt)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
