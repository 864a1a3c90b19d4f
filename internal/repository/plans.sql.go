package repository

import (
	"context"

	"github.com/google/uuid"
)

const planColumns = `id, key, name, price_id, default_should_setup_billing, is_active, created_at`

func scanPlan(row interface{ Scan(...interface{}) error }) (Plan, error) {
	var i Plan
	err := row.Scan(
		&i.ID,
		&i.Key,
		&i.Name,
		&i.PriceID,
		&i.DefaultShouldSetupBilling,
		&i.IsActive,
		&i.CreatedAt,
	)
	return i, err
}

const createPlan = `
INSERT INTO plans (key, name, price_id, default_should_setup_billing, is_active)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + planColumns

type CreatePlanParams struct {
	Key                       string
	Name                      string
	PriceID                   string
	DefaultShouldSetupBilling bool
	IsActive                  bool
}

func (q *Queries) CreatePlan(ctx context.Context, arg CreatePlanParams) (Plan, error) {
	row := q.db.QueryRowContext(ctx, createPlan,
		arg.Key,
		arg.Name,
		arg.PriceID,
		arg.DefaultShouldSetupBilling,
		arg.IsActive,
	)
	i, err := scanPlan(row)
	return i, translate(err)
}

// Key comparison is case-sensitive.
const getPlanByKey = `SELECT ` + planColumns + ` FROM plans WHERE key = $1`

func (q *Queries) GetPlanByKey(ctx context.Context, key string) (Plan, error) {
	return scanPlan(q.db.QueryRowContext(ctx, getPlanByKey, key))
}

const getPlanByID = `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

func (q *Queries) GetPlanByID(ctx context.Context, id uuid.UUID) (Plan, error) {
	return scanPlan(q.db.QueryRowContext(ctx, getPlanByID, id))
}

const listPlans = `SELECT ` + planColumns + ` FROM plans ORDER BY key`

func (q *Queries) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := q.db.QueryContext(ctx, listPlans)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Plan
	for rows.Next() {
		i, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
