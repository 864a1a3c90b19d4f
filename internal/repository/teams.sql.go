package repository

import (
	"context"

	"github.com/google/uuid"
)

const createTeam = `
INSERT INTO teams (name, api_token)
VALUES ($1, $2)
RETURNING id, name, api_token, ingested_event, created_at, updated_at
`

type CreateTeamParams struct {
	Name     string
	ApiToken string
}

func (q *Queries) CreateTeam(ctx context.Context, arg CreateTeamParams) (Team, error) {
	row := q.db.QueryRowContext(ctx, createTeam, arg.Name, arg.ApiToken)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.ApiToken,
		&i.IngestedEvent,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, translate(err)
}

const getTeamByID = `
SELECT id, name, api_token, ingested_event, created_at, updated_at
FROM teams
WHERE id = $1
`

func (q *Queries) GetTeamByID(ctx context.Context, id uuid.UUID) (Team, error) {
	row := q.db.QueryRowContext(ctx, getTeamByID, id)
	var i Team
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.ApiToken,
		&i.IngestedEvent,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const setTeamIngestedEvent = `
UPDATE teams
SET ingested_event = $2, updated_at = NOW()
WHERE id = $1
`

type SetTeamIngestedEventParams struct {
	ID            uuid.UUID
	IngestedEvent bool
}

func (q *Queries) SetTeamIngestedEvent(ctx context.Context, arg SetTeamIngestedEventParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, setTeamIngestedEvent, arg.ID, arg.IngestedEvent)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
