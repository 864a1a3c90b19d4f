package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/sqlc-dev/pqtype"
)

const recordWebhookEvent = `
INSERT INTO stripe_webhook_events (id, type, payload)
VALUES ($1, $2, $3)
ON CONFLICT (id) DO NOTHING
RETURNING id
`

type RecordWebhookEventParams struct {
	ID      string
	Type    string
	Payload pqtype.NullRawMessage
}

// RecordWebhookEvent reports whether the event id was seen for the first time.
func (q *Queries) RecordWebhookEvent(ctx context.Context, arg RecordWebhookEventParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, recordWebhookEvent, arg.ID, arg.Type, arg.Payload)
	var id string
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
