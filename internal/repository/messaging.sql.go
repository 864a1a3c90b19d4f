package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// createMessagingRecord returns no row when (user_id, campaign) already exists.
const createMessagingRecord = `
INSERT INTO user_messaging_records (user_id, campaign, sent_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, campaign) DO NOTHING
RETURNING id
`

type CreateMessagingRecordParams struct {
	UserID   uuid.UUID
	Campaign string
	SentAt   time.Time
}

// CreateMessagingRecord reports whether a new ledger entry was written.
func (q *Queries) CreateMessagingRecord(ctx context.Context, arg CreateMessagingRecordParams) (bool, error) {
	row := q.db.QueryRowContext(ctx, createMessagingRecord, arg.UserID, arg.Campaign, arg.SentAt)
	var id int64
	if err := row.Scan(&id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

const getMessagingRecord = `
SELECT id, user_id, campaign, sent_at
FROM user_messaging_records
WHERE user_id = $1 AND campaign = $2
`

type GetMessagingRecordParams struct {
	UserID   uuid.UUID
	Campaign string
}

func (q *Queries) GetMessagingRecord(ctx context.Context, arg GetMessagingRecordParams) (UserMessagingRecord, error) {
	row := q.db.QueryRowContext(ctx, getMessagingRecord, arg.UserID, arg.Campaign)
	var i UserMessagingRecord
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Campaign,
		&i.SentAt,
	)
	return i, err
}
