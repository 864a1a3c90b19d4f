package repository

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = `id, team_id, email, password_hash, first_name, distinct_id, email_opt_in, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.TeamID,
		&i.Email,
		&i.PasswordHash,
		&i.FirstName,
		&i.DistinctID,
		&i.EmailOptIn,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countUsers)
	var count int64
	err := row.Scan(&count)
	return count, err
}

const createUser = `
INSERT INTO users (team_id, email, password_hash, first_name, distinct_id, email_opt_in)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + userColumns

type CreateUserParams struct {
	TeamID       uuid.UUID
	Email        string
	PasswordHash string
	FirstName    string
	DistinctID   string
	EmailOptIn   bool
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRowContext(ctx, createUser,
		arg.TeamID,
		arg.Email,
		arg.PasswordHash,
		arg.FirstName,
		arg.DistinctID,
		arg.EmailOptIn,
	)
	i, err := scanUser(row)
	return i, translate(err)
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = $1`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}
