package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// ErrUniqueViolation is returned when an insert collides with a unique index.
var ErrUniqueViolation = errors.New("repository: unique constraint violated")

// UniqueConstraint returns the violated constraint name when err is a unique
// violation reported by Postgres.
func UniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// IsUniqueViolation reports whether err is (or wraps) a unique violation.
func IsUniqueViolation(err error) bool {
	if errors.Is(err, ErrUniqueViolation) {
		return true
	}
	_, ok := UniqueConstraint(err)
	return ok
}

// translate maps driver errors onto repository sentinels.
// The original error stays reachable through errors.As.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := UniqueConstraint(err); ok {
		return &uniqueError{cause: err}
	}
	return err
}

type uniqueError struct {
	cause error
}

func (e *uniqueError) Error() string { return ErrUniqueViolation.Error() + ": " + e.cause.Error() }

func (e *uniqueError) Is(target error) bool { return target == ErrUniqueViolation }

func (e *uniqueError) Unwrap() error { return e.cause }
