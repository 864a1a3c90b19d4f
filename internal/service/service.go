// Package service contains the business logic layer.
//
// Services orchestrate interactions between repositories, external APIs,
// and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Transaction coordination
// - Error translation (database errors -> domain errors)
package service

import (
	"context"
	"time"

	"github.com/DukeRupert/multitenancy/internal/repository"
)

// Store is the persistence dependency shared by all services.
// *repository.Store satisfies it; tests use repotest.Store.
type Store interface {
	repository.Querier
	ExecTx(ctx context.Context, fn func(repository.Querier) error) error
}

// Clock returns the current time. Services default to time.Now.
type Clock func() time.Time

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return time.Now
	}
	return c
}
