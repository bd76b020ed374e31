package resilience

import (
	"context"
	"time"

	"github.com/openomni/tck/model"
)

// LockService hands out named distributed locks. Locks obtained for the
// same name from any handle contend with each other; locks for
// different names are independent.
type LockService interface {
	// GetLock returns a handle for the named lock with the given TTL.
	// The handle does not hold the lock until Acquire succeeds.
	GetLock(name string, ttl time.Duration) Lock
}

// Lock is a single-holder lease. Acquire reports false when another
// holder currently owns the lock.
type Lock interface {
	Acquire(ctx context.Context) (bool, error)
	// Release relinquishes the lock if this handle holds it. Releasing
	// a lock that is not held returns model.ErrLockNotHeld.
	Release(ctx context.Context) error
	// Do acquires the lock, runs fn, and releases on every exit path.
	// When the lock is contended it returns model.ErrLockNotHeld
	// without running fn.
	Do(ctx context.Context, fn func(context.Context) error) error
}

// CircuitBreaker wraps an operation with open/half-open/closed failure
// handling. Execute returns model.ErrCircuitOpen without invoking op
// while the circuit is open.
type CircuitBreaker interface {
	Execute(ctx context.Context, op func(context.Context) error) error
	State() model.CircuitState
}

// SagaRepository persists saga execution state with optimistic
// concurrency control.
type SagaRepository interface {
	// CreateState stores a new saga. The stored version is always 1
	// regardless of the version on the argument.
	CreateState(ctx context.Context, state model.SagaState) error
	// GetState returns the saga by id, or (nil, nil) when absent.
	GetState(ctx context.Context, id string) (*model.SagaState, error)
	// UpdateState persists state only if state.Version matches the
	// stored version, then increments it. A mismatch returns
	// model.ErrConflict.
	UpdateState(ctx context.Context, state model.SagaState) error
}

// OutboxRepository stores domain events for later relay, assigning each
// aggregate an independent gapless sequence.
type OutboxRepository interface {
	SaveEvent(ctx context.Context, event model.OutboxEvent) error
	// PendingUnordered returns up to limit unprocessed events in no
	// particular order.
	PendingUnordered(ctx context.Context, limit int) ([]model.StoredOutboxEvent, error)
	// PendingForAggregate returns the unprocessed events of one
	// aggregate ordered by sequence id.
	PendingForAggregate(ctx context.Context, aggregateKey string) ([]model.StoredOutboxEvent, error)
	// PendingAggregateKeys returns the distinct aggregate keys that
	// still have unprocessed events.
	PendingAggregateKeys(ctx context.Context) ([]string, error)
	MarkProcessed(ctx context.Context, event model.StoredOutboxEvent) error
}
