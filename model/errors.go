package model

import "errors"

// The closed error taxonomy. Providers must return these sentinels (wrapped
// with context as needed) under the documented conditions; clauses match
// them with errors.Is. The set is deliberately small and vendor-agnostic so
// callers can write portable error handling against any certified provider.
var (
	// ErrSecretNotFound is returned when a named secret does not exist in
	// the backend. Providers are responsible for translating their native
	// not-found errors into this sentinel.
	ErrSecretNotFound = errors.New("secret not found")

	// ErrObjectNotFound is returned when an object key does not exist in
	// the storage backend.
	ErrObjectNotFound = errors.New("object not found")

	// ErrPublishFailed is returned when a message cannot be handed to the
	// broker, for example because the broker is unreachable.
	ErrPublishFailed = errors.New("publish failed")

	// ErrConflict is returned when a version-checked write is rejected
	// because the caller holds a stale version (optimistic concurrency
	// control). The stale write must not be observable afterwards.
	ErrConflict = errors.New("state version conflict")

	// ErrLockNotHeld is returned when a scoped lock operation could not
	// acquire the lock, or when an operation requires a lock the caller
	// does not hold.
	ErrLockNotHeld = errors.New("lock not held")

	// ErrCircuitOpen is returned when a call is rejected because the
	// circuit breaker is OPEN. The wrapped operation must not have been
	// invoked.
	ErrCircuitOpen = errors.New("circuit open")
)
