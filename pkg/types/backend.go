package types

import (
	"context"
	"errors"
)

// Backend defines backend-agnostic access to the authoritative record store.
// Callers attach to a backend, use the records table, and detach when done.
type Backend interface {
	// Records returns the records table.
	// Returns ErrBackendDetached if the backend is not attached.
	Records() (Table, error)

	// Attach connects the backend to the storage described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// Ping reports whether the backend can serve queries.
	Ping(ctx context.Context) error
}

// Backend lifecycle errors.
var (
	ErrBackendDetached = errors.New("backend is detached")
	ErrAlreadyAttached = errors.New("backend is already attached")
)
