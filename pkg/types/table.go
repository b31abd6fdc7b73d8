package types

import "errors"

// Table provides the authoritative record operations of a storage backend.
// It is the server side of the remote update call.
type Table interface {
	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(id string) (Record, error)

	// Fetch returns every record in insertion order.
	Fetch() ([]Record, error)

	// Create stores a new record with a generated UUID v7 and returns it.
	Create(fields map[string]string) (Record, error)

	// Patch merges fields into the record with the given ID and returns the
	// full updated record. Fields not named are left as they are.
	// Returns ErrNotFound if no record exists with that ID.
	Patch(id string, fields map[string]string) (Record, error)
}

// Table operation errors.
var (
	ErrNotFound    = errors.New("record not found")
	ErrInvalidID   = errors.New("invalid record ID")
	ErrInvalidData = errors.New("invalid record data")
)

// Edit session errors.
var (
	ErrUnknownField   = errors.New("field is not editable")
	ErrCommitInFlight = errors.New("commit already in flight")
	ErrEditorClosed   = errors.New("editor is closed")
)
