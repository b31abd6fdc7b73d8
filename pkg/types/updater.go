package types

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Updater is the remote partial-update call. On success it returns the
// authoritative record, which must carry the requested id and the full
// current field set.
type Updater interface {
	Update(ctx context.Context, id string, fields map[string]string) (Record, error)
}

// UpdaterFunc adapts a function to the Updater interface.
type UpdaterFunc func(ctx context.Context, id string, fields map[string]string) (Record, error)

// Update calls f.
func (f UpdaterFunc) Update(ctx context.Context, id string, fields map[string]string) (Record, error) {
	return f(ctx, id, fields)
}

// ErrRemoteUpdateFailed is the single error kind of the commit protocol.
// Network failures, non-success responses and unparseable bodies all match it.
var ErrRemoteUpdateFailed = errors.New("remote update failed")

// UpdateError describes a failed remote update. It matches
// ErrRemoteUpdateFailed under errors.Is and unwraps to the cause.
type UpdateError struct {
	ID     string // record the update targeted
	Status int    // response status, 0 when no response was received
	Reason string // server supplied reason, if any
	Err    error  // underlying cause, if any
}

func (e *UpdateError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "update of record %s failed", e.ID)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is reports whether target is ErrRemoteUpdateFailed.
func (e *UpdateError) Is(target error) bool {
	return target == ErrRemoteUpdateFailed
}

func (e *UpdateError) Unwrap() error {
	return e.Err
}

// AsUpdateError returns err as an *UpdateError for record id, wrapping it
// when it is not one already.
func AsUpdateError(id string, err error) *UpdateError {
	var ue *UpdateError
	if errors.As(err, &ue) {
		return ue
	}
	return &UpdateError{ID: id, Err: err}
}
