// Package rowedit is the public API of the row editor: an owned collection
// of records with a single exclusive edit session whose commits go through a
// remote Updater.
//
// Example:
//
//	ed, err := rowedit.Open(types.EditorConfig{Fields: types.DefaultSchema}, client, rows)
//	if err != nil {
//	    return err
//	}
//	defer ed.Close()
//
//	ed.OnChange(func(c types.Change) { render(c.Rows, c.Edit) })
//	ed.StartEdit("1")
//	ed.ChangeField("name", "AlphaEdited")
//	state, _ := ed.Commit(ctx)
package rowedit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/rowedit/internal/rowstore"
	"github.com/mesh-intelligence/rowedit/internal/session"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// Version is the rowedit release.
const Version = "v0.1.0"

// ErrNoUpdater is returned by Open when no Updater is supplied.
var ErrNoUpdater = errors.New("updater is required")

// Editor composes the row store and the edit session. It is safe for use
// from multiple goroutines.
type Editor struct {
	store   *rowstore.Store
	session *session.Session
	logger  *slog.Logger
	closed  atomic.Bool

	hooksMu sync.RWMutex
	hooks   []hook
	nextID  int
}

type hook struct {
	id int
	fn types.ChangeFunc
}

// Option configures an Editor.
type Option func(*Editor)

// WithLogger sets the logger shared by the editor and its session.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Editor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Open creates an Editor holding records, with the session closed.
func Open(cfg types.EditorConfig, updater types.Updater, records []types.Record, opts ...Option) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if updater == nil {
		return nil, ErrNoUpdater
	}

	e := &Editor{
		store:  rowstore.New(records),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.session = session.New(e.store, updater, cfg,
		session.WithLogger(e.logger),
		session.WithNotify(e.dispatch),
	)
	e.logger.Debug("editor opened", "rows", e.store.Len(), "fields", []string(cfg.Fields))
	return e, nil
}

// Close cancels any open session and drops every hook. Mutating calls on a
// closed editor return ErrEditorClosed. Close is idempotent.
func (e *Editor) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.hooksMu.Lock()
	e.hooks = nil
	e.hooksMu.Unlock()
	e.session.Cancel()
	e.logger.Debug("editor closed")
	return nil
}

// Schema returns the editable fields in display order.
func (e *Editor) Schema() types.Schema {
	return e.session.Schema()
}

// Snapshot returns the current collection.
func (e *Editor) Snapshot() []types.Record {
	return e.store.Snapshot()
}

// EditState returns the current edit session state.
func (e *Editor) EditState() types.EditState {
	return e.session.State()
}

// StartEdit opens the edit session on the record with id.
func (e *Editor) StartEdit(id string) (types.EditState, error) {
	if e.closed.Load() {
		return types.Closed(), types.ErrEditorClosed
	}
	return e.session.StartEdit(id)
}

// ChangeField stages one field value on the open session.
func (e *Editor) ChangeField(name, value string) (types.EditState, error) {
	if e.closed.Load() {
		return types.Closed(), types.ErrEditorClosed
	}
	return e.session.ChangeField(name, value)
}

// Cancel discards the open session.
func (e *Editor) Cancel() (types.EditState, error) {
	if e.closed.Load() {
		return types.Closed(), types.ErrEditorClosed
	}
	return e.session.Cancel(), nil
}

// Commit sends the staged fields to the remote updater. Remote failures are
// reported in the returned state's Error; the error result is only
// ErrEditorClosed.
func (e *Editor) Commit(ctx context.Context) (types.EditState, error) {
	if e.closed.Load() {
		return types.Closed(), types.ErrEditorClosed
	}
	return e.session.Commit(ctx), nil
}

// Reload replaces the collection with new external data. What happens to an
// open session depends on the configured reload policy.
func (e *Editor) Reload(records []types.Record) (types.EditState, error) {
	if e.closed.Load() {
		return types.Closed(), types.ErrEditorClosed
	}
	return e.session.Reload(records), nil
}

// OnChange registers fn to run after every state change and returns a
// function that unregisters it. Hooks run in registration order on the
// goroutine that made the change, and must treat the Change as read-only.
func (e *Editor) OnChange(fn types.ChangeFunc) (remove func()) {
	e.hooksMu.Lock()
	defer e.hooksMu.Unlock()

	e.nextID++
	id := e.nextID
	e.hooks = append(e.hooks, hook{id: id, fn: fn})

	return func() {
		e.hooksMu.Lock()
		defer e.hooksMu.Unlock()
		for i, h := range e.hooks {
			if h.id == id {
				e.hooks = append(e.hooks[:i:i], e.hooks[i+1:]...)
				return
			}
		}
	}
}

func (e *Editor) dispatch(c types.Change) {
	e.hooksMu.RLock()
	hooks := make([]hook, len(e.hooks))
	copy(hooks, e.hooks)
	e.hooksMu.RUnlock()

	for _, h := range hooks {
		h.fn(c)
	}
}
