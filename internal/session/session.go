// Package session implements the exclusive edit session over a rowstore and
// the commit protocol that reconciles remote updates back into it.
//
// A Session is either closed or open on exactly one record. Opening a new
// session replaces the current one. Every open carries a generation number;
// a commit response whose generation is no longer current is discarded, so
// Cancel, StartEdit and Reload detach an in-flight commit.
package session

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/mesh-intelligence/rowedit/internal/rowstore"
	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// Session owns the edit state for one row collection.
type Session struct {
	store   *rowstore.Store
	updater types.Updater
	schema  types.Schema
	policy  string
	logger  *slog.Logger
	notify  types.ChangeFunc

	mu    sync.Mutex
	state types.EditState
	gen   uint64
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session logger. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotify sets the hook invoked after every state change. It runs on the
// goroutine that caused the change, outside the session lock.
func WithNotify(fn types.ChangeFunc) Option {
	return func(s *Session) {
		s.notify = fn
	}
}

// New creates a closed session over store. The config must be valid.
func New(store *rowstore.Store, updater types.Updater, cfg types.EditorConfig, opts ...Option) *Session {
	s := &Session{
		store:   store,
		updater: updater,
		schema:  append(types.Schema(nil), cfg.Fields...),
		policy:  cfg.ReloadPolicy,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	if s.policy == "" {
		s.policy = types.ReloadDiscard
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schema returns the editable fields in display order.
func (s *Session) Schema() types.Schema {
	return append(types.Schema(nil), s.schema...)
}

// State returns a copy of the current edit state.
func (s *Session) State() types.EditState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// StartEdit opens a session on the record with the given id, staging a copy
// of its editable fields. An open session on any record is replaced and its
// staged values are dropped. Returns ErrNotFound if the id is not in the store.
func (s *Session) StartEdit(id string) (types.EditState, error) {
	s.mu.Lock()
	rec, ok := s.store.Get(id)
	if !ok {
		st := s.state.Clone()
		s.mu.Unlock()
		return st, fmt.Errorf("start edit %s: %w", id, types.ErrNotFound)
	}
	if s.state.Open && s.state.TargetID != id {
		s.logger.Debug("discarding staged edits", "id", s.state.TargetID)
	}
	s.gen++
	s.state = types.EditState{
		Open:     true,
		TargetID: id,
		Staged:   s.schema.Stage(rec),
	}
	st := s.state.Clone()
	s.mu.Unlock()

	s.emit(st)
	return st, nil
}

// ChangeField sets one staged field and clears the last error. On a closed
// session it does nothing. Returns ErrUnknownField for names outside the
// schema and ErrCommitInFlight while a commit is outstanding.
func (s *Session) ChangeField(name, value string) (types.EditState, error) {
	s.mu.Lock()
	if !s.state.Open {
		st := s.state.Clone()
		s.mu.Unlock()
		return st, nil
	}
	if !s.schema.Has(name) {
		st := s.state.Clone()
		s.mu.Unlock()
		return st, fmt.Errorf("change field %q: %w", name, types.ErrUnknownField)
	}
	if s.state.InFlight {
		st := s.state.Clone()
		s.mu.Unlock()
		return st, fmt.Errorf("change field %q: %w", name, types.ErrCommitInFlight)
	}
	s.state.Staged[name] = value
	s.state.Error = ""
	st := s.state.Clone()
	s.mu.Unlock()

	s.emit(st)
	return st, nil
}

// Cancel closes the session without a remote call or a store mutation.
// A commit in flight is detached.
func (s *Session) Cancel() types.EditState {
	s.mu.Lock()
	if !s.state.Open {
		s.mu.Unlock()
		return types.Closed()
	}
	if s.state.InFlight {
		s.logger.Debug("detaching in-flight commit", "id", s.state.TargetID)
	}
	s.gen++
	s.state = types.Closed()
	s.mu.Unlock()

	s.emit(types.Closed())
	return types.Closed()
}

// Reload replaces the collection with records. Under the discard policy an
// open session is closed. Under the preserve policy it stays open while its
// target is still present.
func (s *Session) Reload(records []types.Record) types.EditState {
	s.mu.Lock()
	s.store.Initialize(records)
	keep := s.policy == types.ReloadPreserve && s.state.Open && s.store.Contains(s.state.TargetID)
	if s.state.Open && !keep {
		s.logger.Debug("reload closed edit session", "id", s.state.TargetID, "policy", s.policy)
		s.gen++
		s.state = types.Closed()
	}
	st := s.state.Clone()
	s.mu.Unlock()

	s.emit(st)
	return st
}

func (s *Session) emit(st types.EditState) {
	if s.notify == nil {
		return
	}
	s.notify(types.Change{Rows: s.store.Snapshot(), Edit: st})
}
