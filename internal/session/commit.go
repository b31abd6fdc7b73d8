package session

import (
	"context"
	"fmt"
	"maps"

	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// Commit sends the staged fields to the remote updater.
//
// On success the authoritative record replaces the stored one and the
// session closes. On failure the session stays open with its staged fields
// and Error describes the failure; the store is not touched. Remote errors
// are never returned, only reflected in the state.
//
// At most one commit runs per session. A Commit issued while another is in
// flight, including one made from the change hook, returns the in-flight
// state without a remote call. Commit on a closed session returns the
// closed state.
func (s *Session) Commit(ctx context.Context) types.EditState {
	s.mu.Lock()
	if !s.state.Open || s.state.InFlight {
		if s.state.InFlight {
			s.logger.Debug("commit already in flight", "id", s.state.TargetID)
		}
		st := s.state.Clone()
		s.mu.Unlock()
		return st
	}
	gen := s.gen
	id := s.state.TargetID
	staged := maps.Clone(s.state.Staged)
	s.state.InFlight = true
	s.state.Error = ""
	st := s.state.Clone()
	s.mu.Unlock()

	s.emit(st)

	rec, err := s.updater.Update(ctx, id, staged)
	if err == nil && rec.ID != id {
		err = &types.UpdateError{ID: id, Reason: fmt.Sprintf("response carries id %q", rec.ID)}
	}
	return s.settle(gen, id, rec, err)
}

// settle applies the outcome of the commit started at generation gen.
// Outcomes of a detached generation are dropped.
func (s *Session) settle(gen uint64, id string, rec types.Record, err error) types.EditState {
	s.mu.Lock()
	if !s.state.Open || s.gen != gen {
		st := s.state.Clone()
		s.mu.Unlock()
		s.logger.Debug("commit response discarded", "id", id, "error", err)
		return st
	}

	if err != nil {
		ue := types.AsUpdateError(id, err)
		s.state.InFlight = false
		s.state.Error = ue.Error()
		st := s.state.Clone()
		s.mu.Unlock()

		s.logger.Warn("commit failed", "id", id, "error", ue)
		s.emit(st)
		return st
	}

	if !s.store.ReplaceOne(rec) {
		s.logger.Warn("committed record is no longer displayed", "id", id)
	}
	s.gen++
	s.state = types.Closed()
	s.mu.Unlock()

	s.logger.Info("commit applied", "id", id)
	s.emit(types.Closed())
	return types.Closed()
}
