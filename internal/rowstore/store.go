// Package rowstore holds the authoritative, displayed record collection.
// Readers see immutable snapshots; writers publish a new snapshot in one
// atomic step, so a half-applied mutation is never observable.
package rowstore

import (
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// Store is the single source of truth for the displayed collection.
// The zero value is an empty store ready for use.
type Store struct {
	writeMu sync.Mutex
	state   atomic.Pointer[collection]
}

// collection is an immutable published state. Records are never mutated
// after publication.
type collection struct {
	rows  []types.Record
	index map[string]int
}

func newCollection(rows []types.Record) *collection {
	c := &collection{
		rows:  make([]types.Record, 0, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	for _, r := range rows {
		if _, dup := c.index[r.ID]; dup {
			// Ids are unique; the first occurrence wins.
			continue
		}
		c.index[r.ID] = len(c.rows)
		c.rows = append(c.rows, r.Clone())
	}
	return c
}

// New returns a store initialized with records.
func New(records []types.Record) *Store {
	s := &Store{}
	s.Initialize(records)
	return s
}

func (s *Store) load() *collection {
	if c := s.state.Load(); c != nil {
		return c
	}
	return &collection{index: map[string]int{}}
}

// Initialize replaces the entire collection unconditionally.
func (s *Store) Initialize(records []types.Record) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.state.Store(newCollection(records))
}

// ReplaceOne replaces the record whose ID matches record.ID and reports
// whether one did. Without a match the collection is unchanged.
func (s *Store) ReplaceOne(record types.Record) bool {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	current := s.load()
	i, ok := current.index[record.ID]
	if !ok {
		return false
	}

	rows := make([]types.Record, len(current.rows))
	copy(rows, current.rows)
	rows[i] = record.Clone()

	s.state.Store(&collection{rows: rows, index: current.index})
	return true
}

// Snapshot returns a deep copy of the current ordered collection.
func (s *Store) Snapshot() []types.Record {
	return types.CloneRecords(s.load().rows)
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id string) (types.Record, bool) {
	current := s.load()
	i, ok := current.index[id]
	if !ok {
		return types.Record{}, false
	}
	return current.rows[i].Clone(), true
}

// Contains reports whether a record with the given id is present.
func (s *Store) Contains(id string) bool {
	_, ok := s.load().index[id]
	return ok
}

// Len returns the number of records.
func (s *Store) Len() int {
	return len(s.load().rows)
}
