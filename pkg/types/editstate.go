package types

import "maps"

// EditState describes the edit session: either closed, or open on one
// target record with staged field values and the last commit error.
type EditState struct {
	Open     bool
	TargetID string
	Staged   map[string]string
	Error    string
	InFlight bool
}

// Closed returns the closed edit state.
func Closed() EditState {
	return EditState{}
}

// IsEditing reports whether the session is open on the record with id.
func (s EditState) IsEditing(id string) bool {
	return s.Open && s.TargetID == id
}

// Clone returns a deep copy of the state.
func (s EditState) Clone() EditState {
	out := s
	if s.Staged != nil {
		out.Staged = make(map[string]string, len(s.Staged))
		maps.Copy(out.Staged, s.Staged)
	}
	return out
}

// Change is delivered to change hooks after every state change.
type Change struct {
	Rows []Record
	Edit EditState
}

// ChangeFunc is a change notification hook.
type ChangeFunc func(Change)
