package types

import (
	"encoding/json"
	"fmt"
	"maps"
)

// idKey is the JSON member that carries Record.ID on the wire.
const idKey = "id"

// Record is one editable entity: an immutable ID and named string fields.
// On the wire a Record is a flat JSON object, e.g.
// {"id":"1","name":"Alpha","value":"01"}.
type Record struct {
	ID     string
	Fields map[string]string
}

// NewRecord builds a Record from an ID and alternating name, value pairs.
// A trailing name without a value is ignored.
func NewRecord(id string, kv ...string) Record {
	r := Record{ID: id, Fields: make(map[string]string, len(kv)/2)}
	for i := 0; i+1 < len(kv); i += 2 {
		r.Fields[kv[i]] = kv[i+1]
	}
	return r
}

// Get returns the value of a field, or "" if the record does not carry it.
func (r Record) Get(name string) string {
	return r.Fields[name]
}

// Clone returns a deep copy. The Fields map of the copy is never nil.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	maps.Copy(fields, r.Fields)
	return Record{ID: r.ID, Fields: fields}
}

// Equal reports whether both records have the same ID and the same fields.
func (r Record) Equal(other Record) bool {
	if r.ID != other.ID || len(r.Fields) != len(other.Fields) {
		return false
	}
	return maps.Equal(r.Fields, other.Fields)
}

// MarshalJSON encodes the record as a flat object. A field named "id" is
// shadowed by the record ID.
func (r Record) MarshalJSON() ([]byte, error) {
	obj := make(map[string]string, len(r.Fields)+1)
	maps.Copy(obj, r.Fields)
	obj[idKey] = r.ID
	return json.Marshal(obj)
}

// UnmarshalJSON decodes a flat object. The id member is required and may be
// a JSON string or number; every other member must be a string.
// Decoding failures wrap ErrInvalidData or ErrInvalidID.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if raw == nil {
		return fmt.Errorf("%w: not an object", ErrInvalidData)
	}

	idRaw, ok := raw[idKey]
	if !ok {
		return fmt.Errorf("%w: missing id", ErrInvalidID)
	}
	id, err := decodeID(idRaw)
	if err != nil {
		return err
	}

	fields := make(map[string]string, len(raw)-1)
	for name, v := range raw {
		if name == idKey {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err != nil {
			return fmt.Errorf("%w: field %q is not a string", ErrInvalidData, name)
		}
		fields[name] = s
	}

	r.ID = id
	r.Fields = fields
	return nil
}

// decodeID accepts a non-empty JSON string or a JSON number.
func decodeID(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("%w: empty id", ErrInvalidID)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n != "" {
		return n.String(), nil
	}
	return "", fmt.Errorf("%w: id must be a string or number", ErrInvalidID)
}

// CloneRecords deep-copies a record slice. A nil input yields an empty slice.
func CloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}
