package types

import (
	"errors"
	"strings"
)

// Schema is the ordered set of editable field names. It is a configuration
// input; the order is the display order.
type Schema []string

// DefaultSchema is used when no fields are configured.
var DefaultSchema = Schema{"name", "value"}

// Schema validation errors.
var (
	ErrSchemaEmpty      = errors.New("schema must name at least one field")
	ErrFieldNameInvalid = errors.New("invalid field name")
	ErrFieldDuplicate   = errors.New("duplicate field name")
)

// Validate checks that the schema names at least one field, that no name is
// blank or "id", and that no name repeats.
func (s Schema) Validate() error {
	if len(s) == 0 {
		return ErrSchemaEmpty
	}
	seen := make(map[string]bool, len(s))
	for _, name := range s {
		if strings.TrimSpace(name) == "" || name == idKey {
			return ErrFieldNameInvalid
		}
		if seen[name] {
			return ErrFieldDuplicate
		}
		seen[name] = true
	}
	return nil
}

// Has reports whether name is an editable field.
func (s Schema) Has(name string) bool {
	for _, f := range s {
		if f == name {
			return true
		}
	}
	return false
}

// Stage returns a snapshot of the editable fields of r. Fields the record
// does not carry stage as "".
func (s Schema) Stage(r Record) map[string]string {
	staged := make(map[string]string, len(s))
	for _, name := range s {
		staged[name] = r.Fields[name]
	}
	return staged
}
