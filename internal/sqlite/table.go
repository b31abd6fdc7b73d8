package sqlite

import (
	"database/sql"
	"fmt"
	"sort"

	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// table implements types.Table over the records and record_fields tables.
type table struct {
	backend *Backend
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
	Exec(query string, args ...any) (sql.Result, error)
}

// Get retrieves a record by ID.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found.
func (t *table) Get(id string) (types.Record, error) {
	if id == "" {
		return types.Record{}, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return types.Record{}, types.ErrBackendDetached
	}
	return queryRecord(t.backend.db, id)
}

// Fetch returns all records in display order.
func (t *table) Fetch() ([]types.Record, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	if !t.backend.attached {
		return nil, types.ErrBackendDetached
	}
	rows, err := dumpRecords(t.backend.db, "", nil)
	if err != nil {
		return nil, err
	}
	out := make([]types.Record, len(rows))
	for i, r := range rows {
		out[i] = types.Record{ID: r.RecordID, Fields: r.Fields}
	}
	return out, nil
}

// Create stores a new record under a UUID v7 and appends it to the display
// order. Returns ErrInvalidData if a field name is empty or "id".
func (t *table) Create(fields map[string]string) (types.Record, error) {
	if !validFieldNames(fields) {
		return types.Record{}, types.ErrInvalidData
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Record{}, types.ErrBackendDetached
	}

	id := generateUUID()
	rec, err := b.write(func(tx *sql.Tx) error {
		return insertRecord(tx, id, fields, b.timestamp())
	}, id)
	if err != nil {
		return types.Record{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// Patch merges fields into an existing record and returns the full record.
// Returns ErrInvalidID if id is empty, ErrNotFound if not found, and
// ErrInvalidData if a field name is empty or "id".
func (t *table) Patch(id string, fields map[string]string) (types.Record, error) {
	if id == "" {
		return types.Record{}, types.ErrInvalidID
	}
	if !validFieldNames(fields) {
		return types.Record{}, types.ErrInvalidData
	}
	b := t.backend
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.Record{}, types.ErrBackendDetached
	}

	return b.write(func(tx *sql.Tx) error {
		exists, err := recordExists(tx, id)
		if err != nil {
			return err
		}
		if !exists {
			return types.ErrNotFound
		}
		if err := upsertFields(tx, id, fields); err != nil {
			return err
		}
		if _, err := tx.Exec("UPDATE records SET updated_at = ? WHERE record_id = ?", b.timestamp(), id); err != nil {
			return fmt.Errorf("touching record %s: %w", id, err)
		}
		return nil
	}, id)
}

// write runs fn in a transaction, reads back record id, commits and
// persists records.jsonl. The caller must hold b.mu.
func (b *Backend) write(fn func(tx *sql.Tx) error, id string) (types.Record, error) {
	tx, err := b.db.Begin()
	if err != nil {
		return types.Record{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return types.Record{}, err
	}
	rec, err := queryRecord(tx, id)
	if err != nil {
		return types.Record{}, err
	}
	if err := tx.Commit(); err != nil {
		return types.Record{}, fmt.Errorf("committing transaction: %w", err)
	}
	if err := b.persistLocked(); err != nil {
		return types.Record{}, err
	}
	return rec, nil
}

// persistLocked rewrites records.jsonl from SQLite. The caller must hold b.mu.
func (b *Backend) persistLocked() error {
	rows, err := dumpRecords(b.db, "", nil)
	if err != nil {
		return err
	}
	if err := persistRecordsJSONL(b.config.DataDir, rows); err != nil {
		return fmt.Errorf("persist %s: %w", recordsJSONL, err)
	}
	return nil
}

const selectRecords = `SELECT r.record_id, r.created_at, r.updated_at, f.name, f.value
FROM records r LEFT JOIN record_fields f ON f.record_id = r.record_id`

// dumpRecords returns records with their fields in display order, optionally
// restricted by a WHERE clause.
func dumpRecords(q querier, where string, args []any) ([]recordJSON, error) {
	query := selectRecords
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY r.ordinal, f.name"

	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var out []recordJSON
	for rows.Next() {
		var id, createdAt, updatedAt string
		var name, value sql.NullString
		if err := rows.Scan(&id, &createdAt, &updatedAt, &name, &value); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].RecordID != id {
			out = append(out, recordJSON{
				RecordID:  id,
				Fields:    map[string]string{},
				CreatedAt: createdAt,
				UpdatedAt: updatedAt,
			})
		}
		if name.Valid {
			out[len(out)-1].Fields[name.String] = value.String
		}
	}
	return out, rows.Err()
}

func queryRecord(q querier, id string) (types.Record, error) {
	rows, err := dumpRecords(q, "r.record_id = ?", []any{id})
	if err != nil {
		return types.Record{}, err
	}
	if len(rows) == 0 {
		return types.Record{}, types.ErrNotFound
	}
	return types.Record{ID: rows[0].RecordID, Fields: rows[0].Fields}, nil
}

func recordExists(q querier, id string) (bool, error) {
	var n int
	if err := q.QueryRow("SELECT COUNT(*) FROM records WHERE record_id = ?", id).Scan(&n); err != nil {
		return false, fmt.Errorf("checking record %s: %w", id, err)
	}
	return n > 0, nil
}

// insertRecord appends a record after the current last ordinal.
func insertRecord(tx *sql.Tx, id string, fields map[string]string, ts string) error {
	var ordinal int64
	if err := tx.QueryRow("SELECT COALESCE(MAX(ordinal), 0) + 1 FROM records").Scan(&ordinal); err != nil {
		return fmt.Errorf("next ordinal: %w", err)
	}
	if _, err := tx.Exec(
		"INSERT INTO records (record_id, ordinal, created_at, updated_at) VALUES (?, ?, ?, ?)",
		id, ordinal, ts, ts); err != nil {
		return fmt.Errorf("inserting record %s: %w", id, err)
	}
	return upsertFields(tx, id, fields)
}

// upsertFields writes fields in name order so statements are deterministic.
func upsertFields(tx *sql.Tx, id string, fields map[string]string) error {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := tx.Exec(
			`INSERT INTO record_fields (record_id, name, value) VALUES (?, ?, ?)
ON CONFLICT(record_id, name) DO UPDATE SET value = excluded.value`,
			id, name, fields[name]); err != nil {
			return fmt.Errorf("writing field %s of %s: %w", name, id, err)
		}
	}
	return nil
}

func validFieldNames(fields map[string]string) bool {
	for name := range fields {
		if name == "" || name == "id" {
			return false
		}
	}
	return true
}
