package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"
)

// loadRecordsJSONL reads records.jsonl and inserts every record into SQLite
// in file order. Loading is transactional: all succeed or the database stays
// empty. Lines that do not decode, lack a record_id, or repeat an earlier
// record_id are skipped. Unknown members are ignored.
func loadRecordsJSONL(db *sql.DB, dataDir string, now time.Time) error {
	lines, err := readJSONL(filepath.Join(dataDir, recordsJSONL))
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	fallback := now.UTC().Format(time.RFC3339)
	seen := make(map[string]bool, len(lines))
	ordinal := int64(0)

	for _, line := range lines {
		var rec recordJSON
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.RecordID == "" || seen[rec.RecordID] || !validFieldNames(rec.Fields) {
			continue
		}
		seen[rec.RecordID] = true
		ordinal++

		createdAt := rec.CreatedAt
		if createdAt == "" {
			createdAt = fallback
		}
		updatedAt := rec.UpdatedAt
		if updatedAt == "" {
			updatedAt = createdAt
		}

		if _, err := tx.Exec(
			"INSERT INTO records (record_id, ordinal, created_at, updated_at) VALUES (?, ?, ?, ?)",
			rec.RecordID, ordinal, createdAt, updatedAt); err != nil {
			return fmt.Errorf("loading record %s: %w", rec.RecordID, err)
		}
		if err := upsertFields(tx, rec.RecordID, rec.Fields); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}
