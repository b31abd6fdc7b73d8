package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL. Records keep their insertion order in ordinal; field values
// live one row per (record, field).
const (
	createRecords = `CREATE TABLE records (
    record_id TEXT PRIMARY KEY,
    ordinal INTEGER NOT NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);`

	createRecordFields = `CREATE TABLE record_fields (
    record_id TEXT NOT NULL,
    name TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (record_id, name),
    FOREIGN KEY (record_id) REFERENCES records(record_id)
);`

	createOrdinalIndex = `CREATE INDEX idx_records_ordinal ON records(ordinal);`
)

var schemaStatements = []string{
	createRecords,
	createRecordFields,
	createOrdinalIndex,
}

func createSchema(db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("executing %q: %w", stmt, err)
		}
	}
	return nil
}
