// Package sqlite implements the SQLite storage backend that holds the
// authoritative records behind the remote update API. SQLite is the query
// engine; records.jsonl in the data directory is the source of truth and is
// rewritten atomically after every write.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/rowedit/pkg/types"
)

// File names inside the data directory.
const (
	dbFileName   = "rowedit.db"
	recordsJSONL = "records.jsonl"
)

// Backend implements types.Backend using SQLite.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	records  *table

	now func() time.Time
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{now: time.Now}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, builds a fresh SQLite schema and
// loads records.jsonl into it.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	// The database is a cache of the JSONL file; always start fresh.
	dbPath := filepath.Join(dataDir, dbFileName)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}
	// One connection serialises writers and keeps transactions simple.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return fmt.Errorf("create schema: %w", err)
	}

	if err := ensureJSONL(filepath.Join(dataDir, recordsJSONL)); err != nil {
		db.Close()
		return err
	}

	if err := loadRecordsJSONL(db, dataDir, b.now()); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	config.DataDir = dataDir
	b.db = db
	b.config = config
	b.attached = true
	b.records = &table{backend: b}

	return nil
}

// Detach releases all resources held by the backend. After Detach, all
// operations return ErrBackendDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.records = nil

	return nil
}

// Records returns the records table.
// Returns ErrBackendDetached if the backend is not attached.
func (b *Backend) Records() (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrBackendDetached
	}
	return b.records, nil
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrBackendDetached
	}
	return b.db.PingContext(ctx)
}

// DataDir returns the resolved data directory of an attached backend.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.config.DataDir
}

// Seed inserts records whose IDs are not yet present, in order, and returns
// how many were inserted.
func (b *Backend) Seed(records []types.Record) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return 0, types.ErrBackendDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	ts := b.timestamp()
	inserted := 0
	for _, r := range records {
		if r.ID == "" {
			return 0, types.ErrInvalidID
		}
		if !validFieldNames(r.Fields) {
			return 0, types.ErrInvalidData
		}
		exists, err := recordExists(tx, r.ID)
		if err != nil {
			return 0, err
		}
		if exists {
			continue
		}
		if err := insertRecord(tx, r.ID, r.Fields, ts); err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}
	if inserted > 0 {
		if err := b.persistLocked(); err != nil {
			return inserted, err
		}
	}
	return inserted, nil
}

// timestamp returns the current time in the stored format.
func (b *Backend) timestamp() string {
	return b.now().UTC().Format(time.RFC3339)
}

// generateUUID generates a new UUID v7 for record IDs.
func generateUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to UUID v4 if v7 generation fails
		return uuid.New().String()
	}
	return id.String()
}
