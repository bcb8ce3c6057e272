package collect

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// Schema version for migration management
const SchemaVersion = 1

const recordsTableSQL = `
CREATE TABLE IF NOT EXISTS records (
    local_id TEXT PRIMARY KEY,
    remote_id TEXT,
    source_text TEXT NOT NULL,
    target_text TEXT NOT NULL,
    context TEXT,
    owner_id TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    sync_status TEXT NOT NULL DEFAULT 'pending'
        CHECK(sync_status IN ('pending', 'syncing', 'synced', 'error')),
    sync_error TEXT
);
`

const syncQueueTableSQL = `
CREATE TABLE IF NOT EXISTS sync_queue (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    operation TEXT NOT NULL CHECK(operation IN ('create', 'update', 'delete')),
    payload TEXT NOT NULL,
    enqueued_at INTEGER NOT NULL,
    attempts INTEGER NOT NULL DEFAULT 0,
    last_error TEXT,
    last_attempt_at INTEGER
);
`

const schemaVersionTableSQL = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at INTEGER NOT NULL
);
`

const recordsIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_records_remote_id ON records(remote_id);
CREATE INDEX IF NOT EXISTS idx_records_sync_status ON records(sync_status);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
`

const syncQueueIndexesSQL = `
CREATE INDEX IF NOT EXISTS idx_sync_queue_enqueued_at ON sync_queue(enqueued_at);
`

// Database wraps sql.DB with schema management for the local store.
type Database struct {
	*sql.DB
	path string
}

// OpenDatabase opens (creating if needed) the local SQLite database and
// applies the schema. With an empty customPath the database lives at the
// XDG-compliant data location.
func OpenDatabase(customPath string) (*Database, error) {
	dbPath, err := databasePath(customPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	database := &Database{DB: db, path: dbPath}

	if err := database.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return database, nil
}

// databasePath resolves the database file location.
// Priority: customPath > $XDG_DATA_HOME/ibonocollect/records.db >
// ~/.local/share/ibonocollect/records.db
func databasePath(customPath string) (string, error) {
	if customPath != "" {
		return customPath, nil
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "ibonocollect", "records.db"), nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "ibonocollect", "records.db"), nil
}

func (d *Database) initializeSchema() error {
	statements := []string{
		recordsTableSQL,
		syncQueueTableSQL,
		schemaVersionTableSQL,
		recordsIndexesSQL,
		syncQueueIndexesSQL,
	}

	for _, stmt := range statements {
		if _, err := d.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}

	// Record the schema version on first creation
	_, err := d.Exec(
		`INSERT OR IGNORE INTO schema_version (version, applied_at) VALUES (?, ?)`,
		SchemaVersion, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}

	return nil
}

// Path returns the on-disk location of the database file.
func (d *Database) Path() string {
	return d.path
}
