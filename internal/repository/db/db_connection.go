package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens (or creates) the SQLite file holding definitions, the point
// catalog and the event log, and ensures all tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// single writer; cycles append events concurrently
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range pragmas {
		if _, err := db.Exec("PRAGMA " + pragma + ";"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set PRAGMA %s: %w", pragma, err)
		}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

// foreign_keys is required for ON DELETE CASCADE of branches and bindings.
var pragmas = []string{
	"journal_mode = WAL",
	"foreign_keys = ON",
	"busy_timeout = 5000",
}

const schemaIfMemories = `
CREATE TABLE IF NOT EXISTS if_memories (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    default_value REAL NOT NULL DEFAULT 0,
    output_destination TEXT NOT NULL,
    output_type TEXT NOT NULL CHECK (output_type IN ('Digital', 'Analog')),
    interval INTEGER NOT NULL CHECK (interval >= 1),
    disabled BOOLEAN NOT NULL DEFAULT 0,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaIfMemoryBranches = `
CREATE TABLE IF NOT EXISTS if_memory_branches (
    memory_id TEXT NOT NULL REFERENCES if_memories(id) ON DELETE CASCADE,
    ord INTEGER NOT NULL,
    id TEXT NOT NULL,
    name TEXT,
    condition TEXT NOT NULL,
    output_value REAL NOT NULL,
    hysteresis REAL NOT NULL DEFAULT 0 CHECK (hysteresis >= 0),
    PRIMARY KEY (memory_id, ord)
);
`

const schemaIfMemoryBindings = `
CREATE TABLE IF NOT EXISTS if_memory_bindings (
    memory_id TEXT NOT NULL REFERENCES if_memories(id) ON DELETE CASCADE,
    position INTEGER NOT NULL,
    alias TEXT NOT NULL,
    source TEXT NOT NULL,
    PRIMARY KEY (memory_id, position),
    UNIQUE (memory_id, alias)
);
`

const schemaPoints = `
CREATE TABLE IF NOT EXISTS points (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    kind TEXT NOT NULL CHECK (kind IN ('Digital', 'Analog')),
    writable BOOLEAN NOT NULL DEFAULT 0
);
`

const schemaGlobalVariables = `
CREATE TABLE IF NOT EXISTS global_variables (
    name TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    initial_value REAL NOT NULL DEFAULT 0,
    description TEXT
);
`

const schemaMemoryEvents = `
CREATE TABLE IF NOT EXISTS memory_events (
    id TEXT PRIMARY KEY,
    memory_id TEXT,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    message TEXT NOT NULL,
    meta TEXT
);
`

const indexMemoryEvents = `
CREATE INDEX IF NOT EXISTS idx_memory_events_memory ON memory_events (memory_id, occurred_at);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaIfMemories,
		schemaIfMemoryBranches,
		schemaIfMemoryBindings,
		schemaPoints,
		schemaGlobalVariables,
		schemaMemoryEvents,
		indexMemoryEvents,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
