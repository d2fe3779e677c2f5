// Package sqlite provides a SQLite implementation of the RelationalDB interface.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

// Repository implements ports.RelationalDB using SQLite.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new SQLite repository.
func NewRepository(cfg config.SQLiteConfig) (*Repository, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	// One connection: pragmas are per connection, and ":memory:" databases
	// are not shared between connections.
	db.SetMaxOpenConns(1)

	// Enable foreign keys for referential integrity
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	// Enable WAL mode for better concurrent read/write performance
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Set busy timeout to avoid "database is locked" errors
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	return &Repository{db: db}, nil
}

// Close closes the database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

// EnsureSchema creates the database schema if it doesn't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := `
	-- Imported tables
	CREATE TABLE IF NOT EXISTS entities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		source TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Columns
	CREATE TABLE IF NOT EXISTS properties (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		kind TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_properties_entity ON properties(entity_id, position);
	CREATE INDEX IF NOT EXISTS idx_properties_name ON properties(name);

	-- Rows
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		entity_id TEXT NOT NULL REFERENCES entities(id) ON DELETE CASCADE,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_records_entity ON records(entity_id, position);

	-- Cells (empty cells are not stored)
	CREATE TABLE IF NOT EXISTS record_values (
		id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
		property_id TEXT NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
		data TEXT NOT NULL,
		text TEXT NOT NULL,
		kind TEXT NOT NULL,
		UNIQUE(record_id, property_id)
	);
	CREATE INDEX IF NOT EXISTS idx_record_values_property ON record_values(property_id);

	-- Undirected links, one per unordered record pair
	CREATE TABLE IF NOT EXISTS record_links (
		id TEXT PRIMARY KEY,
		record1_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
		record2_id TEXT NOT NULL REFERENCES records(id) ON DELETE CASCADE,
		pair_key TEXT NOT NULL UNIQUE,
		property TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		CHECK (record1_id <> record2_id)
	);
	CREATE INDEX IF NOT EXISTS idx_record_links_record1 ON record_links(record1_id);
	CREATE INDEX IF NOT EXISTS idx_record_links_record2 ON record_links(record2_id);

	-- Connected components of linked records
	CREATE TABLE IF NOT EXISTS record_groups (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	-- Group membership; a record belongs to at most one group
	CREATE TABLE IF NOT EXISTS record_group_links (
		id TEXT PRIMARY KEY,
		record_group_id TEXT NOT NULL REFERENCES record_groups(id) ON DELETE CASCADE,
		record_id TEXT NOT NULL UNIQUE REFERENCES records(id) ON DELETE CASCADE,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_record_group_links_group ON record_group_links(record_group_id, position);
	`

	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

// withTx runs fn in a transaction, committing only when fn succeeds.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
