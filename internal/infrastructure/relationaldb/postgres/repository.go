// Package postgres provides a PostgreSQL implementation of the RelationalDB
// interface. Each workspace lives in its own schema.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ersonp/sheetlink/internal/infrastructure/config"
)

// Repository implements ports.RelationalDB using PostgreSQL.
type Repository struct {
	pool   *pgxpool.Pool
	schema string
}

// NewRepository connects to PostgreSQL with every connection scoped to the
// configured schema.
func NewRepository(ctx context.Context, cfg config.PostgresConfig) (*Repository, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres dsn is required")
	}
	if cfg.Schema == "" {
		return nil, errors.New("postgres schema is required")
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}
	poolCfg.ConnConfig.RuntimeParams["search_path"] = cfg.Schema

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	return &Repository{pool: pool, schema: cfg.Schema}, nil
}

// Close closes the connection pool.
func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

// Schema returns the schema holding the workspace.
func (r *Repository) Schema() string {
	return r.schema
}

// EnsureSchema creates the workspace schema and its tables if they don't exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	schema := pgx.Identifier{r.schema}.Sanitize()
	ddl := []string{
		`CREATE SCHEMA IF NOT EXISTS ` + schema,
		`CREATE TABLE IF NOT EXISTS ` + schema + `.entities (
			seq BIGSERIAL UNIQUE,
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + schema + `.properties (
			id TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL REFERENCES ` + schema + `.entities(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			kind TEXT NOT NULL,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_properties_name ON ` + schema + `.properties(name)`,
		`CREATE TABLE IF NOT EXISTS ` + schema + `.records (
			id TEXT PRIMARY KEY,
			entity_id TEXT NOT NULL REFERENCES ` + schema + `.entities(id) ON DELETE CASCADE,
			position INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_records_entity ON ` + schema + `.records(entity_id, position)`,
		`CREATE TABLE IF NOT EXISTS ` + schema + `.record_values (
			id TEXT PRIMARY KEY,
			record_id TEXT NOT NULL REFERENCES ` + schema + `.records(id) ON DELETE CASCADE,
			property_id TEXT NOT NULL REFERENCES ` + schema + `.properties(id) ON DELETE CASCADE,
			data TEXT NOT NULL,
			text TEXT NOT NULL,
			kind TEXT NOT NULL,
			UNIQUE(record_id, property_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + schema + `.record_links (
			seq BIGSERIAL UNIQUE,
			id TEXT PRIMARY KEY,
			record1_id TEXT NOT NULL REFERENCES ` + schema + `.records(id) ON DELETE CASCADE,
			record2_id TEXT NOT NULL REFERENCES ` + schema + `.records(id) ON DELETE CASCADE,
			pair_key TEXT NOT NULL UNIQUE,
			property TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CHECK (record1_id <> record2_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + schema + `.record_groups (
			seq BIGSERIAL UNIQUE,
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + schema + `.record_group_links (
			id TEXT PRIMARY KEY,
			record_group_id TEXT NOT NULL REFERENCES ` + schema + `.record_groups(id) ON DELETE CASCADE,
			record_id TEXT NOT NULL UNIQUE REFERENCES ` + schema + `.records(id) ON DELETE CASCADE,
			position INTEGER NOT NULL
		)`,
	}

	for _, stmt := range ddl {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

// DropSchema removes the workspace schema with all its data.
func (r *Repository) DropSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{r.schema}.Sanitize()+` CASCADE`); err != nil {
		return fmt.Errorf("dropping schema: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
