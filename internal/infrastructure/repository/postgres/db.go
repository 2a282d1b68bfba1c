// Package postgres holds every database adapter behind the core ports.
// All repositories share one *sql.DB over the pgx stdlib driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema applies the bootstrap DDL. The advisory lock serializes
// api/worker startups against each other.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS documents (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	mime_type TEXT NOT NULL,
	storage_path TEXT NOT NULL,
	company_id TEXT,
	format_id TEXT,
	status TEXT NOT NULL,
	error_message TEXT,
	result JSONB,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at DESC);

CREATE TABLE IF NOT EXISTS companies (
	id TEXT PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	display_name TEXT NOT NULL,
	names JSONB NOT NULL DEFAULT '[]'::jsonb,
	keywords JSONB NOT NULL DEFAULT '[]'::jsonb,
	formats JSONB NOT NULL DEFAULT '[]'::jsonb,
	logo_text JSONB NOT NULL DEFAULT '[]'::jsonb,
	priority INT NOT NULL DEFAULT 0,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS document_formats (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL REFERENCES companies(id),
	name TEXT NOT NULL,
	signatures JSONB NOT NULL DEFAULT '[]'::jsonb,
	auto_created BOOLEAN NOT NULL DEFAULT FALSE,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_formats_company ON document_formats(company_id);

CREATE TABLE IF NOT EXISTS extraction_prompts (
	id TEXT PRIMARY KEY,
	scope_level TEXT NOT NULL,
	scope_id TEXT NOT NULL DEFAULT '',
	prompt TEXT NOT NULL,
	active BOOLEAN NOT NULL DEFAULT TRUE,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_prompts_scope ON extraction_prompts(scope_level, scope_id) WHERE active;

CREATE TABLE IF NOT EXISTS mapping_rules (
	id TEXT PRIMARY KEY,
	scope_level TEXT NOT NULL,
	scope_id TEXT NOT NULL DEFAULT '',
	field_name TEXT NOT NULL,
	field_label TEXT,
	extraction JSONB NOT NULL,
	priority INT NOT NULL DEFAULT 0,
	required BOOLEAN NOT NULL DEFAULT FALSE,
	validation_pattern TEXT,
	default_value TEXT,
	active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE INDEX IF NOT EXISTS idx_rules_scope ON mapping_rules(scope_level, scope_id) WHERE active;

CREATE TABLE IF NOT EXISTS vocabulary_terms (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	format_id TEXT NOT NULL DEFAULT '',
	normalized TEXT NOT NULL,
	display TEXT NOT NULL,
	occurrences INT NOT NULL DEFAULT 1,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (company_id, format_id, normalized)
);

CREATE TABLE IF NOT EXISTS synonym_candidates (
	id TEXT PRIMARY KEY,
	company_id TEXT NOT NULL,
	format_id TEXT NOT NULL DEFAULT '',
	stored_term_id TEXT NOT NULL,
	detected_normalized TEXT NOT NULL,
	detected_display TEXT NOT NULL,
	similarity DOUBLE PRECISION NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS field_accuracy_stats (
	field_name TEXT NOT NULL,
	company_id TEXT NOT NULL,
	accuracy DOUBLE PRECISION NOT NULL,
	sample_size INT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (field_name, company_id)
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
