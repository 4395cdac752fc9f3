// Package store persists projects, books, translation records, drafts and
// the index of vault source documents. SQLite is the default backend; a
// postgres:// DSN selects PostgreSQL through the pgx driver.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS projects (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	source_language TEXT NOT NULL DEFAULT '',
	target_language TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS books (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	code        TEXT NOT NULL,
	name        TEXT NOT NULL,
	source_path TEXT NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	UNIQUE(project_id, code)
);

CREATE TABLE IF NOT EXISTS translation_records (
	id              TEXT PRIMARY KEY,
	seq             BIGINT NOT NULL,
	project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	book_id         TEXT NOT NULL REFERENCES books(id) ON DELETE CASCADE,
	chapter         INTEGER NOT NULL,
	verse           INTEGER NOT NULL,
	token_id        TEXT NOT NULL DEFAULT '',
	translated_text TEXT,
	is_reviewed     BOOLEAN NOT NULL DEFAULT FALSE,
	is_active       BOOLEAN NOT NULL DEFAULT TRUE,
	created_at      TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_records_scope ON translation_records(project_id, book_id, chapter, verse);

CREATE TABLE IF NOT EXISTS drafts (
	id             TEXT PRIMARY KEY,
	project_id     TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	book_id        TEXT REFERENCES books(id) ON DELETE SET NULL,
	scope          TEXT NOT NULL,
	name           TEXT NOT NULL,
	content        TEXT NOT NULL,
	format         TEXT NOT NULL,
	byte_size      BIGINT NOT NULL,
	download_count BIGINT NOT NULL DEFAULT 0,
	created_at     TIMESTAMP NOT NULL,
	updated_at     TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_drafts_scope ON drafts(project_id, scope, book_id, created_at);

CREATE TABLE IF NOT EXISTS sources (
	path       TEXT PRIMARY KEY,
	book_code  TEXT NOT NULL DEFAULT '',
	checksum   TEXT NOT NULL DEFAULT '',
	line_count INTEGER NOT NULL DEFAULT 0,
	updated_at TIMESTAMP NOT NULL
);
`

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// DB wraps a sql.DB with store-specific operations.
type DB struct {
	conn    *sql.DB
	dialect dialect
}

// Open opens (or creates) the database and applies the schema. dsn is a
// SQLite file path or a postgres:// URL.
func Open(dsn string) (*DB, error) {
	driver, source, d := "sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", dialectSQLite
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, source, d = "pgx", dsn, dialectPostgres
	}

	conn, err := sql.Open(driver, source)
	if err != nil {
		return nil, fmt.Errorf("store: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("store: apply schema: %w", err)
	}
	return &DB{conn: conn, dialect: d}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (db *DB) rebind(query string) string {
	if db.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

type scanner interface {
	Scan(dest ...any) error
}
