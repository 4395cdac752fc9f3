package store

import (
	"context"
	"fmt"

	"github.com/starford/versedraft/internal/models"
)

// UpsertSource records an indexed vault document.
func (db *DB) UpsertSource(ctx context.Context, m models.SourceMeta) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO sources (path, book_code, checksum, line_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			book_code  = excluded.book_code,
			checksum   = excluded.checksum,
			line_count = excluded.line_count,
			updated_at = excluded.updated_at
	`), m.Path, m.BookCode, m.Checksum, m.LineCount, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("store: upsert source: %w", err)
	}
	return nil
}

// DeleteSource removes a document from the source index.
func (db *DB) DeleteSource(ctx context.Context, path string) error {
	if _, err := db.conn.ExecContext(ctx, db.rebind(`DELETE FROM sources WHERE path = ?`), path); err != nil {
		return fmt.Errorf("store: delete source: %w", err)
	}
	return nil
}

// SourceChecksums maps every indexed path to its checksum.
func (db *DB) SourceChecksums(ctx context.Context) (map[string]string, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT path, checksum FROM sources`)
	if err != nil {
		return nil, fmt.Errorf("store: source checksums: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, fmt.Errorf("store: scan source: %w", err)
		}
		out[p] = cs
	}
	return out, rows.Err()
}

// ListSources returns the source index ordered by path.
func (db *DB) ListSources(ctx context.Context) ([]models.SourceMeta, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT path, book_code, checksum, line_count, updated_at FROM sources ORDER BY path
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list sources: %w", err)
	}
	defer rows.Close()

	out := []models.SourceMeta{}
	for rows.Next() {
		var m models.SourceMeta
		if err := rows.Scan(&m.Path, &m.BookCode, &m.Checksum, &m.LineCount, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan source: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
