package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/models"
)

const draftMetaColumns = `id, project_id, book_id, scope, name, format, byte_size, download_count, created_at, updated_at`

func scanDraft(s scanner, withContent bool) (*models.Draft, error) {
	var (
		d      models.Draft
		bookID sql.NullString
	)
	dest := []any{&d.ID, &d.ProjectID, &bookID, &d.Scope, &d.Name, &d.Format, &d.ByteSize, &d.DownloadCount, &d.CreatedAt, &d.UpdatedAt}
	if withContent {
		dest = append(dest, &d.Content)
	}
	if err := s.Scan(dest...); err != nil {
		return nil, err
	}
	if bookID.Valid {
		id := bookID.String
		d.BookID = &id
	}
	return &d, nil
}

// CreateDraft inserts a new draft row. A draft without a scope is a book
// draft when it has a book and a project draft otherwise.
func (db *DB) CreateDraft(ctx context.Context, d *models.Draft) error {
	var bookID sql.NullString
	if d.BookID != nil {
		bookID = sql.NullString{String: *d.BookID, Valid: true}
	}
	switch {
	case d.Scope != "":
	case d.BookID != nil:
		d.Scope = models.DraftScopeBook
	default:
		d.Scope = models.DraftScopeProject
	}
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO drafts (`+draftMetaColumns+`, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), d.ID, d.ProjectID, bookID, d.Scope, d.Name, d.Format, d.ByteSize, d.DownloadCount, d.CreatedAt, d.UpdatedAt, d.Content)
	if err != nil {
		return fmt.Errorf("store: create draft: %w", err)
	}
	return nil
}

// FindLatestDraft returns the newest book-scoped draft for a project and
// book. A nil bookID matches project drafts that name no book. Project
// drafts generated for a single book are never returned for that book.
func (db *DB) FindLatestDraft(ctx context.Context, projectID string, bookID *string) (*models.Draft, error) {
	query := `SELECT ` + draftMetaColumns + `, content FROM drafts
		WHERE project_id = ? AND scope = ? AND book_id IS NULL`
	args := []any{projectID, models.DraftScopeProject}
	if bookID != nil {
		query = `SELECT ` + draftMetaColumns + `, content FROM drafts
		WHERE project_id = ? AND scope = ? AND book_id = ?`
		args = []any{projectID, models.DraftScopeBook, *bookID}
	}
	query += ` ORDER BY created_at DESC, updated_at DESC LIMIT 1`

	d, err := scanDraft(db.conn.QueryRowContext(ctx, db.rebind(query), args...), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: latest draft: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: latest draft: %w", err)
	}
	return d, nil
}

// UpdateDraft overwrites the content of an existing draft.
func (db *DB) UpdateDraft(ctx context.Context, id, content string, byteSize int64, updatedAt time.Time) error {
	res, err := db.conn.ExecContext(ctx, db.rebind(`
		UPDATE drafts SET content = ?, byte_size = ?, updated_at = ? WHERE id = ?
	`), content, byteSize, updatedAt, id)
	if err != nil {
		return fmt.Errorf("store: update draft: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: draft %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// GetDraft returns a draft including its content.
func (db *DB) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	return db.getDraft(ctx, db.conn, id)
}

func (db *DB) getDraft(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...any) *sql.Row
}, id string) (*models.Draft, error) {
	d, err := scanDraft(q.QueryRowContext(ctx, db.rebind(`
		SELECT `+draftMetaColumns+`, content FROM drafts WHERE id = ?
	`), id), true)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: draft %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get draft: %w", err)
	}
	return d, nil
}

// IncrementDownloads bumps the download counter and returns the updated
// draft.
func (db *DB) IncrementDownloads(ctx context.Context, id string) (*models.Draft, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	res, err := tx.ExecContext(ctx, db.rebind(`UPDATE drafts SET download_count = download_count + 1 WHERE id = ?`), id)
	if err != nil {
		return nil, fmt.Errorf("store: count download: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("store: draft %s: %w", id, apperr.ErrNotFound)
	}
	d, err := db.getDraft(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return d, nil
}

// ListDrafts returns draft metadata for a project, newest first. Content is
// not loaded.
func (db *DB) ListDrafts(ctx context.Context, projectID string) ([]models.Draft, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT `+draftMetaColumns+` FROM drafts WHERE project_id = ? ORDER BY created_at DESC
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("store: list drafts: %w", err)
	}
	defer rows.Close()

	out := []models.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows, false)
		if err != nil {
			return nil, fmt.Errorf("store: scan draft: %w", err)
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}
