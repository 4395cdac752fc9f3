package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/versedraft/internal/models"
)

// AddTranslations inserts records in one transaction, preserving their
// order for later resolution. With replace set, every earlier active record
// for the same (book, chapter, verse) is deactivated first, keeping one
// active record per verse.
func (db *DB) AddTranslations(ctx context.Context, records []models.TranslationRecord, replace bool) ([]models.TranslationRecord, error) {
	out := make([]models.TranslationRecord, len(records))
	copy(out, records)

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) FROM translation_records`).Scan(&seq); err != nil {
		return nil, fmt.Errorf("store: next seq: %w", err)
	}

	insert, err := tx.PrepareContext(ctx, db.rebind(`
		INSERT INTO translation_records
			(id, seq, project_id, book_id, chapter, verse, token_id, translated_text, is_reviewed, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`))
	if err != nil {
		return nil, fmt.Errorf("store: prepare insert: %w", err)
	}
	defer insert.Close()

	now := time.Now().UTC()
	for i := range out {
		r := &out[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if replace && r.IsActive {
			if _, err := tx.ExecContext(ctx, db.rebind(`
				UPDATE translation_records SET is_active = FALSE
				WHERE project_id = ? AND book_id = ? AND chapter = ? AND verse = ? AND is_active = TRUE
			`), r.ProjectID, r.BookID, r.Chapter, r.Verse); err != nil {
				return nil, fmt.Errorf("store: deactivate records: %w", err)
			}
		}
		seq++
		var text sql.NullString
		if r.TranslatedText != nil {
			text = sql.NullString{String: *r.TranslatedText, Valid: true}
		}
		if _, err := insert.ExecContext(ctx, r.ID, seq, r.ProjectID, r.BookID, r.Chapter, r.Verse,
			r.TokenID, text, r.IsReviewed, r.IsActive, r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: insert record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("store: commit: %w", err)
	}
	return out, nil
}

// ListTranslations returns the active records of a book in insertion order.
func (db *DB) ListTranslations(ctx context.Context, projectID, bookID string) ([]models.TranslationRecord, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT id, project_id, book_id, chapter, verse, token_id, translated_text, is_reviewed, is_active, created_at
		FROM translation_records
		WHERE project_id = ? AND book_id = ? AND is_active = TRUE
		ORDER BY seq
	`), projectID, bookID)
	if err != nil {
		return nil, fmt.Errorf("store: list translations: %w", err)
	}
	defer rows.Close()

	var out []models.TranslationRecord
	for rows.Next() {
		var (
			r    models.TranslationRecord
			text sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.BookID, &r.Chapter, &r.Verse, &r.TokenID,
			&text, &r.IsReviewed, &r.IsActive, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		if text.Valid {
			s := text.String
			r.TranslatedText = &s
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
