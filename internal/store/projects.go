package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/models"
)

// CreateProject inserts p, assigning an id and creation time when unset.
func (db *DB) CreateProject(ctx context.Context, p *models.Project) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO projects (id, name, source_language, target_language, created_at)
		VALUES (?, ?, ?, ?, ?)
	`), p.ID, p.Name, p.SourceLanguage, p.TargetLanguage, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create project: %w", err)
	}
	return nil
}

// GetProject returns the project with the given id.
func (db *DB) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var p models.Project
	err := db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT id, name, source_language, target_language, created_at
		FROM projects WHERE id = ?
	`), id).Scan(&p.ID, &p.Name, &p.SourceLanguage, &p.TargetLanguage, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: project %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects, oldest first.
func (db *DB) ListProjects(ctx context.Context) ([]models.Project, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, name, source_language, target_language, created_at
		FROM projects ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list projects: %w", err)
	}
	defer rows.Close()

	out := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.Name, &p.SourceLanguage, &p.TargetLanguage, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

const bookColumns = `id, project_id, code, name, source_path, created_at`

func scanBook(s scanner) (*models.Book, error) {
	var b models.Book
	if err := s.Scan(&b.ID, &b.ProjectID, &b.Code, &b.Name, &b.SourcePath, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBook inserts b. A book code may appear only once per project.
func (db *DB) CreateBook(ctx context.Context, b *models.Book) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	var n int
	if err := tx.QueryRowContext(ctx, db.rebind(`SELECT COUNT(*) FROM books WHERE project_id = ? AND code = ?`),
		b.ProjectID, b.Code).Scan(&n); err != nil {
		return fmt.Errorf("store: check book: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("store: book %s: %w", b.Code, apperr.ErrAlreadyExists)
	}

	_, err = tx.ExecContext(ctx, db.rebind(`
		INSERT INTO books (`+bookColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`), b.ID, b.ProjectID, b.Code, b.Name, b.SourcePath, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("store: create book: %w", err)
	}
	return tx.Commit()
}

// GetBook returns a book of the given project.
func (db *DB) GetBook(ctx context.Context, projectID, bookID string) (*models.Book, error) {
	b, err := scanBook(db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT `+bookColumns+` FROM books WHERE project_id = ? AND id = ?
	`), projectID, bookID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: book %s: %w", bookID, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: get book: %w", err)
	}
	return b, nil
}

// FindBook looks a book up by name or code, case-insensitively.
func (db *DB) FindBook(ctx context.Context, projectID, name string) (*models.Book, error) {
	b, err := scanBook(db.conn.QueryRowContext(ctx, db.rebind(`
		SELECT `+bookColumns+` FROM books
		WHERE project_id = ? AND (LOWER(name) = LOWER(?) OR LOWER(code) = LOWER(?))
		ORDER BY created_at LIMIT 1
	`), projectID, name, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: book %q: %w", name, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("store: find book: %w", err)
	}
	return b, nil
}

// ListBooks returns the books of a project in creation order.
func (db *DB) ListBooks(ctx context.Context, projectID string) ([]models.Book, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT `+bookColumns+` FROM books WHERE project_id = ? ORDER BY created_at, code
	`), projectID)
	if err != nil {
		return nil, fmt.Errorf("store: list books: %w", err)
	}
	defer rows.Close()

	out := []models.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan book: %w", err)
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}
