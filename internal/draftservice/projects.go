package draftservice

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/models"
	"github.com/starford/versedraft/internal/usfm"
)

// CreateProject stores a new project.
func (s *Service) CreateProject(ctx context.Context, name, sourceLang, targetLang string) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("draftservice: project name: %w", apperr.ErrInvalidInput)
	}
	p := &models.Project{
		Name:           name,
		SourceLanguage: sourceLang,
		TargetLanguage: targetLang,
		CreatedAt:      s.now().UTC(),
	}
	if err := s.store.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// GetProject returns a project by id.
func (s *Service) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.store.GetProject(ctx, id)
}

// CreateBook links a vault document to a project. The book code comes from
// the document's \id line; name defaults to the canonical book name.
func (s *Service) CreateBook(ctx context.Context, projectID, sourcePath, name string) (*models.Book, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	lines, err := s.loadSource(sourcePath)
	if err != nil {
		return nil, err
	}
	code := usfm.BookCode(lines)
	if code == "" {
		return nil, fmt.Errorf("draftservice: %s has no \\id line: %w", sourcePath, apperr.ErrInvalidInput)
	}
	if name = strings.TrimSpace(name); name == "" {
		name = usfm.BookName(code)
	}

	b := &models.Book{
		ProjectID:  projectID,
		Code:       code,
		Name:       name,
		SourcePath: sourcePath,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.CreateBook(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// ListBooks returns the books of a project.
func (s *Service) ListBooks(ctx context.Context, projectID string) ([]models.Book, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListBooks(ctx, projectID)
}

// AddTranslations stores translation records for one book. Text is
// normalized to NFC. With replace set, earlier active records for the same
// verse are deactivated.
func (s *Service) AddTranslations(ctx context.Context, projectID, bookID string, records []models.TranslationRecord, replace bool) ([]models.TranslationRecord, error) {
	if _, err := s.store.GetBook(ctx, projectID, bookID); err != nil {
		return nil, err
	}
	prepared := make([]models.TranslationRecord, len(records))
	for i, r := range records {
		if r.Chapter < 1 || r.Verse < 1 {
			return nil, fmt.Errorf("draftservice: record %d: chapter and verse must be positive: %w", i, apperr.ErrInvalidInput)
		}
		r.ID = ""
		r.ProjectID = projectID
		r.BookID = bookID
		if r.TranslatedText != nil {
			t := norm.NFC.String(*r.TranslatedText)
			r.TranslatedText = &t
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = s.now().UTC()
		}
		prepared[i] = r
	}
	return s.store.AddTranslations(ctx, prepared, replace)
}

// ListSources returns the indexed vault documents.
func (s *Service) ListSources(ctx context.Context) ([]models.SourceMeta, error) {
	return s.store.ListSources(ctx)
}
