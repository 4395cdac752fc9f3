package draftservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/models"
	"github.com/starford/versedraft/internal/reconstruct"
	"github.com/starford/versedraft/internal/resolver"
)

const nameTimeLayout = "20060102T150405Z"

// render rebuilds one book with its resolved translations.
func (s *Service) render(ctx context.Context, book *models.Book) (reconstruct.Result, error) {
	records, err := s.store.ListTranslations(ctx, book.ProjectID, book.ID)
	if err != nil {
		return reconstruct.Result{}, err
	}
	if !resolver.HasContent(records) {
		return reconstruct.Result{}, fmt.Errorf("draftservice: book %s: %w", book.Code, apperr.ErrNoTranslatableContent)
	}

	lines, err := s.loadSource(book.SourcePath)
	if err != nil {
		return reconstruct.Result{}, err
	}
	return s.assembler.Assemble(book.SourcePath, lines, resolver.NewIndex(s.policy, records)), nil
}

// GenerateDraftForBook renders a book and stores the result in the latest
// draft for (project, book), creating one if none exists. Calls for the
// same pair are serialized.
func (s *Service) GenerateDraftForBook(ctx context.Context, projectID, bookID string) (*models.Draft, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	book, err := s.store.GetBook(ctx, projectID, bookID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(projectID + "/" + bookID)
	defer unlock()

	res, err := s.render(ctx, book)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	size := int64(len(res.Content))

	latest, err := s.store.FindLatestDraft(ctx, projectID, &book.ID)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		d := &models.Draft{
			ID:        uuid.NewString(),
			ProjectID: projectID,
			BookID:    &book.ID,
			Scope:     models.DraftScopeBook,
			Name:      project.Name + " - " + book.Name,
			Content:   res.Content,
			Format:    models.DraftFormat,
			ByteSize:  size,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.store.CreateDraft(ctx, d); err != nil {
			return nil, err
		}
		s.logGenerated("created", d, res)
		s.emit(EventDraftCreated, d)
		return d, nil
	case err != nil:
		return nil, err
	}

	if err := s.store.UpdateDraft(ctx, latest.ID, res.Content, size, now); err != nil {
		return nil, err
	}
	latest.Content = res.Content
	latest.ByteSize = size
	latest.UpdatedAt = now
	s.logGenerated("updated", latest, res)
	s.emit(EventDraftUpdated, latest)
	return latest, nil
}

// GenerateDraftForProject always inserts a new project-scoped draft. With
// bookName set only that book is rendered and the draft records its id;
// otherwise every book with translatable content is rendered in creation
// order and the results are joined with a newline. Project drafts are never
// picked up by GenerateDraftForBook.
func (s *Service) GenerateDraftForProject(ctx context.Context, projectID, bookName string) (*models.Draft, error) {
	project, err := s.store.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var books []models.Book
	if bookName = strings.TrimSpace(bookName); bookName != "" {
		b, err := s.store.FindBook(ctx, projectID, bookName)
		if err != nil {
			return nil, err
		}
		books = []models.Book{*b}
	} else {
		if books, err = s.store.ListBooks(ctx, projectID); err != nil {
			return nil, err
		}
	}

	unlock := s.locks.Lock(projectID + "/")
	defer unlock()

	var (
		parts  []string
		result reconstruct.Result
	)
	for i := range books {
		res, err := s.render(ctx, &books[i])
		if errors.Is(err, apperr.ErrNoTranslatableContent) && len(books) > 1 {
			s.logger.Debug("draft: book skipped",
				slog.String("project", projectID),
				slog.String("book", books[i].Code))
			continue
		}
		if err != nil {
			return nil, err
		}
		parts = append(parts, res.Content)
		result.VersesTranslated += res.VersesTranslated
		result.Anomalies = append(result.Anomalies, res.Anomalies...)
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("draftservice: project %s: %w", projectID, apperr.ErrNoTranslatableContent)
	}
	result.Content = strings.Join(parts, "\n")

	now := s.now().UTC()
	name := project.Name + " - " + now.Format(nameTimeLayout)
	d := &models.Draft{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Scope:     models.DraftScopeProject,
		Content:   result.Content,
		Format:    models.DraftFormat,
		ByteSize:  int64(len(result.Content)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if bookName != "" {
		d.BookID = &books[0].ID
		name = project.Name + " - " + books[0].Name + " - " + now.Format(nameTimeLayout)
	}
	d.Name = name

	if err := s.store.CreateDraft(ctx, d); err != nil {
		return nil, err
	}
	s.logGenerated("created", d, result)
	s.emit(EventDraftCreated, d)
	return d, nil
}

func (s *Service) logGenerated(op string, d *models.Draft, res reconstruct.Result) {
	s.logger.Info("draft: "+op,
		slog.String("draft", d.ID),
		slog.String("project", d.ProjectID),
		slog.Int("verses", res.VersesTranslated),
		slog.Int("anomalies", len(res.Anomalies)),
		slog.Int64("bytes", d.ByteSize))
}

// DownloadDraft counts a download and returns the draft content.
func (s *Service) DownloadDraft(ctx context.Context, id string) (io.Reader, *models.Draft, error) {
	d, err := s.store.IncrementDownloads(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	s.emit(EventDraftDownloaded, d)
	return strings.NewReader(d.Content), d, nil
}

// GetDraft returns a draft with its content.
func (s *Service) GetDraft(ctx context.Context, id string) (*models.Draft, error) {
	return s.store.GetDraft(ctx, id)
}

// ListDrafts returns draft metadata for a project, newest first.
func (s *Service) ListDrafts(ctx context.Context, projectID string) ([]models.Draft, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}
	return s.store.ListDrafts(ctx, projectID)
}
