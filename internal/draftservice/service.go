// Package draftservice generates, stores and serves translated drafts of
// vault source documents.
package draftservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/checksum"
	"github.com/starford/versedraft/internal/models"
	"github.com/starford/versedraft/internal/reconstruct"
	"github.com/starford/versedraft/internal/resolver"
	"github.com/starford/versedraft/internal/storage"
	"github.com/starford/versedraft/internal/store"
	"github.com/starford/versedraft/internal/usfm"
)

// Event names passed to a Notifier.
const (
	EventDraftCreated    = "draft.created"
	EventDraftUpdated    = "draft.updated"
	EventDraftDownloaded = "draft.downloaded"
)

// DefaultCacheSize is the number of parsed source documents kept in memory.
const DefaultCacheSize = 64

// RecordStore reads and writes projects, books and translation records.
type RecordStore interface {
	CreateProject(ctx context.Context, p *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	CreateBook(ctx context.Context, b *models.Book) error
	GetBook(ctx context.Context, projectID, bookID string) (*models.Book, error)
	FindBook(ctx context.Context, projectID, name string) (*models.Book, error)
	ListBooks(ctx context.Context, projectID string) ([]models.Book, error)
	AddTranslations(ctx context.Context, records []models.TranslationRecord, replace bool) ([]models.TranslationRecord, error)
	ListTranslations(ctx context.Context, projectID, bookID string) ([]models.TranslationRecord, error)
	ListSources(ctx context.Context) ([]models.SourceMeta, error)
}

// DraftStore persists generated drafts.
type DraftStore interface {
	FindLatestDraft(ctx context.Context, projectID string, bookID *string) (*models.Draft, error)
	CreateDraft(ctx context.Context, d *models.Draft) error
	UpdateDraft(ctx context.Context, id, content string, byteSize int64, updatedAt time.Time) error
	GetDraft(ctx context.Context, id string) (*models.Draft, error)
	IncrementDownloads(ctx context.Context, id string) (*models.Draft, error)
	ListDrafts(ctx context.Context, projectID string) ([]models.Draft, error)
}

// Store is everything the service needs from persistence.
type Store interface {
	RecordStore
	DraftStore
}

var _ Store = (*store.DB)(nil)

// Notifier receives draft lifecycle events.
type Notifier func(event string, d *models.Draft)

// Service coordinates the vault, the store and the reconstruction engine.
type Service struct {
	store     Store
	vault     storage.Provider
	policy    resolver.Policy
	assembler *reconstruct.Assembler
	cache     *lru.Cache[string, []usfm.Line]
	locks     *keyedMutex
	logger    *slog.Logger
	notify    Notifier
	now       func() time.Time
}

// Option configures a Service.
type Option func(*serviceOptions)

type serviceOptions struct {
	policy    resolver.Policy
	cacheSize int
	notify    Notifier
	now       func() time.Time
	logger    *slog.Logger
}

// WithPolicy sets the translation resolution policy.
func WithPolicy(p resolver.Policy) Option {
	return func(o *serviceOptions) { o.policy = p }
}

// WithCacheSize sets how many parsed source documents are cached.
func WithCacheSize(n int) Option {
	return func(o *serviceOptions) { o.cacheSize = n }
}

// WithNotifier registers a callback for draft events.
func WithNotifier(n Notifier) Option {
	return func(o *serviceOptions) { o.notify = n }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *serviceOptions) { o.now = now }
}

// WithLogger sets the logger used for anomalies and lifecycle events.
func WithLogger(l *slog.Logger) Option {
	return func(o *serviceOptions) { o.logger = l }
}

// New creates a draft service.
func New(st Store, vault storage.Provider, opts ...Option) (*Service, error) {
	o := serviceOptions{
		policy:    resolver.LeastCommon{},
		cacheSize: DefaultCacheSize,
		now:       time.Now,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	cache, err := lru.New[string, []usfm.Line](o.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("draftservice: cache: %w", err)
	}

	return &Service{
		store:     st,
		vault:     vault,
		policy:    o.policy,
		assembler: reconstruct.NewAssembler(o.logger),
		cache:     cache,
		locks:     newKeyedMutex(),
		logger:    o.logger,
		notify:    o.notify,
		now:       o.now,
	}, nil
}

func (s *Service) emit(event string, d *models.Draft) {
	if s.notify != nil {
		s.notify(event, d)
	}
}

// loadSource reads and classifies a vault document. Parsed lines are shared
// between callers through the cache and must not be modified.
func (s *Service) loadSource(path string) ([]usfm.Line, error) {
	data, err := s.vault.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("draftservice: source %s: %w", path, apperr.ErrNotFound)
		}
		return nil, fmt.Errorf("draftservice: read source: %w", err)
	}

	sum := checksum.Sum(data)
	if lines, ok := s.cache.Get(sum); ok {
		return lines, nil
	}
	lines, err := usfm.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("draftservice: parse %s: %w", path, err)
	}
	s.cache.Add(sum, lines)
	return lines, nil
}
