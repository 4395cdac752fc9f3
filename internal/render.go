package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/versedraft/internal/apperr"
	"github.com/starford/versedraft/internal/models"
	"github.com/starford/versedraft/internal/reconstruct"
	"github.com/starford/versedraft/internal/resolver"
	"github.com/starford/versedraft/internal/storage"
	"github.com/starford/versedraft/internal/usfm"
)

// RenderRequest describes an offline draft rendering: no database, no
// server, just a source document and a file of translation records.
type RenderRequest struct {
	SourcePath       string
	TranslationsPath string
	Resolver         string
	Out              io.Writer
	Logger           *slog.Logger
}

// renderRecord is the on-disk shape of one translation record.
type renderRecord struct {
	Chapter        int        `json:"chapter"`
	Verse          int        `json:"verse"`
	TranslatedText *string    `json:"translated_text"`
	IsReviewed     bool       `json:"is_reviewed"`
	IsActive       *bool      `json:"is_active"`
	CreatedAt      *time.Time `json:"created_at"`
}

// Render rebuilds one source document with translations read from a JSON
// array and writes the result to req.Out.
func Render(req RenderRequest) (reconstruct.Result, error) {
	logger := req.Logger
	if logger == nil {
		logger = slog.Default()
	}

	vault, err := storage.NewFS(filepath.Dir(req.SourcePath))
	if err != nil {
		return reconstruct.Result{}, fmt.Errorf("render: %w", err)
	}
	data, err := vault.Read(filepath.Base(req.SourcePath))
	if err != nil {
		return reconstruct.Result{}, fmt.Errorf("render: read source: %w", err)
	}
	lines, err := usfm.Parse(data)
	if err != nil {
		return reconstruct.Result{}, fmt.Errorf("render: %w", err)
	}

	records, err := readRecords(req.TranslationsPath)
	if err != nil {
		return reconstruct.Result{}, err
	}
	if !resolver.HasContent(records) {
		return reconstruct.Result{}, fmt.Errorf("render: %w", apperr.ErrNoTranslatableContent)
	}

	policy, err := resolver.ByName(req.Resolver)
	if err != nil {
		return reconstruct.Result{}, err
	}

	res := reconstruct.NewAssembler(logger).Assemble(req.SourcePath, lines, resolver.NewIndex(policy, records))
	if _, err := io.WriteString(req.Out, res.Content); err != nil {
		return res, fmt.Errorf("render: write: %w", err)
	}
	logger.Info("render: done",
		slog.String("source", req.SourcePath),
		slog.Int("verses", res.VersesTranslated),
		slog.Int("anomalies", len(res.Anomalies)))
	return res, nil
}

func readRecords(path string) ([]models.TranslationRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("render: read translations: %w", err)
	}
	var raw []renderRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("render: parse translations %s: %w", path, err)
	}

	records := make([]models.TranslationRecord, 0, len(raw))
	for _, r := range raw {
		rec := models.TranslationRecord{
			Chapter:        r.Chapter,
			Verse:          r.Verse,
			TranslatedText: r.TranslatedText,
			IsReviewed:     r.IsReviewed,
			IsActive:       r.IsActive == nil || *r.IsActive,
		}
		if r.CreatedAt != nil {
			rec.CreatedAt = *r.CreatedAt
		}
		if !rec.IsActive {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
