package store

import (
	"context"
	"log/slog"
	"time"

	"github.com/starford/versedraft/internal/checksum"
	"github.com/starford/versedraft/internal/models"
	"github.com/starford/versedraft/internal/storage"
	"github.com/starford/versedraft/internal/usfm"
)

// Sync walks the vault and brings the source index up to date:
//   - new/changed documents are classified and upserted
//   - documents removed from disk are deleted from the index
//
// Documents that fail classification are logged and skipped.
func Sync(ctx context.Context, db *DB, vault storage.Provider, logger *slog.Logger) error {
	metas, err := vault.List("")
	if err != nil {
		return err
	}

	checksums, err := db.SourceChecksums(ctx)
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := vault.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexSource(ctx, db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteSource(ctx, p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexSource classifies data and upserts its metadata.
func indexSource(ctx context.Context, db *DB, path string, data []byte) error {
	lines, err := usfm.Parse(data)
	if err != nil {
		return err
	}
	return db.UpsertSource(ctx, models.SourceMeta{
		Path:      path,
		BookCode:  usfm.BookCode(lines),
		Checksum:  checksum.Sum(data),
		LineCount: len(lines),
		UpdatedAt: time.Now().UTC(),
	})
}
