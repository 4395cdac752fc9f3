package storage

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/starford/versedraft/internal/checksum"
	"github.com/starford/versedraft/internal/models"
)

// tempPattern names in-flight writes; the watcher and List never see them
// because they lack a source extension.
const tempPattern = ".versedraft-tmp-*"

// FS implements Provider backed by a directory of USFM files.
type FS struct {
	root string // absolute
}

// NewFS creates a new FS provider rooted at an existing directory.
func NewFS(root string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	switch {
	case err != nil:
		return nil, fmt.Errorf("storage: stat root: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	return &FS{root: abs}, nil
}

// Root returns the absolute vault directory.
func (f *FS) Root() string {
	return f.root
}

// resolve maps a vault-relative slash path to an absolute one. Absolute
// paths and paths climbing out of the root are rejected.
func (f *FS) resolve(rel string) (string, error) {
	if rel == "" || rel == "." {
		return f.root, nil
	}
	local := filepath.FromSlash(rel)
	if !filepath.IsLocal(local) {
		return "", fmt.Errorf("storage: path outside vault: %s", rel)
	}
	return filepath.Join(f.root, local), nil
}

// List walks dir and returns metadata for every source document, sorted by
// path. BookCode and LineCount are left for the indexer to fill.
func (f *FS) List(dir string) ([]models.SourceMeta, error) {
	base, err := f.resolve(dir)
	if err != nil {
		return nil, err
	}
	var out []models.SourceMeta
	walk := func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !IsSource(d.Name()) {
			return nil
		}
		meta, err := f.describe(p, d)
		if err != nil {
			return err
		}
		out = append(out, meta)
		return nil
	}
	if err := filepath.WalkDir(base, walk); err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	return out, nil
}

func (f *FS) describe(abs string, d fs.DirEntry) (models.SourceMeta, error) {
	info, err := d.Info()
	if err != nil {
		return models.SourceMeta{}, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return models.SourceMeta{}, err
	}
	rel, err := filepath.Rel(f.root, abs)
	if err != nil {
		return models.SourceMeta{}, err
	}
	return models.SourceMeta{
		Path:      filepath.ToSlash(rel),
		Checksum:  checksum.Sum(data),
		UpdatedAt: info.ModTime().UTC(),
	}, nil
}

// Read returns the raw bytes of a vault file. A missing file yields an
// error wrapping os.ErrNotExist.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	return data, nil
}

// Write replaces path with content. Readers see either the old or the new
// file, never a partial one.
func (f *FS) Write(path string, content []byte) error {
	abs, err := f.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir: %w", err)
	}
	if err := writeAtomic(abs, content); err != nil {
		return fmt.Errorf("storage: write %s: %w", path, err)
	}
	return nil
}

func writeAtomic(abs string, content []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(abs), tempPattern)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(content); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), abs)
}
