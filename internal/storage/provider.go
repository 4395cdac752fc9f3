// Package storage defines the vault of source documents.
package storage

import (
	"path/filepath"
	"strings"

	"github.com/starford/versedraft/internal/models"
)

// Provider is the interface for vault file operations. Paths are relative
// to the vault root and use forward slashes.
type Provider interface {
	// List returns metadata for every source document under dir.
	List(dir string) ([]models.SourceMeta, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
}

// IsSource reports whether name has a USFM file extension.
func IsSource(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".usfm", ".sfm":
		return true
	}
	return false
}
