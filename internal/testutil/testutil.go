// Package testutil provides shared test helpers for setting up vaults and databases.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/versedraft/internal/storage"
	"github.com/starford/versedraft/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "versedraft-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory with a storage.Provider.
func TestVault(t *testing.T) (string, storage.Provider) {
	t.Helper()
	vaultDir := t.TempDir()
	vault, err := storage.NewFS(vaultDir)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, vault
}

// WriteSource writes a source document into the vault directory.
func WriteSource(t *testing.T, vaultDir, rel, content string) {
	t.Helper()
	full := filepath.Join(vaultDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// Psalm1 is a small source document with poetry lines and an inline tag.
const Psalm1 = `\id PSA
\c 1
\s1 The Two Ways
\q1
\v 1 Blessed is the man
\q2 who walks not in the counsel
\q2 of the \nd wicked\nd*
\v 2 but his delight is in the law
\c 2
\v 1 Why do the nations rage`
