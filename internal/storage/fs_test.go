package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempVault(t *testing.T) *FS {
	t.Helper()
	dir := t.TempDir()
	fs, err := NewFS(dir)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return fs
}

func TestWriteAndRead(t *testing.T) {
	s := tempVault(t)
	content := []byte("\\id GEN\n\\c 1\n\\v 1 In the beginning\n")
	if err := s.Write("gen.usfm", content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("gen.usfm")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(content) {
		t.Errorf("content mismatch: got %q", got)
	}
}

func TestWriteCreatesSubdirs(t *testing.T) {
	s := tempVault(t)
	if err := s.Write("ot/poetry/psa.usfm", []byte("deep")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := s.Read("ot/poetry/psa.usfm")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "deep" {
		t.Errorf("content = %q", got)
	}
}

func TestReadMissingIsNotExist(t *testing.T) {
	s := tempVault(t)
	_, err := s.Read("nope.usfm")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err = %v, want os.ErrNotExist", err)
	}
}

func TestList(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("gen.usfm", []byte("a"))
	_ = s.Write("nt/jhn.SFM", []byte("b"))
	_ = s.Write("readme.txt", []byte("not usfm"))

	items, err := s.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len = %d, want 2", len(items))
	}
	if items[0].Path != "gen.usfm" || items[1].Path != "nt/jhn.SFM" {
		t.Errorf("paths = %q, %q", items[0].Path, items[1].Path)
	}
	if items[0].Checksum == "" || items[0].UpdatedAt.IsZero() {
		t.Errorf("metadata not filled: %+v", items[0])
	}
}

func TestIsSource(t *testing.T) {
	for name, want := range map[string]bool{
		"a.usfm": true, "b.SFM": true, "c.sfm": true, "d.md": false, "usfm": false,
	} {
		if IsSource(name) != want {
			t.Errorf("IsSource(%q) = %v, want %v", name, !want, want)
		}
	}
}

func TestTraversalBlocked(t *testing.T) {
	s := tempVault(t)

	cases := []string{
		"../../etc/passwd",
		"../outside.usfm",
		"/etc/shadow",
	}
	for _, p := range cases {
		if _, err := s.Read(p); err == nil {
			t.Errorf("expected error for path %q", p)
		}
		if err := s.Write(p, []byte("x")); err == nil {
			t.Errorf("expected error for write to %q", p)
		}
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	s := tempVault(t)
	_ = s.Write("atomic.usfm", []byte("original content"))

	updated := []byte("updated content")
	if err := s.Write("atomic.usfm", updated); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, _ := s.Read("atomic.usfm")
	if string(got) != string(updated) {
		t.Errorf("expected updated content, got %q", got)
	}

	matches, _ := filepath.Glob(filepath.Join(s.Root(), tempPattern))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_NonExistentDir(t *testing.T) {
	_, err := NewFS(filepath.Join(t.TempDir(), "missing"))
	if err == nil {
		t.Error("expected error for non-existent dir")
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "versedraft-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	_, err := NewFS(f.Name())
	if err == nil {
		t.Error("expected error when root is a file")
	}
}
