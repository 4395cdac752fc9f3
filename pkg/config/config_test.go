package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sample struct {
	Name  string `yaml:"name"`
	Port  int    `yaml:"port"`
	valid bool
}

func (s *sample) Validate() error {
	s.valid = true
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "drafts")
	p := writeConfig(t, "name: ${SAMPLE_NAME}\nport: 9090\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "drafts" || s.Port != 9090 || !s.valid {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	p := writeConfig(t, "name: x\nport: 1\nsqlite: {}\n")
	var s sample
	err := Load(p, &s)
	if err == nil || !strings.Contains(err.Error(), "failed to parse") {
		t.Errorf("err = %v, want parse error", err)
	}
}

func TestLoad_Validates(t *testing.T) {
	p := writeConfig(t, "name: x\nport: 0\n")
	var s sample
	if err := Load(p, &s); err == nil || !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("err = %v, want validation error", err)
	}
}

func TestLoad_EmptyFileKeepsDefaults(t *testing.T) {
	p := writeConfig(t, "")
	s := sample{Name: "default", Port: 8080}
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "default" || s.Port != 8080 {
		t.Errorf("defaults overwritten: %+v", s)
	}
}

func TestLoadOptional_MissingFile(t *testing.T) {
	s := sample{Port: 8080}
	if err := LoadOptional(filepath.Join(t.TempDir(), "nope.yaml"), &s); err != nil {
		t.Fatalf("LoadOptional: %v", err)
	}
	if !s.valid {
		t.Error("defaults were not validated")
	}

	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &s); err == nil {
		t.Error("Load should fail on a missing file")
	}
}
