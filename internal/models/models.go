// Package models defines the domain types for versedraft.
package models

import (
	"strings"
	"time"
)

// DraftFormat is the only format drafts are rendered in.
const DraftFormat = "structured-markup"

// Draft scopes. Book drafts are regenerated in place; project drafts are
// history and never change once written, even when they name a book.
const (
	DraftScopeBook    = "book"
	DraftScopeProject = "project"
)

// Project groups books that are translated into the same target language.
type Project struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	SourceLanguage string    `json:"source_language"`
	TargetLanguage string    `json:"target_language"`
	CreatedAt      time.Time `json:"created_at"`
}

// Book links a project to one source document in the vault.
type Book struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Code       string    `json:"code"`        // USFM book id, e.g. PSA
	Name       string    `json:"name"`
	SourcePath string    `json:"source_path"` // relative to the vault root
	CreatedAt  time.Time `json:"created_at"`
}

// TranslationRecord is one candidate translation for a verse position.
// Several records may share a (Chapter, Verse) key.
type TranslationRecord struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"project_id"`
	BookID         string    `json:"book_id"`
	Chapter        int       `json:"chapter"`
	Verse          int       `json:"verse"`
	TokenID        string    `json:"token_id,omitempty"`
	TranslatedText *string   `json:"translated_text"`
	IsReviewed     bool      `json:"is_reviewed"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
}

// Text returns the trimmed translated text, or "" when absent.
func (r TranslationRecord) Text() string {
	if r.TranslatedText == nil {
		return ""
	}
	return strings.TrimSpace(*r.TranslatedText)
}

// Draft is a generated rendering of a book or project with translations
// substituted for the source text.
type Draft struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	BookID        *string   `json:"book_id,omitempty"`
	Scope         string    `json:"scope"`
	Name          string    `json:"name"`
	Content       string    `json:"content,omitempty"`
	Format        string    `json:"format"`
	ByteSize      int64     `json:"byte_size"`
	DownloadCount int64     `json:"download_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// SourceMeta describes a source document indexed from the vault.
type SourceMeta struct {
	Path      string    `json:"path"`
	BookCode  string    `json:"book_code"`
	Checksum  string    `json:"checksum"`
	LineCount int       `json:"line_count"`
	UpdatedAt time.Time `json:"updated_at"`
}
