package api

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/versedraft/internal/models"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name           string `json:"name" example:"Reina" validate:"required"`
	SourceLanguage string `json:"source_language" example:"en"`
	TargetLanguage string `json:"target_language" example:"es"`
}

// Validate implements validation.Validatable.
func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.SourceLanguage, validation.Length(0, 35)),
		validation.Field(&r.TargetLanguage, validation.Length(0, 35)),
	)
}

// CreateBookRequest links a vault document to a project.
type CreateBookRequest struct {
	SourcePath string `json:"source_path" example:"19PSA.usfm" validate:"required"`
	Name       string `json:"name,omitempty" example:"Psalms"`
}

// Validate implements validation.Validatable.
func (r CreateBookRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.SourcePath, validation.Required),
	)
}

// TranslationInput is one record in a translation batch.
type TranslationInput struct {
	Chapter        int        `json:"chapter" example:"1"`
	Verse          int        `json:"verse" example:"1"`
	TokenID        string     `json:"token_id,omitempty"`
	TranslatedText *string    `json:"translated_text" example:"Bienaventurado el varón"`
	IsReviewed     bool       `json:"is_reviewed"`
	IsActive       *bool      `json:"is_active,omitempty"`
	CreatedAt      *time.Time `json:"created_at,omitempty"`
}

// Validate implements validation.Validatable.
func (t TranslationInput) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.Chapter, validation.Required, validation.Min(1)),
		validation.Field(&t.Verse, validation.Required, validation.Min(1)),
	)
}

func (t TranslationInput) record() models.TranslationRecord {
	r := models.TranslationRecord{
		Chapter:        t.Chapter,
		Verse:          t.Verse,
		TokenID:        t.TokenID,
		TranslatedText: t.TranslatedText,
		IsReviewed:     t.IsReviewed,
		IsActive:       true,
	}
	if t.IsActive != nil {
		r.IsActive = *t.IsActive
	}
	if t.CreatedAt != nil {
		r.CreatedAt = t.CreatedAt.UTC()
	}
	return r
}

// AddTranslationsRequest is a batch of records for one book.
type AddTranslationsRequest struct {
	BookID  string             `json:"book_id" validate:"required"`
	Replace bool               `json:"replace"`
	Records []TranslationInput `json:"records" validate:"required"`
}

// Validate implements validation.Validatable.
func (r AddTranslationsRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookID, validation.Required),
		validation.Field(&r.Records, validation.Required, validation.Length(1, 50000)),
	)
}

// GenerateProjectDraftRequest optionally restricts a project draft to one book.
type GenerateProjectDraftRequest struct {
	BookName string `json:"book_name,omitempty" example:"Psalms"`
}

// Validate implements validation.Validatable.
func (r GenerateProjectDraftRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BookName, validation.Length(0, 100)),
	)
}

// DraftListResponse wraps draft metadata listings.
type DraftListResponse struct {
	Drafts []models.Draft `json:"drafts" validate:"required"`
}

// BookListResponse wraps book listings.
type BookListResponse struct {
	Books []models.Book `json:"books" validate:"required"`
}

// SourceListResponse wraps the indexed vault documents.
type SourceListResponse struct {
	Sources []models.SourceMeta `json:"sources" validate:"required"`
}

// TranslationsResponse reports stored records.
type TranslationsResponse struct {
	Stored  int                        `json:"stored" example:"12"`
	Records []models.TranslationRecord `json:"records"`
}
