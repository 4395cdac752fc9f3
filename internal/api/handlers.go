package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-chi/chi/v5"

	"github.com/starford/versedraft/internal/checksum"
	"github.com/starford/versedraft/internal/draftservice"
	"github.com/starford/versedraft/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *draftservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *draftservice.Service) *Handler {
	return &Handler{svc: svc}
}

// CreateProject handles POST /api/projects.
//
//	@Summary		Create a translation project
//	@Tags			projects
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateProjectRequest	true	"Project to create"
//	@Success		201		{object}	models.Project
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects [post]
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateProject(r.Context(), req.Name, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		writeServiceError(w, "create project", err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// GetProject handles GET /api/projects/{projectID}.
//
//	@Summary		Get a project
//	@Tags			projects
//	@Produce		json
//	@Param			projectID	path		string	true	"Project ID"
//	@Success		200			{object}	models.Project
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID} [get]
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeServiceError(w, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// CreateBook handles POST /api/projects/{projectID}/books.
//
//	@Summary		Add a vault document to a project as a book
//	@Tags			books
//	@Accept			json
//	@Produce		json
//	@Param			projectID	path		string				true	"Project ID"
//	@Param			body		body		CreateBookRequest	true	"Book source"
//	@Success		201			{object}	models.Book
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/books [post]
func (h *Handler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	b, err := h.svc.CreateBook(r.Context(), chi.URLParam(r, "projectID"), req.SourcePath, req.Name)
	if err != nil {
		writeServiceError(w, "create book", err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// ListBooks handles GET /api/projects/{projectID}/books.
//
//	@Summary		List the books of a project
//	@Tags			books
//	@Produce		json
//	@Param			projectID	path		string	true	"Project ID"
//	@Success		200			{object}	BookListResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/books [get]
func (h *Handler) ListBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.svc.ListBooks(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeServiceError(w, "list books", err)
		return
	}
	writeJSON(w, http.StatusOK, BookListResponse{Books: books})
}

// AddTranslations handles POST /api/projects/{projectID}/translations.
//
//	@Summary		Store a batch of translation records for one book
//	@Tags			translations
//	@Accept			json
//	@Produce		json
//	@Param			projectID	path		string					true	"Project ID"
//	@Param			body		body		AddTranslationsRequest	true	"Records"
//	@Success		201			{object}	TranslationsResponse
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/translations [post]
func (h *Handler) AddTranslations(w http.ResponseWriter, r *http.Request) {
	var req AddTranslationsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	records := make([]models.TranslationRecord, len(req.Records))
	for i, in := range req.Records {
		records[i] = in.record()
	}
	saved, err := h.svc.AddTranslations(r.Context(), chi.URLParam(r, "projectID"), req.BookID, records, req.Replace)
	if err != nil {
		writeServiceError(w, "add translations", err)
		return
	}
	writeJSON(w, http.StatusCreated, TranslationsResponse{Stored: len(saved), Records: saved})
}

// GenerateBookDraft handles POST /api/projects/{projectID}/books/{bookID}/draft.
//
//	@Summary		Generate or refresh the draft of one book
//	@Description	Overwrites the latest draft for the book, creating one if none exists.
//	@Tags			drafts
//	@Produce		json
//	@Param			projectID	path		string	true	"Project ID"
//	@Param			bookID		path		string	true	"Book ID"
//	@Success		200			{object}	models.Draft
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/books/{bookID}/draft [post]
func (h *Handler) GenerateBookDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GenerateDraftForBook(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "bookID"))
	if err != nil {
		writeServiceError(w, "generate book draft", err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// GenerateProjectDraft handles POST /api/projects/{projectID}/drafts.
//
//	@Summary		Generate a new project draft
//	@Description	Always creates a new draft. The body may name a single book.
//	@Tags			drafts
//	@Accept			json
//	@Produce		json
//	@Param			projectID	path		string						true	"Project ID"
//	@Param			body		body		GenerateProjectDraftRequest	false	"Optional book filter"
//	@Success		201			{object}	models.Draft
//	@Failure		404			{object}	errResponse
//	@Failure		422			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/drafts [post]
func (h *Handler) GenerateProjectDraft(w http.ResponseWriter, r *http.Request) {
	var req GenerateProjectDraftRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	d, err := h.svc.GenerateDraftForProject(r.Context(), chi.URLParam(r, "projectID"), req.BookName)
	if err != nil {
		writeServiceError(w, "generate project draft", err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ListDrafts handles GET /api/projects/{projectID}/drafts.
//
//	@Summary		List draft metadata for a project
//	@Tags			drafts
//	@Produce		json
//	@Param			projectID	path		string	true	"Project ID"
//	@Success		200			{object}	DraftListResponse
//	@Failure		404			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/projects/{projectID}/drafts [get]
func (h *Handler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.svc.ListDrafts(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeServiceError(w, "list drafts", err)
		return
	}
	writeJSON(w, http.StatusOK, DraftListResponse{Drafts: drafts})
}

// GetDraft handles GET /api/drafts/{draftID}.
//
//	@Summary		Get a draft with its content
//	@Tags			drafts
//	@Produce		json
//	@Param			draftID	path		string	true	"Draft ID"
//	@Success		200		{object}	models.Draft
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/drafts/{draftID} [get]
func (h *Handler) GetDraft(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.GetDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		writeServiceError(w, "get draft", err)
		return
	}
	w.Header().Set("ETag", checksum.ETag(d.Content))
	writeJSON(w, http.StatusOK, d)
}

// DownloadDraft handles GET /api/drafts/{draftID}/download.
//
//	@Summary		Download draft content and count the download
//	@Tags			drafts
//	@Produce		plain
//	@Param			draftID	path	string	true	"Draft ID"
//	@Success		200		{string}	string	"Draft markup"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/drafts/{draftID}/download [get]
func (h *Handler) DownloadDraft(w http.ResponseWriter, r *http.Request) {
	body, d, err := h.svc.DownloadDraft(r.Context(), chi.URLParam(r, "draftID"))
	if err != nil {
		writeServiceError(w, "download draft", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Length", strconv.FormatInt(d.ByteSize, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+fileName(d.Name)+`.usfm"`)
	w.Header().Set("ETag", checksum.ETag(d.Content))
	w.Header().Set("X-Download-Count", strconv.FormatInt(d.DownloadCount, 10))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		slog.Warn("download write failed", slog.String("draft", d.ID), slog.String("error", err.Error()))
	}
}

// ListSources handles GET /api/sources.
//
//	@Summary		List indexed vault documents
//	@Tags			sources
//	@Produce		json
//	@Success		200	{object}	SourceListResponse
//	@Security		BearerAuth
//	@Router			/sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, r *http.Request) {
	sources, err := h.svc.ListSources(r.Context())
	if err != nil {
		writeServiceError(w, "list sources", err)
		return
	}
	writeJSON(w, http.StatusOK, SourceListResponse{Sources: sources})
}

// fileName turns a draft name into a safe download file name.
func fileName(name string) string {
	out := strings.Map(func(r rune) rune {
		switch {
		case r < 128 && (unicode.IsLetter(r) || unicode.IsDigit(r)), r == '-', r == '_':
			return r
		case unicode.IsSpace(r):
			return '_'
		}
		return -1
	}, name)
	if out == "" {
		return "draft"
	}
	return out
}
