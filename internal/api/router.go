package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/versedraft/internal/draftservice"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *draftservice.Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Post("/projects", h.CreateProject)
	r.Route("/projects/{projectID}", func(r chi.Router) {
		r.Get("/", h.GetProject)
		r.Get("/books", h.ListBooks)
		r.Post("/books", h.CreateBook)
		r.Post("/books/{bookID}/draft", h.GenerateBookDraft)
		r.Post("/translations", h.AddTranslations)
		r.Get("/drafts", h.ListDrafts)
		r.Post("/drafts", h.GenerateProjectDraft)
	})

	r.Get("/drafts/{draftID}", h.GetDraft)
	r.Get("/drafts/{draftID}/download", h.DownloadDraft)

	r.Get("/sources", h.ListSources)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
