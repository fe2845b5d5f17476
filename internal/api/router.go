package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/starford/ansuz/internal/converter"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/stats"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *converter.Service, db index.NoteIndex, tracker *stats.Tracker,
	authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, db, tracker)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/*", h.GetNote)

	// Conversion.
	r.Post("/convert", h.Convert)

	// Search and stats.
	r.Get("/search", h.Search)
	r.Get("/stats", h.Stats)
	r.Get("/categories", h.Categories)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
