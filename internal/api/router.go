package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Notes.
	r.Get("/notes", h.ListNotes)
	r.Get("/notes/{title}/links", h.NoteLinks)
	r.Get("/notes/{category}/{title}/links", h.NoteLinks)
	r.Get("/notes/*", h.GetNote)

	// Link mutations.
	r.Post("/links", h.AddLink)
	r.Delete("/links", h.RemoveLink)

	// Graph.
	r.Get("/graph", h.Graph)
	r.Get("/graph/stats", h.Stats)
	r.Get("/graph/standalone", h.Standalone)
	r.Get("/graph/orphaned", h.Orphaned)
	r.Get("/graph/path", h.Path)

	// Search.
	r.Get("/search", h.Search)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
