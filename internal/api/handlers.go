package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// errInvalidRequest marks request-shape errors that map to 400.
var errInvalidRequest = errors.New("invalid request")

// respondError maps domain sentinels onto HTTP status codes. Anything
// unrecognized is logged and reported as a 500 without leaking details.
func respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errInvalidRequest):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoteNotFound), errors.Is(err, apperr.ErrLinkNotFound):
		writeJSON(w, http.StatusNotFound, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrNoteExists), errors.Is(err, apperr.ErrAlreadyLinked):
		writeJSON(w, http.StatusConflict, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrSelfLink):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody(err.Error()))
	default:
		slog.Error("request failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// noteIdentity extracts the note identity from the URL wildcard
// (everything after /api/notes/). Supports encoded slashes from API
// clients (e.g. work%2FStandup).
func noteIdentity(r *http.Request) (models.Identity, bool) {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if raw == "" {
		return models.Identity{}, false
	}
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	return models.ParseIdentity(raw), true
}

// param returns a path parameter, unescaped.
func param(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

// scopeOf reads the optional ?category= query parameter.
func scopeOf(r *http.Request) notestore.Scope {
	return notestore.Scope{Category: r.URL.Query().Get("category")}
}

// ListNotes handles GET /api/notes.
//
//	@Summary	List notes with optional filtering
//	@Tags		notes
//	@Produce	json
//	@Param		category	query		string	false	"Filter by category"
//	@Param		tag			query		string	false	"Filter by tag"
//	@Param		sort		query		string	false	"Sort field"	Enums(updated, created, title)
//	@Success	200			{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, err := h.svc.ListNotes(r.Context(), scopeOf(r), q.Get("tag"), q.Get("sort"))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/*.
//
//	@Summary	Get a single note by identity
//	@Tags		notes
//	@Produce	json
//	@Param		identity	path		string	true	"Note identity (Title or Category/Title)"
//	@Success	200			{object}	NoteDetail
//	@Failure	404			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{identity} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteIdentity(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("note identity is required"))
		return
	}
	note, err := h.svc.GetNote(r.Context(), id)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// NoteLinks handles GET /api/notes/{identity}/links.
//
//	@Summary	List a note's outgoing links and optional backlinks
//	@Tags		links
//	@Produce	json
//	@Param		identity	path		string	true	"Note identity"
//	@Param		backlinks	query		bool	false	"Include backlinks"
//	@Success	200			{object}	NoteLinksResponse
//	@Failure	404			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/notes/{identity}/links [get]
func (h *Handler) NoteLinks(w http.ResponseWriter, r *http.Request) {
	var id models.Identity
	if category := param(r, "category"); category != "" {
		id = models.Identity{Title: param(r, "title"), Category: category}
	} else {
		// Single-segment route; the segment may still encode
		// "Category/Title" with %2F.
		id = models.ParseIdentity(param(r, "title"))
	}
	backlinks, _ := strconv.ParseBool(r.URL.Query().Get("backlinks"))
	links, err := h.svc.NoteLinks(r.Context(), id, backlinks)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

// AddLink handles POST /api/links.
//
//	@Summary	Link two notes
//	@Tags		links
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LinkRequest	true	"Link to create"
//	@Success	201		{object}	LinkResponse
//	@Failure	404		{object}	errResponse
//	@Failure	409		{object}	errResponse
//	@Failure	422		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/links [post]
func (h *Handler) AddLink(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLinkRequest(w, r)
	if !ok {
		return
	}
	res, err := h.svc.AddLink(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// RemoveLink handles DELETE /api/links.
//
//	@Summary	Remove the link between two notes
//	@Tags		links
//	@Accept		json
//	@Produce	json
//	@Param		body	body		LinkRequest	true	"Link to remove"
//	@Success	200		{object}	LinkResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/links [delete]
func (h *Handler) RemoveLink(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeLinkRequest(w, r)
	if !ok {
		return
	}
	res, err := h.svc.RemoveLink(r.Context(), req)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func decodeLinkRequest(w http.ResponseWriter, r *http.Request) (LinkRequest, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req LinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return req, false
	}
	if req.Source == "" || req.Target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("source and target are required"))
		return req, false
	}
	return req, true
}

// Graph handles GET /api/graph.
//
//	@Summary	Get the link graph
//	@Tags		graph
//	@Produce	json
//	@Param		category	query		string	false	"Restrict to one category"
//	@Success	200			{object}	GraphResponse
//	@Security	BearerAuth
//	@Router		/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Graph(r.Context(), scopeOf(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

// Stats handles GET /api/graph/stats.
//
//	@Summary	Network statistics for the link graph
//	@Tags		graph
//	@Produce	json
//	@Param		category	query		string	false	"Restrict to one category"
//	@Param		limit		query		int		false	"Ranking size (0 disables the ranking)"
//	@Success	200			{object}	StatsResponse
//	@Security	BearerAuth
//	@Router		/graph/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	st, err := h.svc.Stats(r.Context(), scopeOf(r), limit)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// Standalone handles GET /api/graph/standalone.
//
//	@Summary	Notes without any links
//	@Tags		graph
//	@Produce	json
//	@Param		category	query		string	false	"Restrict to one category"
//	@Success	200			{object}	NoteListResponse
//	@Security	BearerAuth
//	@Router		/graph/standalone [get]
func (h *Handler) Standalone(w http.ResponseWriter, r *http.Request) {
	items, err := h.svc.Standalone(r.Context(), scopeOf(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// Orphaned handles GET /api/graph/orphaned.
//
//	@Summary	Linked_notes entries that resolve to no note
//	@Tags		graph
//	@Produce	json
//	@Param		category	query		string	false	"Restrict the scan to one category"
//	@Success	200			{object}	map[string]any
//	@Security	BearerAuth
//	@Router		/graph/orphaned [get]
func (h *Handler) Orphaned(w http.ResponseWriter, r *http.Request) {
	orphans, err := h.svc.Orphaned(r.Context(), scopeOf(r))
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"orphaned": orphans,
		"total":    len(orphans),
	})
}

// Path handles GET /api/graph/path.
//
//	@Summary	Shortest link chain between two notes
//	@Tags		graph
//	@Produce	json
//	@Param		source		query		string	true	"Source identity"
//	@Param		target		query		string	true	"Target identity"
//	@Param		category	query		string	false	"Restrict to one category"
//	@Param		max_depth	query		int		false	"Maximum number of edges (0 = unbounded)"
//	@Success	200			{object}	PathResponse
//	@Failure	404			{object}	errResponse
//	@Security	BearerAuth
//	@Router		/graph/path [get]
func (h *Handler) Path(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	source, target := q.Get("source"), q.Get("target")
	if source == "" || target == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("source and target are required"))
		return
	}
	maxDepth, _ := strconv.Atoi(q.Get("max_depth"))
	res, err := h.svc.Path(r.Context(), models.ParseIdentity(source), models.ParseIdentity(target), scopeOf(r), maxDepth)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Search handles GET /api/search.
//
//	@Summary	Full-text search across notes
//	@Tags		search
//	@Produce	json
//	@Param		q		query		string	true	"Search query"
//	@Param		limit	query		int		false	"Max results"
//	@Success	200		{object}	SearchResponse
//	@Failure	400		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		respondError(w, err)
		return
	}
	if results == nil {
		results = []SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}
