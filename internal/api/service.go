package api

import (
	"context"
	"fmt"
	"sort"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/linkgraph"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// Service coordinates the note store, link graph, and search index for
// the API layer.
type Service struct {
	store notestore.Store
	links *linkgraph.Service
	db    *index.DB
}

// NewService creates a new API service.
func NewService(store notestore.Store, links *linkgraph.Service, db *index.DB) *Service {
	return &Service{store: store, links: links, db: db}
}

func summarize(n *models.Note) NoteSummary {
	tags := n.Tags
	if tags == nil {
		tags = []string{}
	}
	return NoteSummary{
		ID:        n.Identity().String(),
		Title:     n.Title,
		Category:  n.Category,
		Tags:      tags,
		Links:     len(n.LinkedNotes),
		UpdatedAt: n.UpdatedAt,
	}
}

// ListNotes enumerates the notes in scope, optionally filtered by tag.
// sortKey is one of "updated" (default, newest first), "created" (newest
// first) or "title".
func (s *Service) ListNotes(_ context.Context, scope notestore.Scope, tag, sortKey string) ([]NoteSummary, error) {
	notes, err := s.store.EnumerateAll(scope)
	if err != nil {
		return nil, err
	}
	kept := make([]*models.Note, 0, len(notes))
	for _, n := range notes {
		if tag != "" && !n.HasTag(tag) {
			continue
		}
		kept = append(kept, n)
	}
	switch sortKey {
	case "created":
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].CreatedAt.After(kept[j].CreatedAt) })
	case "title":
		// Enumeration order is already by identity string.
	default:
		sort.SliceStable(kept, func(i, j int) bool { return kept[i].UpdatedAt.After(kept[j].UpdatedAt) })
	}
	items := make([]NoteSummary, 0, len(kept))
	for _, n := range kept {
		items = append(items, summarize(n))
	}
	return items, nil
}

// GetNote resolves an identity to its full note.
func (s *Service) GetNote(_ context.Context, id models.Identity) (*NoteDetail, error) {
	note, err := s.store.Resolve(id)
	if err != nil {
		return nil, err
	}
	linked := note.LinkedNotes
	if linked == nil {
		linked = []string{}
	}
	return &NoteDetail{
		NoteSummary: summarize(note),
		LinkedNotes: linked,
		Body:        note.Body,
		Path:        note.Path,
		CreatedAt:   note.CreatedAt,
	}, nil
}

// NoteLinks reports a note's outgoing links, and its backlinks when
// requested.
func (s *Service) NoteLinks(ctx context.Context, id models.Identity, backlinks bool) (*NoteLinksResponse, error) {
	links, err := s.links.ListLinks(ctx, id, backlinks)
	if err != nil {
		return nil, err
	}
	resp := &NoteLinksResponse{
		Note:     links.Note.Identity().String(),
		Outgoing: make([]LinkEntry, 0, len(links.Outgoing)),
	}
	for _, ln := range links.Outgoing {
		resp.Outgoing = append(resp.Outgoing, LinkEntry{
			ID:       ln.Identity.String(),
			Entry:    ln.Entry,
			Dangling: ln.Dangling,
		})
	}
	for _, in := range links.Incoming {
		resp.Backlinks = append(resp.Backlinks, in.Identity().String())
	}
	return resp, nil
}

// AddLink parses the request identities and records the link.
func (s *Service) AddLink(ctx context.Context, req LinkRequest) (*LinkResponse, error) {
	src, dst, err := parseEndpoints(req)
	if err != nil {
		return nil, err
	}
	return s.links.AddLink(ctx, src, dst, req.Bidirectional)
}

// RemoveLink parses the request identities and removes the link.
func (s *Service) RemoveLink(ctx context.Context, req LinkRequest) (*LinkResponse, error) {
	src, dst, err := parseEndpoints(req)
	if err != nil {
		return nil, err
	}
	return s.links.RemoveLink(ctx, src, dst, req.Bidirectional)
}

// Graph returns the link graph over scope for visualization.
func (s *Service) Graph(ctx context.Context, scope notestore.Scope) (*GraphResponse, error) {
	g, err := s.links.Build(ctx, scope)
	if err != nil {
		return nil, err
	}
	resp := &GraphResponse{
		Nodes: make([]GraphNode, 0, len(g.Order)),
		Edges: make([]GraphEdge, 0),
	}
	for _, id := range g.Order {
		resp.Nodes = append(resp.Nodes, GraphNode{
			ID:       id.String(),
			Title:    id.Title,
			Category: id.Category,
		})
	}
	for _, e := range g.Edges() {
		resp.Edges = append(resp.Edges, GraphEdge{Source: e.Source.String(), Target: e.Target.String()})
	}
	for _, id := range g.Order {
		for _, entry := range g.Dangling[id] {
			resp.Dangling = append(resp.Dangling, DanglingEntry{Source: id.String(), Entry: entry})
		}
	}
	return resp, nil
}

// Stats returns the network statistics for scope.
func (s *Service) Stats(ctx context.Context, scope notestore.Scope, limit int) (*StatsResponse, error) {
	st, err := s.links.Stats(ctx, scope, limit)
	if err != nil {
		return nil, err
	}
	resp := &StatsResponse{
		TotalNotes:        st.TotalNotes,
		NotesWithLinks:    st.NotesWithLinks,
		NotesWithOutgoing: st.NotesWithOutgoing,
		NotesWithIncoming: st.NotesWithIncoming,
		StandaloneNotes:   st.StandaloneNotes,
		TotalLinks:        st.TotalLinks,
		AvgLinksPerNote:   st.AvgLinksPerNote,
		DanglingLinks:     st.DanglingLinks,
	}
	for _, r := range st.TopNotes {
		resp.TopNotes = append(resp.TopNotes, RankedNote{
			ID:       r.Identity.String(),
			Outgoing: r.Outgoing,
			Incoming: r.Incoming,
			Total:    r.Total(),
		})
	}
	return resp, nil
}

// Standalone lists the notes in scope without any links.
func (s *Service) Standalone(ctx context.Context, scope notestore.Scope) ([]NoteSummary, error) {
	notes, err := s.links.FindStandalone(ctx, scope)
	if err != nil {
		return nil, err
	}
	items := make([]NoteSummary, 0, len(notes))
	for _, n := range notes {
		items = append(items, summarize(n))
	}
	return items, nil
}

// Orphaned lists the dangling linked_notes entries in scope.
func (s *Service) Orphaned(ctx context.Context, scope notestore.Scope) ([]DanglingEntry, error) {
	orphans, err := s.links.FindOrphanedLinks(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]DanglingEntry, 0, len(orphans))
	for _, o := range orphans {
		out = append(out, DanglingEntry{Source: o.Source.String(), Entry: o.Entry})
	}
	return out, nil
}

// Path searches for the shortest link chain between two notes.
func (s *Service) Path(ctx context.Context, source, target models.Identity, scope notestore.Scope, maxDepth int) (*PathResponse, error) {
	res, err := s.links.ShortestPath(ctx, source, target, scope, maxDepth)
	if err != nil {
		return nil, err
	}
	resp := &PathResponse{Found: res.Found, Length: res.Length}
	for _, id := range res.Path {
		resp.Path = append(resp.Path, id.String())
	}
	return resp, nil
}

// Search delegates to the search index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]SearchResult, error) {
	return s.db.Search(query, limit)
}

// parseEndpoints validates and parses the two identities of a link
// mutation request.
func parseEndpoints(req LinkRequest) (models.Identity, models.Identity, error) {
	src := models.ParseIdentity(req.Source)
	dst := models.ParseIdentity(req.Target)
	if err := src.Validate(); err != nil {
		return src, dst, fmt.Errorf("%w: source: %s", errInvalidRequest, err)
	}
	if err := dst.Validate(); err != nil {
		return src, dst, fmt.Errorf("%w: target: %s", errInvalidRequest, err)
	}
	return src, dst, nil
}
