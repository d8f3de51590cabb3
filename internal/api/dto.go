package api

import (
	"time"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/linkgraph"
)

// NoteSummary is a lightweight item in a list response.
type NoteSummary struct {
	ID        string    `json:"id" example:"work/Standup"`
	Title     string    `json:"title" example:"Standup"`
	Category  string    `json:"category,omitempty" example:"work"`
	Tags      []string  `json:"tags"`
	Links     int       `json:"links" example:"2"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NoteDetail is the full note response type.
type NoteDetail struct {
	NoteSummary
	LinkedNotes []string  `json:"linked_notes"`
	Body        string    `json:"body"`
	Path        string    `json:"path" example:"work/standup.md"`
	CreatedAt   time.Time `json:"created_at"`
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteSummary `json:"notes" validate:"required"`
	Total int           `json:"total" example:"42" validate:"required"`
}

// LinkRequest is the request body for adding or removing a link. Source
// and target are identity strings ("Title" or "Category/Title").
type LinkRequest struct {
	Source        string `json:"source" example:"work/Standup" validate:"required"`
	Target        string `json:"target" example:"Inbox" validate:"required"`
	Bidirectional bool   `json:"bidirectional,omitempty"`
}

// LinkResponse reports the per-direction outcomes of a link mutation
// (aliased from the domain layer).
type LinkResponse = linkgraph.LinkResult

// LinkEntry is one outgoing linked_notes entry of a note.
type LinkEntry struct {
	ID       string `json:"id" example:"work/Standup"`
	Entry    string `json:"entry" example:"Standup"`
	Dangling bool   `json:"dangling,omitempty"`
}

// NoteLinksResponse wraps a note's outgoing links and optional backlinks.
type NoteLinksResponse struct {
	Note      string      `json:"note" example:"work/Standup"`
	Outgoing  []LinkEntry `json:"outgoing" validate:"required"`
	Backlinks []string    `json:"backlinks,omitempty"`
}

// GraphNode is a node in the link graph.
type GraphNode struct {
	ID       string `json:"id" example:"work/Standup" validate:"required"`
	Title    string `json:"title,omitempty" example:"Standup"`
	Category string `json:"category,omitempty" example:"work"`
}

// GraphEdge is a resolved edge in the link graph.
type GraphEdge struct {
	Source string `json:"source" example:"work/Standup" validate:"required"`
	Target string `json:"target" example:"Inbox" validate:"required"`
}

// DanglingEntry is a linked_notes entry with no matching note.
type DanglingEntry struct {
	Source string `json:"source" example:"work/Standup" validate:"required"`
	Entry  string `json:"entry" example:"Ghost" validate:"required"`
}

// GraphResponse wraps the link graph.
type GraphResponse struct {
	Nodes    []GraphNode     `json:"nodes" validate:"required"`
	Edges    []GraphEdge     `json:"edges" validate:"required"`
	Dangling []DanglingEntry `json:"dangling"`
}

// RankedNote is one row of the most-linked ranking.
type RankedNote struct {
	ID       string `json:"id" example:"work/Standup"`
	Outgoing int    `json:"outgoing" example:"3"`
	Incoming int    `json:"incoming" example:"5"`
	Total    int    `json:"total" example:"8"`
}

// StatsResponse wraps the network statistics for a scope.
type StatsResponse struct {
	TotalNotes        int          `json:"total_notes"`
	NotesWithLinks    int          `json:"notes_with_links"`
	NotesWithOutgoing int          `json:"notes_with_outgoing"`
	NotesWithIncoming int          `json:"notes_with_incoming"`
	StandaloneNotes   int          `json:"standalone_notes"`
	TotalLinks        int          `json:"total_links"`
	AvgLinksPerNote   float64      `json:"avg_links_per_note"`
	DanglingLinks     int          `json:"dangling_links"`
	TopNotes          []RankedNote `json:"top_notes,omitempty"`
}

// PathResponse is the outcome of a shortest-path query.
type PathResponse struct {
	Found  bool     `json:"found"`
	Path   []string `json:"path,omitempty"`
	Length int      `json:"length"`
}

// SearchResult is a single search hit (aliased from the index layer).
type SearchResult = index.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}
