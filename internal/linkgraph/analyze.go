package linkgraph

import (
	"context"
	"sort"

	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// NoteRank is one row of the most-linked ranking.
type NoteRank struct {
	Identity models.Identity `json:"identity"`
	Outgoing int             `json:"outgoing"`
	Incoming int             `json:"incoming"`
}

// Total is the ranking key: outgoing plus incoming.
func (r NoteRank) Total() int { return r.Outgoing + r.Incoming }

// NetworkStats summarizes the link structure of one scope.
//
// Out-degrees count dangling entries, so TotalLinks is the sum of every
// note's linked_notes list after per-note deduplication. In-degrees count
// resolved edges only.
type NetworkStats struct {
	TotalNotes        int        `json:"total_notes"`
	NotesWithLinks    int        `json:"notes_with_links"`
	NotesWithOutgoing int        `json:"notes_with_outgoing"`
	NotesWithIncoming int        `json:"notes_with_incoming"`
	StandaloneNotes   int        `json:"standalone_notes"`
	TotalLinks        int        `json:"total_links"`
	AvgLinksPerNote   float64    `json:"avg_links_per_note"`
	DanglingLinks     int        `json:"dangling_links"`
	TopNotes          []NoteRank `json:"top_notes,omitempty"`
}

// Stats computes the network statistics for scope. With limit > 0 it also
// ranks the top notes by combined degree, ties broken by identity string;
// limit <= 0 returns totals only. An empty scope yields zero totals, not
// an error.
func (s *Service) Stats(ctx context.Context, scope notestore.Scope, limit int) (*NetworkStats, error) {
	g, err := s.Build(ctx, scope)
	if err != nil {
		return nil, err
	}

	st := &NetworkStats{TotalNotes: len(g.Order)}
	for _, id := range g.Order {
		out, in := g.OutDegree(id), g.InDegree(id)
		switch {
		case out > 0 && in > 0:
			st.NotesWithOutgoing++
			st.NotesWithIncoming++
		case out > 0:
			st.NotesWithOutgoing++
		case in > 0:
			st.NotesWithIncoming++
		default:
			st.StandaloneNotes++
		}
		if out > 0 || in > 0 {
			st.NotesWithLinks++
		}
		st.TotalLinks += out
		st.DanglingLinks += len(g.Dangling[id])
	}
	if st.TotalNotes > 0 {
		st.AvgLinksPerNote = float64(st.TotalLinks) / float64(st.TotalNotes)
	}

	if limit > 0 {
		ranks := make([]NoteRank, 0, len(g.Order))
		for _, id := range g.Order {
			ranks = append(ranks, NoteRank{Identity: id, Outgoing: g.OutDegree(id), Incoming: g.InDegree(id)})
		}
		sort.SliceStable(ranks, func(i, j int) bool {
			return ranks[i].Total() > ranks[j].Total()
		})
		if len(ranks) > limit {
			ranks = ranks[:limit]
		}
		st.TopNotes = ranks
	}
	return st, nil
}

// FindStandalone lists the notes in scope with no links in either
// direction. A note whose only links are dangling entries still has
// outgoing links and is not standalone.
func (s *Service) FindStandalone(ctx context.Context, scope notestore.Scope) ([]*models.Note, error) {
	g, err := s.Build(ctx, scope)
	if err != nil {
		return nil, err
	}
	var standalone []*models.Note
	for _, id := range g.Order {
		if g.OutDegree(id) == 0 && g.InDegree(id) == 0 {
			standalone = append(standalone, g.Nodes[id])
		}
	}
	return standalone, nil
}
