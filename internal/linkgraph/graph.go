// Package linkgraph maintains the relationships between notes: the
// bidirectional link mutations, the link graph assembled from each note's
// linked_notes list, network statistics, and shortest-path search.
//
// The graph is ephemeral. It is rebuilt from the note files at the start
// of every operation and discarded afterwards; the linked_notes lists in
// the files remain the only persisted representation of the links.
package linkgraph

import (
	"sort"

	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// Graph is the in-memory adjacency structure over the notes in one scope.
type Graph struct {
	// Scope the graph was built over.
	Scope notestore.Scope
	// Nodes maps every enumerated identity to its note.
	Nodes map[models.Identity]*models.Note
	// Order holds the node identities sorted by identity string. Every
	// traversal follows this order, so results are reproducible.
	Order []models.Identity
	// Out holds resolved outgoing edges in linked_notes order. Entries
	// resolving to the same target collapse into one edge.
	Out map[models.Identity][]models.Identity
	// In holds the reverse edges, in source enumeration order.
	In map[models.Identity][]models.Identity
	// Dangling holds the linked_notes entries that resolve to no node in
	// the graph, per source, in entry order.
	Dangling map[models.Identity][]string

	// byTitle maps a title to the node an unqualified entry with that
	// title resolves to: the uncategorized note when present, otherwise
	// the one in the lexicographically smallest category.
	byTitle map[string]models.Identity
}

// Edge is one directed link between two existing notes.
type Edge struct {
	Source models.Identity `json:"source"`
	Target models.Identity `json:"target"`
}

// newGraph assembles a graph from the notes enumerated for a scope.
func newGraph(scope notestore.Scope, notes []*models.Note) *Graph {
	g := &Graph{
		Scope:    scope,
		Nodes:    make(map[models.Identity]*models.Note, len(notes)),
		Order:    make([]models.Identity, 0, len(notes)),
		Out:      make(map[models.Identity][]models.Identity, len(notes)),
		In:       make(map[models.Identity][]models.Identity, len(notes)),
		Dangling: make(map[models.Identity][]string),
		byTitle:  make(map[string]models.Identity, len(notes)),
	}

	for _, n := range notes {
		id := n.Identity()
		if _, dup := g.Nodes[id]; dup {
			continue
		}
		g.Nodes[id] = n
		g.Order = append(g.Order, id)
		if best, ok := g.byTitle[n.Title]; !ok || preferred(id, best) {
			g.byTitle[n.Title] = id
		}
	}
	sort.Slice(g.Order, func(i, j int) bool {
		return g.Order[i].String() < g.Order[j].String()
	})

	for _, src := range g.Order {
		note := g.Nodes[src]
		seen := make(map[models.Identity]struct{}, len(note.LinkedNotes))
		seenRaw := make(map[string]struct{})
		for _, entry := range note.LinkedNotes {
			target, ok := g.Resolve(entry)
			if !ok {
				if _, dup := seenRaw[entry]; dup {
					continue
				}
				seenRaw[entry] = struct{}{}
				g.Dangling[src] = append(g.Dangling[src], entry)
				continue
			}
			if _, dup := seen[target]; dup {
				continue
			}
			seen[target] = struct{}{}
			g.Out[src] = append(g.Out[src], target)
			g.In[target] = append(g.In[target], src)
		}
	}

	return g
}

// preferred reports whether a beats b as the resolution target for an
// unqualified entry. Both share a title; the uncategorized note wins,
// then the smaller category.
func preferred(a, b models.Identity) bool {
	if a.Category == "" {
		return true
	}
	if b.Category == "" {
		return false
	}
	return a.Category < b.Category
}

// Resolve maps a linked_notes entry to the node it refers to. A qualified
// entry ("Category/Title") matches only that exact identity; an
// unqualified one resolves the way the note store does.
func (g *Graph) Resolve(entry string) (models.Identity, bool) {
	id := models.ParseIdentity(entry)
	if id.Qualified() {
		_, ok := g.Nodes[id]
		return id, ok
	}
	resolved, ok := g.byTitle[id.Title]
	return resolved, ok
}

// Contains reports whether the identity is a node of the graph.
func (g *Graph) Contains(id models.Identity) bool {
	_, ok := g.Nodes[id]
	return ok
}

// OutDegree counts a note's outgoing links, dangling entries included.
func (g *Graph) OutDegree(id models.Identity) int {
	return len(g.Out[id]) + len(g.Dangling[id])
}

// InDegree counts the resolved edges pointing at a note. Dangling entries
// never contribute to any in-degree.
func (g *Graph) InDegree(id models.Identity) int {
	return len(g.In[id])
}

// Edges lists every resolved edge, sources in enumeration order and
// targets in adjacency order.
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, src := range g.Order {
		for _, dst := range g.Out[src] {
			out = append(out, Edge{Source: src, Target: dst})
		}
	}
	return out
}
