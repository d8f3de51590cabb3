package linkgraph

import (
	"context"
	"fmt"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// PathResult is the outcome of a shortest-path search. Found false means
// no path exists within the depth bound; that is a normal answer, not an
// error.
type PathResult struct {
	Found bool `json:"found"`
	// Path holds the identities from source to target inclusive.
	Path []models.Identity `json:"path,omitempty"`
	// Length is the number of edges traversed.
	Length int `json:"length"`
}

// ShortestPath searches for the shortest chain of outgoing links from
// source to target inside scope, breadth-first over the graph. maxDepth
// bounds the number of edges an acceptable path may have; zero or
// negative means unbounded. Links are followed in their stored direction
// only. When several shortest paths exist the one discovered first in
// enumeration order wins, so results are stable across runs.
func (s *Service) ShortestPath(ctx context.Context, source, target models.Identity, scope notestore.Scope, maxDepth int) (*PathResult, error) {
	srcNote, dstNote, err := s.resolvePair(source, target)
	if err != nil {
		return nil, err
	}
	g, err := s.Build(ctx, scope)
	if err != nil {
		return nil, err
	}

	src, dst := srcNote.Identity(), dstNote.Identity()
	if !g.Contains(src) {
		return nil, fmt.Errorf("linkgraph: %w: %s (outside scope)", apperr.ErrNoteNotFound, src)
	}
	if !g.Contains(dst) {
		return nil, fmt.Errorf("linkgraph: %w: %s (outside scope)", apperr.ErrNoteNotFound, dst)
	}
	if src == dst {
		return &PathResult{Found: true, Path: []models.Identity{src}}, nil
	}

	parent := make(map[models.Identity]models.Identity)
	visited := map[models.Identity]struct{}{src: {}}
	frontier := []models.Identity{src}
	for depth := 0; len(frontier) > 0 && (maxDepth <= 0 || depth < maxDepth); depth++ {
		var next []models.Identity
		for _, cur := range frontier {
			for _, nb := range g.Out[cur] {
				if _, seen := visited[nb]; seen {
					continue
				}
				visited[nb] = struct{}{}
				parent[nb] = cur
				if nb == dst {
					path := tracePath(parent, src, dst)
					return &PathResult{Found: true, Path: path, Length: len(path) - 1}, nil
				}
				next = append(next, nb)
			}
		}
		frontier = next
	}
	return &PathResult{}, nil
}

// tracePath walks the parent chain back from dst and reverses it.
func tracePath(parent map[models.Identity]models.Identity, src, dst models.Identity) []models.Identity {
	path := []models.Identity{dst}
	for cur := dst; cur != src; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
