package linkgraph

import (
	"context"
	"fmt"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// Service owns every link operation. All reads go through Build so that
// each query sees one consistent snapshot of the vault.
type Service struct {
	store notestore.Store
}

func NewService(store notestore.Store) *Service {
	return &Service{store: store}
}

// DirectionStatus describes what happened to one direction of a link
// mutation.
type DirectionStatus string

const (
	// StatusCreated means the entry was written.
	StatusCreated DirectionStatus = "created"
	// StatusExists means the direction was already present and left alone.
	StatusExists DirectionStatus = "already-linked"
	// StatusRemoved means at least one matching entry was deleted.
	StatusRemoved DirectionStatus = "removed"
	// StatusAbsent means there was nothing to remove.
	StatusAbsent DirectionStatus = "absent"
	// StatusFailed means the direction could not be persisted.
	StatusFailed DirectionStatus = "failed"
	// StatusSkipped means an earlier direction failed before this one ran.
	StatusSkipped DirectionStatus = "skipped"
)

// Direction is the outcome for a single directed edge of a mutation.
type Direction struct {
	Source models.Identity `json:"source"`
	Target models.Identity `json:"target"`
	Status DirectionStatus `json:"status"`
}

// LinkResult reports the per-direction outcomes of AddLink or RemoveLink.
// It is populated even when the call returns ErrAlreadyLinked or a
// persistence error, so callers can tell which directions committed.
type LinkResult struct {
	Bidirectional bool        `json:"bidirectional"`
	Directions    []Direction `json:"directions"`
}

// Changed reports whether any direction wrote to disk.
func (r *LinkResult) Changed() bool {
	for _, d := range r.Directions {
		if d.Status == StatusCreated || d.Status == StatusRemoved {
			return true
		}
	}
	return false
}

// Build assembles the link graph over scope. The graph is rebuilt from
// the note files on every call and reused only within one operation.
func (s *Service) Build(_ context.Context, scope notestore.Scope) (*Graph, error) {
	notes, err := s.store.EnumerateAll(scope)
	if err != nil {
		return nil, fmt.Errorf("linkgraph: enumerate %s: %w", scopeLabel(scope), err)
	}
	return newGraph(scope, notes), nil
}

// AddLink records a link from source to target, and from target back to
// source when bidirectional is set. Both notes must exist. A direction
// that is already present is left untouched; if no requested direction
// was newly created the call returns ErrAlreadyLinked alongside the
// result. A persistence failure aborts the remaining directions but the
// result still reports the one that committed.
func (s *Service) AddLink(_ context.Context, source, target models.Identity, bidirectional bool) (*LinkResult, error) {
	src, dst, err := s.resolvePair(source, target)
	if err != nil {
		return nil, err
	}
	if src.Identity() == dst.Identity() {
		return nil, fmt.Errorf("%w: %s", apperr.ErrSelfLink, src.Identity())
	}

	res := &LinkResult{Bidirectional: bidirectional}
	status, err := s.addDirection(src, dst)
	res.Directions = append(res.Directions, Direction{Source: src.Identity(), Target: dst.Identity(), Status: status})
	if err != nil {
		if bidirectional {
			res.Directions = append(res.Directions, Direction{Source: dst.Identity(), Target: src.Identity(), Status: StatusSkipped})
		}
		return res, err
	}
	if bidirectional {
		status, err = s.addDirection(dst, src)
		res.Directions = append(res.Directions, Direction{Source: dst.Identity(), Target: src.Identity(), Status: status})
		if err != nil {
			return res, err
		}
	}
	if !res.Changed() {
		return res, fmt.Errorf("%w: %s -> %s", apperr.ErrAlreadyLinked, src.Identity(), dst.Identity())
	}
	return res, nil
}

// RemoveLink deletes the link from source to target, and the reverse
// direction when bidirectional is set. A requested direction that does
// not exist is a no-op; only when nothing was removed at all does the
// call return ErrLinkNotFound.
func (s *Service) RemoveLink(_ context.Context, source, target models.Identity, bidirectional bool) (*LinkResult, error) {
	src, dst, err := s.resolvePair(source, target)
	if err != nil {
		return nil, err
	}

	res := &LinkResult{Bidirectional: bidirectional}
	status, err := s.removeDirection(src, dst.Identity())
	res.Directions = append(res.Directions, Direction{Source: src.Identity(), Target: dst.Identity(), Status: status})
	if err != nil {
		if bidirectional {
			res.Directions = append(res.Directions, Direction{Source: dst.Identity(), Target: src.Identity(), Status: StatusSkipped})
		}
		return res, err
	}
	if bidirectional && src.Identity() != dst.Identity() {
		status, err = s.removeDirection(dst, src.Identity())
		res.Directions = append(res.Directions, Direction{Source: dst.Identity(), Target: src.Identity(), Status: status})
		if err != nil {
			return res, err
		}
	}
	if !res.Changed() {
		return res, fmt.Errorf("%w: %s -> %s", apperr.ErrLinkNotFound, src.Identity(), dst.Identity())
	}
	return res, nil
}

// LinkedNote is one outgoing linked_notes entry of a note, resolved
// against the current vault.
type LinkedNote struct {
	// Entry is the raw linked_notes value as stored in the file.
	Entry string `json:"entry"`
	// Identity the entry resolves to, or its parsed form when dangling.
	Identity models.Identity `json:"identity"`
	// Note is the resolved note; nil when the entry is dangling.
	Note *models.Note `json:"-"`
	// Dangling marks entries that resolve to no existing note.
	Dangling bool `json:"dangling,omitempty"`
}

// NoteLinks bundles a note with its outgoing links and, optionally, the
// notes that link back to it.
type NoteLinks struct {
	Note     *models.Note   `json:"note"`
	Outgoing []LinkedNote   `json:"outgoing"`
	Incoming []*models.Note `json:"incoming,omitempty"`
}

// ListLinks reports the note's outgoing links in entry order, dangling
// entries flagged rather than dropped. With includeBacklinks it also
// collects every note whose linked_notes resolve to this one, which
// costs a scan of the whole vault.
func (s *Service) ListLinks(ctx context.Context, id models.Identity, includeBacklinks bool) (*NoteLinks, error) {
	note, err := s.store.Resolve(id)
	if err != nil {
		return nil, fmt.Errorf("linkgraph: %w", err)
	}
	g, err := s.Build(ctx, notestore.Scope{})
	if err != nil {
		return nil, err
	}

	self := note.Identity()
	links := &NoteLinks{Note: note, Outgoing: make([]LinkedNote, 0, len(note.LinkedNotes))}
	for _, entry := range note.LinkedNotes {
		target, ok := g.Resolve(entry)
		ln := LinkedNote{Entry: entry, Identity: target, Dangling: !ok}
		if ok {
			ln.Note = g.Nodes[target]
		} else {
			ln.Identity = models.ParseIdentity(entry)
		}
		links.Outgoing = append(links.Outgoing, ln)
	}
	if includeBacklinks {
		for _, src := range g.In[self] {
			links.Incoming = append(links.Incoming, g.Nodes[src])
		}
	}
	return links, nil
}

// OrphanedLink is a linked_notes entry whose target does not exist
// anywhere in the vault.
type OrphanedLink struct {
	Source models.Identity `json:"source"`
	Entry  string          `json:"entry"`
}

// FindOrphanedLinks scans the notes in scope and reports every
// linked_notes entry that resolves to no note in the vault. Resolution is
// always vault-wide: an entry pointing outside the scope is not orphaned.
// Results are ordered by source identity, then entry order.
func (s *Service) FindOrphanedLinks(ctx context.Context, scope notestore.Scope) ([]OrphanedLink, error) {
	g, err := s.Build(ctx, notestore.Scope{})
	if err != nil {
		return nil, err
	}
	var orphans []OrphanedLink
	for _, src := range g.Order {
		if !scope.All() && src.Category != scope.Category {
			continue
		}
		for _, entry := range g.Dangling[src] {
			orphans = append(orphans, OrphanedLink{Source: src, Entry: entry})
		}
	}
	return orphans, nil
}

// Prune removes every orphaned linked_notes entry from the notes in
// scope and reports what it removed. On a persistence error the returned
// slice still lists the entries already pruned.
func (s *Service) Prune(ctx context.Context, scope notestore.Scope) ([]OrphanedLink, error) {
	orphans, err := s.FindOrphanedLinks(ctx, scope)
	if err != nil {
		return nil, err
	}
	var pruned []OrphanedLink
	for i := 0; i < len(orphans); {
		src := orphans[i].Source
		note, err := s.store.Resolve(src)
		if err != nil {
			return pruned, fmt.Errorf("linkgraph: %w", err)
		}
		start := i
		for ; i < len(orphans) && orphans[i].Source == src; i++ {
			note.RemoveLink(orphans[i].Entry)
		}
		if err := s.store.Save(note); err != nil {
			return pruned, fmt.Errorf("linkgraph: save %s: %w", src, err)
		}
		pruned = append(pruned, orphans[start:i]...)
	}
	return pruned, nil
}

// resolvePair loads both endpoints of a link mutation.
func (s *Service) resolvePair(source, target models.Identity) (*models.Note, *models.Note, error) {
	src, err := s.store.Resolve(source)
	if err != nil {
		return nil, nil, fmt.Errorf("linkgraph: source: %w", err)
	}
	dst, err := s.store.Resolve(target)
	if err != nil {
		return nil, nil, fmt.Errorf("linkgraph: target: %w", err)
	}
	return src, dst, nil
}

// addDirection appends the canonical entry for dst to src's linked_notes
// unless some existing entry already resolves to dst.
func (s *Service) addDirection(src, dst *models.Note) (DirectionStatus, error) {
	if s.linksTo(src, dst.Identity()) {
		return StatusExists, nil
	}
	src.AddLink(dst.Identity().String())
	if err := s.store.Save(src); err != nil {
		return StatusFailed, fmt.Errorf("linkgraph: save %s: %w", src.Identity(), err)
	}
	return StatusCreated, nil
}

// removeDirection deletes every linked_notes entry of src that resolves
// to target, qualified or not.
func (s *Service) removeDirection(src *models.Note, target models.Identity) (DirectionStatus, error) {
	var matched []string
	for _, entry := range src.LinkedNotes {
		if s.entryRefersTo(entry, target) {
			matched = append(matched, entry)
		}
	}
	if len(matched) == 0 {
		return StatusAbsent, nil
	}
	for _, entry := range matched {
		src.RemoveLink(entry)
	}
	if err := s.store.Save(src); err != nil {
		return StatusFailed, fmt.Errorf("linkgraph: save %s: %w", src.Identity(), err)
	}
	return StatusRemoved, nil
}

// linksTo reports whether any linked_notes entry of n resolves to target.
func (s *Service) linksTo(n *models.Note, target models.Identity) bool {
	for _, entry := range n.LinkedNotes {
		if s.entryRefersTo(entry, target) {
			return true
		}
	}
	return false
}

// entryRefersTo reports whether one raw entry resolves to target. A
// qualified entry must match exactly; an unqualified one matches when
// store resolution lands on target.
func (s *Service) entryRefersTo(entry string, target models.Identity) bool {
	id := models.ParseIdentity(entry)
	if id == target {
		return true
	}
	if id.Qualified() || id.Title != target.Title {
		return false
	}
	note, err := s.store.Resolve(id)
	return err == nil && note.Identity() == target
}

func scopeLabel(scope notestore.Scope) string {
	if scope.All() {
		return "all notes"
	}
	return "category " + scope.Category
}
