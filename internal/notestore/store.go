// Package notestore persists notes as Markdown files with YAML frontmatter
// and resolves note identities to files on disk.
package notestore

import (
	"time"

	"github.com/starford/gebo/internal/models"
)

// Scope restricts an operation to part of the vault. The zero value means
// all notes; a non-empty Category limits it to one category directory.
type Scope struct {
	Category string
}

// All reports whether the scope covers the whole vault.
func (s Scope) All() bool {
	return s.Category == ""
}

// Store is the note-level contract the link graph is built on.
//
// Identities resolve case-sensitively: a note matches only when its title
// is exactly equal to the requested one. Unqualified identities search the
// vault root first, then category directories in sorted order.
type Store interface {
	// Resolve finds the note for an identity, searching categories when the
	// identity is unqualified. Returns apperr.ErrNoteNotFound when nothing
	// matches.
	Resolve(id models.Identity) (*models.Note, error)
	// Load reads the note at the exact location the identity describes.
	// Unlike Resolve it never falls back to other categories.
	Load(id models.Identity) (*models.Note, error)
	// Save writes the note back to its file atomically.
	Save(n *models.Note) error
	// Create writes a new note, failing with apperr.ErrNoteExists when the
	// target file is already present.
	Create(n *models.Note) error
	// Delete removes the note's file.
	Delete(id models.Identity) error
	// EnumerateAll returns every note in scope, sorted by identity string.
	EnumerateAll(scope Scope) ([]*models.Note, error)
	// Categories lists the category directories in sorted order.
	Categories() ([]string, error)
}

// Files is the file-level view of the vault consumed by the search index,
// which tracks raw content by path rather than by identity.
type Files interface {
	// List returns metadata for every note file under dir (vault-relative;
	// empty for the whole vault).
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at a vault-relative path.
	Read(path string) ([]byte, error)
	// Tracked reports whether a vault-relative path belongs to the note
	// collection, applying the same suffix, depth and ignore rules as List.
	Tracked(path string) bool
}

// FileInfo describes one note file on disk.
type FileInfo struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}
