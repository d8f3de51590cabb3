// Package models defines the domain types for Gebo.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Identity names a note within the vault: a title plus an optional
// category. Two identities refer to the same note iff both fields compare
// equal, case-sensitively. The same title in two categories names two
// distinct notes.
type Identity struct {
	Title    string
	Category string
}

// ParseIdentity parses the string form of an identity: either "Title" or
// "Category/Title", split at the first slash.
func ParseIdentity(s string) Identity {
	if i := strings.Index(s, "/"); i >= 0 {
		return Identity{Category: s[:i], Title: s[i+1:]}
	}
	return Identity{Title: s}
}

// String returns the canonical string form, the representation stored in
// linked_notes lists and accepted on the command line.
func (id Identity) String() string {
	if id.Category == "" {
		return id.Title
	}
	return id.Category + "/" + id.Title
}

// MarshalJSON renders the canonical string form, matching how identities
// appear in linked_notes lists and API responses.
func (id Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON accepts the canonical string form.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*id = ParseIdentity(s)
	return nil
}

// Qualified reports whether the identity names its category explicitly.
func (id Identity) Qualified() bool {
	return id.Category != ""
}

// Validate rejects identities whose fields would break the string form.
func (id Identity) Validate() error {
	if strings.TrimSpace(id.Title) == "" {
		return fmt.Errorf("models: title must not be empty")
	}
	if strings.Contains(id.Title, "/") {
		return fmt.Errorf("models: title must not contain '/': %q", id.Title)
	}
	if strings.Contains(id.Category, "/") {
		return fmt.Errorf("models: category must not contain '/': %q", id.Category)
	}
	return nil
}

// Note represents a parsed Markdown note file in the vault.
//
// LinkedNotes holds the note's outgoing links as identity strings in the
// order they appear in the frontmatter. It is the sole persisted
// representation of the link graph.
type Note struct {
	Title       string         `json:"title"`
	Category    string         `json:"category,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	LinkedNotes []string       `json:"linked_notes,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Body        string         `json:"body"`
	Path        string         `json:"path"`               // vault-relative file path; set by the store
	Metadata    map[string]any `json:"metadata,omitempty"` // frontmatter keys Gebo does not interpret
}

// Identity returns the note's identity.
func (n *Note) Identity() Identity {
	return Identity{Title: n.Title, Category: n.Category}
}

// HasLink reports whether the note's outgoing links contain the exact
// entry. Matching is on the raw string; resolution-aware matching is the
// link graph's concern.
func (n *Note) HasLink(entry string) bool {
	for _, e := range n.LinkedNotes {
		if e == entry {
			return true
		}
	}
	return false
}

// AddLink appends entry to the note's outgoing links and reports whether
// the entry was newly added. Duplicates are never appended.
func (n *Note) AddLink(entry string) bool {
	if n.HasLink(entry) {
		return false
	}
	n.LinkedNotes = append(n.LinkedNotes, entry)
	n.UpdatedAt = time.Now()
	return true
}

// RemoveLink removes every occurrence of entry from the note's outgoing
// links and reports whether anything was removed.
func (n *Note) RemoveLink(entry string) bool {
	kept := n.LinkedNotes[:0]
	removed := false
	for _, e := range n.LinkedNotes {
		if e == entry {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	if removed {
		n.LinkedNotes = kept
		n.UpdatedAt = time.Now()
	}
	return removed
}

// HasTag reports whether the note carries the given tag.
func (n *Note) HasTag(tag string) bool {
	for _, t := range n.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
