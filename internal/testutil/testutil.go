// Package testutil provides shared test helpers for setting up vaults and
// search indexes.
package testutil

import (
	"os"
	"testing"

	"github.com/starford/gebo/internal/index"
	"github.com/starford/gebo/internal/models"
	"github.com/starford/gebo/internal/notestore"
)

// TestDB creates a temporary SQLite search index that is automatically
// cleaned up.
func TestDB(t *testing.T) *index.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "gebo-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := index.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestVault creates a temporary vault directory backed by a notestore.FS.
func TestVault(t *testing.T, ignore ...string) (string, *notestore.FS) {
	t.Helper()
	vaultDir := t.TempDir()
	store, err := notestore.NewFS(vaultDir, ignore...)
	if err != nil {
		t.Fatal(err)
	}
	return vaultDir, store
}

// Seed creates a note in the store. The identity string may be qualified
// ("category/Title"); links become the note's linked_notes entries.
func Seed(t *testing.T, store *notestore.FS, identity string, links ...string) *models.Note {
	t.Helper()
	id := models.ParseIdentity(identity)
	note := &models.Note{
		Title:       id.Title,
		Category:    id.Category,
		LinkedNotes: links,
		Body:        "# " + id.Title + "\n",
	}
	if err := store.Create(note); err != nil {
		t.Fatalf("seed %s: %v", identity, err)
	}
	return note
}
