package notestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gosimple/slug"

	"github.com/starford/gebo/internal/apperr"
	"github.com/starford/gebo/internal/checksum"
	"github.com/starford/gebo/internal/frontmatter"
	"github.com/starford/gebo/internal/models"
)

// FS implements Store and Files backed by the local file system.
//
// Layout: uncategorized notes live as root/<slug>.md, categorized notes as
// root/<category>/<slug>.md. Deeper files are not part of the collection.
type FS struct {
	root   string // absolute path to vault directory
	ignore []string
}

// NewFS creates a new FS store rooted at the given directory. The
// directory must already exist. Ignore patterns are doublestar globs
// matched against vault-relative paths; matching files and directories
// are invisible to every operation.
func NewFS(root string, ignore ...string) (*FS, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("notestore: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("notestore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("notestore: root is not a directory: %s", abs)
	}
	return &FS{root: abs, ignore: ignore}, nil
}

// safePath resolves a relative path against the vault root and rejects
// any result that escapes it (directory traversal).
func (f *FS) safePath(rel string) (string, error) {
	if rel == "" {
		return f.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("notestore: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(f.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("notestore: resolve path: %w", err)
	}
	// Ensure the resolved path is still under root.
	if !strings.HasPrefix(abs, f.root+string(os.PathSeparator)) && abs != f.root {
		return "", fmt.Errorf("notestore: path escapes vault root: %s", rel)
	}
	return abs, nil
}

// ignored reports whether a vault-relative path, or any directory above
// it, matches an ignore glob.
func (f *FS) ignored(rel string) bool {
	rel = filepath.ToSlash(rel)
	for _, pattern := range f.ignore {
		for p := rel; p != "." && p != "/"; p = path.Dir(p) {
			if ok, err := doublestar.Match(pattern, p); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// notePath maps an identity to its vault-relative file path.
func notePath(id models.Identity) string {
	name := slug.Make(id.Title) + ".md"
	if id.Category == "" {
		return name
	}
	return filepath.Join(id.Category, name)
}

// List walks dir (vault-relative, empty for the whole vault) and returns
// metadata for every note file: root *.md plus one level of category
// directories. Deeper files are skipped.
func (f *FS) List(dir string) ([]FileInfo, error) {
	base, err := f.safePath(dir)
	if err != nil {
		return nil, err
	}
	var out []FileInfo
	err = filepath.WalkDir(base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(f.root, p)
		if relErr != nil {
			return relErr
		}
		if d.IsDir() {
			if rel == "." {
				return nil
			}
			if f.ignored(rel) || depth(rel) > 1 {
				return fs.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".md") || f.ignored(rel) {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			return infoErr
		}
		data, readErr := os.ReadFile(p)
		if readErr != nil {
			return readErr
		}
		out = append(out, FileInfo{
			Path:      filepath.ToSlash(rel),
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("notestore: list: %w", err)
	}
	return out, nil
}

func depth(rel string) int {
	return len(strings.Split(filepath.ToSlash(rel), "/"))
}

// Tracked reports whether a vault-relative path is part of the note
// collection: a .md file at the root or one category deep, not ignored.
func (f *FS) Tracked(p string) bool {
	rel := filepath.ToSlash(filepath.Clean(p))
	if !strings.HasSuffix(rel, ".md") || depth(rel) > 2 {
		return false
	}
	return !f.ignored(rel)
}

// Read returns the raw bytes of a vault file.
func (f *FS) Read(path string) ([]byte, error) {
	abs, err := f.safePath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("notestore: read %s: %w", path, err)
	}
	return data, nil
}

// write atomically persists content: tmp file, fsync, rename.
func (f *FS) write(path string, content []byte) error {
	abs, err := f.safePath(path)
	if err != nil {
		return err
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("notestore: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gebo-tmp-*")
	if err != nil {
		return fmt.Errorf("notestore: create temp: %w", err)
	}
	tmpName := tmp.Name()

	// Clean up on any failure path.
	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(content); err != nil {
		return fmt.Errorf("notestore: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("notestore: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("notestore: close temp: %w", err)
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return fmt.Errorf("notestore: rename: %w", err)
	}
	success = true
	return nil
}

// Load reads the note at the exact location the identity describes and
// verifies the stored title matches, case-sensitively.
func (f *FS) Load(id models.Identity) (*models.Note, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	rel := notePath(id)
	if f.ignored(rel) {
		return nil, fmt.Errorf("%w: %s", apperr.ErrNoteNotFound, id)
	}
	abs, err := f.safePath(rel)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrNoteNotFound, id)
		}
		return nil, fmt.Errorf("notestore: read %s: %w", rel, err)
	}

	note := f.noteFromFile(rel, data)
	if note.Title != id.Title {
		// Slug collision: the file belongs to a different title.
		return nil, fmt.Errorf("%w: %s", apperr.ErrNoteNotFound, id)
	}
	return note, nil
}

// Resolve finds the note for an identity. Qualified identities load
// directly; unqualified ones search the vault root first, then category
// directories in sorted order.
func (f *FS) Resolve(id models.Identity) (*models.Note, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if id.Qualified() {
		return f.Load(id)
	}

	note, err := f.Load(id)
	if err == nil {
		return note, nil
	}
	if !errors.Is(err, apperr.ErrNoteNotFound) {
		return nil, err
	}

	cats, err := f.Categories()
	if err != nil {
		return nil, err
	}
	for _, cat := range cats {
		note, err := f.Load(models.Identity{Title: id.Title, Category: cat})
		if err == nil {
			return note, nil
		}
		if !errors.Is(err, apperr.ErrNoteNotFound) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %s", apperr.ErrNoteNotFound, id)
}

// Save writes the note back to its file atomically. The file location is
// derived from the note's identity.
func (f *FS) Save(n *models.Note) error {
	if err := n.Identity().Validate(); err != nil {
		return err
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = time.Now()
	}
	rel := notePath(n.Identity())
	data, err := encodeNote(n)
	if err != nil {
		return err
	}
	if err := f.write(rel, data); err != nil {
		return err
	}
	n.Path = filepath.ToSlash(rel)
	return nil
}

// Create writes a new note, failing when the target file already exists.
func (f *FS) Create(n *models.Note) error {
	if err := n.Identity().Validate(); err != nil {
		return err
	}
	rel := notePath(n.Identity())
	abs, err := f.safePath(rel)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err == nil {
		return fmt.Errorf("%w: %s", apperr.ErrNoteExists, n.Identity())
	}
	now := time.Now()
	if n.CreatedAt.IsZero() {
		n.CreatedAt = now
	}
	if n.UpdatedAt.IsZero() {
		n.UpdatedAt = now
	}
	if n.Body == "" {
		n.Body = fmt.Sprintf("# %s\n", n.Title)
	}
	return f.Save(n)
}

// Delete removes the note's file.
func (f *FS) Delete(id models.Identity) error {
	note, err := f.Resolve(id)
	if err != nil {
		return err
	}
	abs, err := f.safePath(note.Path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("notestore: delete %s: %w", note.Path, err)
	}
	return nil
}

// EnumerateAll returns every note in scope, sorted by identity string.
// When two files map to the same identity the lexicographically first
// path wins.
func (f *FS) EnumerateAll(scope Scope) ([]*models.Note, error) {
	dir := ""
	if !scope.All() {
		if strings.Contains(scope.Category, "/") {
			return nil, fmt.Errorf("notestore: invalid category: %q", scope.Category)
		}
		dir = scope.Category
	}
	infos, err := f.List(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	seen := make(map[models.Identity]struct{}, len(infos))
	notes := make([]*models.Note, 0, len(infos))
	for _, info := range infos {
		data, err := f.Read(info.Path)
		if err != nil {
			return nil, err
		}
		note := f.noteFromFile(info.Path, data)
		id := note.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		notes = append(notes, note)
	}

	sort.Slice(notes, func(i, j int) bool {
		return notes[i].Identity().String() < notes[j].Identity().String()
	})
	return notes, nil
}

// Categories lists the category directories in sorted order.
func (f *FS) Categories() ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("notestore: read root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() || f.ignored(e.Name()) {
			continue
		}
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out, nil
}

// noteFromFile builds a Note from raw file content. The category comes
// from the directory, the title from frontmatter with H1 and filename-stem
// fallbacks.
func (f *FS) noteFromFile(rel string, data []byte) *models.Note {
	rel = filepath.ToSlash(rel)
	meta, body := frontmatter.Parse(data)

	category := ""
	if i := strings.Index(rel, "/"); i >= 0 {
		category = rel[:i]
	}
	stem := strings.TrimSuffix(filepath.Base(rel), ".md")

	note := &models.Note{
		Title:    frontmatter.Title(meta, body, stem),
		Category: category,
		Tags:     frontmatter.Tags(meta, body),
		Body:     body,
		Path:     rel,
	}
	if meta != nil {
		note.LinkedNotes = meta.LinkedNotes
		note.CreatedAt = meta.CreatedAt
		note.UpdatedAt = meta.UpdatedAt
		note.Metadata = meta.Extra
	}
	if note.UpdatedAt.IsZero() {
		if info, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(rel))); err == nil {
			note.UpdatedAt = info.ModTime()
		}
	}
	if note.CreatedAt.IsZero() {
		note.CreatedAt = note.UpdatedAt
	}
	return note
}

// encodeNote renders a note into file content.
func encodeNote(n *models.Note) ([]byte, error) {
	meta := &frontmatter.Meta{
		Title:       n.Title,
		Category:    n.Category,
		Tags:        n.Tags,
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		LinkedNotes: n.LinkedNotes,
		Extra:       n.Metadata,
	}
	return frontmatter.Encode(meta, n.Body)
}
