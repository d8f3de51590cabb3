package index

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/gebo/internal/checksum"
	"github.com/starford/gebo/internal/frontmatter"
	"github.com/starford/gebo/internal/notestore"
)

// Sync walks the vault and brings the search index up to date:
//   - new/changed files are parsed and upserted
//   - files removed from disk are deleted from the index
func Sync(db *DB, files notestore.Files, logger *slog.Logger) error {
	infos, err := files.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(infos))
	for _, fi := range infos {
		disk[fi.Path] = struct{}{}

		if checksums[fi.Path] == fi.Checksum {
			continue
		}

		data, err := files.Read(fi.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
			continue
		}
		if err := indexFile(db, fi.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", fi.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", fi.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteNote(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// indexFile parses raw note content and upserts it into the DB. The
// category comes from the top-level directory, the title from the
// frontmatter with the usual fallbacks.
func indexFile(db *DB, relPath string, data []byte) error {
	meta, body := frontmatter.Parse(data)

	category := ""
	if i := strings.Index(relPath, "/"); i >= 0 {
		category = relPath[:i]
	}
	stem := strings.TrimSuffix(path.Base(relPath), ".md")

	row := NoteRow{
		Path:      relPath,
		Title:     frontmatter.Title(meta, body, stem),
		Category:  category,
		Checksum:  checksum.Sum(data),
		Tags:      frontmatter.Tags(meta, body),
		UpdatedAt: time.Now(),
	}
	if meta != nil && !meta.UpdatedAt.IsZero() {
		row.UpdatedAt = meta.UpdatedAt
	}
	return db.UpsertNote(row, body)
}
