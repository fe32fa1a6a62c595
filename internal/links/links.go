// Package links implements the SQLite-backed registry of external-URL media
// entries. Link records are not filesystem entries; they are persisted in a
// small database inside the media root and merged into listings alongside
// file-backed media.
package links

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register "sqlite" driver

	"github.com/piwall/piwall/internal/catalog"
)

// DefaultFilename is the registry database name inside the media root.
const DefaultFilename = ".links.db"

// Registry is the SQLite link registry.
type Registry struct {
	db *sql.DB
}

// Open opens (or creates) the registry database at path and applies the
// schema.
func Open(path string) (*Registry, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open links database %q: %w", path, err)
	}
	// WAL mode for concurrent readers while a request writes.
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure links database: %w", err)
	}
	r := &Registry{db: db}
	if err := r.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create links schema: %w", err)
	}
	return r, nil
}

// Close releases database resources.
func (r *Registry) Close() error {
	return r.db.Close()
}

func (r *Registry) createSchema() error {
	_, err := r.db.Exec(`
CREATE TABLE IF NOT EXISTS links (
    id            TEXT PRIMARY KEY,
    url           TEXT NOT NULL,
    name          TEXT NOT NULL DEFAULT '',
    category_path TEXT NOT NULL DEFAULT '',
    created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_links_created_at ON links(created_at DESC);
`)
	return err
}

// Add validates and persists a link entry. Only https URLs are accepted; the
// display name defaults to the URL host when empty.
func (r *Registry) Add(rawURL, name, categoryPath string) (catalog.Media, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return catalog.Media{}, fmt.Errorf("%w: %q", catalog.ErrInvalidURL, rawURL)
	}
	if u.Scheme != "https" {
		return catalog.Media{}, fmt.Errorf("%w: scheme %q is not https", catalog.ErrInvalidURL, u.Scheme)
	}

	catPath, err := cleanCategoryPath(categoryPath)
	if err != nil {
		return catalog.Media{}, err
	}
	if name == "" {
		name = u.Host
	}

	id := uuid.NewString()
	created := time.Now()
	_, err = r.db.Exec(
		`INSERT INTO links (id, url, name, category_path, created_at) VALUES (?,?,?,?,?)`,
		id, u.String(), name, catPath, created.Unix(),
	)
	if err != nil {
		return catalog.Media{}, fmt.Errorf("insert link %q: %w", rawURL, err)
	}
	return mediaFromLink(id, u.String(), name, catPath, created), nil
}

// List returns all link entries, newest first.
func (r *Registry) List() ([]catalog.Media, error) {
	rows, err := r.db.Query(
		`SELECT id, url, name, category_path, created_at FROM links ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query links: %w", err)
	}
	defer rows.Close()

	var items []catalog.Media
	for rows.Next() {
		var id, rawURL, name, catPath string
		var created int64
		if err := rows.Scan(&id, &rawURL, &name, &catPath, &created); err != nil {
			return nil, err
		}
		items = append(items, mediaFromLink(id, rawURL, name, catPath, time.Unix(created, 0)))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// Remove deletes the link record with the given ID. Unknown IDs fail with
// ErrNotFound so batch deletion can fall through to the filesystem store.
func (r *Registry) Remove(id string) error {
	res, err := r.db.Exec(`DELETE FROM links WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete link %q: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: link %q", catalog.ErrNotFound, id)
	}
	return nil
}

// mediaFromLink builds the listing record for a link row. The registry ID
// doubles as the record's catalog path.
func mediaFromLink(id, rawURL, name, catPath string, created time.Time) catalog.Media {
	catName := ""
	if catPath != "" {
		idx := strings.LastIndex(catPath, "/")
		catName = catPath[idx+1:]
	}
	return catalog.Media{
		Name:         name,
		Path:         id,
		Category:     catName,
		CategoryPath: catPath,
		Modified:     created,
		Source:       "link",
		URL:          rawURL,
	}
}

// cleanCategoryPath validates the optional category association. The value
// is an opaque relative directory path; escaping or absolute forms are
// rejected the same way the filesystem resolver rejects them.
func cleanCategoryPath(rel string) (string, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	if rel == "" {
		return "", nil
	}
	if strings.HasPrefix(rel, "/") {
		return "", fmt.Errorf("%w: %q is absolute", catalog.ErrInvalidPath, rel)
	}
	for _, seg := range strings.Split(rel, "/") {
		switch seg {
		case "", ".", "..":
			return "", fmt.Errorf("%w: %q", catalog.ErrInvalidPath, rel)
		}
	}
	return rel, nil
}
