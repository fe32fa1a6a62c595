// Package catalog provides the media catalog abstraction for piwall.
// It defines the core data types, the error taxonomy, and the interfaces
// that storage backends implement.
package catalog

import (
	"errors"
	"io"
	"time"
)

// Media represents one catalog entry: either a file stored under the media
// root or a registered external link.
type Media struct {
	// Name is the display name (file name or link title).
	Name string `json:"name"`

	// Path is the catalog-relative identifier, unique across the catalog.
	// For file-backed media it is the slash-separated path under the media
	// root; for links it is the registry record ID. It is the key used for
	// deletion and selection.
	Path string `json:"path"`

	// Category is the display label of the owning category (leaf directory
	// name). Empty for uncategorized media.
	Category string `json:"category,omitempty"`

	// CategoryPath is the relative directory path under the media root.
	// Empty means uncategorized (the root itself).
	CategoryPath string `json:"category_path"`

	// Size is the file size in bytes (0 for links).
	Size int64 `json:"size,omitempty"`

	// Modified is the last write time, used for default recency ordering.
	Modified time.Time `json:"modified"`

	// MIMEType is the guessed media type for file-backed entries.
	MIMEType string `json:"mime_type,omitempty"`

	// Source is "link" for external-URL entries, empty for files.
	Source string `json:"source,omitempty"`

	// URL is the address the client fetches the bytes or page from.
	URL string `json:"url"`
}

// Category is a named grouping of media, implemented as a directory under
// the media root. The implicit Uncategorized category has an empty Path.
type Category struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Outcome status values shared by upload and deletion results.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// UploadOutcome is the per-file result of an upload batch. It is returned
// synchronously and never persisted.
type UploadOutcome struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Path    string `json:"path,omitempty"`
}

// DeleteOutcome is the per-path result of a deletion batch. Code carries the
// HTTP-style status used to classify the aggregate response.
type DeleteOutcome struct {
	Path    string `json:"path"`
	Status  string `json:"status"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// Error taxonomy. Backends wrap these sentinels with context; callers match
// with errors.Is to choose a response status.
var (
	ErrInvalidPath         = errors.New("invalid path")
	ErrInvalidName         = errors.New("invalid name")
	ErrDisallowedExtension = errors.New("file type not allowed")
	ErrTooLarge            = errors.New("file too large")
	ErrNotFound            = errors.New("not found")
	ErrExists              = errors.New("already exists")
	ErrInvalidURL          = errors.New("invalid url")
)

// Catalog is the interface the filesystem store implements. Every listing
// call reflects the current on-disk state; mutations never update a cache.
type Catalog interface {
	// List enumerates all file-backed media under the root. Ordering is
	// unspecified; callers filter and sort.
	List() ([]Media, error)

	// FilePath resolves a catalog-relative path to the absolute location of
	// an existing regular file, for serving bytes.
	FilePath(rel string) (string, error)

	// Save validates and persists one uploaded file into categoryPath,
	// creating the category directory if needed. Colliding names receive a
	// deterministic numeric suffix; the write is atomic (temp file + rename).
	Save(categoryPath, filename string, src io.Reader) (Media, error)

	// Remove deletes one file-backed media entry by its relative path.
	Remove(rel string) error

	// Categories returns every category, the implicit Uncategorized entry
	// first, then directories in lexical path order.
	Categories() ([]Category, error)

	// CreateCategory creates a directory named name directly under the root.
	CreateCategory(name string) (Category, error)

	// RenameCategory renames/moves the category with the given display name.
	// At least one of newName and newPath must be non-nil; newPath wins when
	// both are supplied. Contained media inherit the new path implicitly.
	RenameCategory(name string, newName, newPath *string) (Category, error)

	// DeleteCategory removes the category directory and everything in it,
	// returning the removed category.
	DeleteCategory(name string) (Category, error)
}

// LinkStore is the interface the external-link registry implements.
type LinkStore interface {
	// Add validates and persists a link entry. Only https URLs are accepted.
	Add(rawURL, name, categoryPath string) (Media, error)

	// List returns all link entries, newest first.
	List() ([]Media, error)

	// Remove deletes the link record with the given ID.
	Remove(id string) error
}

// FilterByCategory keeps the entries whose CategoryPath equals categoryPath
// exactly. It is the pure predicate the listing endpoint applies after
// merging file and link records.
func FilterByCategory(items []Media, categoryPath string) []Media {
	out := make([]Media, 0, len(items))
	for _, m := range items {
		if m.CategoryPath == categoryPath {
			out = append(out, m)
		}
	}
	return out
}
