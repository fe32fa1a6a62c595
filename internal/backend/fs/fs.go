// Package fs implements the filesystem-backed media store for piwall.
// Media files live under a root directory whose sub-directories are the
// catalog's categories; category membership is always derived from a file's
// parent directory at listing time, never stored.
package fs

import (
	"fmt"
	"io"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/piwall/piwall/internal/catalog"
)

// uncategorizedName is the display label of the implicit root category.
const uncategorizedName = "Uncategorized"

// Store is the filesystem media store. It holds no index: every call reads
// the current on-disk state, so concurrent mutations are never stale.
type Store struct {
	resolver *Resolver
	maxBytes int64
}

// New creates a Store rooted at dir, creating the directory if needed.
// extensions is the media file allow-list; maxBytes is the per-file upload
// ceiling.
func New(dir string, extensions []string, maxBytes int64) (*Store, error) {
	r, err := NewResolver(dir, extensions)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(r.Root(), 0755); err != nil {
		return nil, fmt.Errorf("create media dir %q: %w", dir, err)
	}
	return &Store{resolver: r, maxBytes: maxBytes}, nil
}

// Resolver exposes the store's path resolver.
func (s *Store) Resolver() *Resolver { return s.resolver }

// List enumerates every allowed regular file under the root. Hidden files
// and directories (link registry database, in-flight upload temp files) are
// skipped.
func (s *Store) List() ([]catalog.Media, error) {
	root := s.resolver.Root()
	var items []catalog.Media

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if p != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") || !s.resolver.Allowed(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		items = append(items, s.mediaFromFile(filepath.ToSlash(rel), info))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning media dir %q: %w", root, err)
	}
	return items, nil
}

// mediaFromFile builds the listing record for a file at the given relative
// path. The category is derived from the parent directory.
func (s *Store) mediaFromFile(rel string, info fs.FileInfo) catalog.Media {
	catPath := path.Dir(rel)
	if catPath == "." {
		catPath = ""
	}
	catName := ""
	if catPath != "" {
		catName = path.Base(catPath)
	}
	mimeType := mime.TypeByExtension(filepath.Ext(rel))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	return catalog.Media{
		Name:         path.Base(rel),
		Path:         rel,
		Category:     catName,
		CategoryPath: catPath,
		Size:         info.Size(),
		Modified:     info.ModTime(),
		MIMEType:     mimeType,
		URL:          "/media/" + rel,
	}
}

// FilePath resolves rel to the absolute path of an existing regular file.
func (s *Store) FilePath(rel string) (string, error) {
	abs, err := s.resolver.Resolve(rel)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return "", fmt.Errorf("%w: media %q", catalog.ErrNotFound, rel)
	}
	return abs, nil
}

// Save persists one uploaded file into categoryPath. The file is written to
// a temp file in the destination directory and renamed into place, so a
// partial write is never visible under the final name. A name collision
// yields a deterministic "stem_N.ext" variant instead of an overwrite.
func (s *Store) Save(categoryPath, filename string, src io.Reader) (catalog.Media, error) {
	base := filepath.Base(filename)
	if filename == "" || base != filename || strings.HasPrefix(base, ".") {
		return catalog.Media{}, fmt.Errorf("%w: filename %q", catalog.ErrInvalidName, filename)
	}
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		return catalog.Media{}, fmt.Errorf("%w: filename %q", catalog.ErrInvalidName, filename)
	}
	if !s.resolver.Allowed(base) {
		return catalog.Media{}, fmt.Errorf("%w: %q", catalog.ErrDisallowedExtension, ext)
	}

	catPath, err := s.resolver.Clean(categoryPath)
	if err != nil {
		return catalog.Media{}, err
	}
	dirAbs, err := s.resolver.Resolve(catPath)
	if err != nil {
		return catalog.Media{}, err
	}
	// Implicit category creation: first upload naming a new category brings
	// the directory into existence.
	if err := os.MkdirAll(dirAbs, 0755); err != nil {
		return catalog.Media{}, fmt.Errorf("create category dir %q: %w", catPath, err)
	}

	tmp, err := os.CreateTemp(dirAbs, ".upload-*.tmp")
	if err != nil {
		return catalog.Media{}, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }() // no-op once renamed

	written, err := io.Copy(tmp, io.LimitReader(src, s.maxBytes+1))
	if err != nil {
		tmp.Close()
		return catalog.Media{}, fmt.Errorf("write upload %q: %w", base, err)
	}
	if written > s.maxBytes {
		tmp.Close()
		return catalog.Media{}, fmt.Errorf("%w: %q exceeds %d bytes", catalog.ErrTooLarge, base, s.maxBytes)
	}
	if err := tmp.Close(); err != nil {
		return catalog.Media{}, fmt.Errorf("close temp file: %w", err)
	}

	for counter := 0; ; counter++ {
		name := base
		if counter > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, counter, ext)
		}
		dest := filepath.Join(dirAbs, name)
		if _, err := os.Stat(dest); err == nil {
			continue
		}
		if err := os.Rename(tmpPath, dest); err != nil {
			return catalog.Media{}, fmt.Errorf("store upload %q: %w", name, err)
		}
		info, err := os.Stat(dest)
		if err != nil {
			return catalog.Media{}, fmt.Errorf("stat stored upload %q: %w", name, err)
		}
		return s.mediaFromFile(path.Join(catPath, name), info), nil
	}
}

// Remove deletes one file-backed media entry. Absent entries fail with
// ErrNotFound; resolver failures pass through unchanged.
func (s *Store) Remove(rel string) error {
	abs, err := s.resolver.ResolveFile(rel)
	if err != nil {
		return err
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: media %q", catalog.ErrNotFound, rel)
	}
	if err := os.Remove(abs); err != nil {
		return fmt.Errorf("delete %q: %w", rel, err)
	}
	return nil
}

// Categories walks the root and returns a category per directory, preceded
// by the implicit Uncategorized entry. Hidden directories are skipped.
func (s *Store) Categories() ([]catalog.Category, error) {
	root := s.resolver.Root()
	cats := []catalog.Category{{Name: uncategorizedName, Path: ""}}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() || p == root {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil
		}
		cats = append(cats, catalog.Category{Name: d.Name(), Path: filepath.ToSlash(rel)})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning categories in %q: %w", root, err)
	}
	return cats, nil
}

// categoryByName finds the category with the given display name. The
// implicit Uncategorized entry is never matched; WalkDir order makes the
// lookup deterministic when two directories share a leaf name.
func (s *Store) categoryByName(name string) (catalog.Category, error) {
	if name == "" || name == uncategorizedName {
		return catalog.Category{}, fmt.Errorf("%w: category %q", catalog.ErrInvalidName, name)
	}
	cats, err := s.Categories()
	if err != nil {
		return catalog.Category{}, err
	}
	for _, c := range cats[1:] {
		if c.Name == name {
			return c, nil
		}
	}
	return catalog.Category{}, fmt.Errorf("%w: category %q", catalog.ErrNotFound, name)
}

// validCategoryName rejects names that are empty, hidden, reserved for the
// implicit root category, or contain path separators.
func validCategoryName(name string) bool {
	if name == "" || name == uncategorizedName {
		return false
	}
	if strings.ContainsAny(name, `/\`) {
		return false
	}
	if name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return false
	}
	return true
}

// CreateCategory creates a directory named name directly under the root.
func (s *Store) CreateCategory(name string) (catalog.Category, error) {
	if !validCategoryName(name) {
		return catalog.Category{}, fmt.Errorf("%w: category %q", catalog.ErrInvalidName, name)
	}
	abs, err := s.resolver.Resolve(name)
	if err != nil {
		return catalog.Category{}, fmt.Errorf("%w: category %q", catalog.ErrInvalidName, name)
	}
	if _, err := os.Stat(abs); err == nil {
		return catalog.Category{}, fmt.Errorf("%w: category %q", catalog.ErrExists, name)
	}
	if err := os.Mkdir(abs, 0755); err != nil {
		return catalog.Category{}, fmt.Errorf("create category %q: %w", name, err)
	}
	return catalog.Category{Name: name, Path: name}, nil
}

// RenameCategory renames or moves a category directory in a single
// os.Rename, so contained media change category atomically. The destination
// is newPath when supplied, otherwise the old parent joined with newName.
func (s *Store) RenameCategory(name string, newName, newPath *string) (catalog.Category, error) {
	if newName == nil && newPath == nil {
		return catalog.Category{}, fmt.Errorf("%w: no updates provided", catalog.ErrInvalidName)
	}
	cur, err := s.categoryByName(name)
	if err != nil {
		return catalog.Category{}, err
	}

	var destRel string
	switch {
	case newPath != nil:
		destRel, err = s.resolver.Clean(*newPath)
		if err != nil {
			return catalog.Category{}, err
		}
		if destRel == "" {
			return catalog.Category{}, fmt.Errorf("%w: empty destination path", catalog.ErrInvalidPath)
		}
	default:
		if !validCategoryName(*newName) {
			return catalog.Category{}, fmt.Errorf("%w: category %q", catalog.ErrInvalidName, *newName)
		}
		parent := path.Dir(cur.Path)
		if parent == "." {
			parent = ""
		}
		destRel = path.Join(parent, *newName)
	}

	if destRel == cur.Path {
		return cur, nil
	}
	if strings.HasPrefix(destRel, cur.Path+"/") {
		return catalog.Category{}, fmt.Errorf("%w: %q is inside %q", catalog.ErrInvalidPath, destRel, cur.Path)
	}

	srcAbs, err := s.resolver.Resolve(cur.Path)
	if err != nil {
		return catalog.Category{}, err
	}
	destAbs, err := s.resolver.Resolve(destRel)
	if err != nil {
		return catalog.Category{}, err
	}
	if _, err := os.Stat(destAbs); err == nil {
		return catalog.Category{}, fmt.Errorf("%w: %q", catalog.ErrExists, destRel)
	}
	if err := os.MkdirAll(filepath.Dir(destAbs), 0755); err != nil {
		return catalog.Category{}, fmt.Errorf("create parent of %q: %w", destRel, err)
	}
	if err := os.Rename(srcAbs, destAbs); err != nil {
		return catalog.Category{}, fmt.Errorf("rename category %q to %q: %w", cur.Path, destRel, err)
	}
	return catalog.Category{Name: path.Base(destRel), Path: destRel}, nil
}

// DeleteCategory removes the category directory and all contained media.
// Deleting an absent category reports ErrNotFound rather than silently
// succeeding.
func (s *Store) DeleteCategory(name string) (catalog.Category, error) {
	cur, err := s.categoryByName(name)
	if err != nil {
		return catalog.Category{}, err
	}
	abs, err := s.resolver.Resolve(cur.Path)
	if err != nil {
		return catalog.Category{}, err
	}
	if err := os.RemoveAll(abs); err != nil {
		return catalog.Category{}, fmt.Errorf("delete category %q: %w", cur.Path, err)
	}
	return cur, nil
}
