package fs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/piwall/piwall/internal/catalog"
)

// Resolver maps catalog-relative paths to absolute filesystem locations and
// rejects anything that would escape the media root. Resolution is pure: no
// filesystem calls are made.
type Resolver struct {
	root        string // absolute media root, no trailing separator
	allowedExts map[string]bool
}

// NewResolver creates a Resolver rooted at root. Extensions are stored
// lower-cased with a leading dot.
func NewResolver(root string, extensions []string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		exts[e] = true
	}
	return &Resolver{root: abs, allowedExts: exts}, nil
}

// Root returns the absolute media root.
func (r *Resolver) Root() string { return r.root }

// Clean validates rel and returns its canonical slash-separated form.
// The empty path is valid and denotes the root itself.
func (r *Resolver) Clean(rel string) (string, error) {
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

// Resolve validates rel and returns the absolute location it denotes.
// Escaping paths fail with ErrInvalidPath.
func (r *Resolver) Resolve(rel string) (string, error) {
	clean, err := r.Clean(rel)
	if err != nil {
		return "", err
	}
	if clean == "" {
		return r.root, nil
	}
	abs := filepath.Join(r.root, filepath.FromSlash(clean))
	// The segment checks above make an escape impossible, but verify the
	// invariant anyway: the result must stay under the root.
	if abs != r.root && !strings.HasPrefix(abs, r.root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes the media root", catalog.ErrInvalidPath, rel)
	}
	return abs, nil
}

// ResolveFile is Resolve plus the extension allow-list check for file targets.
func (r *Resolver) ResolveFile(rel string) (string, error) {
	abs, err := r.Resolve(rel)
	if err != nil {
		return "", err
	}
	if rel == "" {
		return "", fmt.Errorf("%w: empty file path", catalog.ErrInvalidPath)
	}
	if !r.Allowed(filepath.Base(abs)) {
		return "", fmt.Errorf("%w: %q", catalog.ErrDisallowedExtension, filepath.Ext(rel))
	}
	return abs, nil
}

// Allowed reports whether name carries an extension from the allow-list.
// The comparison is case-insensitive.
func (r *Resolver) Allowed(name string) bool {
	return r.allowedExts[strings.ToLower(filepath.Ext(name))]
}
