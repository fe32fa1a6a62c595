package fs

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/piwall/piwall/internal/catalog"
)

func newTestResolver(t *testing.T) *Resolver {
	t.Helper()
	r, err := NewResolver(t.TempDir(), []string{"jpg", ".PNG", "mp4"})
	if err != nil {
		t.Fatalf("NewResolver: %v", err)
	}
	return r
}

func TestResolve_RejectsEscapingPaths(t *testing.T) {
	r := newTestResolver(t)

	cases := []string{
		"..",
		"../x.jpg",
		"a/../b.jpg",
		"trips/..",
		"/etc/passwd",
		"/x.jpg",
		"a//b.jpg",
		".",
		"a/.",
		`..\x.jpg`,
		`a\..\b.jpg`,
	}
	for _, rel := range cases {
		if _, err := r.Resolve(rel); !errors.Is(err, catalog.ErrInvalidPath) {
			t.Errorf("Resolve(%q): got %v, want ErrInvalidPath", rel, err)
		}
	}
}

func TestResolve_ValidPaths(t *testing.T) {
	r := newTestResolver(t)

	abs, err := r.Resolve("")
	if err != nil {
		t.Fatalf("Resolve(\"\"): %v", err)
	}
	if abs != r.Root() {
		t.Errorf("Resolve(\"\"): got %q, want root %q", abs, r.Root())
	}

	abs, err = r.Resolve("trips/2024/a.jpg")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	want := filepath.Join(r.Root(), "trips", "2024", "a.jpg")
	if abs != want {
		t.Errorf("Resolve: got %q, want %q", abs, want)
	}
}

func TestResolveFile_ExtensionAllowList(t *testing.T) {
	r := newTestResolver(t)

	if _, err := r.ResolveFile("evil.exe"); !errors.Is(err, catalog.ErrDisallowedExtension) {
		t.Errorf("ResolveFile(evil.exe): got %v, want ErrDisallowedExtension", err)
	}
	if _, err := r.ResolveFile("doc.txt"); !errors.Is(err, catalog.ErrDisallowedExtension) {
		t.Errorf("ResolveFile(doc.txt): got %v, want ErrDisallowedExtension", err)
	}
	if _, err := r.ResolveFile(""); !errors.Is(err, catalog.ErrInvalidPath) {
		t.Errorf("ResolveFile(\"\"): got %v, want ErrInvalidPath", err)
	}

	// Matching is case-insensitive in both directions: the allow-list entry
	// ".PNG" and the upload name "B.JPG" both normalize.
	for _, rel := range []string{"a.jpg", "B.JPG", "shot.png", "clip.MP4"} {
		if _, err := r.ResolveFile(rel); err != nil {
			t.Errorf("ResolveFile(%q): unexpected error %v", rel, err)
		}
	}
}
