package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/piwall/piwall/internal/catalog"
)

func TestCategories_List(t *testing.T) {
	srv, dir := newTestServer(t, testToken)
	seedFile(t, dir, "trips/a.jpg", time.Now())

	rr := doRequest(t, srv, http.MethodGet, "/api/categories", "", nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d", rr.Code)
	}
	var cats []catalog.Category
	decodeBody(t, rr, &cats)
	if len(cats) != 2 {
		t.Fatalf("categories: got %+v", cats)
	}
	if cats[0].Name != "Uncategorized" || cats[0].Path != "" {
		t.Errorf("cats[0]: got %+v, want Uncategorized first", cats[0])
	}
	if cats[1].Name != "trips" || cats[1].Path != "trips" {
		t.Errorf("cats[1]: got %+v", cats[1])
	}
}

func TestCategories_Create(t *testing.T) {
	srv, dir := newTestServer(t, testToken)

	rr := doRequest(t, srv, http.MethodPost, "/api/categories", testToken,
		strings.NewReader(`{"name":"trips"}`), "application/json")
	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d: %s", rr.Code, rr.Body.String())
	}
	var cat catalog.Category
	decodeBody(t, rr, &cat)
	if cat.Name != "trips" || cat.Path != "trips" {
		t.Errorf("created: got %+v", cat)
	}
	if fi, err := os.Stat(filepath.Join(dir, "trips")); err != nil || !fi.IsDir() {
		t.Errorf("directory: %v", err)
	}

	rr = doRequest(t, srv, http.MethodPost, "/api/categories", testToken,
		strings.NewReader(`{"name":"trips"}`), "application/json")
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate: got %d, want 409", rr.Code)
	}

	for _, body := range []string{`{"name":""}`, `{"name":"../x"}`, `{"name":"a/b"}`, `{"name":"Uncategorized"}`} {
		rr = doRequest(t, srv, http.MethodPost, "/api/categories", testToken,
			strings.NewReader(body), "application/json")
		if rr.Code != http.StatusBadRequest {
			t.Errorf("create %s: got %d, want 400", body, rr.Code)
		}
	}
}

func TestCategories_Rename(t *testing.T) {
	srv, dir := newTestServer(t, testToken)
	seedFile(t, dir, "trips/a.jpg", time.Now())

	rr := doRequest(t, srv, http.MethodPatch, "/api/categories/trips", testToken,
		strings.NewReader(`{"name":"travel"}`), "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rr.Code, rr.Body.String())
	}
	var cat catalog.Category
	decodeBody(t, rr, &cat)
	if cat.Name != "travel" || cat.Path != "travel" {
		t.Errorf("renamed: got %+v", cat)
	}

	// Contained media change category with the directory.
	items := listMedia(t, srv, "/api/media?category=travel")
	if len(items) != 1 || items[0].Path != "travel/a.jpg" {
		t.Errorf("listing after rename: got %+v", items)
	}

	rr = doRequest(t, srv, http.MethodPatch, "/api/categories/travel", testToken,
		strings.NewReader(`{"path":"archive/travel"}`), "application/json")
	if rr.Code != http.StatusOK {
		t.Fatalf("move: got %d: %s", rr.Code, rr.Body.String())
	}
	decodeBody(t, rr, &cat)
	if cat.Path != "archive/travel" {
		t.Errorf("moved: got %+v", cat)
	}

	rr = doRequest(t, srv, http.MethodPatch, "/api/categories/ghost", testToken,
		strings.NewReader(`{"name":"x"}`), "application/json")
	if rr.Code != http.StatusNotFound {
		t.Errorf("missing: got %d, want 404", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodPatch, "/api/categories/travel", testToken,
		strings.NewReader(`{}`), "application/json")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("no updates: got %d, want 400", rr.Code)
	}
}

func TestCategories_RenameConflict(t *testing.T) {
	srv, dir := newTestServer(t, testToken)
	seedFile(t, dir, "src/a.jpg", time.Now())
	seedFile(t, dir, "dest/b.jpg", time.Now())

	rr := doRequest(t, srv, http.MethodPatch, "/api/categories/src", testToken,
		strings.NewReader(`{"name":"dest"}`), "application/json")
	if rr.Code != http.StatusConflict {
		t.Fatalf("status: got %d, want 409: %s", rr.Code, rr.Body.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "src", "a.jpg")); err != nil {
		t.Errorf("source disturbed by failed rename: %v", err)
	}
}

func TestCategories_DeleteCascades(t *testing.T) {
	srv, dir := newTestServer(t, testToken)
	seedFile(t, dir, "trips/a.jpg", time.Now())
	seedFile(t, dir, "trips/2024/b.jpg", time.Now())
	seedFile(t, dir, "keep.jpg", time.Now())

	rr := doRequest(t, srv, http.MethodDelete, "/api/categories/trips", testToken, nil, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d: %s", rr.Code, rr.Body.String())
	}
	var cat catalog.Category
	decodeBody(t, rr, &cat)
	if cat.Path != "trips" {
		t.Errorf("deleted: got %+v", cat)
	}

	items := listMedia(t, srv, "/api/media")
	if len(items) != 1 || items[0].Path != "keep.jpg" {
		t.Errorf("listing after cascade: got %+v", items)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/categories/trips", testToken, nil, "")
	if rr.Code != http.StatusNotFound {
		t.Errorf("delete twice: got %d, want 404", rr.Code)
	}
	rr = doRequest(t, srv, http.MethodDelete, "/api/categories/Uncategorized", testToken, nil, "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("delete Uncategorized: got %d, want 400", rr.Code)
	}
}
