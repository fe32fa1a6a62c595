package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUploadToken_RejectedRequests(t *testing.T) {
	srv, dir := newTestServer(t, testToken)

	cases := []struct {
		name  string
		token string
	}{
		{"missing token", ""},
		{"wrong token", "wrong"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := uploadFiles(t, srv, tc.token, "", []filePart{{"a.jpg", "content"}})
			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("status: got %d, want 401", rr.Code)
			}
			var body map[string]string
			decodeBody(t, rr, &body)
			if body["error"] != "invalid upload token" {
				t.Errorf("error: got %q", body["error"])
			}
		})
	}

	// A rejected upload must leave the catalog untouched.
	if items := listMedia(t, srv, "/api/media"); len(items) != 0 {
		t.Errorf("catalog changed by rejected upload: %+v", items)
	}
	if _, err := os.Stat(filepath.Join(dir, "a.jpg")); !os.IsNotExist(err) {
		t.Errorf("rejected upload reached disk: %v", err)
	}
}

func TestUploadToken_NotConfigured(t *testing.T) {
	srv, _ := newTestServer(t, "")

	rr := uploadFiles(t, srv, "anything", "", []filePart{{"a.jpg", "x"}})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want 400", rr.Code)
	}
	var body map[string]string
	decodeBody(t, rr, &body)
	if body["error"] != "upload token not configured on server" {
		t.Errorf("error: got %q", body["error"])
	}
}

func TestUploadToken_GuardsDeletion(t *testing.T) {
	srv, dir := newTestServer(t, testToken)
	if err := os.WriteFile(filepath.Join(dir, "keep.jpg"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	rr := doRequest(t, srv, http.MethodDelete, "/api/media?path=keep.jpg", "wrong", nil, "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want 401", rr.Code)
	}
	if _, err := os.Stat(filepath.Join(dir, "keep.jpg")); err != nil {
		t.Errorf("file deleted despite rejected token: %v", err)
	}

	rr = doRequest(t, srv, http.MethodDelete, "/api/media/batch", "wrong",
		strings.NewReader(`["keep.jpg"]`), "application/json")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("batch status: got %d, want 401", rr.Code)
	}
}

func TestUploadToken_GuardsCategoryMutations(t *testing.T) {
	srv, _ := newTestServer(t, testToken)

	reqs := []struct {
		method, target, body string
	}{
		{http.MethodPost, "/api/categories", `{"name":"trips"}`},
		{http.MethodPatch, "/api/categories/trips", `{"name":"travel"}`},
		{http.MethodDelete, "/api/categories/trips", ""},
		{http.MethodPost, "/api/links", `{"url":"https://example.com"}`},
	}
	for _, rq := range reqs {
		rr := doRequest(t, srv, rq.method, rq.target, "", strings.NewReader(rq.body), "application/json")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: got %d, want 401", rq.method, rq.target, rr.Code)
		}
	}
}

func TestReadEndpoints_NoTokenRequired(t *testing.T) {
	srv, _ := newTestServer(t, testToken)

	for _, target := range []string{"/health", "/api/media", "/api/categories"} {
		rr := doRequest(t, srv, http.MethodGet, target, "", nil, "")
		if rr.Code != http.StatusOK {
			t.Errorf("GET %s: got %d, want 200", target, rr.Code)
		}
	}
}
