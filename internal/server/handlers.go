package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gorilla/mux"

	"github.com/piwall/piwall/internal/catalog"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// handleListMedia serves the merged media listing: file-backed entries from
// the store plus link entries from the registry, newest first. The optional
// ?category= parameter filters by exact category path; its absence is the
// all-categories sentinel.
func (s *Server) handleListMedia(w http.ResponseWriter, r *http.Request) {
	items, err := s.store.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog error")
		return
	}
	if s.links != nil {
		linkItems, err := s.links.List()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "link registry error")
			return
		}
		items = append(items, linkItems...)
	}

	q := r.URL.Query()
	if q.Has("category") {
		items = catalog.FilterByCategory(items, q.Get("category"))
	}

	sort.Slice(items, func(i, j int) bool {
		if !items[i].Modified.Equal(items[j].Modified) {
			return items[i].Modified.After(items[j].Modified)
		}
		return items[i].Path < items[j].Path
	})

	if items == nil {
		items = []catalog.Media{}
	}
	writeJSON(w, http.StatusOK, items)
}

// handleServeMedia streams the bytes of one file-backed media entry.
// Escaping paths and absent files both answer 404.
func (s *Server) handleServeMedia(w http.ResponseWriter, r *http.Request) {
	rel := mux.Vars(r)["path"]

	abs, err := s.store.FilePath(rel)
	if err != nil {
		writeError(w, http.StatusNotFound, "media not found")
		return
	}

	f, err := os.Open(abs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "media unavailable")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "media unavailable")
		return
	}

	if ct := mime.TypeByExtension(filepath.Ext(abs)); ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	http.ServeContent(w, r, filepath.Base(abs), info.ModTime(), f)
}

// handleUpload accepts a multipart/form-data POST with one or more file
// parts and an optional category field or ?category= parameter. Parts are
// processed in submission order, each producing an independent outcome; a
// failed file never aborts its siblings. 201 when every file stored,
// 207 Multi-Status otherwise.
//
// The body is processed as a stream, so a category form field only applies
// to the file parts that follow it.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	mr, err := r.MultipartReader()
	if err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart/form-data")
		return
	}

	category := r.URL.Query().Get("category")
	var results []catalog.UploadOutcome

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed multipart body")
			return
		}
		switch {
		case part.FileName() == "" && part.FormName() == "category":
			data, _ := io.ReadAll(io.LimitReader(part, 4096))
			category = strings.TrimSpace(string(data))
		case part.FileName() != "":
			results = append(results, s.storeUpload(category, part))
		}
		_ = part.Close()
	}

	if len(results) == 0 {
		writeError(w, http.StatusBadRequest, "no files provided")
		return
	}

	hasSuccess, hasError := false, false
	for _, res := range results {
		if res.Status == catalog.StatusSuccess {
			hasSuccess = true
		} else {
			hasError = true
		}
	}

	status := http.StatusMultiStatus
	message := "upload failed"
	if hasSuccess {
		message = "uploaded"
		if !hasError {
			status = http.StatusCreated
		}
	}
	writeJSON(w, status, map[string]interface{}{
		"message": message,
		"results": results,
	})
}

// storeUpload persists one file part and converts the result into an outcome.
func (s *Server) storeUpload(category string, part *multipart.Part) catalog.UploadOutcome {
	name := part.FileName()
	m, err := s.store.Save(category, name, part)
	if err != nil {
		return catalog.UploadOutcome{
			Name:    name,
			Status:  catalog.StatusError,
			Message: uploadErrorMessage(err),
		}
	}
	return catalog.UploadOutcome{
		Name:    name,
		Status:  catalog.StatusSuccess,
		Message: "uploaded",
		Path:    m.Path,
	}
}

// uploadErrorMessage maps a store error to the human-readable per-file reason.
func uploadErrorMessage(err error) string {
	switch {
	case errors.Is(err, catalog.ErrDisallowedExtension):
		return "file type not allowed"
	case errors.Is(err, catalog.ErrTooLarge):
		return "file too large"
	case errors.Is(err, catalog.ErrInvalidName):
		return "invalid filename"
	case errors.Is(err, catalog.ErrInvalidPath):
		return "invalid category path"
	default:
		return "upload failed"
	}
}

// deleteOne removes a single media entry, link or file, and reports the
// outcome. Link IDs are tried against the registry first; everything else
// goes through the path resolver and the filesystem store.
func (s *Server) deleteOne(p string) catalog.DeleteOutcome {
	if p == "" {
		return catalog.DeleteOutcome{
			Path: p, Status: catalog.StatusError,
			Message: "path is required", Code: http.StatusBadRequest,
		}
	}

	if s.links != nil {
		err := s.links.Remove(p)
		if err == nil {
			return catalog.DeleteOutcome{
				Path: p, Status: catalog.StatusSuccess,
				Message: "deleted", Code: http.StatusOK,
			}
		}
		if !errors.Is(err, catalog.ErrNotFound) {
			return catalog.DeleteOutcome{
				Path: p, Status: catalog.StatusError,
				Message: "failed to delete link", Code: http.StatusInternalServerError,
			}
		}
	}

	err := s.store.Remove(p)
	switch {
	case err == nil:
		return catalog.DeleteOutcome{
			Path: p, Status: catalog.StatusSuccess,
			Message: "deleted", Code: http.StatusOK,
		}
	case errors.Is(err, catalog.ErrNotFound):
		return catalog.DeleteOutcome{
			Path: p, Status: catalog.StatusError,
			Message: "media not found", Code: http.StatusNotFound,
		}
	case errors.Is(err, catalog.ErrInvalidPath):
		return catalog.DeleteOutcome{
			Path: p, Status: catalog.StatusError,
			Message: "invalid path", Code: http.StatusBadRequest,
		}
	case errors.Is(err, catalog.ErrDisallowedExtension):
		return catalog.DeleteOutcome{
			Path: p, Status: catalog.StatusError,
			Message: "file type not allowed", Code: http.StatusBadRequest,
		}
	default:
		return catalog.DeleteOutcome{
			Path: p, Status: catalog.StatusError,
			Message: "failed to delete file", Code: http.StatusInternalServerError,
		}
	}
}

// handleDeleteMedia removes a single media entry named by the ?path=
// parameter. It is the degenerate batch of size one.
func (s *Server) handleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Query().Get("path")
	if p == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	outcome := s.deleteOne(p)
	if outcome.Status != catalog.StatusSuccess {
		writeError(w, outcome.Code, outcome.Message)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "deleted", "path": p})
}

// handleDeleteBatch removes many media entries, reporting one outcome per
// submitted path in submission order. The aggregate status distinguishes
// all-success (200), mixed (207) and all-failure (404 when nothing existed,
// otherwise the lowest per-item code).
func (s *Server) handleDeleteBatch(w http.ResponseWriter, r *http.Request) {
	var paths []string
	if err := json.NewDecoder(r.Body).Decode(&paths); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(paths) == 0 {
		writeError(w, http.StatusBadRequest, "provide at least one path to delete")
		return
	}

	results := make([]catalog.DeleteOutcome, 0, len(paths))
	for _, p := range paths {
		results = append(results, s.deleteOne(p))
	}

	writeJSON(w, batchStatus(results), map[string]interface{}{"results": results})
}

// batchStatus classifies a batch outcome list into one HTTP status.
func batchStatus(results []catalog.DeleteOutcome) int {
	hasSuccess, hasError := false, false
	allNotFound := true
	minCode := 0
	for _, res := range results {
		if res.Status == catalog.StatusSuccess {
			hasSuccess = true
			continue
		}
		hasError = true
		if res.Code != http.StatusNotFound {
			allNotFound = false
		}
		if minCode == 0 || res.Code < minCode {
			minCode = res.Code
		}
	}
	switch {
	case hasSuccess && hasError:
		return http.StatusMultiStatus
	case hasSuccess:
		return http.StatusOK
	case allNotFound:
		return http.StatusNotFound
	default:
		return minCode
	}
}

// addLinkRequest is the JSON body accepted by POST /api/links.
type addLinkRequest struct {
	URL      string `json:"url"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

// handleAddLink registers an external https URL as a media entry.
func (s *Server) handleAddLink(w http.ResponseWriter, r *http.Request) {
	if s.links == nil {
		writeError(w, http.StatusNotImplemented, "link registry not available")
		return
	}

	var req addLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	m, err := s.links.Add(req.URL, req.Name, req.Category)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, m)
	case errors.Is(err, catalog.ErrInvalidURL):
		writeError(w, http.StatusBadRequest, "only https URLs are accepted")
	case errors.Is(err, catalog.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid category path")
	default:
		writeError(w, http.StatusInternalServerError, "failed to save link")
	}
}
