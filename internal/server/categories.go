package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/piwall/piwall/internal/catalog"
)

// handleListCategories serves the {name, path} category list, the implicit
// Uncategorized entry first.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.store.Categories()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "catalog error")
		return
	}
	writeJSON(w, http.StatusOK, cats)
}

// createCategoryRequest is the JSON body accepted by POST /api/categories.
type createCategoryRequest struct {
	Name string `json:"name"`
}

// handleCreateCategory creates a directory named name under the media root.
func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	cat, err := s.store.CreateCategory(req.Name)
	switch {
	case err == nil:
		writeJSON(w, http.StatusCreated, cat)
	case errors.Is(err, catalog.ErrExists):
		writeError(w, http.StatusConflict, "category already exists")
	case errors.Is(err, catalog.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid category name")
	default:
		writeError(w, http.StatusInternalServerError, "failed to create category")
	}
}

// updateCategoryRequest is the JSON body accepted by PATCH
// /api/categories/{name}. Nil fields are left unchanged.
type updateCategoryRequest struct {
	Name *string `json:"name"`
	Path *string `json:"path"`
}

// handleUpdateCategory renames/moves a category directory. All contained
// media inherit the new path because category membership is derived from
// directory location.
func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req updateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == nil && req.Path == nil {
		writeError(w, http.StatusBadRequest, "no updates provided")
		return
	}

	cat, err := s.store.RenameCategory(name, req.Name, req.Path)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, cat)
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, catalog.ErrExists):
		writeError(w, http.StatusConflict, "destination already exists")
	case errors.Is(err, catalog.ErrInvalidName), errors.Is(err, catalog.ErrInvalidPath):
		writeError(w, http.StatusBadRequest, "invalid category name or path")
	default:
		writeError(w, http.StatusInternalServerError, "failed to update category")
	}
}

// handleDeleteCategory removes a category directory and every media item it
// contains. The cascade is deliberate; clients are expected to confirm
// before calling.
func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	cat, err := s.store.DeleteCategory(name)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, cat)
	case errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "category not found")
	case errors.Is(err, catalog.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalid category name")
	default:
		writeError(w, http.StatusInternalServerError, "failed to delete category")
	}
}
