// Package server implements the HTTP server and routing for piwall.
package server

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/piwall/piwall/internal/catalog"
)

// Options holds optional configuration for the Server.
type Options struct {
	// UploadToken is the shared secret required on every mutating request.
	// If empty, mutating endpoints answer 400 until a token is configured.
	UploadToken string

	// StaticFS is the filesystem containing the frontend static assets.
	// If nil, the frontend is not served.
	StaticFS fs.FS

	// Logger receives the access log. If nil, logging is disabled.
	Logger *zap.Logger
}

// Server is the HTTP server for the media catalog.
type Server struct {
	router *mux.Router
	store  catalog.Catalog
	links  catalog.LinkStore // optional; nil disables link endpoints
	log    *zap.Logger
	opts   Options
}

// New creates and configures a new Server with the given stores and options.
func New(store catalog.Catalog, links catalog.LinkStore, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	s := &Server{
		router: mux.NewRouter(),
		store:  store,
		links:  links,
		log:    log,
		opts:   opts,
	}
	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler, delegating to the mux router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// registerRoutes sets up all endpoint routes. Mutating routes are wrapped
// with the upload-token middleware so the batch-wide credential check runs
// before any request body is read.
func (s *Server) registerRoutes() {
	r := s.router
	r.Use(requestLog(s.log))
	// The gallery page is typically served from another device on the LAN.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}))

	guard := uploadToken(s.opts.UploadToken)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	// Media listing, byte streams, upload, deletion
	r.HandleFunc("/api/media", s.handleListMedia).Methods(http.MethodGet)
	r.Handle("/api/media", guard(http.HandlerFunc(s.handleUpload))).Methods(http.MethodPost)
	r.Handle("/api/media", guard(http.HandlerFunc(s.handleDeleteMedia))).Methods(http.MethodDelete)
	r.Handle("/api/media/batch", guard(http.HandlerFunc(s.handleDeleteBatch))).Methods(http.MethodDelete)
	r.HandleFunc("/media/{path:.*}", s.handleServeMedia).Methods(http.MethodGet)

	// Category lifecycle
	r.HandleFunc("/api/categories", s.handleListCategories).Methods(http.MethodGet)
	r.Handle("/api/categories", guard(http.HandlerFunc(s.handleCreateCategory))).Methods(http.MethodPost)
	r.Handle("/api/categories/{name}", guard(http.HandlerFunc(s.handleUpdateCategory))).Methods(http.MethodPatch)
	r.Handle("/api/categories/{name}", guard(http.HandlerFunc(s.handleDeleteCategory))).Methods(http.MethodDelete)

	// External links
	r.Handle("/api/links", guard(http.HandlerFunc(s.handleAddLink))).Methods(http.MethodPost)

	// Frontend static assets.
	if s.opts.StaticFS != nil {
		r.PathPrefix("/").Handler(http.FileServer(http.FS(s.opts.StaticFS)))
	}
}

// handleHealth serves a simple health-check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
