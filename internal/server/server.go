// Package server provides the HTTP API for osusume.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/hyperjump/osusume/internal/catalog"
	"github.com/hyperjump/osusume/internal/config"
	"github.com/hyperjump/osusume/internal/importer"
	"github.com/hyperjump/osusume/internal/matching"
	"github.com/hyperjump/osusume/internal/recommend"
	"github.com/hyperjump/osusume/internal/storage"
	"github.com/hyperjump/osusume/internal/watcher"
)

// Server is the HTTP server for the osusume API.
type Server struct {
	recommender *recommend.Engine
	matcher     *matching.Engine
	storage     storage.Storage
	config      *config.Config
	logger      *zap.Logger
	server      *http.Server

	catalog  *catalog.Catalog
	importer *importer.Importer
	watch    *watcher.Watcher
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithCatalog enables the course search endpoint and keeps the index in step
// with course writes.
func WithCatalog(c *catalog.Catalog) Option {
	return func(s *Server) { s.catalog = c }
}

// WithImporter enables the seed import endpoint.
func WithImporter(imp *importer.Importer) Option {
	return func(s *Server) { s.importer = imp }
}

// WithWatcher exposes the watched seed directories on the status endpoint.
func WithWatcher(w *watcher.Watcher) Option {
	return func(s *Server) { s.watch = w }
}

// NewServer creates a server with the given dependencies.
func NewServer(
	recommender *recommend.Engine,
	matcher *matching.Engine,
	store storage.Storage,
	cfg *config.Config,
	logger *zap.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		recommender: recommender,
		matcher:     matcher,
		storage:     store,
		config:      cfg,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the chi router with all API routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Get("/health", s.handleHealth)
	r.Get("/api/v1/status", s.handleStatus)

	r.Post("/api/v1/recommendations", s.handleRecommend)
	r.Get("/api/v1/users/{id}/matches", s.handleMatches)
	r.Get("/api/v1/users/{id}/complementary", s.handleComplementary)
	r.Get("/api/v1/users/{id}/mentors", s.handleMentors)

	r.Get("/api/v1/courses/search", s.handleCourseSearch)
	r.Post("/api/v1/courses", s.handleCreateCourse)
	r.Get("/api/v1/courses/{id}", s.handleGetCourse)
	r.Delete("/api/v1/courses/{id}", s.handleDeleteCourse)

	r.Post("/api/v1/users", s.handleCreateUser)
	r.Get("/api/v1/users/{id}", s.handleGetUser)
	r.Delete("/api/v1/users/{id}", s.handleDeleteUser)

	r.Post("/api/v1/enrollments", s.handleCreateEnrollment)
	r.Delete("/api/v1/enrollments/{id}", s.handleDeleteEnrollment)

	r.Post("/api/v1/corpus/rebuild", s.handleCorpusRebuild)
	r.Post("/api/v1/import", s.handleImport)

	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
