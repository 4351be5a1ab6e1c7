// Package server exposes the arrangement pipeline over HTTP.
//
// # Routes
//
//	GET    /healthz                              liveness and build info
//	POST   /v1/arrange                           arrange a configuration
//	GET    /v1/layouts                           list stored layouts
//	GET    /v1/layouts/{id}                      fetch a layout
//	DELETE /v1/layouts/{id}                      delete a layout
//	GET    /v1/layouts/{id}/render/{format}      render a stored layout
//
// POST /v1/arrange accepts a TOML, YAML or JSON configuration. The format is
// taken from the "format" query parameter or else from the Content-Type
// header, defaulting to JSON. Complete layouts are saved and returned with
// 201 Created; an arrangement that does not complete answers 422 with the
// partial layout and is not saved.
//
// Errors are JSON objects carrying the machine-readable code:
//
//	{"error": {"code": "LAYOUT_NOT_FOUND", "message": "layout ... not found"}}
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/warren/pkg/builder"
	"github.com/matzehuels/warren/pkg/pipeline"
	"github.com/matzehuels/warren/pkg/store"
)

// Defaults for [Config].
const (
	DefaultArrangeTimeout  = 30 * time.Second
	DefaultMaxBodyBytes    = 1 << 20
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures a [Server].
type Config struct {
	Runner         *pipeline.Runner  // Required
	Store          store.Store       // Required
	Registry       *builder.Registry // Template kinds, nil for the built-in ones
	Logger         *log.Logger       // nil discards request logs
	ArrangeTimeout time.Duration     // Per request search deadline
	MaxBodyBytes   int64             // Largest accepted configuration
	Defaults       pipeline.Options  // Base options for every request
}

// Server is the HTTP API.
type Server struct {
	runner   *pipeline.Runner
	store    store.Store
	registry *builder.Registry
	logger   *log.Logger
	timeout  time.Duration
	maxBody  int64
	defaults pipeline.Options
	router   chi.Router
}

// New builds the server and its routes.
func New(cfg Config) (*Server, error) {
	if cfg.Runner == nil {
		return nil, errors.New("server: runner is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("server: store is required")
	}
	s := &Server{
		runner:   cfg.Runner,
		store:    cfg.Store,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		timeout:  cfg.ArrangeTimeout,
		maxBody:  cfg.MaxBodyBytes,
		defaults: cfg.Defaults,
	}
	if s.logger == nil {
		s.logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if s.timeout <= 0 {
		s.timeout = DefaultArrangeTimeout
	}
	if s.maxBody <= 0 {
		s.maxBody = DefaultMaxBodyBytes
	}
	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.observe)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/arrange", s.handleArrange)
		r.Route("/layouts", func(r chi.Router) {
			r.Get("/", s.handleList)
			r.Get("/{id}", s.handleGet)
			r.Delete("/{id}", s.handleDelete)
			r.Get("/{id}/render/{format}", s.handleRender)
		})
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no route for "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", r.Method+" not allowed on "+r.URL.Path)
	})
	return r
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
