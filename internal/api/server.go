// Package api implements the bowtie HTTP API.
//
// The API exposes the compile pipeline over HTTP and a small diagram store
// so clients can re-fetch compiled diagrams without resubmitting documents.
//
// # Endpoints
//
//	GET    /healthz                  liveness probe
//	POST   /v1/compile               compile a document, return the model
//	POST   /v1/diagrams              compile and store a document
//	GET    /v1/diagrams              list stored diagrams, newest first
//	GET    /v1/diagrams/{id}         fetch a stored diagram
//	GET    /v1/diagrams/{id}/svg     render a stored diagram as SVG
//	DELETE /v1/diagrams/{id}         delete a stored diagram
//
// Compile requests take the document as a text/plain body. Validation
// failures return 422 with the full accumulated issue list; parse and
// structural failures return 400 with a single error.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/risklens/bowtie/pkg/pipeline"
	"github.com/risklens/bowtie/pkg/store"
)

// Server is the bowtie HTTP API server.
type Server struct {
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	http   *http.Server
}

// Config configures the API server.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// Runner executes compile pipelines. Required.
	Runner *pipeline.Runner

	// Store persists diagrams. Required.
	Store store.Store

	// Logger receives request and lifecycle logs. Defaults to log.Default().
	Logger *log.Logger
}

// NewServer creates an API server with all routes registered.
func NewServer(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	s := &Server{
		runner: cfg.Runner,
		store:  cfg.Store,
		logger: cfg.Logger,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/compile", s.handleCompile)
		r.Route("/diagrams", func(r chi.Router) {
			r.Post("/", s.handleCreateDiagram)
			r.Get("/", s.handleListDiagrams)
			r.Get("/{id}", s.handleGetDiagram)
			r.Get("/{id}/svg", s.handleDiagramSVG)
			r.Delete("/{id}", s.handleDeleteDiagram)
		})
	})

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// ListenAndServe runs the server until ctx is cancelled or the listener fails.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.http.Addr)
		errc <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
