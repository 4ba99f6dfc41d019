// Package api exposes the decomposition pipeline over HTTP.
//
// The API is a thin shell around [pipeline.Runner]: requests carry a
// connectivity table inline as JSON, responses carry the decomposition
// document plus run metadata. Caching behaves exactly as in the CLI,
// since both share the runner.
//
// # Endpoints
//
//	GET  /healthz         - liveness probe
//	GET  /version         - build information
//	POST /v1/decompose    - decompose an inline connectivity table
//
// [pipeline.Runner]: github.com/matzehuels/tailwater/pkg/pipeline.Runner
package api

import (
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/tailwater/pkg/pipeline"
)

// requestTimeout bounds a single decomposition request. Continental-scale
// tables decompose in seconds; anything longer indicates a stuck client.
const requestTimeout = 60 * time.Second

// Server serves the decomposition API.
type Server struct {
	runner *pipeline.Runner
	logger *log.Logger
	router chi.Router
}

// NewServer creates a server around the given runner.
// If logger is nil, the runner's logger is used.
func NewServer(runner *pipeline.Runner, logger *log.Logger) *Server {
	if logger == nil {
		logger = runner.Logger
	}
	s := &Server{
		runner: runner,
		logger: logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/version", s.handleVersion)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/decompose", s.handleDecompose)
	})
	s.router = r

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// logRequests logs each request with method, path, status and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
