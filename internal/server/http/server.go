// Package httpserver provides the HTTP REST API for the name
// normalization engine.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/milekpl/zotero-ner/internal/engine"
	"github.com/milekpl/zotero-ner/internal/learning"
	"github.com/milekpl/zotero-ner/internal/nameparse"
)

// HealthFunc reports whether the server's backing store is reachable.
// A nil HealthFunc means there is nothing beyond the process to check.
type HealthFunc func(ctx context.Context) error

// Server is the HTTP REST API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	engine     *engine.Engine
	learn      *learning.Engine
	parser     *nameparse.Parser
	health     HealthFunc
	validate   *validator.Validate
	logger     zerolog.Logger

	metricsPath string
}

// Config holds HTTP server configuration.
type Config struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MetricsPath exposes the Prometheus handler when non-empty.
	MetricsPath string
}

// NewServer creates a new HTTP server with all dependencies. health may
// be nil.
func NewServer(cfg Config, eng *engine.Engine, learn *learning.Engine, parser *nameparse.Parser, health HealthFunc, logger zerolog.Logger) *Server {
	s := &Server{
		engine:      eng,
		learn:       learn,
		parser:      parser,
		health:      health,
		validate:    validator.New(),
		logger:      logger.With().Str("component", "http-server").Logger(),
		metricsPath: cfg.MetricsPath,
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogMiddleware)

	r.Get("/healthz", s.healthHandler)
	if s.metricsPath != "" {
		r.Handle(s.metricsPath, promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Use(jsonContentTypeMiddleware)

		r.Post("/analyze", s.analyzeHandler)
		r.Post("/suggestions/apply", s.applySuggestionsHandler)
		r.Get("/mappings/{name}", s.getMappingHandler)
		r.Get("/mappings/{name}/similar", s.getSimilarMappingsHandler)
		r.Get("/variants/{name}", s.getVariantsHandler)
	})

	return r
}

// Router returns the configured handler, which lets tests drive the
// server through httptest without binding a socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler returns liveness status, including the backing store
// when a health check is configured.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:   "ok",
		Mappings: s.learn.MappingCount(),
	}
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			resp.Status = "unhealthy"
			resp.Error = err.Error()
			writeJSON(w, http.StatusServiceUnavailable, resp)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
