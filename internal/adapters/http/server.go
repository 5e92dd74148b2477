// Package http provides the HTTP server and handlers.
package http //nolint:revive // package name conflicts with stdlib but is acceptable in this context

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/jobrunner/geopipe/internal/application"
	"github.com/jobrunner/geopipe/internal/config"
	"github.com/jobrunner/geopipe/internal/ports/input"
)

// Services are the application services the handlers call.
type Services struct {
	Documents input.DocumentService
	Catalog   input.DocumentCatalog
	Health    input.HealthChecker
	Sync      SyncTrigger // nil disables POST /api/v1/sync
}

// SyncTrigger runs an on-demand catalog sync.
type SyncTrigger interface {
	TriggerSync(ctx context.Context) (application.SyncReport, error)
}

// Metrics exposes the metrics endpoint and request instrumentation.
type Metrics interface {
	Handler() http.Handler
	Middleware(next http.Handler) http.Handler
}

// Server wraps the HTTP server with application handlers.
type Server struct {
	server      *http.Server
	router      *mux.Router
	services    Services
	metrics     Metrics
	metricsPath string
	logger      *slog.Logger
	config      config.ServerConfig
	pipeline    config.PipelineConfig
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts the metrics handler at path and instruments requests.
func WithMetrics(m Metrics, path string) Option {
	return func(s *Server) {
		s.metrics = m
		s.metricsPath = path
	}
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg config.ServerConfig,
	pipeline config.PipelineConfig,
	services Services,
	logger *slog.Logger,
	opts ...Option,
) *Server {
	s := &Server{
		services: services,
		logger:   logger,
		config:   cfg,
		pipeline: pipeline,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRoutes()

	s.server = &http.Server{
		Addr:              cfg.Address(),
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	if s.metrics != nil {
		r.Use(s.metrics.Middleware)
	}
	if s.config.CORS.Enabled() {
		r.Use(corsMiddleware(s.config.CORS.AllowedOrigins))
	}

	// Health endpoints
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/health/live", s.handleLiveness).Methods(http.MethodGet)
	r.HandleFunc("/health/ready", s.handleReadiness).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()

	// Pipeline endpoints
	api.HandleFunc("/validate", s.handleValidate).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/build", s.handleBuild).Methods(http.MethodPost, http.MethodOptions)

	// Catalog endpoints
	api.HandleFunc("/documents", s.handleListDocuments).Methods(http.MethodGet)
	api.HandleFunc("/documents/{documentId}", s.handleGetDocument).Methods(http.MethodGet)
	if s.services.Sync != nil {
		api.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost, http.MethodOptions)
	}

	// OpenAPI spec and Swagger UI
	r.HandleFunc("/openapi.json", s.handleOpenAPI).Methods(http.MethodGet)
	r.HandleFunc("/docs", s.handleDocs).Methods(http.MethodGet)

	if s.metrics != nil && s.metricsPath != "" {
		r.Handle(s.metricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}

	return r
}

// Router returns the mux router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "address", s.config.Address())
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs incoming requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recoveryMiddleware recovers from panics.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered", "error", err, "path", r.URL.Path)
				s.writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
