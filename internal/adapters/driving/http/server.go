package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/custodia-labs/policylens/internal/core/domain"
	"github.com/custodia-labs/policylens/internal/core/ports/driving"
	"github.com/custodia-labs/policylens/internal/metrics"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	logger     *slog.Logger

	version      string
	environment  domain.Environment
	maxBodyBytes int64
	batchLimit   int
	corsOrigins  []string

	// Services
	policyService driving.PolicyService
	authService   driving.AuthService // nil disables bearer verification

	// Infrastructure checked by /ready
	runtime *domain.RuntimeConfig
	checks  map[string]Pinger
}

// Config holds server configuration
type Config struct {
	Host         string
	Port         int
	Version      string
	Environment  domain.Environment
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxBodyBytes int64
	BatchLimit   int
	CORSOrigins  []string
	Logger       *slog.Logger
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:         "0.0.0.0",
		Port:         8080,
		Version:      "dev",
		Environment:  domain.EnvironmentDevelopment,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		MaxBodyBytes: 1 << 20,
		BatchLimit:   20,
		CORSOrigins:  []string{"*"},
	}
}

// Dependencies holds what the server routes to
type Dependencies struct {
	PolicyService driving.PolicyService
	AuthService   driving.AuthService
	Runtime       *domain.RuntimeConfig

	// Checks are pinged by /ready, keyed by component name
	Checks map[string]Pinger
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, deps Dependencies) *Server {
	def := DefaultConfig()
	if cfg.Version == "" {
		cfg.Version = def.Version
	}
	if cfg.Environment == "" {
		cfg.Environment = def.Environment
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = def.BatchLimit
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if deps.Runtime == nil {
		deps.Runtime = domain.NewRuntimeConfig(cfg.Environment)
	}

	s := &Server{
		router:        http.NewServeMux(),
		logger:        cfg.Logger,
		version:       cfg.Version,
		environment:   cfg.Environment,
		maxBodyBytes:  cfg.MaxBodyBytes,
		batchLimit:    cfg.BatchLimit,
		corsOrigins:   cfg.CORSOrigins,
		policyService: deps.PolicyService,
		authService:   deps.AuthService,
		runtime:       deps.Runtime,
		checks:        deps.Checks,
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	identify := NewAuthMiddleware(s.authService).Identify

	// Health endpoints
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	s.router.Handle("GET /metrics", metrics.Handler())
	s.router.HandleFunc("GET /api/v1/openapi.json", s.handleOpenAPI)

	// Policy endpoints
	s.router.Handle("POST /api/v1/analyze", identify(http.HandlerFunc(s.handleAnalyze)))
	s.router.HandleFunc("GET /api/v1/policies", s.handleGetPolicyByURL)
	s.router.HandleFunc("GET /api/v1/policies/{id}", s.handleGetPolicy)
	s.router.HandleFunc("GET /api/v1/policies/{id}/history", s.handleGetHistory)
	s.router.HandleFunc("POST /api/v1/classify", s.handleClassify)
}

// Handler returns the router wrapped in the middleware chain
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.router
	h = NewCORSMiddleware(s.corsOrigins).Handler(h)
	h = NewLoggingMiddleware(s.logger).Handler(h)
	h = NewRecoveryMiddleware(s.logger).Handler(h)
	return h
}

// Start serves until ctx is cancelled, then shuts down gracefully within shutdownTimeout
func (s *Server) Start(ctx context.Context, shutdownTimeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting http server", "addr", s.httpServer.Addr, "version", s.version)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// Stop stops the server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ParseOrigins splits a comma separated origin list
func ParseOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
