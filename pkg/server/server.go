// Package server provides the HTTP evaluation API for the clearance engine.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/config"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/audit"
	"github.com/PMeeske/ouroboros-foundation-sub003/pkg/ethics/engine"
)

// Server exposes the evaluation call contracts over HTTP. It is a
// transport for the engine, not an approval workflow: blocked outcomes are
// reported to the caller as ordinary clearance payloads.
type Server struct {
	config      *config.ServerConfig
	evaluator   engine.Evaluator
	auditLog    *audit.Log
	environment string
	registry    *prometheus.Registry
	metricsPath string
	logger      *slog.Logger

	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// Options configures optional server collaborators.
type Options struct {
	// Registry enables the metrics endpoint when non-nil.
	Registry *prometheus.Registry

	// MetricsPath is the metrics endpoint path (default "/metrics").
	MetricsPath string

	// Logger is the server logger.
	Logger *slog.Logger
}

// NewServer creates an evaluation API server.
func NewServer(cfg *config.ServerConfig, evaluator engine.Evaluator, auditLog *audit.Log, environment string, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("server config cannot be nil")
	}
	if evaluator == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if auditLog == nil {
		return nil, fmt.Errorf("audit log cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metricsPath := opts.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	return &Server{
		config:      cfg,
		evaluator:   evaluator,
		auditLog:    auditLog,
		environment: environment,
		registry:    opts.Registry,
		metricsPath: metricsPath,
		logger:      logger.With("component", "server"),
	}, nil
}

// Start runs the server until the context is cancelled or the listener
// fails.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	s.isRunning = true
	s.httpServer = &http.Server{
		Addr:         s.config.ListenAddress,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting evaluation server", "address", s.config.ListenAddress)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err := <-errChan:
		return err
	}
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("evaluation server stopped")
	})

	return shutdownErr
}

// IsRunning reports whether the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the configured HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/evaluate/{kind}", s.handleEvaluate)
	mux.HandleFunc("POST /v1/concerns", s.handleReportConcern)
	mux.HandleFunc("GET /v1/audit/{agent}", s.handleAuditHistory)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	if s.registry != nil {
		mux.Handle("GET "+s.metricsPath, promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	}

	var handler http.Handler = mux
	handler = s.loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = s.recoveryMiddleware(handler)
	return handler
}
