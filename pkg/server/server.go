package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"opengate-hq/keeper/pkg/config"
	"opengate-hq/keeper/pkg/telemetry/health"
	"opengate-hq/keeper/pkg/telemetry/metrics"
)

// DefaultShutdownTimeout bounds how long Shutdown waits for in-flight scrapes.
const DefaultShutdownTimeout = 5 * time.Second

// BuildInfo is reported by the /version endpoint.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Server is the ops HTTP server exposing metrics and health probes.
type Server struct {
	config          *config.MetricsConfig
	collector       *metrics.Collector
	checker         *health.Checker
	build           BuildInfo
	shutdownTimeout time.Duration

	httpServer   *http.Server
	listener     net.Listener
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates an ops server. collector and checker may be nil, in which
// case the matching endpoints are not registered.
func NewServer(cfg *config.MetricsConfig, collector *metrics.Collector, checker *health.Checker, build BuildInfo) *Server {
	return &Server{
		config:          cfg,
		collector:       collector,
		checker:         checker,
		build:           build,
		shutdownTimeout: DefaultShutdownTimeout,
	}
}

// Start binds the listen address and serves until ctx is cancelled or the
// server fails. It shuts the server down before returning.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting ops server",
			"address", ln.Addr().String(),
			"metrics_path", s.metricsPath(),
		)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
}

// Shutdown gracefully stops the server. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		srv := s.httpServer
		s.mu.Unlock()

		shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("error during ops server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		slog.Info("ops server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Handler returns the ops routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	if s.collector != nil {
		mux.Handle(s.metricsPath(), s.collector.Handler())
	}
	if s.checker != nil {
		health.Register(mux, s.checker, s.build.Version, s.build.Commit, s.build.BuildTime)
	}

	return recovery(mux)
}

func (s *Server) metricsPath() string {
	if s.config.Path == "" {
		return config.DefaultMetricsPath
	}
	return s.config.Path
}

func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("panic in ops handler", "path", r.URL.Path, "panic", err)
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
