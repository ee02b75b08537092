// Package bootstrap is the process plumbing shared by the compass binaries:
// configuration, logging and metrics setup, and an HTTP server with graceful
// shutdown.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 30 * time.Second
)

// Setup initializes logging, loads configuration (defaults -> optional file ->
// env), applies the configured log format and level, and builds the metrics
// registry labelled with service.
func Setup(ctx context.Context, service string) (*config.Config, error) {
	if err := logger.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat)); err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	metrics.Init(
		metrics.WithNamespace(cfg.MetricsNamespace),
		metrics.WithService(service),
		metrics.WithHistogramBuckets(metrics.MillisecondBuckets),
	)
	return cfg, nil
}

// ServerOption adjusts an http.Server built by NewHTTPServer.
type ServerOption func(*http.Server)

// WithWriteTimeout overrides the write timeout. Handlers that block longer than
// the default, such as a restart waiting on a stop script, need it raised so
// their response still reaches the client.
func WithWriteTimeout(d time.Duration) ServerOption {
	return func(s *http.Server) {
		if d > 0 {
			s.WriteTimeout = d
		}
	}
}

// NewHTTPServer builds a server with the standard timeouts.
func NewHTTPServer(addr string, handler http.Handler, opts ...ServerOption) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	for _, opt := range opts {
		opt(srv)
	}
	return srv
}

// DefaultWriteTimeout is the write timeout NewHTTPServer applies.
func DefaultWriteTimeout() time.Duration { return writeTimeout }

// MetricsHandler serves the process registry at /metrics and a liveness check
// at /health.
func MetricsHandler(service string) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write([]byte(`{"status":"ok","service":"` + service + `"}` + "\n"))
	})
	return mux
}

// ServeMetrics runs a metrics-only listener on addr until ctx is cancelled. An
// empty addr disables it. Failures are logged and never returned, so a busy
// port does not stop the process it observes.
func ServeMetrics(ctx context.Context, addr, service string) {
	if addr == "" {
		return
	}
	if err := Serve(ctx, NewHTTPServer(addr, MetricsHandler(service))); err != nil {
		logger.Named("http").Warn(ctx, "metrics listener stopped",
			logger.String("addr", addr), logger.Error(err))
	}
}

// Serve runs srv until ctx is cancelled, then shuts it down within
// ShutdownTimeout. A listen failure is returned immediately.
func Serve(ctx context.Context, srv *http.Server) error {
	log := logger.Named("http")
	errc := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", srv.Addr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info(ctx, "shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info(ctx, "server stopped")
	return nil
}
