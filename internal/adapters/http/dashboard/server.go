// Package dashboard serves the metrics page, the polling endpoint, and the restart action.
package dashboard

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/compass/internal/adapters/http/middleware"
	"github.com/okian/compass/internal/adapters/supervisor"
	"github.com/okian/compass/internal/domain/snapshot"
	"github.com/okian/compass/pkg/metrics"
)

const templateFallback = "<h1>Dashboard</h1><p>Template error.</p>"

// MetricsSource reads the latest snapshot, falling back to defaults.
type MetricsSource interface {
	ReadOrDefault() (snapshot.Snapshot, bool)
}

// Server wires HTTP routes for the dashboard.
type Server struct {
	source    MetricsSource
	restarter supervisor.Restarter
	tmpl      *template.Template
	tmplErr   error
	title     string
	poll      time.Duration
}

// Option configures the Server.
type Option func(*Server)

// WithTemplate replaces the embedded index template.
func WithTemplate(t *template.Template) Option {
	return func(s *Server) {
		s.tmpl, s.tmplErr = t, nil
	}
}

// WithTitle sets the page title.
func WithTitle(title string) Option {
	return func(s *Server) {
		if title != "" {
			s.title = title
		}
	}
}

// WithPollInterval sets how often the page refreshes metrics.
func WithPollInterval(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.poll = d
		}
	}
}

// NewServer creates a dashboard server. restarter may be nil to disable restarts.
func NewServer(source MetricsSource, restarter supervisor.Restarter, opts ...Option) *Server {
	s := &Server{
		source:    source,
		restarter: restarter,
		title:     "MLOps Dashboard",
		poll:      2 * time.Second,
	}
	s.tmpl, s.tmplErr = parseTemplates()
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", middleware.Metrics(s.handleHealth, "health"))
	mux.HandleFunc("/api/metrics", middleware.Metrics(s.handleMetrics, "api_metrics"))
	mux.HandleFunc("/api/restart", middleware.Metrics(s.handleRestart, "api_restart"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/", middleware.Metrics(s.handleIndex, "index"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: "dashboard"})
}

// handleMetrics always answers 200; unreadable files yield the default view.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	snap, _ := s.source.ReadOrDefault()
	writeJSON(w, http.StatusOK, snap.View())
}

// MirrorSnapshot publishes snap to the snapshot gauges.
func MirrorSnapshot(snap snapshot.Snapshot) {
	v := metrics.SnapshotValues{
		Iteration:        snap.Iteration,
		Accuracy:         snap.Accuracy,
		DriftActive:      snap.DriftActive,
		TotalPredictions: snap.TotalPredictions,
		DimensionScores:  snap.DimensionScores,
	}
	if snap.OverallLevel != nil {
		v.OverallLevel = *snap.OverallLevel
	}
	metrics.UpdateSnapshot(v)
}
