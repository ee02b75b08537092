// Package api serves the prediction HTTP contract.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/compass/internal/adapters/http/middleware"
	"github.com/okian/compass/pkg/metrics"
)

// Predictor is the classifier surface the API needs.
type Predictor interface {
	Predict(X [][]float64) ([]int, error)
	PredictProba(X [][]float64) ([][]float64, error)
}

// Server wires HTTP routes for the prediction service.
type Server struct {
	healthHandler  *HealthHandler
	predictHandler *PredictHandler
}

// NewServer creates a new API server. model may be nil when loading failed;
// predictions are then refused while health keeps reporting.
func NewServer(model Predictor) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(model != nil),
		predictHandler: NewPredictHandler(model),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/health", middleware.Metrics(s.healthHandler.HandleHealth, "health"))
	mux.HandleFunc("/predict", middleware.Metrics(s.predictHandler.HandlePredict, "predict"))
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	if msg == "" {
		msg = http.StatusText(status)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
