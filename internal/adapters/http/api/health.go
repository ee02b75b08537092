package api

import (
	"net/http"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	modelLoaded bool
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(modelLoaded bool) *HealthHandler {
	return &HealthHandler{modelLoaded: modelLoaded}
}

type healthResponse struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	ModelLoaded bool   `json:"model_loaded"`
}

// HandleHealth handles GET /health requests.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "")
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: "predict", ModelLoaded: h.modelLoaded})
}
