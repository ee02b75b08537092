package dashboard

import (
	"errors"
	"net/http"

	"github.com/okian/compass/internal/adapters/supervisor"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

type restartResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// handleRestart runs the configured restarter once; failures are reported, never retried.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.Named("dashboard").Named("restart")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, restartResponse{OK: false, Error: http.StatusText(http.StatusMethodNotAllowed)})
		return
	}
	if s.restarter == nil {
		writeJSON(w, http.StatusInternalServerError, restartResponse{OK: false, Error: ErrRestartDisabled.Error()})
		return
	}

	mode := s.restarter.Mode()
	msg, err := s.restarter.Restart(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, supervisor.ErrNotFound) {
			status = http.StatusBadRequest
		}
		metrics.RecordRestart(mode, "error")
		log.Warn(ctx, "restart failed", logger.String("mode", mode), logger.Error(err))
		writeJSON(w, status, restartResponse{OK: false, Error: err.Error()})
		return
	}
	metrics.RecordRestart(mode, "ok")
	log.Info(ctx, "restart triggered", logger.String("mode", mode))
	writeJSON(w, http.StatusOK, restartResponse{OK: true, Message: msg})
}
