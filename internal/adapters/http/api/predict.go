package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/compass/internal/adapters/http/middleware"
	"github.com/okian/compass/internal/domain/classifier"
	"github.com/okian/compass/pkg/errkind"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

// maxBodyBytes bounds the accepted request body.
const maxBodyBytes = 8 << 20

// PredictHandler handles prediction requests.
type PredictHandler struct {
	model Predictor
}

// NewPredictHandler creates a new predict handler; model may be nil.
func NewPredictHandler(model Predictor) *PredictHandler {
	return &PredictHandler{model: model}
}

type predictRequest struct {
	Features json.RawMessage `json:"features"`
}

type predictResponse struct {
	Predictions []int     `json:"predictions"`
	Confidences []float64 `json:"confidences"`
}

// HandlePredict handles POST /predict requests.
func (h *PredictHandler) HandlePredict(w http.ResponseWriter, r *http.Request) {
	const op = "api.predict"
	ctx := r.Context()
	log := logger.Named("api").Named("predict")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "")
		return
	}
	if h.model == nil {
		metrics.RecordPredictionError("model_not_loaded")
		writeError(w, http.StatusInternalServerError, "Model not loaded")
		return
	}

	// An unreadable body fails like any other request error: 500 with the message.
	var req predictRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		metrics.RecordPredictionError("bad_request")
		writeError(w, http.StatusInternalServerError, errkind.Wrap(op, ErrBadRequest, err).Error())
		return
	}

	X, err := parseFeatures(req.Features)
	switch {
	case errors.Is(err, ErrNoFeatures):
		metrics.RecordPredictionError("no_features")
		writeError(w, http.StatusBadRequest, "No features provided")
		return
	case err != nil:
		h.fail(w, r, err)
		return
	}

	start := time.Now()
	labels, err := h.model.Predict(X)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	proba, err := h.model.PredictProba(X)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	metrics.RecordPredictions(len(X), float64(time.Since(start).Microseconds())/1000)

	log.Debug(ctx, "served predictions",
		logger.Int("samples", len(X)), logger.String("request_id", middleware.RequestIDFrom(ctx)))
	writeJSON(w, http.StatusOK, predictResponse{Predictions: labels, Confidences: classifier.MaxProba(proba)})
}

func (h *PredictHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	metrics.RecordPredictionError("inference")
	logger.Named("api").Named("predict").Error(r.Context(), "prediction failed",
		logger.Error(err), logger.String("request_id", middleware.RequestIDFrom(r.Context())))
	writeError(w, http.StatusInternalServerError, err.Error())
}
