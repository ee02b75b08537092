// Package monitor is the drift monitor: a client of the prediction service
// that feeds it synthetic batches, shifts them after a number of iterations,
// and writes a simulated accuracy to the metrics store.
package monitor

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"github.com/okian/compass/internal/adapters/predictclient"
	"github.com/okian/compass/internal/app/task"
	"github.com/okian/compass/internal/domain/dataset"
	"github.com/okian/compass/internal/domain/simulate"
	"github.com/okian/compass/internal/domain/snapshot"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

// DriftShift is added to feature 0 of every row once drift is active.
const DriftShift = 2.0

// Predictor posts a batch to the prediction service.
type Predictor interface {
	Predict(ctx context.Context, features [][]float64) (predictclient.Result, error)
	URL() string
}

// Store persists snapshots.
type Store interface {
	Write(snap snapshot.Snapshot) error
	Now() time.Time
}

// Settings are the monitor's tunables.
type Settings struct {
	Interval          time.Duration
	DriftIterations   int
	AccuracyThreshold float64
	SamplesPerCheck   int
}

// Monitor holds the state carried between cycles.
type Monitor struct {
	client   Predictor
	store    Store
	settings Settings
	rng      *rand.Rand
	logger   logger.Logger

	iteration        int
	totalPredictions int

	runner *task.Runner
}

// New creates a monitor. Nothing runs until Start.
func New(client Predictor, store Store, settings Settings, opts ...Option) *Monitor {
	m := &Monitor{
		client:   client,
		store:    store,
		settings: settings,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if m.logger == nil {
		m.logger = logger.Named("monitor")
	}
	m.runner = task.New(task.StepFunc(m.Step), settings.Interval,
		task.WithName("monitor"), task.WithLogger(m.logger))
	return m
}

// Start launches the monitoring loop.
func (m *Monitor) Start(ctx context.Context) {
	m.logger.Info(ctx, "monitor started",
		logger.String("api_url", m.client.URL()),
		logger.Duration("interval", m.settings.Interval),
		logger.Int("drift_after", m.settings.DriftIterations),
		logger.Float64("accuracy_threshold", m.settings.AccuracyThreshold),
	)
	m.runner.Start(ctx)
}

// Stop asks the loop to end after the current cycle.
func (m *Monitor) Stop() { m.runner.Stop() }

// Done is closed when the loop has ended.
func (m *Monitor) Done() <-chan struct{} { return m.runner.Done() }

// Iteration returns the last iteration number.
func (m *Monitor) Iteration() int { return m.iteration }

// TotalPredictions returns the running prediction count.
func (m *Monitor) TotalPredictions() int { return m.totalPredictions }

// Step runs one monitoring cycle. API failures end the cycle without
// touching the store and are not returned; the loop keeps going.
func (m *Monitor) Step(ctx context.Context) error {
	m.iteration++
	drift := simulate.DriftActive(m.iteration, m.settings.DriftIterations)
	log := m.logger
	log.Info(ctx, "checking model performance", logger.Int("iteration", m.iteration))

	opts := dataset.DefaultOptions()
	opts.Samples = m.settings.SamplesPerCheck
	X, _ := dataset.Generate(m.rng, opts)
	if drift {
		dataset.Shift(X, 0, DriftShift)
		log.Warn(ctx, "simulating data drift", logger.Int("iteration", m.iteration))
	}

	res, err := m.client.Predict(ctx, X)
	if err != nil {
		switch {
		case errors.Is(err, predictclient.ErrConnection):
			metrics.RecordMonitorAPIError("connection")
			log.Error(ctx, "could not reach prediction API, is it running?",
				logger.String("api_url", m.client.URL()), logger.Error(err))
		default:
			metrics.RecordMonitorAPIError("request")
			log.Error(ctx, "prediction request failed", logger.Error(err))
		}
		return nil
	}

	accuracy := snapshot.Round(simulate.MonitorAccuracy(m.rng, drift), 4)
	received := len(res.Predictions)
	m.totalPredictions += received

	snap := snapshot.Snapshot{
		Iteration:        m.iteration,
		Accuracy:         accuracy,
		DriftActive:      drift,
		TotalPredictions: m.totalPredictions,
	}
	snap.Stamp(m.store.Now())
	if err := m.store.Write(snap); err != nil {
		log.Warn(ctx, "failed to write metrics", logger.Error(err))
	}
	metrics.RecordMonitorCycle(accuracy, drift)

	log.Info(ctx, "received predictions",
		logger.Int("count", received),
		logger.String("request_id", res.RequestID),
		logger.Float64("accuracy", accuracy),
		logger.Float64("threshold", m.settings.AccuracyThreshold),
	)
	if accuracy < m.settings.AccuracyThreshold {
		metrics.RecordDegradation()
		log.Warn(ctx, "model performance degraded; retraining should be triggered",
			logger.Float64("accuracy", accuracy))
	} else {
		log.Info(ctx, "model performance is OK")
	}
	return nil
}
