// Package updater keeps the metrics file moving for the assessment demo: it
// rewrites a fresh snapshot every interval so the dashboard has live values.
package updater

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/okian/compass/internal/app/task"
	"github.com/okian/compass/internal/domain/simulate"
	"github.com/okian/compass/internal/domain/snapshot"
	"github.com/okian/compass/pkg/logger"
)

// Store reads and writes snapshots.
type Store interface {
	ReadOver(base snapshot.Snapshot) (snapshot.Snapshot, bool)
	Write(snap snapshot.Snapshot) error
	Now() time.Time
}

// Updater rewrites the store on a fixed interval.
type Updater struct {
	store  Store
	rng    *rand.Rand
	logger logger.Logger

	iteration        int
	totalPredictions int

	runner *task.Runner
}

// New creates an updater seeded from the store's current contents.
func New(store Store, interval time.Duration, opts ...Option) *Updater {
	u := &Updater{store: store}
	for _, opt := range opts {
		opt(u)
	}
	if u.rng == nil {
		u.rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	if u.logger == nil {
		u.logger = logger.Named("updater")
	}
	// Each counter falls back to its seed on its own, so a file without
	// total_predictions still starts from SeedTotalPredictions.
	snap, _ := store.ReadOver(snapshot.Snapshot{
		Iteration:        simulate.SeedIteration,
		TotalPredictions: simulate.SeedTotalPredictions,
	})
	u.iteration, u.totalPredictions = snap.Iteration, snap.TotalPredictions
	u.runner = task.New(task.StepFunc(u.Step), interval,
		task.WithName("updater"), task.WithLogger(u.logger))
	return u
}

// Start launches the update loop.
func (u *Updater) Start(ctx context.Context) {
	u.logger.Info(ctx, "updater started",
		logger.Int("iteration", u.iteration),
		logger.Int("total_predictions", u.totalPredictions))
	u.runner.Start(ctx)
}

// Stop asks the loop to end after the current cycle.
func (u *Updater) Stop() { u.runner.Stop() }

// Done is closed when the loop has ended.
func (u *Updater) Done() <-chan struct{} { return u.runner.Done() }

// Iteration returns the last iteration written.
func (u *Updater) Iteration() int { return u.iteration }

// Step writes the next snapshot. Write failures are logged and dropped.
func (u *Updater) Step(ctx context.Context) error {
	u.iteration++
	u.totalPredictions++
	snap := simulate.UpdaterCycle(u.rng, u.iteration, u.totalPredictions, u.store.Now())
	if err := u.store.Write(snap); err != nil {
		u.logger.Warn(ctx, "failed to write metrics", logger.Error(err))
		return nil
	}
	u.logger.Debug(ctx, "metrics updated",
		logger.Int("iteration", snap.Iteration),
		logger.Float64("accuracy", snap.Accuracy))
	return nil
}
