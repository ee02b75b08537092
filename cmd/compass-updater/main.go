// Command compass-updater rewrites the metrics file every interval so the
// dashboard keeps showing fresh values.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/okian/compass/internal/adapters/store"
	"github.com/okian/compass/internal/app/bootstrap"
	"github.com/okian/compass/internal/app/updater"
	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.Setup(ctx, "updater")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Named("updater").Error(ctx, "updater stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	u := updater.New(store.New(cfg.MetricsFile), cfg.UpdaterInterval)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bootstrap.ServeMetrics(gctx, cfg.UpdaterMetricsAddr, "updater")
		return nil
	})
	g.Go(func() error {
		u.Start(gctx)
		<-u.Done()
		logger.Named("updater").Info(ctx, "updater stopped", logger.Int("iteration", u.Iteration()))
		return nil
	})
	return g.Wait()
}
