// Command compass-monitor polls the prediction service with synthetic
// batches and records a simulated accuracy in the metrics file.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/okian/compass/internal/adapters/predictclient"
	"github.com/okian/compass/internal/adapters/store"
	"github.com/okian/compass/internal/app/bootstrap"
	"github.com/okian/compass/internal/app/monitor"
	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.Setup(ctx, "monitor")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	if err := run(ctx, cfg); err != nil {
		logger.Named("monitor").Error(ctx, "monitor stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// run drives the monitor loop next to its metrics listener until ctx ends.
func run(ctx context.Context, cfg *config.Config) error {
	m := newMonitor(cfg)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		bootstrap.ServeMetrics(gctx, cfg.MonitorMetricsAddr, "monitor")
		return nil
	})
	g.Go(func() error {
		m.Start(gctx)
		<-m.Done()
		logger.Named("monitor").Info(ctx, "monitor stopped", logger.Int("iterations", m.Iteration()))
		return nil
	})
	return g.Wait()
}

func newMonitor(cfg *config.Config) *monitor.Monitor {
	client := predictclient.New(cfg.APIURL, cfg.RequestTimeout)
	return monitor.New(client, store.New(cfg.MetricsFile), monitor.Settings{
		Interval:          cfg.MonitorInterval,
		DriftIterations:   cfg.DriftIterations,
		AccuracyThreshold: cfg.AccuracyThreshold,
		SamplesPerCheck:   cfg.SamplesPerCheck,
	})
}
