// Command compass-dashboard serves the metrics page and the restart action.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/compass/internal/adapters/http/dashboard"
	"github.com/okian/compass/internal/adapters/http/middleware"
	"github.com/okian/compass/internal/adapters/store"
	"github.com/okian/compass/internal/adapters/supervisor"
	"github.com/okian/compass/internal/app/bootstrap"
	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/pkg/logger"
)

const (
	// restartResponseSlack is the time left to write a restart reply after the
	// stop script has used its whole budget.
	restartResponseSlack = 5 * time.Second
	watchRetryInterval   = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.Setup(ctx, "dashboard")
	if err != nil {
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("dashboard")

	st := store.New(cfg.MetricsFile)
	restarter := newRestarter(cfg)
	log.Info(ctx, "dashboard configured",
		logger.String("metrics_file", cfg.MetricsFile),
		logger.String("restart_mode", restarter.Mode()))

	srv := newHTTPServer(cfg, newHandler(ctx, st, restarter))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bootstrap.Serve(gctx, srv) })
	g.Go(func() error {
		watchSnapshots(gctx, st, watchRetryInterval)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error(ctx, "dashboard stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

func newHandler(ctx context.Context, st *store.Store, r supervisor.Restarter) http.Handler {
	mux := http.NewServeMux()
	dashboard.NewServer(st, r).Register(ctx, mux)
	return middleware.RequestID(mux)
}

// newHTTPServer raises the write timeout above the longest a restart can
// block, so a stop timeout is still reported to the client.
func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return bootstrap.NewHTTPServer(cfg.DashboardAddr, h,
		bootstrap.WithWriteTimeout(restartWriteTimeout(cfg)))
}

func restartWriteTimeout(cfg *config.Config) time.Duration {
	return max(bootstrap.DefaultWriteTimeout(), cfg.StopTimeout+supervisor.StopWaitDelay+restartResponseSlack)
}

// watchSnapshots mirrors the metrics file into gauges until ctx ends. The
// mirror is optional: watcher failures, such as a metrics directory that does
// not exist yet, are logged and retried without affecting the HTTP server.
func watchSnapshots(ctx context.Context, st *store.Store, retry time.Duration) {
	log := logger.Named("dashboard")
	for {
		err := st.Watch(ctx, dashboard.MirrorSnapshot)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			log.Warn(ctx, "metrics file watch failed; retrying",
				logger.String("path", st.Path()), logger.Duration("retry", retry), logger.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

// newRestarter picks the restart strategy named by the configuration.
func newRestarter(cfg *config.Config) supervisor.Restarter {
	if cfg.RestartMode == config.RestartModeScripts {
		return supervisor.NewScripts(cfg.ScriptDir, cfg.StopScript, cfg.StartScript,
			supervisor.WithStopTimeout(cfg.StopTimeout),
			supervisor.WithScriptsMessage("Restart triggered (API and Monitor). Dashboard stays running."),
		)
	}

	// The updater runs from ScriptDir; hand it an absolute metrics path so
	// both processes share one file.
	metricsFile := cfg.MetricsFile
	if abs, err := filepath.Abs(metricsFile); err == nil {
		metricsFile = abs
	}
	return supervisor.NewHandle(cfg.UpdaterProgram,
		supervisor.WithDir(cfg.ScriptDir),
		supervisor.WithPIDFile(cfg.PIDFile),
		supervisor.WithLogFile(cfg.UpdaterLog),
		supervisor.WithEnv(config.EnvPrefix+"METRICS_FILE="+metricsFile),
		supervisor.WithMessage(fmt.Sprintf(
			"Application (metrics updater) restarted. Values will keep updating every %s.", cfg.UpdaterInterval)),
	)
}
