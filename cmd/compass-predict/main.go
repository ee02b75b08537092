// Command compass-predict serves the classifier over HTTP.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/okian/compass/internal/adapters/http/api"
	"github.com/okian/compass/internal/adapters/http/middleware"
	"github.com/okian/compass/internal/adapters/http/swagger"
	"github.com/okian/compass/internal/app/bootstrap"
	"github.com/okian/compass/internal/domain/classifier"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

const systemMetricsInterval = 10 * time.Second

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := bootstrap.Setup(ctx, "predict")
	if err != nil {
		// logger may not be usable yet
		os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.Named("predict")

	model := loadModel(ctx, log, cfg.ModelPath)
	srv := bootstrap.NewHTTPServer(cfg.PredictAddr, newHandler(ctx, model))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return bootstrap.Serve(gctx, srv) })
	g.Go(func() error {
		metrics.RunSystemCollector(gctx, systemMetricsInterval)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Error(ctx, "prediction service stopped with error", logger.Error(err))
		os.Exit(1)
	}
}

// loadModel returns nil when the model cannot be loaded; the service keeps
// running and refuses predictions.
func loadModel(ctx context.Context, log logger.Logger, path string) api.Predictor {
	m, err := classifier.Load(path)
	if err != nil {
		log.Error(ctx, "failed to load model", logger.String("path", path), logger.Error(err))
		metrics.UpdateModelLoaded(false, 0)
		return nil
	}
	log.Info(ctx, "model loaded", logger.String("path", path), logger.Int("features", m.NumFeatures()))
	metrics.UpdateModelLoaded(true, m.NumFeatures())
	return m
}

func newHandler(ctx context.Context, model api.Predictor) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(model).Register(ctx, mux)
	return middleware.RequestID(mux)
}
