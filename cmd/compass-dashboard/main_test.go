package main

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/compass/internal/adapters/store"
	"github.com/okian/compass/internal/adapters/supervisor"
	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/internal/domain/snapshot"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

func init() {
	_ = logger.Init()
}

func TestNewRestarter(t *testing.T) {
	convey.Convey("Given the dashboard configuration", t, func() {
		cfg := config.New()
		cfg.ScriptDir = t.TempDir()

		convey.Convey("When the mode is pid", func() {
			r := newRestarter(cfg)
			convey.So(r.Mode(), convey.ShouldEqual, supervisor.ModePID)

			convey.Convey("Then a missing updater program is reported", func() {
				h, ok := r.(*supervisor.Handle)
				convey.So(ok, convey.ShouldBeTrue)
				_, err := h.Restart(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldEqual, "compass-updater not found")
			})
		})

		convey.Convey("When the mode is scripts", func() {
			cfg.RestartMode = config.RestartModeScripts
			r := newRestarter(cfg)

			convey.Convey("Then missing scripts are reported", func() {
				convey.So(r.Mode(), convey.ShouldEqual, supervisor.ModeScripts)
				_, err := r.Restart(context.Background())
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "not found. Run setup first.")
			})
		})
	})
}

func TestNewHandler(t *testing.T) {
	convey.Convey("Given the dashboard handler with no metrics file", t, func() {
		st := store.New(filepath.Join(t.TempDir(), "metrics.json"))
		h := newHandler(context.Background(), st, newRestarter(config.New()))

		convey.Convey("Then the polling endpoint serves defaults", func() {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
			convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			convey.So(rec.Body.String(), convey.ShouldContainSubstring, `"last_check":null`)
		})
	})
}

func TestRestartOverRealServer(t *testing.T) {
	convey.Convey("Given a dashboard server whose stop script hangs", t, func() {
		dir := t.TempDir()
		convey.So(os.WriteFile(filepath.Join(dir, "stop_app.sh"), []byte("#!/bin/sh\nexec sleep 30\n"), 0o755), convey.ShouldBeNil)
		convey.So(os.WriteFile(filepath.Join(dir, "start_app.sh"), []byte("#!/bin/sh\nexit 0\n"), 0o755), convey.ShouldBeNil)

		cfg := config.New()
		cfg.RestartMode = config.RestartModeScripts
		cfg.ScriptDir = dir
		cfg.StopTimeout = 300 * time.Millisecond
		cfg.MetricsFile = filepath.Join(dir, "metrics.json")

		st := store.New(cfg.MetricsFile)
		srv := newHTTPServer(cfg, newHandler(context.Background(), st, newRestarter(cfg)))
		ln, err := net.Listen("tcp", "127.0.0.1:0")
		convey.So(err, convey.ShouldBeNil)
		go func() { _ = srv.Serve(ln) }()
		defer func() { _ = srv.Close() }()

		convey.Convey("When a restart is requested", func() {
			resp, err := http.Post("http://"+ln.Addr().String()+"/api/restart", "application/json", nil)

			convey.Convey("Then the timeout arrives as a JSON error, not a dropped connection", func() {
				convey.So(err, convey.ShouldBeNil)
				defer func() { _ = resp.Body.Close() }()
				convey.So(resp.StatusCode, convey.ShouldEqual, http.StatusInternalServerError)
				var body map[string]any
				convey.So(json.NewDecoder(resp.Body).Decode(&body), convey.ShouldBeNil)
				convey.So(body["ok"], convey.ShouldEqual, false)
				convey.So(body["error"], convey.ShouldEqual, "stop timed out")
			})
		})
	})

	convey.Convey("Given stop timeouts at and above the default write timeout", t, func() {
		cfg := config.New()

		convey.Convey("Then the server always outlasts the longest restart", func() {
			for _, d := range []time.Duration{time.Second, 10 * time.Second, 45 * time.Second} {
				cfg.StopTimeout = d
				srv := newHTTPServer(cfg, http.NotFoundHandler())
				convey.So(srv.WriteTimeout, convey.ShouldBeGreaterThan, d+supervisor.StopWaitDelay)
				convey.So(srv.WriteTimeout, convey.ShouldBeGreaterThanOrEqualTo, 10*time.Second)
			}
		})
	})
}

func TestWatchSnapshots(t *testing.T) {
	convey.Convey("Given a metrics file in a directory that does not exist", t, func() {
		st := store.New(filepath.Join(t.TempDir(), "missing", "sub", "metrics.json"))
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		convey.Convey("When the mirror runs", func() {
			done := make(chan struct{})
			go func() {
				watchSnapshots(ctx, st, 10*time.Millisecond)
				close(done)
			}()

			convey.Convey("Then it keeps retrying and ends only with its context", func() {
				select {
				case <-done:
				case <-time.After(2 * time.Second):
					t.Fatal("watcher did not stop with its context")
				}
				convey.So(ctx.Err(), convey.ShouldNotBeNil)
			})
		})
	})

	convey.Convey("Given a metrics directory created after startup", t, func() {
		dir := filepath.Join(t.TempDir(), "later")
		st := store.New(filepath.Join(dir, "metrics.json"))
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			watchSnapshots(ctx, st, 10*time.Millisecond)
			close(done)
		}()

		convey.Convey("Then the mirror picks it up once it appears", func() {
			convey.So(os.MkdirAll(dir, 0o755), convey.ShouldBeNil)
			deadline := time.Now().Add(2 * time.Second)
			for time.Now().Before(deadline) && mirroredIteration() != 7 {
				convey.So(st.Write(snapshot.Snapshot{Iteration: 7}), convey.ShouldBeNil)
				time.Sleep(25 * time.Millisecond)
			}
			convey.So(mirroredIteration(), convey.ShouldEqual, 7)
			cancel()
			<-done
		})
	})
}

func mirroredIteration() float64 {
	families, err := metrics.GetRegistry().Gather()
	if err != nil {
		return -1
	}
	for _, f := range families {
		if f.GetName() == "compass_snapshot_iteration" && len(f.GetMetric()) > 0 {
			return f.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return -1
}
