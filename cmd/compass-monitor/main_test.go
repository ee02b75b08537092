package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/compass/internal/config"
	"github.com/okian/compass/pkg/logger"
)

func TestNewMonitor(t *testing.T) {
	convey.Convey("Given a default configuration with no API running", t, func() {
		_ = logger.Init()
		cfg := config.New()
		cfg.APIURL = "http://127.0.0.1:1/predict"
		cfg.MetricsFile = filepath.Join(t.TempDir(), "metrics.json")

		convey.Convey("When one cycle runs", func() {
			m := newMonitor(cfg)
			err := m.Step(context.Background())

			convey.Convey("Then it survives the connection failure", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(m.Iteration(), convey.ShouldEqual, 1)
			})
		})
	})
}

func TestRunServesMetrics(t *testing.T) {
	convey.Convey("Given a monitor with a metrics listener", t, func() {
		_ = logger.Init()
		cfg := config.New()
		cfg.APIURL = "http://127.0.0.1:1/predict"
		cfg.MetricsFile = filepath.Join(t.TempDir(), "metrics.json")
		cfg.MonitorMetricsAddr = freeAddr(t)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- run(ctx, cfg) }()

		convey.Convey("Then the monitor series can be scraped while it runs", func() {
			want := `compass_monitor_api_errors_total{category="connection"}`
			body := scrapeUntil(t, "http://"+cfg.MonitorMetricsAddr+"/metrics", want)
			convey.So(body, convey.ShouldContainSubstring, want)
			convey.So(body, convey.ShouldContainSubstring, "compass_monitor_iterations_total")

			cancel()
			select {
			case err := <-done:
				convey.So(err, convey.ShouldBeNil)
			case <-time.After(5 * time.Second):
				t.Fatal("monitor did not stop")
			}
		})
	})
}

func freeAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()
	return addr
}

// scrapeUntil polls url until the body contains want or three seconds pass.
func scrapeUntil(t *testing.T, url, want string) string {
	t.Helper()
	var body string
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if resp, err := http.Get(url); err == nil {
			b, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			body = string(b)
			if strings.Contains(body, want) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
	}
	return body
}
