package dashboard_test

import (
	"context"
	"encoding/json"
	"html/template"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/compass/internal/adapters/http/dashboard"
	"github.com/okian/compass/internal/adapters/store"
	"github.com/okian/compass/internal/adapters/supervisor"
	"github.com/okian/compass/internal/domain/snapshot"
	"github.com/okian/compass/pkg/logger"
	"github.com/okian/compass/pkg/metrics"
)

func init() {
	_ = logger.Init()
}

type fakeRestarter struct {
	msg   string
	err   error
	calls int
}

func (f *fakeRestarter) Restart(context.Context) (string, error) {
	f.calls++
	return f.msg, f.err
}

func (f *fakeRestarter) Mode() string { return "fake" }

func serve(s *dashboard.Server, method, path string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	s.Register(context.Background(), mux)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(method, path, http.NoBody))
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	Convey("Given a dashboard backed by a metrics file", t, func() {
		path := filepath.Join(t.TempDir(), "metrics.json")
		s := dashboard.NewServer(store.New(path), nil)

		Convey("When the file is absent", func() {
			rec := serve(s, http.MethodGet, "/api/metrics")

			Convey("Then the documented defaults are returned with 200", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldEqual,
					`{"iteration":0,"accuracy":0,"drift_active":false,"total_predictions":0,"last_check":null,"overall_level":null,"overall_avg_score":null}`+"\n")
			})
		})

		Convey("When the file is unparsable", func() {
			So(os.WriteFile(path, []byte(`{"iteration": "x"`), 0o600), ShouldBeNil)
			rec := serve(s, http.MethodGet, "/api/metrics")

			Convey("Then defaults are returned as well", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				var m map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &m), ShouldBeNil)
				So(m["iteration"], ShouldEqual, 0.0)
				So(m["last_check"], ShouldBeNil)
			})
		})

		Convey("When the file holds an assessment snapshot", func() {
			snap := snapshot.Snapshot{
				Iteration: 3, Accuracy: 0.75, TotalPredictions: 12,
				OverallLevel: snapshot.Ptr(3), OverallAvgScore: snapshot.Ptr(3.0),
				DimensionScores: map[string]float64{"Monitoring & Governance": 3},
			}
			snap.Stamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
			So(store.New(path).Write(snap), ShouldBeNil)

			rec := serve(s, http.MethodGet, "/api/metrics")

			Convey("Then every field is passed through", func() {
				var m map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &m), ShouldBeNil)
				So(m["iteration"], ShouldEqual, 3.0)
				So(m["overall_level"], ShouldEqual, 3.0)
				So(m["overall_avg_score"], ShouldEqual, 3.0)
				So(m["last_check"], ShouldEqual, "2024-01-01T00:00:00")
				So(m["dimension_scores"], ShouldResemble, map[string]any{"Monitoring & Governance": 3.0})
			})
		})
	})
}

func TestHealthAndIndex(t *testing.T) {
	Convey("Given a dashboard", t, func() {
		src := store.New(filepath.Join(t.TempDir(), "metrics.json"))

		Convey("When checking health", func() {
			rec := serve(dashboard.NewServer(src, nil), http.MethodGet, "/health")
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"status":"ok","service":"dashboard"}`)
		})

		Convey("When rendering the page", func() {
			rec := serve(dashboard.NewServer(src, &fakeRestarter{}, dashboard.WithTitle("Compass"), dashboard.WithPollInterval(time.Second)), http.MethodGet, "/")

			Convey("Then the embedded template is used", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(rec.Body.String(), ShouldContainSubstring, "<title>Compass</title>")
				So(rec.Body.String(), ShouldContainSubstring, "Restart mode: fake")
				So(rec.Body.String(), ShouldContainSubstring, "const pollMs =")
				So(rec.Body.String(), ShouldContainSubstring, "1000")
			})
		})

		Convey("When the template fails", func() {
			broken := template.Must(template.New("index.html").Parse("{{.Missing}}"))
			rec := serve(dashboard.NewServer(src, nil, dashboard.WithTemplate(broken)), http.MethodGet, "/")

			Convey("Then the plain fallback page is served with 500", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(rec.Body.String(), ShouldEqual, "<h1>Dashboard</h1><p>Template error.</p>")
			})
		})

		Convey("When no template is available", func() {
			rec := serve(dashboard.NewServer(src, nil, dashboard.WithTemplate(nil)), http.MethodGet, "/")
			So(rec.Code, ShouldEqual, http.StatusInternalServerError)
		})

		Convey("When requesting an unknown path", func() {
			rec := serve(dashboard.NewServer(src, nil), http.MethodGet, "/nope")
			So(rec.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestRestartEndpoint(t *testing.T) {
	Convey("Given a dashboard with a restarter", t, func() {
		src := store.New(filepath.Join(t.TempDir(), "metrics.json"))

		Convey("When the restart succeeds", func() {
			r := &fakeRestarter{msg: "Application (metrics updater) restarted. Values will keep updating every 1s."}
			rec := serve(dashboard.NewServer(src, r), http.MethodPost, "/api/restart")

			Convey("Then ok and the message are returned", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(r.calls, ShouldEqual, 1)
				var body map[string]any
				So(json.Unmarshal(rec.Body.Bytes(), &body), ShouldBeNil)
				So(body["ok"], ShouldEqual, true)
				So(body["message"], ShouldEqual, r.msg)
				_, hasErr := body["error"]
				So(hasErr, ShouldBeFalse)
				n, err := testutil.GatherAndCount(metrics.GetRegistry(), "compass_restarts_total")
				So(err, ShouldBeNil)
				So(n, ShouldBeGreaterThan, 0)
			})
		})

		Convey("When the program is missing", func() {
			r := &fakeRestarter{err: &supervisor.Failure{Kind: supervisor.ErrNotFound, Message: "compass-updater not found"}}
			rec := serve(dashboard.NewServer(src, r), http.MethodPost, "/api/restart")

			Convey("Then a 400 error envelope is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusBadRequest)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"ok":false,"error":"compass-updater not found"}`)
			})
		})

		Convey("When the stop script times out", func() {
			r := &fakeRestarter{err: &supervisor.Failure{Kind: supervisor.ErrTimeout, Message: "stop timed out"}}
			rec := serve(dashboard.NewServer(src, r), http.MethodPost, "/api/restart")

			Convey("Then a 500 error envelope is returned", func() {
				So(rec.Code, ShouldEqual, http.StatusInternalServerError)
				So(strings.TrimSpace(rec.Body.String()), ShouldEqual, `{"ok":false,"error":"stop timed out"}`)
			})
		})

		Convey("When restart is not configured or the method is wrong", func() {
			So(serve(dashboard.NewServer(src, nil), http.MethodPost, "/api/restart").Code, ShouldEqual, http.StatusInternalServerError)
			r := &fakeRestarter{}
			So(serve(dashboard.NewServer(src, r), http.MethodGet, "/api/restart").Code, ShouldEqual, http.StatusMethodNotAllowed)
			So(r.calls, ShouldEqual, 0)
		})
	})
}

func TestMirrorSnapshot(t *testing.T) {
	Convey("Given a snapshot with an overall level", t, func() {
		dashboard.MirrorSnapshot(snapshot.Snapshot{Iteration: 42, OverallLevel: snapshot.Ptr(2)})

		Convey("Then the gauges are exposed", func() {
			n, err := testutil.GatherAndCount(metrics.GetRegistry(), "compass_snapshot_iteration", "compass_snapshot_overall_level")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})
	})
}
