package metrics

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with default options on a fresh registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then every collector is registered under the compass namespace", func() {
				So(manager, ShouldNotBeNil)
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				// Vec collectors only show up once a label set is used.
				So(len(families), ShouldBeGreaterThan, 10)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "compass_"), ShouldBeTrue)
				}
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithCustomLabels(map[string]string{"env": "test", "": "skipped"}),
				WithService("predict"),
				WithPrometheusRegistry(registry),
			)
			manager.predictionsTotal.Add(3)

			Convey("Then names and labels reflect the options", func() {
				So(testutil.ToFloat64(manager.predictionsTotal), ShouldEqual, 3.0)
				n, err := testutil.GatherAndCount(registry, "test_predictions_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
				So(manager.Labels(), ShouldResemble, map[string]string{"env": "test", "service": "predict"})
				So(manager.histogramBuckets, ShouldResemble, []float64{0.1, 0.5, 1.0})
			})
		})

		Convey("When the buckets are out of order or repeated", func() {
			for _, b := range [][]float64{{1, 0.5}, {0.5, 0.5, 1}} {
				manager := NewManager(WithHistogramBuckets(b), WithPrometheusRegistry(prometheus.NewRegistry()))
				So(manager.histogramBuckets, ShouldResemble, prometheus.DefBuckets)
			}
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording predictions", func() {
			before := testutil.ToFloat64(globalManager.predictionsTotal)
			RecordPredictions(50, 1.5)
			RecordPredictionError("no_features")
			UpdateModelLoaded(true, 2)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.predictionsTotal)-before, ShouldEqual, 50.0)
				So(testutil.ToFloat64(globalManager.predictionErrors.WithLabelValues("no_features")), ShouldBeGreaterThanOrEqualTo, 1.0)
				So(testutil.ToFloat64(globalManager.modelLoaded), ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.modelFeatureCount), ShouldEqual, 2.0)
			})
		})

		Convey("When recording a monitor cycle", func() {
			RecordMonitorCycle(0.8, true)
			RecordMonitorAPIError("connection")
			RecordDegradation()

			Convey("Then gauges hold the last values", func() {
				So(testutil.ToFloat64(globalManager.simulatedAccuracy), ShouldEqual, 0.8)
				So(testutil.ToFloat64(globalManager.driftActive), ShouldEqual, 1.0)
			})
		})

		Convey("When mirroring a snapshot", func() {
			UpdateSnapshot(SnapshotValues{
				Iteration:        7,
				Accuracy:         0.91,
				TotalPredictions: 350,
				OverallLevel:     3,
				DimensionScores:  map[string]float64{"Monitoring & Governance": 2.5},
			})

			Convey("Then each gauge reflects it", func() {
				So(testutil.ToFloat64(globalManager.snapshotIteration), ShouldEqual, 7.0)
				So(testutil.ToFloat64(globalManager.snapshotDriftActive), ShouldEqual, 0.0)
				So(testutil.ToFloat64(globalManager.snapshotOverallLevel), ShouldEqual, 3.0)
				So(testutil.ToFloat64(globalManager.snapshotDimensionScore.WithLabelValues("Monitoring & Governance")), ShouldEqual, 2.5)
			})
		})

		Convey("When recording the remaining helpers", func() {
			So(func() {
				RecordStoreWrite()
				RecordStoreWriteError()
				RecordStoreReadError()
				RecordRestart("pid", "ok")
				RecordHTTPRequest("predict", "POST", "200")
				RecordHTTPRequestDuration("predict", "POST", "200", 3.0)
				RecordErrorByEndpoint("predict", "POST", "client_error")
				CollectSystem()
			}, ShouldNotPanic)
		})
	})
}

func TestRunSystemCollector(t *testing.T) {
	Convey("Given a cancelled context", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then the collector returns promptly", func() {
			done := make(chan struct{})
			go func() {
				RunSystemCollector(ctx, time.Millisecond)
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("collector did not stop")
			}
		})
	})
}

func TestGetRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		So(GetRegistry(), ShouldNotBeNil)
		So(GetRegistry(), ShouldEqual, customRegistry)
	})
}

func TestInit(t *testing.T) {
	Convey("Given a process-specific metrics setup", t, func() {
		prevManager, prevRegistry := globalManager, customRegistry
		Reset(func() { globalManager, customRegistry = prevManager, prevRegistry })

		Init(
			WithNamespace("mlops"),
			WithService("predict"),
			WithHistogramBuckets(MillisecondBuckets),
		)
		RecordPredictions(4, 3)

		Convey("Then the new registry carries the namespace and service label", func() {
			So(GetRegistry(), ShouldNotEqual, prevRegistry)
			families, err := GetRegistry().Gather()
			So(err, ShouldBeNil)
			found := false
			for _, f := range families {
				So(strings.HasPrefix(f.GetName(), "mlops_"), ShouldBeTrue)
				if f.GetName() != "mlops_inference_latency_milliseconds" {
					continue
				}
				found = true
				m := f.GetMetric()[0]
				So(m.GetLabel()[0].GetName(), ShouldEqual, "service")
				So(m.GetLabel()[0].GetValue(), ShouldEqual, "predict")
				So(m.GetHistogram().GetBucket(), ShouldHaveLength, len(MillisecondBuckets))
			}
			So(found, ShouldBeTrue)
		})
	})
}
