// Package metrics provides Prometheus metrics for the compass services.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the compass processes.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	customLabels     map[string]string
	registry         prometheus.Registerer

	// Prediction service
	predictionsTotal  prometheus.Counter
	predictionBatch   prometheus.Histogram
	inferenceLatency  prometheus.Histogram
	predictionErrors  *prometheus.CounterVec
	modelLoaded       prometheus.Gauge
	modelFeatureCount prometheus.Gauge

	// Drift monitor
	monitorIterations prometheus.Counter
	simulatedAccuracy prometheus.Gauge
	driftActive       prometheus.Gauge
	monitorAPIErrors  *prometheus.CounterVec
	degradations      prometheus.Counter

	// Metrics store
	storeWrites      prometheus.Counter
	storeWriteErrors prometheus.Counter
	storeReadErrors  prometheus.Counter

	// Snapshot mirror (dashboard view of the store)
	snapshotIteration        prometheus.Gauge
	snapshotAccuracy         prometheus.Gauge
	snapshotDriftActive      prometheus.Gauge
	snapshotTotalPredictions prometheus.Gauge
	snapshotOverallLevel     prometheus.Gauge
	snapshotDimensionScore   *prometheus.GaugeVec

	// Restart supervisor
	restarts *prometheus.CounterVec

	// HTTP Performance Metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// MillisecondBuckets suit the latency histograms, which observe milliseconds.
var MillisecondBuckets = []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000} //nolint:gochecknoglobals // read-only bucket layout

// Init replaces the global manager with one built from opts on a fresh registry.
// Call it once at startup, before anything records or serves metrics.
func Init(opts ...Option) {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(append([]Option{WithPrometheusRegistry(customRegistry)}, opts...)...)
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "compass",
		histogramBuckets: prometheus.DefBuckets,
		customLabels:     make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: name, Help: help, ConstLabels: m.customLabels,
	})
}

func (m *Manager) histogram(name, help string, buckets []float64) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: name, Help: help, ConstLabels: m.customLabels,
		Buckets: buckets,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Name: name, Help: help, ConstLabels: m.customLabels,
	}, labels)
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	m.predictionsTotal = m.counter("predictions_total", "Total number of samples classified")
	m.predictionBatch = m.histogram("prediction_batch_size", "Number of samples per /predict request",
		[]float64{1, 5, 10, 25, 50, 100, 250, 500, 1000})
	m.inferenceLatency = m.histogram("inference_latency_milliseconds", "Model inference latency in milliseconds",
		m.histogramBuckets)
	m.predictionErrors = m.counterVec("prediction_errors_total", "Rejected or failed /predict requests by reason", "reason")
	m.modelLoaded = m.gauge("model_loaded", "1 when the classifier loaded at startup, 0 otherwise")
	m.modelFeatureCount = m.gauge("model_features", "Number of input features the loaded classifier expects")

	m.monitorIterations = m.counter("monitor_iterations_total", "Total number of monitor cycles that reached the prediction API")
	m.simulatedAccuracy = m.gauge("monitor_simulated_accuracy", "Last simulated model accuracy")
	m.driftActive = m.gauge("monitor_drift_active", "1 while the monitor is injecting drift")
	m.monitorAPIErrors = m.counterVec("monitor_api_errors_total", "Prediction API failures seen by the monitor", "category")
	m.degradations = m.counter("monitor_degradations_total", "Cycles whose simulated accuracy fell below the threshold")

	m.storeWrites = m.counter("store_writes_total", "Snapshots written to the metrics store")
	m.storeWriteErrors = m.counter("store_write_errors_total", "Failed snapshot writes")
	m.storeReadErrors = m.counter("store_read_errors_total", "Snapshot reads that fell back to defaults")

	m.snapshotIteration = m.gauge("snapshot_iteration", "Iteration counter of the latest snapshot")
	m.snapshotAccuracy = m.gauge("snapshot_accuracy", "Accuracy of the latest snapshot")
	m.snapshotDriftActive = m.gauge("snapshot_drift_active", "Drift flag of the latest snapshot")
	m.snapshotTotalPredictions = m.gauge("snapshot_total_predictions", "Total predictions of the latest snapshot")
	m.snapshotOverallLevel = m.gauge("snapshot_overall_level", "Overall maturity level of the latest snapshot, 0 when absent")
	m.snapshotDimensionScore = promauto.With(m.registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Name: "snapshot_dimension_score",
		Help: "Per-dimension maturity score of the latest snapshot", ConstLabels: m.customLabels,
	}, []string{"dimension"})

	m.restarts = m.counterVec("restarts_total", "Restart requests by mode and outcome", "mode", "outcome")

	m.httpRequests = m.counterVec("http_requests_total", "Total number of HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Name: "http_request_duration_milliseconds",
		Help: "HTTP request duration in milliseconds", Buckets: m.histogramBuckets, ConstLabels: m.customLabels,
	}, []string{"endpoint", "method", "status_code"})
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Total number of errors by endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
	m.systemGCPauseTime = m.histogram("system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000})
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Prediction service.

// RecordPredictions counts a classified batch and its inference latency.
func RecordPredictions(samples int, latencyMs float64) {
	globalManager.predictionsTotal.Add(float64(samples))
	globalManager.predictionBatch.Observe(float64(samples))
	globalManager.inferenceLatency.Observe(latencyMs)
}

// RecordPredictionError counts a rejected or failed request.
func RecordPredictionError(reason string) {
	globalManager.predictionErrors.WithLabelValues(reason).Inc()
}

// UpdateModelLoaded publishes whether a model is available and its input width.
func UpdateModelLoaded(loaded bool, features int) {
	globalManager.modelLoaded.Set(boolGauge(loaded))
	globalManager.modelFeatureCount.Set(float64(features))
}

// Drift monitor.

// RecordMonitorCycle publishes the outcome of one monitor cycle.
func RecordMonitorCycle(accuracy float64, drift bool) {
	globalManager.monitorIterations.Inc()
	globalManager.simulatedAccuracy.Set(accuracy)
	globalManager.driftActive.Set(boolGauge(drift))
}

// RecordMonitorAPIError counts a prediction API failure by category.
func RecordMonitorAPIError(category string) {
	globalManager.monitorAPIErrors.WithLabelValues(category).Inc()
}

// RecordDegradation counts a below-threshold cycle.
func RecordDegradation() {
	globalManager.degradations.Inc()
}

// Metrics store.

// RecordStoreWrite counts a successful snapshot write.
func RecordStoreWrite() {
	globalManager.storeWrites.Inc()
}

// RecordStoreWriteError counts a failed snapshot write.
func RecordStoreWriteError() {
	globalManager.storeWriteErrors.Inc()
}

// RecordStoreReadError counts a read that fell back to defaults.
func RecordStoreReadError() {
	globalManager.storeReadErrors.Inc()
}

// Snapshot mirror.

// SnapshotValues is the metric-relevant projection of a metrics snapshot.
type SnapshotValues struct {
	Iteration        int
	Accuracy         float64
	DriftActive      bool
	TotalPredictions int
	OverallLevel     int
	DimensionScores  map[string]float64
}

// UpdateSnapshot mirrors the latest snapshot into gauges.
func UpdateSnapshot(v SnapshotValues) {
	globalManager.snapshotIteration.Set(float64(v.Iteration))
	globalManager.snapshotAccuracy.Set(v.Accuracy)
	globalManager.snapshotDriftActive.Set(boolGauge(v.DriftActive))
	globalManager.snapshotTotalPredictions.Set(float64(v.TotalPredictions))
	globalManager.snapshotOverallLevel.Set(float64(v.OverallLevel))
	globalManager.snapshotDimensionScore.Reset()
	for dim, score := range v.DimensionScores {
		globalManager.snapshotDimensionScore.WithLabelValues(dim).Set(score)
	}
}

// Restart supervisor.

// RecordRestart counts a restart request.
func RecordRestart(mode, outcome string) {
	globalManager.restarts.WithLabelValues(mode, outcome).Inc()
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// System Performance Metrics Functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
