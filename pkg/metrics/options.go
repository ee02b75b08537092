package metrics

import (
	"maps"
	"slices"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager before its collectors are registered.
type Option func(*Manager)

// WithNamespace prefixes every metric name, "compass" by default.
func WithNamespace(namespace string) Option {
	return func(m *Manager) {
		if namespace != "" {
			m.namespace = namespace
		}
	}
}

// WithService labels every series with service=name so the processes of one
// deployment can share a scrape target list.
func WithService(name string) Option {
	return WithCustomLabels(map[string]string{"service": name})
}

// WithCustomLabels adds constant labels to every series. Later calls add to
// earlier ones; empty keys and values are skipped.
func WithCustomLabels(labels map[string]string) Option {
	return func(m *Manager) {
		if m.customLabels == nil {
			m.customLabels = make(map[string]string, len(labels))
		}
		for k, v := range labels {
			if k != "" && v != "" {
				m.customLabels[k] = v
			}
		}
	}
}

// WithHistogramBuckets sets the buckets of the latency histograms. Buckets
// that are not strictly increasing are ignored.
func WithHistogramBuckets(buckets []float64) Option {
	return func(m *Manager) {
		if len(buckets) == 0 || !slices.IsSorted(buckets) || len(slices.Compact(slices.Clone(buckets))) != len(buckets) {
			return
		}
		m.histogramBuckets = slices.Clone(buckets)
	}
}

// WithPrometheusRegistry registers the collectors on registry instead of the
// default registerer.
func WithPrometheusRegistry(registry prometheus.Registerer) Option {
	return func(m *Manager) {
		if registry != nil {
			m.registry = registry
		}
	}
}

// Labels returns a copy of the constant labels applied to every series.
func (m *Manager) Labels() map[string]string {
	return maps.Clone(m.customLabels)
}
