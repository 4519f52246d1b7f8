package metrics

import (
	"maps"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures a Manager before its collectors are registered.
// Zero values leave the default in place.
type Option func(*Manager)

// WithNamespace sets the first metric name segment (default "mazeball").
func WithNamespace(ns string) Option {
	return func(m *Manager) { m.namespace = orDefault(ns, m.namespace) }
}

// WithSubsystem sets the second metric name segment (default "leaderboard").
func WithSubsystem(sub string) Option {
	return func(m *Manager) { m.subsystem = orDefault(sub, m.subsystem) }
}

// WithPrefix is prepended to every metric name after the subsystem.
func WithPrefix(prefix string) Option {
	return func(m *Manager) { m.metricPrefix = prefix }
}

// WithLatencyBuckets sets the buckets of the storage and HTTP latency
// histograms, in milliseconds.
func WithLatencyBuckets(buckets ...float64) Option {
	return func(m *Manager) {
		if len(buckets) > 0 {
			m.histogramBuckets = buckets
		}
	}
}

// WithEnabled turns recording on or off. Collectors are registered either way.
func WithEnabled(on bool) Option {
	return func(m *Manager) { m.enabled = on }
}

// WithRefreshInterval sets how often owners should refresh gauges.
func WithRefreshInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.refreshInterval = d
		}
	}
}

// WithConstLabels attaches labels to every collector.
func WithConstLabels(labels map[string]string) Option {
	return func(m *Manager) { maps.Copy(m.customLabels, labels) }
}

// WithRegisterer registers collectors somewhere other than the default registry.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
