// Package observability provides Prometheus metrics for the registry and
// selection engine.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh and selection outcome label values.
const (
	OutcomeSuccess     = "success"
	OutcomeError       = "error"
	OutcomeNoCandidate = "no_candidate"
	OutcomeUnknown     = "unknown_model"
)

// Metrics holds the Prometheus collectors for the engine. A nil *Metrics is
// valid and records nothing, so instrumentation stays optional.
type Metrics struct {
	refreshTotal      *prometheus.CounterVec
	refreshDuration   prometheus.Histogram
	snapshotModels    prometheus.Gauge
	snapshotVersion   prometheus.Gauge
	selectionTotal    *prometheus.CounterVec
	selectionDuration prometheus.Histogram
}

// New creates the engine metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modelhub_refresh_total",
			Help: "Total number of catalog refresh attempts by outcome.",
		}, []string{"outcome"}),
		refreshDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelhub_refresh_duration_seconds",
			Help:    "Duration of catalog refreshes.",
			Buckets: prometheus.DefBuckets,
		}),
		snapshotModels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "modelhub_snapshot_models",
			Help: "Number of models in the current catalog snapshot.",
		}),
		snapshotVersion: factory.NewGauge(prometheus.GaugeOpts{
			Name: "modelhub_snapshot_version",
			Help: "Version of the current catalog snapshot.",
		}),
		selectionTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "modelhub_selection_total",
			Help: "Total number of model selections by outcome.",
		}, []string{"outcome"}),
		selectionDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "modelhub_selection_duration_seconds",
			Help:    "Duration of model selections, hooks included.",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		}),
	}
}

// ObserveRefresh records one refresh attempt.
func (m *Metrics) ObserveRefresh(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.refreshTotal.WithLabelValues(outcome).Inc()
	m.refreshDuration.Observe(d.Seconds())
}

// SetSnapshot records the size and version of the installed snapshot.
func (m *Metrics) SetSnapshot(models int, version uint64) {
	if m == nil {
		return
	}
	m.snapshotModels.Set(float64(models))
	m.snapshotVersion.Set(float64(version))
}

// ObserveSelection records one selection attempt.
func (m *Metrics) ObserveSelection(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.selectionTotal.WithLabelValues(outcome).Inc()
	m.selectionDuration.Observe(d.Seconds())
}
