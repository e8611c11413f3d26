// Package metrics defines optional Prometheus instrumentation for the
// Orchestrator, grounded in the teacher's
// internal/middleware/monitoring.go (promauto counter/histogram
// vectors keyed by outcome labels). Unlike the teacher's package-level
// globals registered against the default registry, these metrics are
// built against a caller-supplied *prometheus.Registry so the
// Orchestrator stays usable with no metrics at all — per SPEC_FULL.md
// the core has no HTTP surface and must not force a global registry
// dependency on every caller.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder is the metrics surface the Orchestrator calls into. A nil
// *Recorder is valid and every method becomes a no-op.
type Recorder struct {
	detectorDuration *prometheus.HistogramVec
	detectorRuns     *prometheus.CounterVec
	cacheLookups     *prometheus.CounterVec
	fusionDuration    prometheus.Histogram
}

// New registers the detection-pipeline metrics against reg and returns
// a Recorder. Pass a nil reg (or just don't call New) to run without
// metrics.
func New(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		return nil
	}
	r := &Recorder{
		detectorDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shotdetect_detector_duration_seconds",
				Help:    "Per-detector run duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
			},
			[]string{"detector", "status"},
		),
		detectorRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shotdetect_detector_runs_total",
				Help: "Total detector runs by outcome",
			},
			[]string{"detector", "status"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shotdetect_cache_lookups_total",
				Help: "Total cache lookups by outcome",
			},
			[]string{"outcome"},
		),
		fusionDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "shotdetect_fusion_duration_seconds",
				Help:    "Fusion engine duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5},
			},
		),
	}
	reg.MustRegister(r.detectorDuration, r.detectorRuns, r.cacheLookups, r.fusionDuration)
	return r
}

func (r *Recorder) ObserveDetector(name, status string, seconds float64) {
	if r == nil {
		return
	}
	r.detectorDuration.WithLabelValues(name, status).Observe(seconds)
	r.detectorRuns.WithLabelValues(name, status).Inc()
}

func (r *Recorder) ObserveCacheLookup(outcome string) {
	if r == nil {
		return
	}
	r.cacheLookups.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveFusion(seconds float64) {
	if r == nil {
		return
	}
	r.fusionDuration.Observe(seconds)
}
