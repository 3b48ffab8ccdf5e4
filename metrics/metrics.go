// Package metrics wires Composer instrumentation through
// prometheus/client_golang, grounded on the same library's use for
// node-level counters elsewhere in the corpus. A Recorder is optional and
// nil-safe on the caller's side: Composer takes a *Recorder, and a nil
// Recorder makes every Composer.Assume/Prove call skip instrumentation
// entirely rather than requiring a no-op implementation to be threaded
// through.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder holds the Prometheus collectors a Composer reports to.
type Recorder struct {
	assumeTotal   *prometheus.CounterVec
	proveDuration *prometheus.HistogramVec
}

// NewRecorder registers pyr0_composer_assume_total and
// pyr0_composer_prove_duration_seconds with reg, returning a Recorder ready
// to pass to composer.New. Pass prometheus.DefaultRegisterer for process
// default metrics.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	assumeTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pyr0_composer_assume_total",
		Help: "Count of Composer.Assume calls by outcome (added, deduped, rejected).",
	}, []string{"outcome"})

	proveDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pyr0_composer_prove_duration_seconds",
		Help:    "Duration of Composer.Prove/CompressToSuccinct calls by receipt kind.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})

	for _, c := range []prometheus.Collector{assumeTotal, proveDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &Recorder{assumeTotal: assumeTotal, proveDuration: proveDuration}, nil
}

// AssumeOutcome increments the assume counter for the given outcome
// ("added", "deduped", or "rejected").
func (r *Recorder) AssumeOutcome(outcome string) {
	if r == nil {
		return
	}
	r.assumeTotal.WithLabelValues(outcome).Inc()
}

// ProveDuration records how long a prove/compress call took, labeled by
// receipt kind (or "compress" for CompressToSuccinct).
func (r *Recorder) ProveDuration(kind string, d time.Duration) {
	if r == nil {
		return
	}
	r.proveDuration.WithLabelValues(kind).Observe(d.Seconds())
}
