// Package metrics records per-run statistics and exports them in the
// Prometheus text format for a node-exporter textfile collector.
package metrics

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fixture_calendar"

// Recorder holds the metrics of a single run
type Recorder struct {
	registry *prometheus.Registry

	candidates  *prometheus.GaugeVec
	fixtures    *prometheus.GaugeVec
	outcome     *prometheus.GaugeVec
	failed      prometheus.Gauge
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates a Recorder with its own registry
func New() *Recorder {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Recorder{
		registry: registry,
		candidates: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "candidates",
			Help:      "Match candidates scanned before the team filter.",
		}, []string{"strategy"}),
		fixtures: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fixtures",
			Help:      "Fixtures of the configured team found in the last run.",
		}, []string{"strategy"}),
		outcome: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "outcome",
			Help:      "Outcome of the last run, 1 for the outcome that occurred.",
		}, []string{"outcome"}),
		failed: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "failed",
			Help:      "1 if the last run aborted with an error.",
		}),
		duration: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
		lastSuccess: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last run that finished without error.",
		}),
	}
}

// Registry returns the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// ObserveExtraction records candidate and fixture counts for a strategy
func (r *Recorder) ObserveExtraction(strategy string, candidates, fixtures int) {
	r.candidates.WithLabelValues(strategy).Set(float64(candidates))
	r.fixtures.WithLabelValues(strategy).Set(float64(fixtures))
}

// ObserveOutcome marks outcome as the result of the run. Every name in known
// is exported so that absent outcomes read as 0 rather than missing.
func (r *Recorder) ObserveOutcome(outcome string, known []string, at time.Time) {
	for _, k := range known {
		r.outcome.WithLabelValues(k).Set(0)
	}
	r.outcome.WithLabelValues(outcome).Set(1)
	r.failed.Set(0)
	r.lastSuccess.Set(float64(at.Unix()))
}

// ObserveFailure marks the run as failed
func (r *Recorder) ObserveFailure() {
	r.failed.Set(1)
}

// ObserveDuration records the run wall time
func (r *Recorder) ObserveDuration(d time.Duration) {
	r.duration.Set(d.Seconds())
}

// WriteTextfile atomically writes all metrics to path
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return errors.Wrapf(err, "writing metrics to %s", path)
	}
	return nil
}
