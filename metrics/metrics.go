// Package metrics records pipeline stage timings and failure counts.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives pipeline measurements. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// ObserveStage records how long a pipeline stage took.
	ObserveStage(stage string, d time.Duration)
	// CountError records a failed conversion by failure kind.
	CountError(kind string)
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) ObserveStage(string, time.Duration) {}
func (Nop) CountError(string)                  {}

// Prometheus exports measurements as Prometheus collectors
type Prometheus struct {
	stages *prometheus.HistogramVec
	errors *prometheus.CounterVec
}

var _ Recorder = (*Prometheus)(nil)

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "timetable",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each conversion stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"stage"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "timetable",
			Name:      "conversion_errors_total",
			Help:      "Failed conversions by failure kind.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{p.stages, p.errors} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ObserveStage(stage string, d time.Duration) {
	p.stages.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *Prometheus) CountError(kind string) {
	p.errors.WithLabelValues(kind).Inc()
}
