package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus collects rotation metrics into a registry.
type Prometheus struct {
	rotationsTotal        *prometheus.CounterVec
	rotationFailuresTotal *prometheus.CounterVec
	pairsCreatedTotal     prometheus.Counter
	sweepDuration         prometheus.Histogram
	sweepSectionsTotal    *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them on reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		rotationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binome_rotations_total",
				Help: "Cycles created, by trigger and pairing policy",
			},
			[]string{"trigger", "policy"},
		),
		rotationFailuresTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binome_rotation_failures_total",
				Help: "Failed rotation attempts, by trigger",
			},
			[]string{"trigger"},
		),
		pairsCreatedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "binome_pairs_created_total",
				Help: "Pairs persisted across all cycles",
			},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "binome_sweep_duration_seconds",
				Help:    "Duration of the background expiry sweep",
				Buckets: prometheus.DefBuckets,
			},
		),
		sweepSectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "binome_sweep_sections_total",
				Help: "Sections handled by the background sweep, by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(p.rotationsTotal, p.rotationFailuresTotal, p.pairsCreatedTotal, p.sweepDuration, p.sweepSectionsTotal)
	return p
}

func (p *Prometheus) RecordRotation(trigger, policy string, pairs int) {
	p.rotationsTotal.WithLabelValues(trigger, policy).Inc()
	p.pairsCreatedTotal.Add(float64(pairs))
}

func (p *Prometheus) RecordRotationFailure(trigger string) {
	p.rotationFailuresTotal.WithLabelValues(trigger).Inc()
}

func (p *Prometheus) RecordSweep(evaluated, rotated, failed int, d time.Duration) {
	p.sweepDuration.Observe(d.Seconds())
	p.sweepSectionsTotal.WithLabelValues("evaluated").Add(float64(evaluated))
	p.sweepSectionsTotal.WithLabelValues("rotated").Add(float64(rotated))
	p.sweepSectionsTotal.WithLabelValues("failed").Add(float64(failed))
}
