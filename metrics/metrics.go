// Package metrics exports Prometheus counters and histograms for validation
// outcomes.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	skema "github.com/reoring/skema"
)

// Outcome labels.
const (
	OutcomeValid   = "valid"
	OutcomeInvalid = "invalid"
	OutcomeError   = "error"
)

// Collector records validation counts, issue codes and durations per schema.
type Collector struct {
	Validations *prometheus.CounterVec
	Issues      *prometheus.CounterVec
	Duration    *prometheus.HistogramVec
}

// New creates a Collector with all metrics registered on reg. A nil reg
// falls back to prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Collector{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skema_validations_total",
			Help: "Total number of validations by schema and outcome",
		}, []string{"schema", "outcome"}),
		Issues: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skema_issues_total",
			Help: "Total number of validation issues by schema and code",
		}, []string{"schema", "code"}),
		Duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skema_validation_duration_seconds",
			Help:    "Duration of validations including input decoding",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.5},
		}, []string{"schema"}),
	}
}

// Observe records one validation of schema that took d and returned err.
func (c *Collector) Observe(schema string, d time.Duration, err error) {
	c.Duration.WithLabelValues(schema).Observe(d.Seconds())
	if err == nil {
		c.Validations.WithLabelValues(schema, OutcomeValid).Inc()
		return
	}
	iss, ok := skema.AsIssues(err)
	if !ok {
		c.Validations.WithLabelValues(schema, OutcomeError).Inc()
		return
	}
	c.Validations.WithLabelValues(schema, OutcomeInvalid).Inc()
	for _, it := range iss {
		c.Issues.WithLabelValues(schema, it.Code).Inc()
	}
}

// Validate runs skema.Validate and observes the result.
func (c *Collector) Validate(ctx context.Context, s *skema.Schema, input any, opts ...skema.ParseOpt) (*skema.Record, error) {
	start := time.Now()
	rec, err := skema.Validate(ctx, s, input, opts...)
	name := ""
	if s != nil {
		name = s.Name()
	}
	c.Observe(name, time.Since(start), err)
	return rec, err
}
