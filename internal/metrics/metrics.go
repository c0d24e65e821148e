// Package metrics exposes Prometheus counters for template resolution,
// mutation and cache invalidation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics of the template engine. It
// satisfies engine.Metrics.
type Metrics struct {
	ResolutionsTotal   *prometheus.CounterVec
	MutationsTotal     *prometheus.CounterVec
	MutationErrors     *prometheus.CounterVec
	InvalidationsTotal prometheus.Counter

	registry *prometheus.Registry
}

// New creates a new Metrics instance with all metrics registered on its
// own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		ResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetemplates_resolutions_total",
				Help: "Total number of template resolutions by type and source",
			},
			[]string{"type", "source"},
		),
		MutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetemplates_mutations_total",
				Help: "Total number of template mutations by operation",
			},
			[]string{"op"},
		),
		MutationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sitetemplates_mutation_errors_total",
				Help: "Total number of failed template mutations by operation",
			},
			[]string{"op"},
		),
		InvalidationsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sitetemplates_cache_invalidations_total",
				Help: "Total number of template cache entries invalidated",
			},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.ResolutionsTotal,
		m.MutationsTotal,
		m.MutationErrors,
		m.InvalidationsTotal,
	)

	return m
}

// Registry returns the Prometheus registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveResolution counts a resolution.
func (m *Metrics) ObserveResolution(tmplType, source string) {
	m.ResolutionsTotal.WithLabelValues(tmplType, source).Inc()
}

// ObserveMutation counts a mutation and, when err is set, its failure.
func (m *Metrics) ObserveMutation(op string, err error) {
	m.MutationsTotal.WithLabelValues(op).Inc()
	if err != nil {
		m.MutationErrors.WithLabelValues(op).Inc()
	}
}

// ObserveInvalidation counts invalidated cache entries.
func (m *Metrics) ObserveInvalidation(n int) {
	m.InvalidationsTotal.Add(float64(n))
}
