// Package metrics records rule loading statistics as Prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/grim/internal/resource"
	"github.com/hupe1980/grim/internal/rules"
)

const namespace = "grim"

// Collector implements [resource.Observer] on top of a Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	resources    *prometheus.CounterVec
	rules        *prometheus.CounterVec
	loads        *prometheus.CounterVec
	loadDuration prometheus.Histogram
}

// NewCollector registers the loader metrics with registry. A nil registry
// gets a fresh one.
func NewCollector(registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	c := &Collector{
		registry: registry,
		resources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resources_total",
			Help:      "Rule resources discovered, by outcome.",
		}, []string{"outcome"}),
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_total",
			Help:      "Rules decoded, by polarity.",
		}, []string{"polarity"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "loads_total",
			Help:      "Rule set loads, by status.",
		}, []string{"status"}),
		loadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "load_duration_seconds",
			Help:      "Time spent discovering and decoding rule resources.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}

	registry.MustRegister(c.resources, c.rules, c.loads, c.loadDuration)

	return c
}

// Registry returns the registry the metrics are registered with.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// ObserveResource counts one discovered resource.
func (c *Collector) ObserveResource(outcome resource.Outcome) {
	c.resources.WithLabelValues(string(outcome)).Inc()
}

// ObserveRules counts decoded rules by polarity.
func (c *Collector) ObserveRules(loaded []*rules.Rule) {
	for _, r := range loaded {
		c.rules.WithLabelValues(r.Polarity().String()).Inc()
	}
}

// ObserveLoad records one completed load.
func (c *Collector) ObserveLoad(elapsed time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}

	c.loads.WithLabelValues(status).Inc()
	c.loadDuration.Observe(elapsed.Seconds())
}
