// Package metric manages Prometheus metric registration for the engine and
// its operations. A MetricsRegistry owns a private Prometheus registry so
// that two engines in one process never collide on metric names.
package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hesitationer/into/errors"
)

// Registrar defines the interface for registering operation-specific metrics
type Registrar interface {
	RegisterCounter(opName, metricName string, counter prometheus.Counter) error
	RegisterGauge(opName, metricName string, gauge prometheus.Gauge) error
	RegisterHistogram(opName, metricName string, histogram prometheus.Histogram) error
	Unregister(opName, metricName string) bool
}

// MetricsRegistry manages the registration and lifecycle of metrics
type MetricsRegistry struct {
	prometheusRegistry *prometheus.Registry
	Metrics            *Metrics
	registeredMetrics  map[string]prometheus.Collector
	mu                 sync.RWMutex
}

// NewMetricsRegistry creates a new metrics registry with core engine metrics
func NewMetricsRegistry() *MetricsRegistry {
	prometheusRegistry := prometheus.NewRegistry()

	registry := &MetricsRegistry{
		prometheusRegistry: prometheusRegistry,
		registeredMetrics:  make(map[string]prometheus.Collector),
	}

	registry.Metrics = NewMetrics()
	for _, c := range registry.Metrics.collectors() {
		prometheusRegistry.MustRegister(c)
	}

	// Add Go runtime metrics
	registry.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return registry
}

// PrometheusRegistry returns the underlying Prometheus registry
func (r *MetricsRegistry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// CoreMetrics returns the core engine metrics
func (r *MetricsRegistry) CoreMetrics() *Metrics {
	return r.Metrics
}

// RegisterCounter registers a counter metric for an operation
func (r *MetricsRegistry) RegisterCounter(opName, metricName string, counter prometheus.Counter) error {
	return r.register(opName, metricName, counter, "RegisterCounter")
}

// RegisterGauge registers a gauge metric for an operation
func (r *MetricsRegistry) RegisterGauge(opName, metricName string, gauge prometheus.Gauge) error {
	return r.register(opName, metricName, gauge, "RegisterGauge")
}

// RegisterHistogram registers a histogram metric for an operation
func (r *MetricsRegistry) RegisterHistogram(opName, metricName string, histogram prometheus.Histogram) error {
	return r.register(opName, metricName, histogram, "RegisterHistogram")
}

func (r *MetricsRegistry) register(opName, metricName string, c prometheus.Collector, method string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", opName, metricName)

	if _, exists := r.registeredMetrics[key]; exists {
		return errors.WrapConfig(
			fmt.Errorf("metric %s already registered for operation %s", metricName, opName),
			"MetricsRegistry", method, "duplicate metric registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var alreadyRegErr prometheus.AlreadyRegisteredError
		if stderrors.As(err, &alreadyRegErr) {
			return errors.WrapConfig(err, "MetricsRegistry", method,
				fmt.Sprintf("prometheus conflict for metric %s", metricName))
		}
		return errors.WrapRuntime(err, "MetricsRegistry", method,
			"register collector with prometheus")
	}

	r.registeredMetrics[key] = c
	return nil
}

// Unregister removes a metric registered for an operation. Returns true if
// the metric existed.
func (r *MetricsRegistry) Unregister(opName, metricName string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := fmt.Sprintf("%s.%s", opName, metricName)
	c, exists := r.registeredMetrics[key]
	if !exists {
		return false
	}

	r.prometheusRegistry.Unregister(c)
	delete(r.registeredMetrics, key)
	return true
}
