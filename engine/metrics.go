package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hesitationer/into/metric"
)

// engineMetrics holds Prometheus metrics for engine orchestration.
type engineMetrics struct {
	executes        *prometheus.CounterVec   // By graph and status (success/failure)
	executeDuration *prometheus.HistogramVec // By graph
	activeRuns      prometheus.Gauge         // Currently executing graphs
}

// newEngineMetrics creates and registers engine metrics with the provided
// registry. A nil registry disables metrics; all record methods are
// nil-receiver safe.
func newEngineMetrics(registry *metric.MetricsRegistry) *engineMetrics {
	if registry == nil {
		return nil
	}

	m := &engineMetrics{
		executes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "into",
			Subsystem: "engine",
			Name:      "executes_total",
			Help:      "Total number of graph execute operations",
		}, []string{"graph", "status"}),

		executeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "into",
			Subsystem: "engine",
			Name:      "execute_duration_seconds",
			Help:      "Graph execution duration in seconds",
			Buckets:   []float64{0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		}, []string{"graph"}),

		activeRuns: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "into",
			Subsystem: "engine",
			Name:      "active_runs",
			Help:      "Number of graphs currently executing",
		}),
	}

	reg := registry.PrometheusRegistry()
	reg.MustRegister(m.executes, m.executeDuration, m.activeRuns)
	return m
}

func (m *engineMetrics) recordExecute(graph string, success bool, duration time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.executes.WithLabelValues(graph, status).Inc()
	m.executeDuration.WithLabelValues(graph).Observe(duration.Seconds())
}

func (m *engineMetrics) runStarted() {
	if m == nil {
		return
	}
	m.activeRuns.Inc()
}

func (m *engineMetrics) runFinished() {
	if m == nil {
		return
	}
	m.activeRuns.Dec()
}
