package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics contains all engine-level metrics (not operation-specific)
type Metrics struct {
	// Operation metrics
	OperationState     *prometheus.GaugeVec
	ObjectsReceived    *prometheus.CounterVec
	ObjectsProcessed   *prometheus.CounterVec
	ObjectsEmitted     *prometheus.CounterVec
	ProcessingDuration *prometheus.HistogramVec
	ErrorsTotal        *prometheus.CounterVec

	// Socket metrics
	QueueDepth *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all engine metrics
func NewMetrics() *Metrics {
	return &Metrics{
		OperationState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "into",
				Subsystem: "operation",
				Name:      "state",
				Help:      "Operation state (0=stopped, 1=starting, 2=running, 3=pausing, 4=paused, 5=stopping, 6=interrupted)",
			},
			[]string{"operation"},
		),

		ObjectsReceived: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "into",
				Subsystem: "objects",
				Name:      "received_total",
				Help:      "Total number of objects delivered to input sockets",
			},
			[]string{"operation", "socket"},
		),

		ObjectsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "into",
				Subsystem: "objects",
				Name:      "processed_total",
				Help:      "Total number of processing steps executed",
			},
			[]string{"operation", "status"},
		),

		ObjectsEmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "into",
				Subsystem: "objects",
				Name:      "emitted_total",
				Help:      "Total number of objects emitted on output sockets",
			},
			[]string{"operation", "socket"},
		),

		ProcessingDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "into",
				Subsystem: "processing",
				Name:      "duration_seconds",
				Help:      "Processing step duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		ErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "into",
				Subsystem: "errors",
				Name:      "total",
				Help:      "Total number of errors by class",
			},
			[]string{"operation", "class"},
		),

		QueueDepth: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "into",
				Subsystem: "socket",
				Name:      "queue_depth",
				Help:      "Number of objects queued on an input socket",
			},
			[]string{"operation", "socket"},
		),
	}
}

// collectors returns all core metric collectors for registration.
func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OperationState,
		m.ObjectsReceived,
		m.ObjectsProcessed,
		m.ObjectsEmitted,
		m.ProcessingDuration,
		m.ErrorsTotal,
		m.QueueDepth,
	}
}
