package metric

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hesitationer/into/errors"
)

func TestNewMetricsRegistry(t *testing.T) {
	r := NewMetricsRegistry()
	require.NotNil(t, r.PrometheusRegistry())
	require.NotNil(t, r.CoreMetrics())
	assert.Same(t, r.Metrics, r.CoreMetrics())

	// Core metrics are gathered through the private registry.
	families, err := r.PrometheusRegistry().Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestTwoRegistriesAreIndependent(t *testing.T) {
	a := NewMetricsRegistry()
	b := NewMetricsRegistry()

	// The same metric name registers cleanly in both.
	ca := prometheus.NewCounter(prometheus.CounterOpts{Name: "into_test_total"})
	cb := prometheus.NewCounter(prometheus.CounterOpts{Name: "into_test_total"})
	require.NoError(t, a.RegisterCounter("op", "test_total", ca))
	require.NoError(t, b.RegisterCounter("op", "test_total", cb))
}

func TestRegisterDuplicate(t *testing.T) {
	r := NewMetricsRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "into_dup_total"})
	require.NoError(t, r.RegisterCounter("op", "dup", c))

	err := r.RegisterCounter("op", "dup", c)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestRegisterPrometheusConflict(t *testing.T) {
	r := NewMetricsRegistry()
	c1 := prometheus.NewCounter(prometheus.CounterOpts{Name: "into_conflict_total"})
	c2 := prometheus.NewCounter(prometheus.CounterOpts{Name: "into_conflict_total"})
	require.NoError(t, r.RegisterCounter("op-a", "conflict", c1))

	err := r.RegisterCounter("op-b", "conflict", c2)
	require.Error(t, err)
	assert.True(t, errors.IsConfig(err))
}

func TestUnregister(t *testing.T) {
	r := NewMetricsRegistry()
	g := prometheus.NewGauge(prometheus.GaugeOpts{Name: "into_depth"})
	require.NoError(t, r.RegisterGauge("op", "depth", g))

	assert.True(t, r.Unregister("op", "depth"))
	assert.False(t, r.Unregister("op", "depth"))

	// The name is free again after unregistration.
	assert.NoError(t, r.RegisterGauge("op", "depth", g))
}

func TestRegisterHistogram(t *testing.T) {
	r := NewMetricsRegistry()
	h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: "into_latency_seconds"})
	assert.NoError(t, r.RegisterHistogram("op", "latency", h))
}
