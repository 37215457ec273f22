package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordSubmittedIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordSubmitted("create_node")
	m.RecordSubmitted("create_node")

	metric := &dto.Metric{}
	require.NoError(t, m.OpsSubmitted.WithLabelValues("create_node").Write(metric))
	assert.Equal(t, float64(2), metric.GetCounter().GetValue())
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSubmitted("x")
		m.RecordCompleted("x")
		m.RecordTimeout()
		m.RecordOrderingFault()
		m.RecordWatchFired()
		m.RecordWatchRegistered()
		m.SetPendingDepth(3)
	})
}
