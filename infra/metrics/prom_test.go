package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ppmsim/core/factory"
	coremetrics "github.com/kilianp07/ppmsim/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, sink.RecordEmission(coremetrics.EmissionEvent{EntityID: "l1", Metric: coremetrics.MetricProduced, Value: 8, Published: true, Time: now}))
	require.NoError(t, sink.RecordEmission(coremetrics.EmissionEvent{EntityID: "l1", Metric: coremetrics.MetricReject, Value: 2, Time: now}))
	require.NoError(t, sink.RecordImport(coremetrics.ImportEvent{Inserted: 3, Duplicate: 2, Duration: time.Second}))
	require.NoError(t, sink.RecordImport(coremetrics.ImportEvent{Failed: true}))
	require.NoError(t, sink.RecordActivePlans(4, now))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.emissions.WithLabelValues("produced", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.emissions.WithLabelValues("reject", "false")))
	assert.Equal(t, 8.0, testutil.ToFloat64(sink.lastValue.WithLabelValues("l1", "produced")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.imports.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.imports.WithLabelValues("failure")))
	assert.Equal(t, 3.0, testutil.ToFloat64(sink.plans.WithLabelValues("inserted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.plans.WithLabelValues("duplicate")))
	assert.Equal(t, 4.0, testutil.ToFloat64(sink.activePlans))
}

func TestPromSinkReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, second.RecordActivePlans(5, time.Now()))
	assert.Equal(t, 5.0, testutil.ToFloat64(first.activePlans))
}

func TestFactoryBuildsNopSink(t *testing.T) {
	sink, err := coremetrics.BuildSink([]factory.ModuleConfig{{Type: "nop"}})
	require.NoError(t, err)
	assert.IsType(t, coremetrics.NopSink{}, sink)
}
