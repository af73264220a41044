package metrics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ppmsim/core/factory"
	"github.com/kilianp07/ppmsim/core/metrics"
)

type labelSink struct {
	metrics.NopSink
	label  string
	closed int
}

func (l *labelSink) Close() { l.closed++ }

func init() {
	_ = metrics.RegisterSink("label", func(conf map[string]any) (metrics.MetricsSink, error) {
		var c struct {
			Label string `json:"label"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return &labelSink{label: c.Label}, nil
	})
}

func TestBuildSinkDefaultsToNop(t *testing.T) {
	s, err := metrics.BuildSink(nil)
	require.NoError(t, err)
	assert.IsType(t, metrics.NopSink{}, s)
}

func TestBuildSinkSingle(t *testing.T) {
	s, err := metrics.BuildSink([]factory.ModuleConfig{{Type: "label", Conf: map[string]any{"label": "a"}}})
	require.NoError(t, err)
	ls, ok := s.(*labelSink)
	require.True(t, ok, "got %T", s)
	assert.Equal(t, "a", ls.label)
}

func TestBuildSinkMulti(t *testing.T) {
	s, err := metrics.BuildSink([]factory.ModuleConfig{{Type: "label"}, {Type: "label"}})
	require.NoError(t, err)
	m, ok := s.(*metrics.MultiSink)
	require.True(t, ok, "got %T", s)
	assert.Len(t, m.Sinks, 2)
}

func TestBuildSinkUnknown(t *testing.T) {
	_, err := metrics.BuildSink([]factory.ModuleConfig{{Type: "missing"}})
	assert.Error(t, err)
	assert.Error(t, metrics.RegisterSink("label", nil))
}

var tracked []*labelSink

func init() {
	_ = metrics.RegisterSink("tracked", func(map[string]any) (metrics.MetricsSink, error) {
		l := &labelSink{}
		tracked = append(tracked, l)
		return l, nil
	})
}

func TestBuildSinkClosesBuiltSinksOnFailure(t *testing.T) {
	tracked = nil
	_, err := metrics.BuildSink([]factory.ModuleConfig{{Type: "tracked"}, {Type: "missing"}})
	require.Error(t, err)
	require.Len(t, tracked, 1)
	assert.Equal(t, 1, tracked[0].closed)
}

func TestMultiSinkClose(t *testing.T) {
	a, b := &labelSink{}, &labelSink{}
	m := metrics.NewMultiSink(a, metrics.NopSink{}, b)
	m.Close()
	metrics.CloseSink(metrics.NopSink{})
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}
