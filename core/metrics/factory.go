package metrics

import (
	"fmt"

	"github.com/kilianp07/ppmsim/core/factory"
)

var sinks = factory.NewRegistry[MetricsSink]()

// RegisterSink makes a sink type available to BuildSink under name.
func RegisterSink(name string, f factory.Factory[MetricsSink]) error {
	return sinks.Register(name, f)
}

// BuildSink builds the configured sinks. No configuration yields a NopSink
// and several are wrapped in a MultiSink. If one sink fails to build, the
// ones already built are closed.
func BuildSink(cfgs []factory.ModuleConfig) (MetricsSink, error) {
	switch len(cfgs) {
	case 0:
		return NopSink{}, nil
	case 1:
		return sinks.Create(cfgs[0])
	}
	built := make([]MetricsSink, 0, len(cfgs))
	for _, c := range cfgs {
		s, err := sinks.Create(c)
		if err != nil {
			for _, b := range built {
				CloseSink(b)
			}
			return nil, fmt.Errorf("metrics sink %q: %w", c.Type, err)
		}
		built = append(built, s)
	}
	return NewMultiSink(built...), nil
}

// Closer is implemented by sinks holding client resources.
type Closer interface {
	Close()
}

// CloseSink releases s if it holds resources.
func CloseSink(s MetricsSink) {
	if c, ok := s.(Closer); ok {
		c.Close()
	}
}
