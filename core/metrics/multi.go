package metrics

import (
	"errors"
	"time"
)

// MultiSink fans events out to several sinks. Every sink receives the event
// even when an earlier one fails; the errors are joined.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

func (m *MultiSink) RecordEmission(ev EmissionEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordEmission(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordImport(ev ImportEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordImport(ev))
	}
	return errors.Join(errs...)
}

func (m *MultiSink) RecordActivePlans(count int, at time.Time) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordActivePlans(count, at))
	}
	return errors.Join(errs...)
}

// Close releases every sink that holds resources.
func (m *MultiSink) Close() {
	for _, s := range m.Sinks {
		CloseSink(s)
	}
}
