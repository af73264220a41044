package metrics

import "time"

// Metric names the telemetry counter an emission carries.
type Metric string

const (
	MetricProduced Metric = "produced"
	MetricReject   Metric = "reject"
)

// EmissionEvent describes one telemetry message published for a plan.
type EmissionEvent struct {
	EntityID  string
	ProjectID string
	PlanID    int64
	Metric    Metric
	Value     int
	Published bool
	Time      time.Time
}

// ImportEvent describes the outcome of one production plan import run.
type ImportEvent struct {
	RunID     string
	Inserted  int
	Duplicate int
	Skipped   int
	Failed    bool
	Duration  time.Duration
	Time      time.Time
}

// MetricsSink records simulator activity for observability purposes.
type MetricsSink interface {
	RecordEmission(ev EmissionEvent) error
	RecordImport(ev ImportEvent) error
	// RecordActivePlans reports how many plans are active after a refresh.
	RecordActivePlans(count int, at time.Time) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordEmission(EmissionEvent) error     { return nil }
func (NopSink) RecordImport(ImportEvent) error         { return nil }
func (NopSink) RecordActivePlans(int, time.Time) error { return nil }
