// Package planimport runs the production plan import once per calendar day.
package planimport

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/ppmsim/core/logger"
	"github.com/kilianp07/ppmsim/core/metrics"
	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/core/monitoring"
	"github.com/kilianp07/ppmsim/core/planner"
)

// Config defines how often the daily import is checked.
type Config struct {
	CheckIntervalSeconds int `json:"check_interval_seconds"`
}

// SetDefaults applies the one minute check interval.
func (c *Config) SetDefaults() {
	if c.CheckIntervalSeconds <= 0 {
		c.CheckIntervalSeconds = 60
	}
}

// CheckInterval returns the configured interval.
func (c Config) CheckInterval() time.Duration {
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// GuideLoader reads the current guide table.
type GuideLoader func() (model.Guide, error)

// Scheduler persists plans for guide rows.
type Scheduler interface {
	Run(ctx context.Context, rows []model.GuideRow) (planner.Summary, error)
}

// Importer reloads the guide and schedules it. The guide is read on every run
// so edits are picked up by the next day's import.
type Importer struct {
	load    GuideLoader
	sched   Scheduler
	sink    metrics.MetricsSink
	log     logger.Logger
	now     func() time.Time
	lastDay string
}

// New returns an Importer.
func New(load GuideLoader, sched Scheduler, sink metrics.MetricsSink, log logger.Logger) *Importer {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Importer{load: load, sched: sched, sink: sink, log: log, now: time.Now}
}

// SetClock overrides the time source.
func (i *Importer) SetClock(now func() time.Time) { i.now = now }

// RunOnce performs one import run.
func (i *Importer) RunOnce(ctx context.Context) (planner.Summary, error) {
	runID := uuid.NewString()
	start := i.now()
	log := i.log
	log.Infof("production plan import %s started", runID)

	sum, err := i.run(ctx)
	ev := metrics.ImportEvent{
		RunID:     runID,
		Inserted:  sum.Inserted,
		Duplicate: sum.Duplicate,
		Skipped:   sum.Skipped,
		Failed:    err != nil,
		Duration:  i.now().Sub(start),
		Time:      start,
	}
	if serr := i.sink.RecordImport(ev); serr != nil {
		log.Warnf("record import metrics: %v", serr)
	}
	if err != nil && ctx.Err() != nil {
		log.Warnf("production plan import %s interrupted: %v", runID, err)
		return sum, err
	}
	if err != nil {
		monitoring.CaptureException(err, map[string]string{"module": "planimport", "run_id": runID})
		return sum, err
	}
	log.Infof("production plan import %s completed", runID)
	return sum, nil
}

func (i *Importer) run(ctx context.Context) (planner.Summary, error) {
	guide, err := i.load()
	if err != nil {
		return planner.Summary{}, fmt.Errorf("load guide: %w", err)
	}
	return i.sched.Run(ctx, guide.Rows)
}

// Due reports whether no import succeeded yet on now's calendar day.
func (i *Importer) Due(now time.Time) bool {
	return i.lastDay != now.Format(time.DateOnly)
}

// Tick runs the import if it is due. A failed run leaves the day pending so
// the next tick retries it.
func (i *Importer) Tick(ctx context.Context) error {
	now := i.now()
	if !i.Due(now) {
		return nil
	}
	i.log.Infof("running daily production plan import")
	if _, err := i.RunOnce(ctx); err != nil {
		return err
	}
	i.lastDay = now.Format(time.DateOnly)
	return nil
}

// Run checks every interval until ctx is canceled. Errors are logged and
// never stop the loop.
func (i *Importer) Run(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if err := i.Tick(ctx); err != nil && ctx.Err() == nil {
			i.log.Errorf("production plan import failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
}
