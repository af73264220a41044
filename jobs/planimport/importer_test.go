package planimport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/ppmsim/core/metrics"
	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/core/monitoring"
	"github.com/kilianp07/ppmsim/core/planner"
)

type recordSink struct {
	metrics.NopSink
	imports []metrics.ImportEvent
}

func (r *recordSink) RecordImport(ev metrics.ImportEvent) error {
	r.imports = append(r.imports, ev)
	return nil
}

type recordMonitor struct {
	monitoring.NopMonitor
	errs []error
	tags []map[string]string
}

func (r *recordMonitor) CaptureException(err error, tags map[string]string) {
	r.errs = append(r.errs, err)
	r.tags = append(r.tags, tags)
}

func testGuide() (model.Guide, error) {
	q := 10
	return model.Guide{Rows: []model.GuideRow{
		{Row: 1, EntityID: "l1$ast_1", ProductName: "Widget", Kind: model.KindHour, DurationHours: "1", PlannedQuantity: &q},
	}}, nil
}

func newStore() *planner.MemoryStore {
	s := planner.NewMemoryStore()
	s.AddProduct("Widget", "project_1")
	s.AddProcessOrder(1)
	return s
}

func TestRunOnceRecordsImport(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	store := newStore()
	sink := &recordSink{}
	imp := New(testGuide, planner.NewScheduler(store, nil, planner.WithClock(func() time.Time { return now })), sink, nil)
	imp.SetClock(func() time.Time { return now })

	sum, err := imp.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Inserted)
	require.Len(t, sink.imports, 1)
	assert.Equal(t, 1, sink.imports[0].Inserted)
	assert.False(t, sink.imports[0].Failed)
	assert.NotEmpty(t, sink.imports[0].RunID)
}

func TestTickRunsOncePerDay(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	store := newStore()
	imp := New(testGuide, planner.NewScheduler(store, nil, planner.WithClock(func() time.Time { return now })), nil, nil)
	imp.SetClock(func() time.Time { return now })

	require.NoError(t, imp.Tick(context.Background()))
	now = now.Add(time.Hour)
	require.NoError(t, imp.Tick(context.Background()))
	assert.Equal(t, 1, store.Calls["begin"], "second tick on the same day must not import")

	now = now.Add(24 * time.Hour)
	assert.True(t, imp.Due(now))
	require.NoError(t, imp.Tick(context.Background()))
	assert.Equal(t, 2, store.Calls["begin"])
}

func TestTickFailureIsRetried(t *testing.T) {
	now := time.Date(2025, 3, 5, 10, 0, 0, 0, time.UTC)
	mon := &recordMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(monitoring.NopMonitor{})

	fail := true
	load := func() (model.Guide, error) {
		if fail {
			return model.Guide{}, errors.New("workbook locked")
		}
		return testGuide()
	}
	sink := &recordSink{}
	store := newStore()
	imp := New(load, planner.NewScheduler(store, nil), sink, nil)
	imp.SetClock(func() time.Time { return now })

	err := imp.Tick(context.Background())
	require.Error(t, err)
	assert.True(t, imp.Due(now))
	require.Len(t, mon.errs, 1)
	assert.Equal(t, "planimport", mon.tags[0]["module"])
	require.Len(t, sink.imports, 1)
	assert.True(t, sink.imports[0].Failed)

	fail = false
	require.NoError(t, imp.Tick(context.Background()))
	assert.False(t, imp.Due(now))
}

func TestRunOnceCancelledIsNotCaptured(t *testing.T) {
	mon := &recordMonitor{}
	monitoring.Init(mon)
	defer monitoring.Init(monitoring.NopMonitor{})

	ctx, cancel := context.WithCancel(context.Background())
	load := func() (model.Guide, error) {
		cancel()
		return model.Guide{}, context.Canceled
	}
	imp := New(load, planner.NewScheduler(newStore(), nil), nil, nil)
	_, err := imp.RunOnce(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, mon.errs)
}

func TestRunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := newStore()
	imp := New(testGuide, planner.NewScheduler(store, nil), nil, nil)
	done := make(chan error, 1)
	go func() { done <- imp.Run(ctx, time.Millisecond) }()
	time.Sleep(10 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("importer did not stop")
	}
	assert.Equal(t, 1, store.Calls["begin"])
}
