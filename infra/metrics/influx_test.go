package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ppmsim/core/metrics"
)

type lineRecorder struct {
	mu     sync.Mutex
	bodies []string
}

func (l *lineRecorder) server(t *testing.T) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		l.mu.Lock()
		l.bodies = append(l.bodies, strings.TrimSpace(string(data)))
		l.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestInfluxSink_RecordEmission(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL, Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.EmissionEvent{EntityID: "l1$ast_1", ProjectID: "project_1", PlanID: 3, Metric: coremetrics.MetricProduced, Value: 12, Published: true, Time: now}
	if err := sink.RecordEmission(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("telemetry_emission").
		AddTag("entity_id", "l1$ast_1").
		AddTag("project_id", "project_1").
		AddTag("metric", "produced").
		AddTag("published", "true").
		AddField("value", 12).
		AddField("plan_id", int64(3)).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(rec.bodies) != 1 || rec.bodies[0] != expected {
		t.Errorf("unexpected body: %v", rec.bodies)
	}
}

func TestInfluxSink_RecordImport(t *testing.T) {
	rec := &lineRecorder{}
	srv := rec.server(t)
	sink := NewInfluxSink(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "token", Org: "org", Bucket: "bucket"})
	defer sink.Close()

	now := time.Now()
	ev := coremetrics.ImportEvent{RunID: "run-1", Inserted: 4, Duplicate: 1, Skipped: 2, Duration: 1500 * time.Millisecond, Time: now}
	if err := sink.RecordImport(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if err := sink.RecordActivePlans(7, now); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if len(rec.bodies) != 2 {
		t.Fatalf("expected 2 writes, got %d", len(rec.bodies))
	}
	if !strings.HasPrefix(rec.bodies[0], "plan_import,failed=false,run_id=run-1 ") {
		t.Errorf("unexpected import line: %s", rec.bodies[0])
	}
	if !strings.Contains(rec.bodies[0], "duration_ms=1500i") {
		t.Errorf("duration missing: %s", rec.bodies[0])
	}
	if !strings.HasPrefix(rec.bodies[1], "active_plans count=7i") {
		t.Errorf("unexpected active line: %s", rec.bodies[1])
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(InfluxConfig{URL: srv.URL + "/api/v2/write", Token: "tok", Org: "org", Bucket: "bucket"})
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
