package metrics

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/ppmsim/core/metrics"
	"github.com/kilianp07/ppmsim/infra/logger"
)

// InfluxConfig holds the InfluxDB connection settings.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes simulator events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

func (s *InfluxSink) write(p *write.Point) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordEmission writes one telemetry emission.
func (s *InfluxSink) RecordEmission(ev coremetrics.EmissionEvent) error {
	p := write.NewPointWithMeasurement("telemetry_emission").
		AddTag("entity_id", ev.EntityID).
		AddTag("project_id", ev.ProjectID).
		AddTag("metric", string(ev.Metric)).
		AddTag("published", strconv.FormatBool(ev.Published)).
		AddField("value", ev.Value).
		AddField("plan_id", ev.PlanID).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordImport writes the summary of an import run.
func (s *InfluxSink) RecordImport(ev coremetrics.ImportEvent) error {
	p := write.NewPointWithMeasurement("plan_import").
		AddTag("run_id", ev.RunID).
		AddTag("failed", strconv.FormatBool(ev.Failed)).
		AddField("inserted", ev.Inserted).
		AddField("duplicate", ev.Duplicate).
		AddField("skipped", ev.Skipped).
		AddField("duration_ms", ev.Duration.Milliseconds()).
		SetTime(ev.Time)
	return s.write(p)
}

// RecordActivePlans writes the number of active plans.
func (s *InfluxSink) RecordActivePlans(count int, at time.Time) error {
	p := write.NewPointWithMeasurement("active_plans").
		AddField("count", count).
		SetTime(at)
	return s.write(p)
}

// Close releases the client resources.
func (s *InfluxSink) Close() { s.client.Close() }
