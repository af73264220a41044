package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/ppmsim/core/metrics"
)

// PromSink records simulator activity in Prometheus metrics.
type PromSink struct {
	emissions   *prometheus.CounterVec
	lastValue   *prometheus.GaugeVec
	imports     *prometheus.CounterVec
	plans       *prometheus.CounterVec
	importTime  prometheus.Histogram
	activePlans prometheus.Gauge
}

// NewPromSink registers metrics on the default Prometheus registerer.
// The HTTP endpoint is started separately with StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on reg. A nil registerer
// defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		emissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppmsim_emissions_total",
			Help: "Telemetry messages emitted per metric",
		}, []string{"metric", "published"}),
		lastValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "ppmsim_emission_value",
			Help: "Last value emitted per entity and metric",
		}, []string{"entity_id", "metric"}),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppmsim_import_runs_total",
			Help: "Production plan import runs by outcome",
		}, []string{"outcome"}),
		plans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ppmsim_import_plans_total",
			Help: "Plan windows handled by import runs",
		}, []string{"result"}),
		importTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ppmsim_import_duration_seconds",
			Help:    "Duration of production plan import runs",
			Buckets: prometheus.DefBuckets,
		}),
		activePlans: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ppmsim_active_plans",
			Help: "Plans active at the last refresh",
		}),
	}
	var err error
	if s.emissions, err = register(reg, s.emissions); err != nil {
		return nil, err
	}
	if s.lastValue, err = register(reg, s.lastValue); err != nil {
		return nil, err
	}
	if s.imports, err = register(reg, s.imports); err != nil {
		return nil, err
	}
	if s.plans, err = register(reg, s.plans); err != nil {
		return nil, err
	}
	if s.importTime, err = register(reg, s.importTime); err != nil {
		return nil, err
	}
	if s.activePlans, err = register(reg, s.activePlans); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the already registered collector when c was registered
// by an earlier sink.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (s *PromSink) RecordEmission(ev coremetrics.EmissionEvent) error {
	published := "false"
	if ev.Published {
		published = "true"
	}
	s.emissions.WithLabelValues(string(ev.Metric), published).Inc()
	s.lastValue.WithLabelValues(ev.EntityID, string(ev.Metric)).Set(float64(ev.Value))
	return nil
}

func (s *PromSink) RecordImport(ev coremetrics.ImportEvent) error {
	outcome := "success"
	if ev.Failed {
		outcome = "failure"
	}
	s.imports.WithLabelValues(outcome).Inc()
	s.plans.WithLabelValues("inserted").Add(float64(ev.Inserted))
	s.plans.WithLabelValues("duplicate").Add(float64(ev.Duplicate))
	s.plans.WithLabelValues("skipped").Add(float64(ev.Skipped))
	s.importTime.Observe(ev.Duration.Seconds())
	return nil
}

func (s *PromSink) RecordActivePlans(count int, _ time.Time) error {
	s.activePlans.Set(float64(count))
	return nil
}
