// Package app assembles the importer and the simulation from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kilianp07/ppmsim/config"
	coremetrics "github.com/kilianp07/ppmsim/core/metrics"
	coremon "github.com/kilianp07/ppmsim/core/monitoring"
	"github.com/kilianp07/ppmsim/core/model"
	coremqtt "github.com/kilianp07/ppmsim/core/mqtt"
	"github.com/kilianp07/ppmsim/core/planner"
	"github.com/kilianp07/ppmsim/core/simulation"
	"github.com/kilianp07/ppmsim/infra/guide"
	"github.com/kilianp07/ppmsim/infra/logger"
	"github.com/kilianp07/ppmsim/infra/metrics"
	"github.com/kilianp07/ppmsim/infra/monitoring"
	"github.com/kilianp07/ppmsim/infra/mqtt"
	"github.com/kilianp07/ppmsim/infra/store/sqlite"
	"github.com/kilianp07/ppmsim/jobs/planimport"
)

// Mode selects the tasks a Service runs.
type Mode int

const (
	ModeAll Mode = iota
	ModeImport
	ModeSimulate
)

func (m Mode) imports() bool   { return m == ModeAll || m == ModeImport }
func (m Mode) simulates() bool { return m == ModeAll || m == ModeSimulate }

// Options tunes how a Service is built.
type Options struct {
	Mode Mode
	// DryRun logs telemetry instead of publishing it.
	DryRun bool
}

// Transport publishes telemetry and can be disconnected.
type Transport interface {
	coremqtt.Publisher
	Disconnect()
}

// Service runs the daily plan import and the telemetry simulation. Each task
// owns its own store connection.
type Service struct {
	cfg  *config.Config
	opts Options
	log  logger.Logger
	sink coremetrics.MetricsSink

	importStore *sqlite.Store
	simStore    *sqlite.Store
	transport   Transport

	Importer  *planimport.Importer
	Simulator *simulation.Simulator

	closeLogs func() error
}

// New creates a Service from the configuration.
func New(ctx context.Context, cfg *config.Config, opts Options) (svc *Service, err error) {
	closeLogs, err := logger.Configure(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	s := &Service{cfg: cfg, opts: opts, log: logger.New("service"), closeLogs: closeLogs}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, err
	}
	coremon.Init(mon)

	if s.sink, err = coremetrics.BuildSink(cfg.Metrics.Sinks); err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	if opts.Mode.imports() {
		if s.importStore, err = sqlite.Open(ctx, cfg.Store, logger.New("import-store")); err != nil {
			return nil, fmt.Errorf("import store: %w", err)
		}
		sched := planner.NewScheduler(s.importStore, logger.New("planner"))
		load := func() (model.Guide, error) { return guide.Load(cfg.Guide) }
		s.Importer = planimport.New(load, sched, s.sink, logger.New("planimport"))
	}

	if opts.Mode.simulates() {
		if err = s.buildSimulation(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Service) buildSimulation(ctx context.Context) error {
	cfg := s.cfg
	g, err := guide.Load(cfg.Guide)
	if err != nil {
		return fmt.Errorf("load guide: %w", err)
	}
	for _, r := range g.Rows {
		if r.Invalid != "" {
			s.log.Warnf("guide row %d ignored: %s", r.Row, r.Invalid)
		}
	}
	if s.simStore, err = sqlite.Open(ctx, cfg.Store, logger.New("simulation-store")); err != nil {
		return fmt.Errorf("simulation store: %w", err)
	}
	if s.opts.DryRun {
		s.transport = mqtt.NewRecordingPublisher(logger.New("dry-run"))
	} else {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		s.transport = client
	}
	sc := cfg.Simulation
	rec := simulation.NewReconciler(s.simStore, sc.RefreshInterval(), sc.ReconnectBackoff(), logger.New("reconciler"), s.sink)
	emit := simulation.NewEmitter(s.transport, sc.Topic, g.Tags, simulation.NewGuideIndex(g.Rows), sc.RejectCooldown(), logger.New("emitter"), s.sink)
	s.Simulator = simulation.NewSimulator(rec, emit, sc.EmissionInterval(), logger.New("simulator"))
	return nil
}

// Run starts the configured tasks and blocks until ctx is canceled or a task
// fails.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()
	g, ctx := errgroup.WithContext(ctx)
	if s.Importer != nil {
		g.Go(func() error {
			defer coremon.Recover()
			return s.Importer.Run(ctx, s.cfg.Import.CheckInterval())
		})
	}
	if s.Simulator != nil {
		g.Go(func() error {
			defer coremon.Recover()
			return s.Simulator.Run(ctx)
		})
	}
	if s.cfg.Metrics.HasSink("prometheus") && s.cfg.Metrics.PrometheusPort != "" {
		g.Go(func() error {
			if err := metrics.StartPromServer(ctx, s.cfg.Metrics.PrometheusPort, nil); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
			return nil
		})
	}
	s.log.Infof("service started")
	err := g.Wait()
	s.log.Infof("service stopped")
	return err
}

// ImportOnce runs a single import regardless of the daily schedule.
func (s *Service) ImportOnce(ctx context.Context) (planner.Summary, error) {
	if s.Importer == nil {
		return planner.Summary{}, errors.New("service built without importer")
	}
	return s.Importer.RunOnce(ctx)
}

// Close releases the stores first, then the transport and the metrics sinks.
func (s *Service) Close() error {
	var errs []error
	if s.importStore != nil {
		errs = append(errs, s.importStore.Close())
	}
	if s.simStore != nil {
		errs = append(errs, s.simStore.Close())
	}
	if s.transport != nil {
		s.transport.Disconnect()
	}
	if s.sink != nil {
		coremetrics.CloseSink(s.sink)
	}
	coremon.Flush(2 * time.Second)
	if s.closeLogs != nil {
		errs = append(errs, s.closeLogs())
	}
	return errors.Join(errs...)
}
