package simulation

import (
	"context"
	"time"

	"github.com/kilianp07/ppmsim/core/logger"
)

// Simulator runs the emission loop: refresh the active plans when due, emit
// for every active plan, sleep, repeat.
type Simulator struct {
	rec      *Reconciler
	emit     *Emitter
	interval time.Duration
	now      func() time.Time
	log      logger.Logger
}

// NewSimulator wires a reconciler and an emitter into a loop ticking every
// interval.
func NewSimulator(rec *Reconciler, emit *Emitter, interval time.Duration, log logger.Logger) *Simulator {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Simulator{rec: rec, emit: emit, interval: interval, now: time.Now, log: log}
}

// SetClock overrides the time source.
func (s *Simulator) SetClock(now func() time.Time) { s.now = now }

// Step runs one cycle and returns the emissions it produced.
func (s *Simulator) Step(ctx context.Context) []Emission {
	now := s.now()
	if s.rec.Due(now) {
		if err := s.rec.Refresh(ctx, now); err != nil && ctx.Err() == nil {
			s.log.Warnf("keeping %d active plans: %v", len(s.rec.plans), err)
		}
	}
	var out []Emission
	for _, plan := range s.rec.Active() {
		if ctx.Err() != nil {
			return out
		}
		out = append(out, s.emit.Process(ctx, plan, s.rec.States().Get(plan.EntityID), now)...)
	}
	return out
}

// Run loops until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context) error {
	s.log.Infof("starting simulation: emission every %s", s.interval)
	for {
		s.Step(ctx)
		t := time.NewTimer(s.interval)
		select {
		case <-ctx.Done():
			t.Stop()
			s.log.Infof("simulation stopped")
			return nil
		case <-t.C:
		}
	}
}
