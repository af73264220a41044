package simulation

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kilianp07/ppmsim/core/logger"
	"github.com/kilianp07/ppmsim/core/metrics"
	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/core/monitoring"
)

// PlanSource serves the plans whose window contains a given instant.
type PlanSource interface {
	ActivePlans(ctx context.Context, now time.Time) ([]model.ActivePlan, error)
	// Reconnect drops the current connection and opens a new one.
	Reconnect(ctx context.Context) error
}

// Reconciler keeps the set of active plans in sync with the store and owns
// the per-entity emission state.
type Reconciler struct {
	src      PlanSource
	states   *StateStore
	plans    map[string]model.ActivePlan
	last     time.Time
	interval time.Duration
	backoff  time.Duration
	log      logger.Logger
	sink     metrics.MetricsSink
}

// NewReconciler returns a Reconciler polling src every interval and waiting
// backoff after a failed poll.
func NewReconciler(src PlanSource, interval, backoff time.Duration, log logger.Logger, sink metrics.MetricsSink) *Reconciler {
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Reconciler{
		src:      src,
		states:   NewStateStore(),
		plans:    map[string]model.ActivePlan{},
		interval: interval,
		backoff:  backoff,
		log:      log,
		sink:     sink,
	}
}

// Due reports whether the refresh interval has elapsed since the last
// successful refresh.
func (r *Reconciler) Due(now time.Time) bool {
	return r.last.IsZero() || now.Sub(r.last) >= r.interval
}

// Refresh replaces the active plan set with the plans containing now. An
// entity whose plan id changed gets a fresh EmissionState; entities without a
// plan are forgotten. On failure the current set is kept, the source is
// reconnected and the error returned so the caller retries next cycle. A
// cancelled ctx is not a store failure and skips the reconnect.
func (r *Reconciler) Refresh(ctx context.Context, now time.Time) error {
	plans, err := r.src.ActivePlans(ctx, now)
	if err != nil && ctx.Err() != nil {
		return fmt.Errorf("refresh active plans: %w", ctx.Err())
	}
	if err != nil {
		r.log.Errorf("active plan query failed, reconnecting: %v", err)
		monitoring.Capture(err, "reconciler")
		if rerr := r.src.Reconnect(ctx); rerr != nil {
			r.log.Errorf("reconnect: %v", rerr)
		}
		r.wait(ctx)
		return fmt.Errorf("refresh active plans: %w", err)
	}

	next := make(map[string]model.ActivePlan, len(plans))
	for _, p := range plans {
		// One plan per entity; the most recently created one wins.
		if cur, ok := next[p.EntityID]; ok && cur.ID > p.ID {
			continue
		}
		next[p.EntityID] = p
	}
	for entity, p := range next {
		prev, ok := r.plans[entity]
		if !ok || prev.ID != p.ID {
			r.states.Reset(entity)
			r.log.Infof("plan %d active for %s (%s) until %s", p.ID, entity, p.ProductName, p.Window.End.Format(time.DateTime))
		}
	}
	for entity := range r.plans {
		if _, ok := next[entity]; !ok {
			r.states.Drop(entity)
			r.log.Infof("no active plan for %s", entity)
		}
	}
	r.plans = next
	r.last = now
	if err := r.sink.RecordActivePlans(len(next), now); err != nil {
		r.log.Warnf("record active plans: %v", err)
	}
	r.log.Debugf("refreshed active plans at %s: %d active", now.Format(time.DateTime), len(next))
	return nil
}

func (r *Reconciler) wait(ctx context.Context) {
	if r.backoff <= 0 {
		return
	}
	t := time.NewTimer(r.backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// Active returns the active plans ordered by entity.
func (r *Reconciler) Active() []model.ActivePlan {
	out := make([]model.ActivePlan, 0, len(r.plans))
	for _, p := range r.plans {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// States exposes the emission state owned by the reconciler.
func (r *Reconciler) States() *StateStore { return r.states }
