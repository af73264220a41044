package simulation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/ppmsim/core/logger"
	"github.com/kilianp07/ppmsim/core/metrics"
	"github.com/kilianp07/ppmsim/core/model"
	"github.com/kilianp07/ppmsim/core/monitoring"
	"github.com/kilianp07/ppmsim/core/mqtt"
)

// GuideKey identifies the guide row driving the telemetry of a plan.
type GuideKey struct {
	EntityID    string
	ProductName string
}

// GuideIndex maps (hierarchy, product) to its guide row.
type GuideIndex map[GuideKey]model.GuideRow

// NewGuideIndex indexes rows by trimmed hierarchy and product name. Later
// rows replace earlier ones with the same key. Rows with unparseable cells
// are left out.
func NewGuideIndex(rows []model.GuideRow) GuideIndex {
	idx := make(GuideIndex, len(rows))
	for _, r := range rows {
		if r.Invalid != "" {
			continue
		}
		idx[GuideKey{strings.TrimSpace(r.EntityID), strings.TrimSpace(r.ProductName)}] = r
	}
	return idx
}

// Lookup returns the guide row for the given hierarchy and product.
func (g GuideIndex) Lookup(entity, product string) (model.GuideRow, bool) {
	r, ok := g[GuideKey{strings.TrimSpace(entity), strings.TrimSpace(product)}]
	return r, ok
}

// Emission is one message produced by an emission pass.
type Emission struct {
	Metric  metrics.Metric
	Message Message
	// Err is the publish error, if any. The emission still counts.
	Err error
}

// Emitter decides which counters are due for an active plan and publishes
// them.
type Emitter struct {
	pub            mqtt.Publisher
	topic          string
	tags           model.Tags
	guide          GuideIndex
	rejectCooldown time.Duration
	log            logger.Logger
	sink           metrics.MetricsSink
}

// NewEmitter returns an Emitter publishing to topic.
func NewEmitter(pub mqtt.Publisher, topic string, tags model.Tags, guide GuideIndex, rejectCooldown time.Duration, log logger.Logger, sink metrics.MetricsSink) *Emitter {
	if log == nil {
		log = logger.NopLogger{}
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Emitter{
		pub:            pub,
		topic:          topic,
		tags:           tags,
		guide:          guide,
		rejectCooldown: rejectCooldown,
		log:            log,
		sink:           sink,
	}
}

func due(last, now time.Time, cooldown time.Duration) bool {
	return last.IsZero() || now.Sub(last) >= cooldown
}

// Process evaluates the produced and reject counters of plan independently
// and publishes those whose cooldown has elapsed. st belongs to plan's entity.
func (e *Emitter) Process(ctx context.Context, plan model.ActivePlan, st *EmissionState, now time.Time) []Emission {
	row, ok := e.guide.Lookup(plan.EntityID, plan.ProductName)
	if !ok {
		e.log.Warnf("no data guide entry for hierarchy %s and product %s, skipping", plan.EntityID, plan.ProductName)
		return nil
	}

	var out []Emission
	frequency := time.Duration(row.FrequencyMinutes) * time.Minute
	if due(st.LastProduced, now, frequency) {
		st.Produced += row.TotalUnitsPerCycle
		out = append(out, e.emit(ctx, plan, metrics.MetricProduced, e.tags.Produced, st.Produced, now))
		st.LastProduced = now
	}
	if due(st.LastReject, now, e.rejectCooldown) {
		out = append(out, e.emit(ctx, plan, metrics.MetricReject, e.tags.Reject, row.RejectPerHour, now))
		st.LastReject = now
	}
	return out
}

func (e *Emitter) emit(ctx context.Context, plan model.ActivePlan, metric metrics.Metric, tag string, value int, now time.Time) Emission {
	msg := NewMessage(plan.EntityID, tag, value, plan.ProjectID, now)
	em := Emission{Metric: metric, Message: msg}
	payload, err := json.Marshal(msg)
	if err == nil {
		err = e.pub.Publish(ctx, e.topic, payload)
	}
	if err != nil {
		em.Err = fmt.Errorf("publish %s for %s: %w", metric, plan.EntityID, err)
		e.log.Errorf("%v", em.Err)
		monitoring.Capture(em.Err, "emitter")
	} else {
		e.log.Infof("%s (%d) pushed for %s at %s", metric, value, plan.EntityID, now.Format(time.TimeOnly))
	}
	ev := metrics.EmissionEvent{
		EntityID:  plan.EntityID,
		ProjectID: plan.ProjectID,
		PlanID:    plan.ID,
		Metric:    metric,
		Value:     value,
		Published: err == nil,
		Time:      now,
	}
	if serr := e.sink.RecordEmission(ev); serr != nil {
		e.log.Warnf("record emission: %v", serr)
	}
	return em
}
