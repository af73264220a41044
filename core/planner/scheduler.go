package planner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kilianp07/ppmsim/core/logger"
	"github.com/kilianp07/ppmsim/core/model"
)

// Target value written to the oee, performance, availability and quality
// columns of every generated plan.
const DefaultTarget = 100

// SkipReason explains why a guide row produced no candidate window.
type SkipReason string

const (
	SkipUnknownProduct  SkipReason = "unknown_product"
	SkipInvalidDuration SkipReason = "invalid_duration"
	SkipInvalidRow      SkipReason = "invalid_row"
)

// RowResult is the outcome of scheduling one guide row. Err is only set for
// failures that must abort the whole run.
type RowResult struct {
	Row        int
	Inserted   []model.PlanWindow
	Duplicates int
	Skip       SkipReason
	Err        error
	// Next is the group cursor after this row.
	Next time.Time
}

// Summary aggregates the row results of one import run.
type Summary struct {
	Inserted  int
	Duplicate int
	Skipped   int
	Skips     map[SkipReason]int
	Plans     []model.PlanWindow
}

func (s *Summary) add(r RowResult) {
	s.Inserted += len(r.Inserted)
	s.Duplicate += r.Duplicates
	s.Plans = append(s.Plans, r.Inserted...)
	if r.Skip != "" {
		s.Skipped++
		if s.Skips == nil {
			s.Skips = map[SkipReason]int{}
		}
		s.Skips[r.Skip]++
	}
}

// Scheduler places guide rows on the timeline and persists the resulting
// plan windows.
type Scheduler struct {
	store PlanStore
	log   logger.Logger
	now   func() time.Time
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the time source used as the scheduling anchor.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler returns a Scheduler writing to store.
func NewScheduler(store PlanStore, log logger.Logger, opts ...Option) *Scheduler {
	if log == nil {
		log = logger.NopLogger{}
	}
	s := &Scheduler{store: store, log: log, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

type group struct {
	base string
	rows []model.GuideRow
}

// groupRows keeps eligible rows, grouped by base entity in order of first
// appearance.
func groupRows(rows []model.GuideRow) []group {
	var groups []group
	index := map[string]int{}
	for _, r := range rows {
		if !r.Eligible() {
			continue
		}
		base := model.BaseEntity(strings.TrimSpace(r.EntityID))
		i, ok := index[base]
		if !ok {
			i = len(groups)
			index[base] = i
			groups = append(groups, group{base: base})
		}
		groups[i].rows = append(groups[i].rows, r)
	}
	return groups
}

// Run schedules rows against the store. Either every insert of the run is
// committed or none is.
func (s *Scheduler) Run(ctx context.Context, rows []model.GuideRow) (Summary, error) {
	now := s.now()
	products, err := s.store.Products(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("load products: %w", err)
	}
	order, err := s.store.FirstProcessOrder(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("resolve process order: %w", err)
	}
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("begin: %w", err)
	}

	var sum Summary
	for _, r := range rows {
		if r.Invalid != "" {
			s.log.Warnf("skipped row %d (%s): %s", r.Row, strings.TrimSpace(r.ProductName), r.Invalid)
			sum.add(RowResult{Row: r.Row, Skip: SkipInvalidRow})
		}
	}
	for _, g := range groupRows(rows) {
		cursor := StartOfDay(now)
		for _, row := range g.rows {
			res := s.scheduleRow(ctx, tx, row, products, order, cursor, now)
			if res.Err != nil {
				if rerr := tx.Rollback(); rerr != nil {
					s.log.Errorf("rollback: %v", rerr)
				}
				return Summary{}, fmt.Errorf("row %d (%s): %w", row.Row, row.ProductName, res.Err)
			}
			cursor = res.Next
			sum.add(res)
		}
	}
	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("commit: %w", err)
	}
	s.log.Infof("import summary: inserted=%d duplicates=%d skipped=%d", sum.Inserted, sum.Duplicate, sum.Skipped)
	return sum, nil
}

func (s *Scheduler) scheduleRow(ctx context.Context, tx PlanTx, row model.GuideRow, products map[string]model.Product, order int64, cursor, now time.Time) RowResult {
	res := RowResult{Row: row.Row, Next: cursor}
	name := strings.TrimSpace(row.ProductName)
	entity := strings.TrimSpace(row.EntityID)
	product, ok := products[name]
	if !ok {
		s.log.Warnf("skipped row %d: product %q not found", row.Row, name)
		res.Skip = SkipUnknownProduct
		return res
	}
	placement, err := Resolve(row, cursor, now)
	if err != nil {
		s.log.Warnf("skipped row %d (%s): %v", row.Row, name, err)
		res.Skip = SkipInvalidDuration
		return res
	}
	res.Next = placement.Next

	for _, w := range placement.Windows {
		exists, err := tx.Overlaps(ctx, product.ID, entity, w)
		if err != nil {
			res.Err = fmt.Errorf("overlap check: %w", err)
			return res
		}
		if exists {
			s.log.Debugf("duplicate %s (%s) %s", name, entity, w)
			res.Duplicates++
			continue
		}
		plan := model.PlanWindow{
			EntityID:        entity,
			ProductID:       product.ID,
			ProjectID:       product.ProjectID,
			Window:          w,
			PlannedQuantity: *row.PlannedQuantity,
			ProcessOrderID:  order,
		}
		id, err := tx.Insert(ctx, plan)
		if errors.Is(err, ErrOverlap) {
			s.log.Warnf("concurrent plan for %s (%s) %s, counted as duplicate", name, entity, w)
			res.Duplicates++
			continue
		}
		if err != nil {
			res.Err = fmt.Errorf("insert: %w", err)
			return res
		}
		plan.ID = id
		s.log.Infof("inserted %s (%s) %s %s", name, entity, row.Kind, w)
		res.Inserted = append(res.Inserted, plan)
	}
	return res
}
