package planner

import (
	"context"

	"github.com/kilianp07/ppmsim/core/model"
)

// PlanStore gives the scheduler access to reference data and a unit of work
// over the productionplan table.
type PlanStore interface {
	// Products returns the product table keyed by trimmed product name.
	Products(ctx context.Context) (map[string]model.Product, error)
	// FirstProcessOrder returns the process order new plans are attached to,
	// or ErrNoProcessOrder.
	FirstProcessOrder(ctx context.Context) (int64, error)
	Begin(ctx context.Context) (PlanTx, error)
}

// PlanTx is an all-or-nothing batch of plan inserts.
type PlanTx interface {
	// Overlaps reports whether a plan for the same product and hierarchy
	// intersects w.
	Overlaps(ctx context.Context, productID int64, entityID string, w model.Window) (bool, error)
	// Insert persists p and returns its identifier. It returns ErrOverlap when
	// the store itself rejects an overlapping window.
	Insert(ctx context.Context, p model.PlanWindow) (int64, error)
	Commit() error
	Rollback() error
}
