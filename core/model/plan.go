package model

import (
	"fmt"
	"time"
)

// Window is a closed time range whose End is the last second it covers.
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether both windows share at least one instant.
func (w Window) Overlaps(o Window) bool {
	return !w.End.Before(o.Start) && !w.Start.After(o.End)
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s]", w.Start.Format(time.DateTime), w.End.Format(time.DateTime))
}

// Product is a row of the product table.
type Product struct {
	ID        int64
	Name      string
	ProjectID string
}

// PlanWindow is a production plan as persisted in the productionplan table.
type PlanWindow struct {
	ID              int64
	EntityID        string
	ProductID       int64
	ProjectID       string
	Window          Window
	PlannedQuantity int
	ProcessOrderID  int64
}

// ActivePlan is a persisted plan whose window contains the current time.
type ActivePlan struct {
	PlanWindow
	ProductName string
}
