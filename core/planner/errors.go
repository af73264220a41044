package planner

import "errors"

var (
	// ErrInvalidDuration is returned when a row's duration magnitude is not a
	// positive number of hours.
	ErrInvalidDuration = errors.New("invalid duration")
	// ErrNoProcessOrder is returned when the store holds no process order to
	// attach new plans to.
	ErrNoProcessOrder = errors.New("no process order found")
	// ErrOverlap is returned by a store when an insert would overlap an
	// existing plan for the same product and hierarchy.
	ErrOverlap = errors.New("plan overlaps an existing plan")
)
