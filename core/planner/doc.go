// Package planner turns data guide rows into persisted production plan
// windows. Resolve interprets one row's duration specification and Scheduler
// drives it over a whole guide table inside a single store transaction,
// skipping windows that overlap an existing plan for the same product and
// hierarchy so that repeated runs are idempotent.
package planner
