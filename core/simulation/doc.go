// Package simulation replays synthetic production counters for the plans
// that are currently active. The Reconciler polls the store for active plans
// and resets per-entity state when a plan changes, the Emitter publishes the
// produced and reject counters on independent cooldowns, and the Simulator
// drives both in a single sequential loop.
package simulation
