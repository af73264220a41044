package simulation

import "time"

// EmissionState tracks what has been emitted for the active plan of one
// entity. Zero timestamps mean the metric has not been emitted yet.
type EmissionState struct {
	Produced     int
	LastProduced time.Time
	LastReject   time.Time
}

// StateStore holds the EmissionState of every entity with an active plan.
// It is not safe for concurrent use; the simulation loop is sequential.
type StateStore struct {
	states map[string]*EmissionState
}

// NewStateStore returns an empty store.
func NewStateStore() *StateStore {
	return &StateStore{states: map[string]*EmissionState{}}
}

// Get returns the state for entity, creating it when missing.
func (s *StateStore) Get(entity string) *EmissionState {
	st, ok := s.states[entity]
	if !ok {
		st = &EmissionState{}
		s.states[entity] = st
	}
	return st
}

// Lookup returns a copy of the state for entity.
func (s *StateStore) Lookup(entity string) (EmissionState, bool) {
	st, ok := s.states[entity]
	if !ok {
		return EmissionState{}, false
	}
	return *st, true
}

// Reset zeroes the counter and clears both emission timestamps.
func (s *StateStore) Reset(entity string) {
	s.states[entity] = &EmissionState{}
}

// Drop forgets entity.
func (s *StateStore) Drop(entity string) {
	delete(s.states, entity)
}

func (s *StateStore) Len() int { return len(s.states) }
