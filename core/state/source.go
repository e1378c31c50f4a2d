// Package state defines the contract to the ingestion tier: the latest
// normalized EntityState per tracked entity.
package state

import (
	"context"
	"sync"

	"github.com/maelviard/trackcast/core/model"
)

// Source yields the current state of an entity. Implementations return
// ok=false when no state is known; staleness is judged by the caller,
// which knows the entity type's horizon.
type Source interface {
	Current(ctx context.Context, entityID string, entityType model.EntityType) (model.EntityState, bool, error)
}

// MemorySource is an in-memory Source fed by the ingest listener. It is
// also the substitute used throughout the tests.
type MemorySource struct {
	mu     sync.RWMutex
	states map[string]model.EntityState
}

// NewMemorySource returns an empty MemorySource.
func NewMemorySource() *MemorySource {
	return &MemorySource{states: make(map[string]model.EntityState)}
}

func key(id string, t model.EntityType) string { return string(t) + "/" + id }

// Set records the latest state for an entity, replacing any previous one.
func (s *MemorySource) Set(st model.EntityState) {
	s.mu.Lock()
	s.states[key(st.EntityID, st.Type)] = st
	s.mu.Unlock()
}

// Current returns the last state set for the entity.
func (s *MemorySource) Current(_ context.Context, entityID string, entityType model.EntityType) (model.EntityState, bool, error) {
	s.mu.RLock()
	st, ok := s.states[key(entityID, entityType)]
	s.mu.RUnlock()
	return st, ok, nil
}
