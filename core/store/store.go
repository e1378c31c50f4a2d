// Package store defines the prediction cache contract. The store is a
// pure accelerator: a missing or failing store only changes
// recomputation cost, never correctness, so implementations absorb their
// backend errors and report them as misses.
package store

import (
	"time"

	"github.com/maelviard/trackcast/core/model"
)

// Key identifies one cached prediction: entity plus window plus
// resolution. Times are held as Unix seconds so keys compare cleanly.
type Key struct {
	EntityID          string
	Type              model.EntityType
	FromUnix          int64
	ToUnix            int64
	ResolutionSeconds int
}

// KeyFor derives the cache key for a request.
func KeyFor(req model.PredictionRequest) Key {
	return Key{
		EntityID:          req.EntityID,
		Type:              req.Type,
		FromUnix:          req.From.Unix(),
		ToUnix:            req.To.Unix(),
		ResolutionSeconds: req.ResolutionSeconds,
	}
}

// Store caches prediction results. Writes to one key are atomic with
// last-write-wins by GeneratedAt.
type Store interface {
	// Get returns a cached result that is still valid.
	Get(key Key) (model.PredictionResult, bool)
	// Put stores a result until validUntil.
	Put(key Key, result model.PredictionResult, validUntil time.Time)
	// Invalidate drops all results for an entity. Called when fresh
	// state arrives: forecasts anchored to stale state must not serve
	// as current.
	Invalidate(entityID string)
	// SweepExpired removes entries past their validity and reports how
	// many were dropped.
	SweepExpired(now time.Time) int
}
