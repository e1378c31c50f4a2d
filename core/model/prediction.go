package model

import (
	"fmt"
	"time"
)

// Source labels the mechanism that produced a prediction.
type Source string

const (
	SourceFlightPlan  Source = "flight_plan"
	SourceGreatCircle Source = "great_circle"
	SourceRhumbLine   Source = "rhumb_line"
	SourceVector      Source = "vector"
	SourceOrbitSGP4   Source = "orbit_sgp4"
	SourceOrbitKepler Source = "orbit_kepler"
	SourceCorridor    Source = "migration_corridor"
	SourceRandomWalk  Source = "random_walk"
	SourceHazardModel Source = "hazard_model"
)

// PredictionRequest asks for a forecast of one entity over a time window
// sampled every ResolutionSeconds.
type PredictionRequest struct {
	EntityID          string     `json:"entity_id"`
	Type              EntityType `json:"entity_type"`
	From              time.Time  `json:"from_time"`
	To                time.Time  `json:"to_time"`
	ResolutionSeconds int        `json:"resolution_seconds"`
}

// Validate checks the structural invariants of the request. Horizon
// clamping is the predictor's concern, not validation's.
func (r PredictionRequest) Validate() error {
	if r.EntityID == "" {
		return fmt.Errorf("entity_id is required")
	}
	if !r.Type.Valid() {
		return fmt.Errorf("unknown entity type %q", r.Type)
	}
	if !r.To.After(r.From) {
		return fmt.Errorf("to_time must be after from_time")
	}
	if r.ResolutionSeconds <= 0 {
		return fmt.Errorf("resolution_seconds must be positive")
	}
	return nil
}

// Resolution returns the sampling interval as a duration.
func (r PredictionRequest) Resolution() time.Duration {
	return time.Duration(r.ResolutionSeconds) * time.Second
}

// PredictedPoint is one forecast sample. Confidence is in [0,1].
// Attrs carries numeric sub-model outputs such as aftershock rate or
// burned area; keys are sub-model specific.
type PredictedPoint struct {
	Timestamp   time.Time          `json:"timestamp"`
	Position    GeoPoint           `json:"position"`
	Velocity    *Velocity          `json:"velocity,omitempty"`
	Confidence  float64            `json:"confidence"`
	Uncertainty UncertaintyCone    `json:"uncertainty"`
	Attrs       map[string]float64 `json:"attrs,omitempty"`
}

// PredictionResult is an ordered sequence of forecast points for one
// entity. Results are immutable once produced; a fresh request yields a
// fresh result, though the store may hand back a structurally identical
// cached one.
type PredictionResult struct {
	ID          string           `json:"id"`
	EntityID    string           `json:"entity_id"`
	Type        EntityType       `json:"entity_type"`
	Source      Source           `json:"source"`
	GeneratedAt time.Time        `json:"generated_at"`
	Points      []PredictedPoint `json:"points"`
	Warnings    []string         `json:"warnings,omitempty"`
}
