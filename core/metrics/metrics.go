// Package metrics defines the observability contract of the prediction
// service. Sinks are injected; NopSink keeps callers unconditional.
package metrics

import (
	"time"

	"github.com/maelviard/trackcast/core/model"
)

// PredictionEvent records one prediction attempt.
type PredictionEvent struct {
	EntityID string
	Type     model.EntityType
	Source   model.Source
	Points   int
	CacheHit bool
	Duration time.Duration
	Error    string
	Time     time.Time
}

// BatchEvent records one batch run.
type BatchEvent struct {
	Size     int
	Failures int
	Duration time.Duration
	Time     time.Time
}

// InvalidationEvent records a store invalidation on fresh state.
type InvalidationEvent struct {
	EntityID string
	Type     model.EntityType
	Time     time.Time
}

// Sink records prediction events for observability purposes.
type Sink interface {
	RecordPrediction(ev PredictionEvent) error
}

// BatchRecorder records batch events.
type BatchRecorder interface {
	RecordBatch(ev BatchEvent) error
}

// InvalidationRecorder records invalidation events.
type InvalidationRecorder interface {
	RecordInvalidation(ev InvalidationEvent) error
}

// NopSink implements Sink and the optional recorders with no-ops.
type NopSink struct{}

func (NopSink) RecordPrediction(PredictionEvent) error     { return nil }
func (NopSink) RecordBatch(BatchEvent) error               { return nil }
func (NopSink) RecordInvalidation(InvalidationEvent) error { return nil }
