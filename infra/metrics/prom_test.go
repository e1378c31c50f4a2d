package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/maelviard/trackcast/core/metrics"
	"github.com/maelviard/trackcast/core/model"
)

func predictionEvent() coremetrics.PredictionEvent {
	return coremetrics.PredictionEvent{
		EntityID: "AF1",
		Type:     model.EntityAircraft,
		Source:   model.SourceVector,
		Points:   31,
		Duration: 12 * time.Millisecond,
		Time:     time.Now(),
	}
}

func TestPromSinkCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}

	if err := sink.RecordPrediction(predictionEvent()); err != nil {
		t.Fatalf("record: %v", err)
	}
	hit := predictionEvent()
	hit.CacheHit = true
	if err := sink.RecordPrediction(hit); err != nil {
		t.Fatalf("record: %v", err)
	}
	failed := predictionEvent()
	failed.Error = "no current state"
	if err := sink.RecordPrediction(failed); err != nil {
		t.Fatalf("record: %v", err)
	}

	miss := testutil.ToFloat64(sink.predictions.WithLabelValues("aircraft", "vector", "false", "false"))
	if miss != 1 {
		t.Errorf("miss counter = %v", miss)
	}
	hits := testutil.ToFloat64(sink.predictions.WithLabelValues("aircraft", "vector", "true", "false"))
	if hits != 1 {
		t.Errorf("hit counter = %v", hits)
	}
	errs := testutil.ToFloat64(sink.predictions.WithLabelValues("aircraft", "vector", "false", "true"))
	if errs != 1 {
		t.Errorf("error counter = %v", errs)
	}

	if err := sink.RecordBatch(coremetrics.BatchEvent{Size: 4, Failures: 2}); err != nil {
		t.Fatalf("record batch: %v", err)
	}
	if got := testutil.ToFloat64(sink.batchFailures); got != 2 {
		t.Errorf("batch failures = %v", got)
	}

	if err := sink.RecordInvalidation(coremetrics.InvalidationEvent{EntityID: "AF1", Type: model.EntityAircraft}); err != nil {
		t.Fatalf("record invalidation: %v", err)
	}
	if got := testutil.ToFloat64(sink.invalidations.WithLabelValues("aircraft")); got != 1 {
		t.Errorf("invalidations = %v", got)
	}
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("re-registration should be tolerated: %v", err)
	}
}

type stubSink struct {
	predictions   int
	batches       int
	invalidations int
	err           error
}

func (s *stubSink) RecordPrediction(coremetrics.PredictionEvent) error {
	s.predictions++
	return s.err
}

func (s *stubSink) RecordBatch(coremetrics.BatchEvent) error {
	s.batches++
	return s.err
}

func (s *stubSink) RecordInvalidation(coremetrics.InvalidationEvent) error {
	s.invalidations++
	return s.err
}

// predictionOnly implements just the base Sink contract.
type predictionOnly struct{ predictions int }

func (s *predictionOnly) RecordPrediction(coremetrics.PredictionEvent) error {
	s.predictions++
	return nil
}

func TestMultiSinkFanout(t *testing.T) {
	a, b := &stubSink{}, &stubSink{}
	base := &predictionOnly{}
	multi := NewMultiSink(a, b, base)

	if err := multi.RecordPrediction(predictionEvent()); err != nil {
		t.Fatalf("record: %v", err)
	}
	if a.predictions != 1 || b.predictions != 1 || base.predictions != 1 {
		t.Errorf("prediction fanout = %d/%d/%d", a.predictions, b.predictions, base.predictions)
	}

	// Batch and invalidation events skip sinks that do not record them.
	if err := multi.RecordBatch(coremetrics.BatchEvent{Size: 1}); err != nil {
		t.Fatalf("record batch: %v", err)
	}
	if err := multi.RecordInvalidation(coremetrics.InvalidationEvent{}); err != nil {
		t.Fatalf("record invalidation: %v", err)
	}
	if a.batches != 1 || a.invalidations != 1 {
		t.Errorf("optional fanout = %d/%d", a.batches, a.invalidations)
	}

	// The first error stops the fanout.
	a.err = errors.New("sink down")
	if err := multi.RecordPrediction(predictionEvent()); err == nil {
		t.Fatal("expected the sink error to surface")
	}
	if b.predictions != 1 {
		t.Errorf("fanout continued past the failing sink: %d", b.predictions)
	}
}
