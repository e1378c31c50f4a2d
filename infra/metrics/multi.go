package metrics

import coremetrics "github.com/maelviard/trackcast/core/metrics"

// MultiSink fans prediction events out to multiple sinks.
type MultiSink struct {
	Sinks []coremetrics.Sink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...coremetrics.Sink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordPrediction forwards the event to all sinks, returning the first
// error encountered.
func (m *MultiSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	for _, s := range m.Sinks {
		if err := s.RecordPrediction(ev); err != nil {
			return err
		}
	}
	return nil
}

// RecordBatch forwards batch events to sinks that record them.
func (m *MultiSink) RecordBatch(ev coremetrics.BatchEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.BatchRecorder); ok {
			if err := rec.RecordBatch(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordInvalidation forwards invalidation events to sinks that record
// them.
func (m *MultiSink) RecordInvalidation(ev coremetrics.InvalidationEvent) error {
	for _, s := range m.Sinks {
		if rec, ok := s.(coremetrics.InvalidationRecorder); ok {
			if err := rec.RecordInvalidation(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
