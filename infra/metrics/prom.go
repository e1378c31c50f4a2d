// Package metrics provides the Prometheus and InfluxDB sinks behind
// the core metrics contract.
package metrics

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/maelviard/trackcast/core/metrics"
)

// PromSink records prediction events in Prometheus metrics.
type PromSink struct {
	predictions   *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	batchFailures prometheus.Counter
	invalidations *prometheus.CounterVec
}

// NewPromSink registers the prediction metrics on the default
// Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global one.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	predictions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "predictions_total",
		Help: "Total number of prediction attempts",
	}, []string{"entity_type", "source", "cache_hit", "error"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_duration_seconds",
		Help:    "Time spent computing one prediction",
		Buckets: prometheus.DefBuckets,
	}, []string{"entity_type"})
	batchFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prediction_batch_failures_total",
		Help: "Failed slots across batch prediction runs",
	})
	invalidations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_invalidations_total",
		Help: "Store invalidations triggered by fresh entity state",
	}, []string{"entity_type"})

	for _, c := range []prometheus.Collector{predictions, latency, batchFailures, invalidations} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return nil, err
			}
		}
	}
	return &PromSink{
		predictions:   predictions,
		latency:       latency,
		batchFailures: batchFailures,
		invalidations: invalidations,
	}, nil
}

// RecordPrediction implements coremetrics.Sink.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	hadErr := ev.Error != ""
	s.predictions.WithLabelValues(
		ev.Type.String(), string(ev.Source),
		strconv.FormatBool(ev.CacheHit), strconv.FormatBool(hadErr),
	).Inc()
	if !hadErr {
		s.latency.WithLabelValues(ev.Type.String()).Observe(ev.Duration.Seconds())
	}
	return nil
}

// RecordBatch implements coremetrics.BatchRecorder.
func (s *PromSink) RecordBatch(ev coremetrics.BatchEvent) error {
	s.batchFailures.Add(float64(ev.Failures))
	return nil
}

// RecordInvalidation implements coremetrics.InvalidationRecorder.
func (s *PromSink) RecordInvalidation(ev coremetrics.InvalidationEvent) error {
	s.invalidations.WithLabelValues(ev.Type.String()).Inc()
	return nil
}

// StartPromServer exposes /metrics on the given port and blocks.
func StartPromServer(port int) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return http.ListenAndServe(fmt.Sprintf(":%d", port), mux)
}
