// Package service is the prediction façade: it routes requests to the
// predictor serving the entity type, runs batches over a bounded worker
// pool, and exposes the weather pass-through and health surface.
package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/maelviard/trackcast/core/logger"
	"github.com/maelviard/trackcast/core/metrics"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
	"github.com/maelviard/trackcast/core/store"
	"github.com/maelviard/trackcast/core/weather"
	"github.com/maelviard/trackcast/internal/eventbus"
)

// PredictionMade is published on the event bus after each successful
// prediction.
type PredictionMade struct {
	EntityID string
	Type     model.EntityType
	Source   model.Source
	Points   int
}

// StateInvalidated is published when fresh state drops cached forecasts
// for an entity.
type StateInvalidated struct {
	EntityID string
	Type     model.EntityType
}

// Config tunes the façade.
type Config struct {
	// Workers bounds the batch worker pool.
	Workers int `json:"workers"`
}

// SetDefaults applies the façade defaults.
func (c *Config) SetDefaults() {
	if c.Workers <= 0 {
		c.Workers = 8
	}
}

// Service dispatches prediction requests by entity type.
type Service struct {
	cfg        Config
	predictors map[model.EntityType]*predict.Predictor
	cache      store.Store
	forecast   weather.Forecaster
	sink       metrics.Sink
	bus        eventbus.EventBus
	log        logger.Logger
	now        func() time.Time
}

// Option tweaks a Service.
type Option func(*Service)

// WithEventBus publishes service events on the given bus.
func WithEventBus(bus eventbus.EventBus) Option {
	return func(s *Service) { s.bus = bus }
}

// WithForecaster enables the weather pass-through.
func WithForecaster(f weather.Forecaster) Option {
	return func(s *Service) { s.forecast = f }
}

// WithMetrics records service events on the given sink.
func WithMetrics(sink metrics.Sink) Option {
	return func(s *Service) { s.sink = sink }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a Service over the given predictors. cache may be nil.
func New(cfg Config, predictors []*predict.Predictor, cache store.Store, log logger.Logger, opts ...Option) *Service {
	cfg.SetDefaults()
	byType := make(map[model.EntityType]*predict.Predictor, len(predictors))
	for _, p := range predictors {
		byType[p.Type()] = p
	}
	s := &Service{
		cfg:        cfg,
		predictors: byType,
		cache:      cache,
		sink:       metrics.NopSink{},
		log:        log,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// PredictOne routes one request to the matching predictor.
func (s *Service) PredictOne(ctx context.Context, req model.PredictionRequest) (model.PredictionResult, error) {
	p, ok := s.predictors[req.Type]
	if !ok {
		return model.PredictionResult{}, fmt.Errorf("%w: %q", predict.ErrUnknownEntityType, req.Type)
	}

	start := s.now()
	result, err := p.Predict(ctx, req)
	ev := metrics.PredictionEvent{
		EntityID: req.EntityID,
		Type:     req.Type,
		Duration: s.now().Sub(start),
		Time:     start,
	}
	if err != nil {
		ev.Error = err.Error()
		if serr := s.sink.RecordPrediction(ev); serr != nil {
			s.log.Warnf("metrics sink: %v", serr)
		}
		return model.PredictionResult{}, err
	}
	ev.Source = result.Source
	ev.Points = len(result.Points)
	ev.CacheHit = result.GeneratedAt.Before(start)
	if serr := s.sink.RecordPrediction(ev); serr != nil {
		s.log.Warnf("metrics sink: %v", serr)
	}
	if s.bus != nil {
		s.bus.Publish(PredictionMade{
			EntityID: result.EntityID,
			Type:     result.Type,
			Source:   result.Source,
			Points:   len(result.Points),
		})
	}
	return result, nil
}

// BatchItem is one slot of a batch answer: a result or an error, never
// both.
type BatchItem struct {
	Result model.PredictionResult
	Err    error
}

// PredictBatch runs the requests independently across the worker pool.
// Slots map one-to-one onto the input order; one failing request never
// aborts its siblings.
func (s *Service) PredictBatch(ctx context.Context, reqs []model.PredictionRequest) []BatchItem {
	start := s.now()
	items := make([]BatchItem, len(reqs))

	sem := make(chan struct{}, s.cfg.Workers)
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func(i int, req model.PredictionRequest) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			res, err := s.PredictOne(ctx, req)
			items[i] = BatchItem{Result: res, Err: err}
		}(i, req)
	}
	wg.Wait()

	failures := 0
	for _, it := range items {
		if it.Err != nil {
			failures++
		}
	}
	if rec, ok := s.sink.(metrics.BatchRecorder); ok {
		if err := rec.RecordBatch(metrics.BatchEvent{
			Size:     len(reqs),
			Failures: failures,
			Duration: s.now().Sub(start),
			Time:     start,
		}); err != nil {
			s.log.Warnf("metrics sink: %v", err)
		}
	}
	return items
}

// Invalidate drops cached forecasts for an entity. Called when fresh
// state arrives: forecasts anchored to the previous state must not
// serve as current.
func (s *Service) Invalidate(entityID string, entityType model.EntityType) {
	if s.cache != nil {
		s.cache.Invalidate(entityID)
	}
	if rec, ok := s.sink.(metrics.InvalidationRecorder); ok {
		if err := rec.RecordInvalidation(metrics.InvalidationEvent{
			EntityID: entityID,
			Type:     entityType,
			Time:     s.now(),
		}); err != nil {
			s.log.Warnf("metrics sink: %v", err)
		}
	}
	if s.bus != nil {
		s.bus.Publish(StateInvalidated{EntityID: entityID, Type: entityType})
	}
}

// WeatherForecast passes a forecast query through to the external
// collaborator, for hazard-adjacent consumers.
func (s *Service) WeatherForecast(ctx context.Context, loc model.GeoPoint, hoursAhead int, modelID string) (weather.Forecast, error) {
	if s.forecast == nil {
		return weather.Forecast{}, fmt.Errorf("no weather forecaster configured")
	}
	return s.forecast.Forecast(ctx, loc, hoursAhead, modelID)
}

// Health describes the service surface.
type Health struct {
	Available      bool               `json:"available"`
	SupportedTypes []model.EntityType `json:"supported_entity_types"`
}

// Health reports availability and the entity types with a predictor.
func (s *Service) Health() Health {
	types := make([]model.EntityType, 0, len(s.predictors))
	for t := range s.predictors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return Health{Available: len(types) > 0, SupportedTypes: types}
}
