package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maelviard/trackcast/core/metrics"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
	"github.com/maelviard/trackcast/core/state"
	"github.com/maelviard/trackcast/core/store"
	"github.com/maelviard/trackcast/core/weather"
	"github.com/maelviard/trackcast/infra/logger"
	"github.com/maelviard/trackcast/internal/eventbus"
)

var testNow = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

type stubExtrapolator struct {
	typ  model.EntityType
	err  error
	mu   sync.Mutex
	seen []string
}

func (s *stubExtrapolator) Type() model.EntityType { return s.typ }

func (s *stubExtrapolator) ProfileFor(model.EntityState) predict.Profile {
	return predict.Profile{
		InitialConfidence:    0.9,
		ConfidenceHalfLife:   time.Hour,
		ConfidenceFloor:      0.2,
		BaseUncertaintyM:     100,
		UncertaintyGrowthMPS: 1,
		MaxHorizon:           6 * time.Hour,
	}
}

func (s *stubExtrapolator) Extrapolate(_ context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, model.Source, error) {
	s.mu.Lock()
	s.seen = append(s.seen, st.EntityID)
	s.mu.Unlock()
	if s.err != nil {
		return nil, "", s.err
	}
	pts := make([]model.PredictedPoint, 0, len(times))
	for _, t := range times {
		pts = append(pts, model.PredictedPoint{Timestamp: t, Position: st.Position})
	}
	return pts, model.SourceVector, nil
}

type recordingSink struct {
	mu            sync.Mutex
	predictions   []metrics.PredictionEvent
	batches       []metrics.BatchEvent
	invalidations []metrics.InvalidationEvent
}

func (r *recordingSink) RecordPrediction(ev metrics.PredictionEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.predictions = append(r.predictions, ev)
	return nil
}

func (r *recordingSink) RecordBatch(ev metrics.BatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, ev)
	return nil
}

func (r *recordingSink) RecordInvalidation(ev metrics.InvalidationEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidations = append(r.invalidations, ev)
	return nil
}

type mapStore struct {
	mu      sync.Mutex
	entries map[store.Key]model.PredictionResult
}

func newMapStore() *mapStore {
	return &mapStore{entries: make(map[store.Key]model.PredictionResult)}
}

func (m *mapStore) Get(key store.Key) (model.PredictionResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.entries[key]
	return r, ok
}

func (m *mapStore) Put(key store.Key, result model.PredictionResult, _ time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = result
}

func (m *mapStore) Invalidate(entityID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.entries {
		if k.EntityID == entityID {
			delete(m.entries, k)
		}
	}
}

func (m *mapStore) SweepExpired(time.Time) int { return 0 }

type fixture struct {
	svc   *Service
	src   *state.MemorySource
	cache *mapStore
	sink  *recordingSink
	bus   *eventbus.Bus
}

func newFixture(t *testing.T, extrapolators ...predict.Extrapolator) *fixture {
	t.Helper()
	src := state.NewMemorySource()
	cache := newMapStore()
	sink := &recordingSink{}
	bus := eventbus.New()
	log := logger.NopLogger{}

	clock := predict.WithClock(func() time.Time { return testNow })
	predictors := make([]*predict.Predictor, 0, len(extrapolators))
	for _, e := range extrapolators {
		predictors = append(predictors, predict.New(e, src, cache, log, clock))
	}
	svc := New(Config{Workers: 2}, predictors, cache, log,
		WithEventBus(bus),
		WithMetrics(sink),
		WithClock(func() time.Time { return testNow }),
	)
	return &fixture{svc: svc, src: src, cache: cache, sink: sink, bus: bus}
}

func seedState(src *state.MemorySource, id string, typ model.EntityType) {
	src.Set(model.EntityState{
		EntityID:  id,
		Type:      typ,
		Timestamp: testNow,
		Position:  model.GeoPoint{Lat: 40, Lon: -5},
	})
}

func request(id string, typ model.EntityType) model.PredictionRequest {
	return model.PredictionRequest{
		EntityID:          id,
		Type:              typ,
		From:              testNow,
		To:                testNow.Add(time.Hour),
		ResolutionSeconds: 600,
	}
}

func TestPredictOneUnknownType(t *testing.T) {
	f := newFixture(t, &stubExtrapolator{typ: model.EntityAircraft})
	_, err := f.svc.PredictOne(context.Background(), request("VS-1", model.EntityVessel))
	if !errors.Is(err, predict.ErrUnknownEntityType) {
		t.Fatalf("err = %v, want ErrUnknownEntityType", err)
	}
}

func TestPredictOnePublishesAndRecords(t *testing.T) {
	f := newFixture(t, &stubExtrapolator{typ: model.EntityAircraft})
	seedState(f.src, "AF1", model.EntityAircraft)
	sub := f.bus.Subscribe()

	res, err := f.svc.PredictOne(context.Background(), request("AF1", model.EntityAircraft))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if len(res.Points) != 7 {
		t.Fatalf("got %d points", len(res.Points))
	}

	select {
	case ev := <-sub:
		made, ok := ev.(PredictionMade)
		if !ok {
			t.Fatalf("event = %T", ev)
		}
		if made.EntityID != "AF1" || made.Points != 7 {
			t.Errorf("event = %+v", made)
		}
	default:
		t.Fatal("no event on the bus")
	}

	if n := len(f.sink.predictions); n != 1 {
		t.Fatalf("%d prediction events recorded", n)
	}
	if ev := f.sink.predictions[0]; ev.CacheHit || ev.Error != "" || ev.Points != 7 {
		t.Errorf("event = %+v", ev)
	}
}

func TestPredictOneCacheHitMetric(t *testing.T) {
	stub := &stubExtrapolator{typ: model.EntityAircraft}
	f := newFixture(t, stub)
	seedState(f.src, "AF1", model.EntityAircraft)
	req := request("AF1", model.EntityAircraft)

	if _, err := f.svc.PredictOne(context.Background(), req); err != nil {
		t.Fatalf("predict: %v", err)
	}
	// Age the cached result so the second call reads as a hit.
	key := store.KeyFor(req)
	cached, ok := f.cache.Get(key)
	if !ok {
		t.Fatal("first prediction was not cached")
	}
	cached.GeneratedAt = testNow.Add(-time.Second)
	f.cache.Put(key, cached, testNow.Add(time.Minute))

	if _, err := f.svc.PredictOne(context.Background(), req); err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !f.sink.predictions[1].CacheHit {
		t.Error("second call should read as a cache hit")
	}
	if n := len(stub.seen); n != 1 {
		t.Errorf("extrapolator ran %d times, the hit should not recompute", n)
	}
}

func TestPredictBatchIsolatesFailures(t *testing.T) {
	okStub := &stubExtrapolator{typ: model.EntityAircraft}
	badStub := &stubExtrapolator{typ: model.EntityVessel, err: errors.New("model blew up")}
	f := newFixture(t, okStub, badStub)
	seedState(f.src, "AF1", model.EntityAircraft)
	seedState(f.src, "AF2", model.EntityAircraft)
	seedState(f.src, "VS1", model.EntityVessel)

	reqs := []model.PredictionRequest{
		request("AF1", model.EntityAircraft),
		request("VS1", model.EntityVessel),
		request("AF2", model.EntityAircraft),
	}
	items := f.svc.PredictBatch(context.Background(), reqs)
	if len(items) != 3 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].Err != nil || items[2].Err != nil {
		t.Errorf("healthy requests failed: %v, %v", items[0].Err, items[2].Err)
	}
	if items[1].Err == nil {
		t.Error("the failing request reported no error")
	}
	// Slots map onto the input order.
	if items[0].Result.EntityID != "AF1" || items[2].Result.EntityID != "AF2" {
		t.Errorf("slot order broken: %q, %q", items[0].Result.EntityID, items[2].Result.EntityID)
	}

	if n := len(f.sink.batches); n != 1 {
		t.Fatalf("%d batch events recorded", n)
	}
	if ev := f.sink.batches[0]; ev.Size != 3 || ev.Failures != 1 {
		t.Errorf("batch event = %+v", ev)
	}
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t, &stubExtrapolator{typ: model.EntityAircraft})
	seedState(f.src, "AF1", model.EntityAircraft)
	req := request("AF1", model.EntityAircraft)
	if _, err := f.svc.PredictOne(context.Background(), req); err != nil {
		t.Fatalf("predict: %v", err)
	}
	sub := f.bus.Subscribe()

	f.svc.Invalidate("AF1", model.EntityAircraft)

	if _, ok := f.cache.Get(store.KeyFor(req)); ok {
		t.Error("cache entry survived the invalidation")
	}
	if n := len(f.sink.invalidations); n != 1 {
		t.Fatalf("%d invalidation events recorded", n)
	}
	select {
	case ev := <-sub:
		if inv, ok := ev.(StateInvalidated); !ok || inv.EntityID != "AF1" {
			t.Errorf("event = %+v", ev)
		}
	default:
		t.Fatal("no invalidation event on the bus")
	}
}

func TestWeatherPassthrough(t *testing.T) {
	f := newFixture(t, &stubExtrapolator{typ: model.EntityAircraft})
	if _, err := f.svc.WeatherForecast(context.Background(), model.GeoPoint{}, 3, "fcn"); err == nil {
		t.Fatal("expected an error without a forecaster")
	}

	WithForecaster(weather.Static{Fields: weather.Fields{WindSpeedMS: 5}})(f.svc)
	fc, err := f.svc.WeatherForecast(context.Background(), model.GeoPoint{Lat: 45}, 3, "fcn")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if len(fc.Hourly) != 3 || fc.Hourly[0].WindSpeedMS != 5 {
		t.Errorf("forecast = %+v", fc)
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t,
		&stubExtrapolator{typ: model.EntityVessel},
		&stubExtrapolator{typ: model.EntityAircraft},
	)
	h := f.svc.Health()
	if !h.Available {
		t.Error("service with predictors must report available")
	}
	want := []model.EntityType{model.EntityAircraft, model.EntityVessel}
	if len(h.SupportedTypes) != len(want) {
		t.Fatalf("types = %v", h.SupportedTypes)
	}
	for i := range want {
		if h.SupportedTypes[i] != want[i] {
			t.Errorf("types = %v, want %v", h.SupportedTypes, want)
		}
	}

	empty := New(Config{}, nil, nil, logger.NopLogger{})
	if empty.Health().Available {
		t.Error("service without predictors must not report available")
	}
}
