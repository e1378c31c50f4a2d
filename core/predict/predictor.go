// Package predict implements the shared predictor contract: request
// validation, horizon clamping, confidence decay, uncertainty growth,
// result caching and the monotonicity post-condition. Domain packages
// plug in through the Extrapolator interface.
package predict

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/maelviard/trackcast/core/logger"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/state"
	"github.com/maelviard/trackcast/core/store"
)

// Extrapolator is the single domain-specific primitive each predictor
// implements: raw positions for a list of target timestamps.
type Extrapolator interface {
	// Type is the entity type this extrapolator serves.
	Type() model.EntityType
	// ProfileFor selects the decay profile for the given state.
	ProfileFor(st model.EntityState) Profile
	// Extrapolate returns one point per target timestamp, in order.
	Extrapolate(ctx context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, model.Source, error)
}

// Predictor wraps an Extrapolator with the shared contract. The store
// is optional; without one every request recomputes.
type Predictor struct {
	extr     Extrapolator
	states   state.Source
	cache    store.Store
	log      logger.Logger
	cacheTTL time.Duration
	now      func() time.Time
}

// Option tweaks a Predictor.
type Option func(*Predictor)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Predictor) { p.now = now }
}

// WithCacheTTL overrides how long results stay servable from the store.
func WithCacheTTL(ttl time.Duration) Option {
	return func(p *Predictor) { p.cacheTTL = ttl }
}

// New builds a Predictor around one extrapolator. cache may be nil.
func New(extr Extrapolator, states state.Source, cache store.Store, log logger.Logger, opts ...Option) *Predictor {
	p := &Predictor{
		extr:     extr,
		states:   states,
		cache:    cache,
		log:      log,
		cacheTTL: time.Minute,
		now:      time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Type returns the entity type this predictor serves.
func (p *Predictor) Type() model.EntityType { return p.extr.Type() }

// Predict runs the full contract for one request.
func (p *Predictor) Predict(ctx context.Context, req model.PredictionRequest) (model.PredictionResult, error) {
	if err := req.Validate(); err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if req.Type != p.extr.Type() {
		return model.PredictionResult{}, fmt.Errorf("%w: %s predictor got %s request", ErrInvalidRequest, p.extr.Type(), req.Type)
	}

	// The key carries the raw window, so a hit was computed for this
	// exact request and clamped identically.
	key := store.KeyFor(req)
	if p.cache != nil {
		if cached, ok := p.cache.Get(key); ok {
			p.log.Debugf("cache hit for %s/%s", req.Type, req.EntityID)
			return cached, nil
		}
	}

	st, ok, err := p.states.Current(ctx, req.EntityID, req.Type)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %v", ErrNoCurrentState, err)
	}
	if !ok {
		return model.PredictionResult{}, fmt.Errorf("%w: %s/%s", ErrNoCurrentState, req.Type, req.EntityID)
	}

	now := p.now()
	prof := p.extr.ProfileFor(st)
	if age := now.Sub(st.Timestamp); age > prof.maxStateAge() {
		return model.PredictionResult{}, fmt.Errorf("%w: state for %s is %s old", ErrNoCurrentState, req.EntityID, age.Round(time.Second))
	}

	var warnings []string
	to := req.To
	if maxTo := req.From.Add(prof.MaxHorizon); to.After(maxTo) {
		to = maxTo
		warnings = append(warnings, fmt.Sprintf("horizon clamped to %s", prof.MaxHorizon))
	}
	times := Timestamps(req.From, to, req.Resolution())

	// Propagation can be expensive; don't start it for a caller that
	// already went away.
	if err := ctx.Err(); err != nil {
		return model.PredictionResult{}, err
	}

	points, source, err := p.extr.Extrapolate(ctx, st, times)
	if err != nil {
		return model.PredictionResult{}, fmt.Errorf("extrapolate %s/%s: %w", req.Type, req.EntityID, err)
	}

	if !prof.SelfCalibrated {
		for i := range points {
			age := points[i].Timestamp.Sub(st.Timestamp)
			points[i].Confidence = prof.Confidence(age)
			points[i].Uncertainty.RadiusM = prof.UncertaintyM(age)
		}
	}
	if err := checkMonotonic(points); err != nil {
		return model.PredictionResult{}, fmt.Errorf("%w: %s/%s: %v", ErrModelInvariant, req.Type, req.EntityID, err)
	}

	result := model.PredictionResult{
		ID:          uuid.NewString(),
		EntityID:    req.EntityID,
		Type:        req.Type,
		Source:      source,
		GeneratedAt: now,
		Points:      points,
		Warnings:    warnings,
	}

	if p.cache != nil {
		ttl := p.cacheTTL
		if ttl > prof.MaxHorizon {
			ttl = prof.MaxHorizon
		}
		p.cache.Put(key, result, now.Add(ttl))
	}
	return result, nil
}

// Timestamps returns the target sample times: from, stepping by
// resolution, plus a final sample at to when the resolution does not
// divide the window evenly.
func Timestamps(from, to time.Time, resolution time.Duration) []time.Time {
	var times []time.Time
	for t := from; !t.After(to); t = t.Add(resolution) {
		times = append(times, t)
	}
	if last := times[len(times)-1]; last.Before(to) {
		times = append(times, to)
	}
	return times
}

// checkMonotonic enforces the contract post-condition: confidence never
// increases and uncertainty never shrinks with age.
func checkMonotonic(points []model.PredictedPoint) error {
	for i := 1; i < len(points); i++ {
		prev, cur := points[i-1], points[i]
		if cur.Confidence > prev.Confidence+1e-9 {
			return fmt.Errorf("confidence rose from %.4f to %.4f at %s", prev.Confidence, cur.Confidence, cur.Timestamp.Format(time.RFC3339))
		}
		if cur.Uncertainty.RadiusM < prev.Uncertainty.RadiusM-1e-9 {
			return fmt.Errorf("uncertainty shrank from %.1fm to %.1fm at %s", prev.Uncertainty.RadiusM, cur.Uncertainty.RadiusM, cur.Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
