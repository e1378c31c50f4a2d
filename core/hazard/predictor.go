// Package hazard predicts the evolution of environmental hazards. Each
// hazard kind has its own sub-model with its own confidence and
// uncertainty profile; the generic decay constants are too coarse for
// behaviour this nonlinear, so the shared contract only enforces
// monotonicity as a post-condition.
package hazard

import (
	"context"
	"fmt"
	"time"

	"github.com/maelviard/trackcast/core/logger"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
	"github.com/maelviard/trackcast/core/weather"
)

// Config tunes the hazard predictor.
type Config struct {
	// WeatherModelID selects the external forecast model for the
	// weather-dependent sub-models.
	WeatherModelID string `json:"weather_model_id"`
}

// SetDefaults applies the hazard defaults.
func (c *Config) SetDefaults() {
	if c.WeatherModelID == "" {
		c.WeatherModelID = "fcn"
	}
}

// Predictor dispatches to the hazard sub-models. The forecaster is
// optional; without one the weather-dependent sub-models run their
// no-external-input variants.
type Predictor struct {
	cfg      Config
	forecast weather.Forecaster
	log      logger.Logger
}

// New returns a hazard Predictor.
func New(cfg Config, forecast weather.Forecaster, log logger.Logger) *Predictor {
	cfg.SetDefaults()
	return &Predictor{cfg: cfg, forecast: forecast, log: log}
}

// Type implements predict.Extrapolator.
func (p *Predictor) Type() model.EntityType { return model.EntityHazard }

// ProfileFor returns a self-calibrated profile: sub-models own their
// confidence and uncertainty, the contract only checks monotonicity.
// Horizon and staleness cutoff still vary by kind.
func (p *Predictor) ProfileFor(st model.EntityState) predict.Profile {
	prof := predict.Profile{SelfCalibrated: true, MaxHorizon: time.Hour, MaxStateAge: 24 * time.Hour}
	if st.Hazard == nil {
		return prof
	}
	switch st.Hazard.Kind {
	case model.HazardEarthquake:
		// Aftershock sequences stay forecastable for days.
		prof.MaxHorizon = 7 * 24 * time.Hour
		prof.MaxStateAge = 14 * 24 * time.Hour
	case model.HazardWildfire:
		prof.MaxHorizon = 24 * time.Hour
	case model.HazardStorm:
		prof.MaxHorizon = 72 * time.Hour
	case model.HazardTsunami:
		// Wavefronts cross an ocean basin within hours.
		prof.MaxHorizon = 6 * time.Hour
		prof.MaxStateAge = 12 * time.Hour
	case model.HazardAshPlume:
		prof.MaxHorizon = 48 * time.Hour
	}
	return prof
}

// Extrapolate implements predict.Extrapolator.
func (p *Predictor) Extrapolate(ctx context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, model.Source, error) {
	if st.Hazard == nil {
		return nil, "", fmt.Errorf("hazard %s carries no hazard detail", st.EntityID)
	}
	var (
		pts []model.PredictedPoint
		err error
	)
	switch st.Hazard.Kind {
	case model.HazardEarthquake:
		pts = p.aftershocks(st, times)
	case model.HazardWildfire:
		pts = p.wildfire(ctx, st, times)
	case model.HazardStorm:
		pts = p.stormTrack(st, times)
	case model.HazardTsunami:
		pts = p.tsunami(st, times)
	case model.HazardAshPlume:
		pts = p.ashPlume(ctx, st, times)
	default:
		err = fmt.Errorf("unknown hazard kind %q", st.Hazard.Kind)
	}
	if err != nil {
		return nil, "", err
	}
	return pts, model.SourceHazardModel, nil
}

// fields fetches external forecast fields for the hazard location,
// falling back to the ingested detail with a widened uncertainty when
// the collaborator is slow or absent. The fallback is logged, never
// surfaced.
func (p *Predictor) fields(ctx context.Context, st model.EntityState, hoursAhead int) (weather.Forecast, float64) {
	if p.forecast == nil {
		return weather.Forecast{}, fallbackWidening
	}
	fc, err := p.forecast.Forecast(ctx, st.Position, hoursAhead, p.cfg.WeatherModelID)
	if err != nil {
		p.log.Warnf("weather forecast unavailable for %s, using ingested fields: %v", st.EntityID, err)
		return weather.Forecast{}, fallbackWidening
	}
	return fc, 1.0
}

// fallbackWidening scales the uncertainty cone when a weather-dependent
// sub-model runs without external input.
const fallbackWidening = 1.5

// decay is the shared shape of the sub-model confidence curves:
// exponential in lead time with a floor.
func decay(c0, floor float64, lead time.Duration, halfLife time.Duration) float64 {
	return predict.Profile{
		InitialConfidence:  c0,
		ConfidenceHalfLife: halfLife,
		ConfidenceFloor:    floor,
	}.Confidence(lead)
}
