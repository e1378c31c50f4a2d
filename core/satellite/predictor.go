// Package satellite predicts satellite positions by SGP4/SDP4 analytic
// propagation from TLE data, falling back to simplified two-body
// Keplerian propagation with wider uncertainty when only mean elements
// are available.
package satellite

import (
	"context"
	"fmt"
	"math"
	"time"

	sgp4 "github.com/joshuaferrara/go-satellite"

	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
)

const (
	earthRadiusKm = 6378.137
	kmToM         = 1000.0

	// ctxCheckEvery bounds how much propagation work happens between
	// cancellation checks on fine-resolution multi-day windows.
	ctxCheckEvery = 256
)

// Config tunes the satellite predictor.
type Config struct {
	// Horizon bounds the lookahead; orbital accuracy, not behaviour,
	// dominates the error budget here.
	Horizon time.Duration `json:"horizon"`
}

// SetDefaults applies the satellite defaults.
func (c *Config) SetDefaults() {
	if c.Horizon == 0 {
		c.Horizon = 72 * time.Hour
	}
}

// Predictor implements the satellite extrapolation primitive.
type Predictor struct {
	cfg Config
}

// New returns a satellite Predictor.
func New(cfg Config) *Predictor {
	cfg.SetDefaults()
	return &Predictor{cfg: cfg}
}

// Type implements predict.Extrapolator.
func (p *Predictor) Type() model.EntityType { return model.EntitySatellite }

// ProfileFor keeps confidence high and near-flat: physics dominates the
// error. The Keplerian fallback carries a much wider uncertainty cone.
func (p *Predictor) ProfileFor(st model.EntityState) predict.Profile {
	prof := predict.Profile{
		InitialConfidence:    0.99,
		ConfidenceHalfLife:   24 * time.Hour,
		ConfidenceFloor:      0.80,
		BaseUncertaintyM:     10,
		UncertaintyGrowthMPS: 0.001,
		MaxHorizon:           p.cfg.Horizon,
		MaxStateAge:          14 * 24 * time.Hour,
	}
	if !hasTLE(st) {
		prof.BaseUncertaintyM = 2000
		prof.UncertaintyGrowthMPS = 0.05
	}
	return prof
}

// Extrapolate implements predict.Extrapolator.
func (p *Predictor) Extrapolate(ctx context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, model.Source, error) {
	if hasTLE(st) {
		pts, err := propagateSGP4(ctx, st, times)
		return pts, model.SourceOrbitSGP4, err
	}
	if st.Elements == nil {
		return nil, "", fmt.Errorf("satellite %s has neither TLE nor mean elements", st.EntityID)
	}
	pts, err := propagateKepler(ctx, *st.Elements, times)
	return pts, model.SourceOrbitKepler, err
}

func hasTLE(st model.EntityState) bool {
	return st.TLELine1 != "" && st.TLELine2 != ""
}

// propagateSGP4 runs the analytic propagator for each target time and
// converts the inertial position to geographic coordinates, accounting
// for Earth rotation via GMST.
func propagateSGP4(ctx context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, error) {
	sat := sgp4.TLEToSat(st.TLELine1, st.TLELine2, sgp4.GravityWGS72)

	points := make([]model.PredictedPoint, 0, len(times))
	for i, t := range times {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		u := t.UTC()
		year, month, day := u.Date()
		hour, minute, sec := u.Clock()

		posECI, velECI := sgp4.Propagate(sat, year, int(month), day, hour, minute, sec)
		jd := sgp4.JDay(year, int(month), day, hour, minute, sec)
		gmst := sgp4.ThetaG_JD(jd)
		posECEF := sgp4.ECIToECEF(posECI, gmst)

		lat, lon, altKm := ecefToGeodetic(posECEF.X, posECEF.Y, posECEF.Z)
		speed := math.Sqrt(velECI.X*velECI.X+velECI.Y*velECI.Y+velECI.Z*velECI.Z) * kmToM

		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  model.GeoPoint{Lat: lat, Lon: lon}.WithAlt(altKm * kmToM),
			Velocity:  &model.Velocity{SpeedMS: speed},
			Attrs:     map[string]float64{"altitude_km": altKm},
		})
	}
	return points, nil
}

// ecefToGeodetic converts an ECEF position in kilometres to geocentric
// latitude, longitude and altitude. The spherical approximation is well
// inside the fallback uncertainty budget.
func ecefToGeodetic(x, y, z float64) (lat, lon, altKm float64) {
	rxy := math.Hypot(x, y)
	lat = math.Atan2(z, rxy) * 180 / math.Pi
	lon = math.Atan2(y, x) * 180 / math.Pi
	altKm = math.Sqrt(x*x+y*y+z*z) - earthRadiusKm
	return lat, lon, altKm
}
