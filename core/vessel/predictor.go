// Package vessel predicts marine vessel positions: great-circle
// interpolation toward a known destination port, otherwise rhumb-line
// dead reckoning on the current course.
package vessel

import (
	"context"
	"time"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
)

const knots = 0.514444

// classSpeeds are typical service speeds in m/s, used when the state
// carries no speed.
var classSpeeds = map[string]float64{
	"container": 18 * knots,
	"cargo":     12 * knots,
	"tanker":    11 * knots,
	"fishing":   8 * knots,
	"passenger": 20 * knots,
}

// DefaultSpeedMS applies to unknown vessel classes.
const DefaultSpeedMS = 10 * knots

// PortResolver maps a destination code (e.g. a UN/LOCODE) to its
// position. The reference table is externally supplied.
type PortResolver interface {
	Resolve(code string) (model.GeoPoint, bool)
}

// PortTable is a static in-memory PortResolver.
type PortTable map[string]model.GeoPoint

// Resolve implements PortResolver.
func (t PortTable) Resolve(code string) (model.GeoPoint, bool) {
	p, ok := t[code]
	return p, ok
}

// Config tunes the vessel predictor.
type Config struct {
	// DestinationHorizon applies when the destination resolves.
	DestinationHorizon time.Duration `json:"destination_horizon"`
	// FallbackHorizon applies to dead reckoning.
	FallbackHorizon time.Duration `json:"fallback_horizon"`
}

// SetDefaults applies the vessel defaults.
func (c *Config) SetDefaults() {
	if c.DestinationHorizon == 0 {
		c.DestinationHorizon = 48 * time.Hour
	}
	if c.FallbackHorizon == 0 {
		c.FallbackHorizon = 24 * time.Hour
	}
}

// Predictor implements the vessel extrapolation primitive.
type Predictor struct {
	cfg   Config
	ports PortResolver
}

// New returns a vessel Predictor. ports may be nil, in which case every
// destination falls back to dead reckoning.
func New(cfg Config, ports PortResolver) *Predictor {
	cfg.SetDefaults()
	return &Predictor{cfg: cfg, ports: ports}
}

// Type implements predict.Extrapolator.
func (p *Predictor) Type() model.EntityType { return model.EntityVessel }

// ProfileFor selects the 48h destination horizon or the 24h fallback.
func (p *Predictor) ProfileFor(st model.EntityState) predict.Profile {
	prof := predict.Profile{
		InitialConfidence:    0.90,
		ConfidenceHalfLife:   time.Hour,
		ConfidenceFloor:      0.30,
		BaseUncertaintyM:     200,
		UncertaintyGrowthMPS: 0.2,
		MaxHorizon:           p.cfg.FallbackHorizon,
	}
	if _, ok := p.destination(st); ok {
		prof.MaxHorizon = p.cfg.DestinationHorizon
	}
	return prof
}

// Extrapolate implements predict.Extrapolator.
func (p *Predictor) Extrapolate(_ context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, model.Source, error) {
	speed := p.speed(st)
	if dest, ok := p.destination(st); ok {
		return p.towardPort(st, dest, speed, times), model.SourceGreatCircle, nil
	}
	return p.deadReckon(st, speed, times), model.SourceRhumbLine, nil
}

func (p *Predictor) destination(st model.EntityState) (model.GeoPoint, bool) {
	if st.Destination == "" || p.ports == nil {
		return model.GeoPoint{}, false
	}
	return p.ports.Resolve(st.Destination)
}

func (p *Predictor) speed(st model.EntityState) float64 {
	if st.Velocity != nil && st.Velocity.SpeedMS > 0 {
		return st.Velocity.SpeedMS
	}
	if s, ok := classSpeeds[st.VesselClass]; ok {
		return s
	}
	return DefaultSpeedMS
}

// towardPort interpolates the great circle to the destination at
// constant speed. Once the run distance covers the route the vessel
// holds at the port.
func (p *Predictor) towardPort(st model.EntityState, dest model.GeoPoint, speed float64, times []time.Time) []model.PredictedPoint {
	total := geo.DistanceM(st.Position, dest)
	points := make([]model.PredictedPoint, 0, len(times))
	for _, t := range times {
		elapsed := t.Sub(st.Timestamp).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		run := speed * elapsed
		var pos model.GeoPoint
		var hdg float64
		if total <= 0 || run >= total {
			pos, hdg = dest, geo.BearingDeg(st.Position, dest)
		} else {
			pos = geo.Interpolate(st.Position, dest, run/total)
			hdg = geo.BearingDeg(pos, dest)
		}
		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  pos,
			Velocity:  &model.Velocity{SpeedMS: speed, HeadingDeg: hdg},
		})
	}
	return points
}

// deadReckon advances the current course on a rhumb line.
func (p *Predictor) deadReckon(st model.EntityState, speed float64, times []time.Time) []model.PredictedPoint {
	course := 0.0
	if st.Velocity != nil {
		course = st.Velocity.HeadingDeg
	}
	points := make([]model.PredictedPoint, 0, len(times))
	for _, t := range times {
		elapsed := t.Sub(st.Timestamp).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		pos := geo.RhumbDestination(st.Position, course, speed*elapsed)
		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  pos,
			Velocity:  &model.Velocity{SpeedMS: speed, HeadingDeg: course},
		})
	}
	return points
}
