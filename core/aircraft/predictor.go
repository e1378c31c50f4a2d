// Package aircraft predicts aircraft positions: along a filed flight
// plan when one exists, otherwise by vector extrapolation from the last
// known heading, speed and vertical rate.
package aircraft

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/predict"
)

const (
	// DefaultSpeedMS is assumed when the state carries no speed:
	// 450 kt, a typical jet cruise ground speed.
	DefaultSpeedMS = 450 * 0.514444
	// DefaultCruiseAltM is assumed when the state carries no altitude.
	DefaultCruiseAltM = 35000 * 0.3048
	maxAltM           = 45000 * 0.3048

	// StandardTurnRateDegS bounds the assumed turn: a standard rate
	// turn is 3 degrees per second.
	StandardTurnRateDegS = 3.0
)

// Config tunes the aircraft predictor beyond the decay defaults.
type Config struct {
	// PlanHorizon applies when a flight plan is filed.
	PlanHorizon time.Duration `json:"plan_horizon"`
	// FallbackHorizon applies to plain vector extrapolation.
	FallbackHorizon time.Duration `json:"fallback_horizon"`
	// TurnEvidenceWindow is how recent a heading change must be for
	// the turn-continuation assumption to apply.
	TurnEvidenceWindow time.Duration `json:"turn_evidence_window"`
	// TurnHold is how long the assumed turn continues before the
	// heading is held.
	TurnHold time.Duration `json:"turn_hold"`
}

// SetDefaults applies the aircraft defaults.
func (c *Config) SetDefaults() {
	if c.PlanHorizon == 0 {
		c.PlanHorizon = 4 * time.Hour
	}
	if c.FallbackHorizon == 0 {
		c.FallbackHorizon = 30 * time.Minute
	}
	if c.TurnEvidenceWindow == 0 {
		c.TurnEvidenceWindow = 30 * time.Second
	}
	if c.TurnHold == 0 {
		c.TurnHold = 20 * time.Second
	}
}

// Predictor implements the aircraft extrapolation primitive.
type Predictor struct {
	cfg Config
}

// New returns an aircraft Predictor.
func New(cfg Config) *Predictor {
	cfg.SetDefaults()
	return &Predictor{cfg: cfg}
}

// Type implements predict.Extrapolator.
func (p *Predictor) Type() model.EntityType { return model.EntityAircraft }

// ProfileFor selects the 4h flight-plan horizon or the 30min fallback.
func (p *Predictor) ProfileFor(st model.EntityState) predict.Profile {
	prof := predict.Profile{
		InitialConfidence:    0.95,
		ConfidenceHalfLife:   10 * time.Minute,
		ConfidenceFloor:      0.20,
		BaseUncertaintyM:     50,
		UncertaintyGrowthMPS: 0.5,
		MaxHorizon:           p.cfg.FallbackHorizon,
	}
	if hasPlan(st) {
		prof.MaxHorizon = p.cfg.PlanHorizon
	}
	return prof
}

// Extrapolate implements predict.Extrapolator.
func (p *Predictor) Extrapolate(_ context.Context, st model.EntityState, times []time.Time) ([]model.PredictedPoint, model.Source, error) {
	if hasPlan(st) {
		pts, err := p.alongPlan(st, times)
		return pts, model.SourceFlightPlan, err
	}
	return p.alongVector(st, times), model.SourceVector, nil
}

func hasPlan(st model.EntityState) bool {
	return st.FlightPlan != nil && len(st.FlightPlan.Waypoints) >= 2
}

// alongPlan interpolates the filed route by along-track distance,
// speed times elapsed, handling leg transitions and altitude changes.
func (p *Predictor) alongPlan(st model.EntityState, times []time.Time) ([]model.PredictedPoint, error) {
	speed := DefaultSpeedMS
	if st.Velocity != nil && st.Velocity.SpeedMS > 0 {
		speed = st.Velocity.SpeedMS
	}

	legs, err := buildLegs(st)
	if err != nil {
		return nil, err
	}

	points := make([]model.PredictedPoint, 0, len(times))
	for _, t := range times {
		elapsed := t.Sub(st.Timestamp).Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		pos, heading := locateAlong(legs, speed*elapsed)
		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  pos,
			Velocity:  &model.Velocity{SpeedMS: speed, HeadingDeg: heading},
		})
	}
	return points, nil
}

type leg struct {
	from, to   model.GeoPoint
	length     float64
	cumulative float64 // along-track distance at the start of the leg
	bearing    float64
}

// buildLegs chains the current position onto the remaining waypoints.
// The next waypoint is the one after the closest, matching how a crew
// sequences fixes.
func buildLegs(st model.EntityState) ([]leg, error) {
	wps := st.FlightPlan.Waypoints
	closest, minDist := 0, math.MaxFloat64
	for i, wp := range wps {
		if d := geo.DistanceM(st.Position, wp.Position); d < minDist {
			closest, minDist = i, d
		}
	}
	next := closest + 1
	if next >= len(wps) {
		// Already at or past the final fix.
		next = len(wps) - 1
	}

	start := st.Position
	if start.Alt == nil {
		start = start.WithAlt(DefaultCruiseAltM)
	}
	var legs []leg
	cum := 0.0
	for i := next; i < len(wps); i++ {
		to := wps[i].Position
		l := leg{
			from:       start,
			to:         to,
			length:     geo.DistanceM(start, to),
			cumulative: cum,
			bearing:    geo.BearingDeg(start, to),
		}
		legs = append(legs, l)
		cum += l.length
		start = to
	}
	if len(legs) == 0 {
		return nil, fmt.Errorf("flight plan for %s has no remaining legs", st.EntityID)
	}
	return legs, nil
}

// locateAlong finds the position at the given along-track distance,
// extrapolating past the final fix on the last leg's bearing.
func locateAlong(legs []leg, dist float64) (model.GeoPoint, float64) {
	last := legs[len(legs)-1]
	if dist >= last.cumulative+last.length {
		over := dist - (last.cumulative + last.length)
		return geo.Destination(last.to, last.bearing, over), last.bearing
	}
	for _, l := range legs {
		if dist <= l.cumulative+l.length {
			frac := 0.0
			if l.length > 0 {
				frac = (dist - l.cumulative) / l.length
			}
			pos := geo.Interpolate(l.from, l.to, frac)
			if pos.Alt == nil && l.from.Alt != nil {
				pos = pos.WithAlt(*l.from.Alt)
			}
			return pos, l.bearing
		}
	}
	return last.to, last.bearing
}

// alongVector dead-reckons from heading, speed and vertical rate. A
// bounded turn continuation applies only when the ingestion tier flagged
// a very recent heading change and the recent track shows its direction.
func (p *Predictor) alongVector(st model.EntityState, times []time.Time) []model.PredictedPoint {
	speed, heading := DefaultSpeedMS, 0.0
	vertical := 0.0
	if st.Velocity != nil {
		if st.Velocity.SpeedMS > 0 {
			speed = st.Velocity.SpeedMS
		}
		heading = st.Velocity.HeadingDeg
		vertical = st.Velocity.VerticalRateOr(0)
	}
	turnRate := p.observedTurnRate(st)

	points := make([]model.PredictedPoint, 0, len(times))
	pos := st.Position
	alt := st.Position.AltOr(DefaultCruiseAltM)
	hdg := heading
	prev := st.Timestamp
	for _, t := range times {
		step := t.Sub(prev).Seconds()
		if step < 0 {
			step = 0
		}
		if turnRate != 0 {
			sinceChange := t.Sub(st.Timestamp)
			if sinceChange >= 0 && sinceChange <= p.cfg.TurnHold {
				hdg = geo.NormalizeHeading(hdg + turnRate*step)
			}
		}
		pos = geo.Destination(pos, hdg, speed*step)
		alt = math.Min(math.Max(alt+vertical*step, 0), maxAltM)
		pt := pos.WithAlt(alt)
		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  pt,
			Velocity:  &model.Velocity{SpeedMS: speed, HeadingDeg: hdg, VerticalRate: &vertical},
		})
		prev = t
	}
	return points
}

// observedTurnRate estimates the ongoing turn from the last two track
// samples, clamped to a standard rate turn. Zero means fly straight.
func (p *Predictor) observedTurnRate(st model.EntityState) float64 {
	if st.HeadingChangedAt == nil || st.Velocity == nil {
		return 0
	}
	if st.Timestamp.Sub(*st.HeadingChangedAt) > p.cfg.TurnEvidenceWindow {
		return 0
	}
	n := len(st.History)
	if n < 2 {
		return 0
	}
	a, b := st.History[n-2], st.History[n-1]
	dt := b.Timestamp.Sub(a.Timestamp).Seconds()
	if dt <= 0 {
		return 0
	}
	prevHdg := geo.BearingDeg(a.Position, b.Position)
	delta := headingDelta(prevHdg, st.Velocity.HeadingDeg)
	rate := delta / dt
	return math.Max(-StandardTurnRateDegS, math.Min(StandardTurnRateDegS, rate))
}

// headingDelta returns the signed smallest angle from a to b in degrees.
func headingDelta(a, b float64) float64 {
	d := math.Mod(b-a+540, 360) - 180
	return d
}
