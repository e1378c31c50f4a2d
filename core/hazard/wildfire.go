package hazard

import (
	"context"
	"math"
	"time"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
)

// wildfire forecasts fire-front growth with a simplified Rothermel
// spread rate modulated by wind and fuel moisture. Wind and moisture
// come from the external forecaster when it answers in time, otherwise
// from the ingested detail with a widened cone.
func (p *Predictor) wildfire(ctx context.Context, st model.EntityState, times []time.Time) []model.PredictedPoint {
	last := times[len(times)-1]
	hoursAhead := int(math.Ceil(last.Sub(st.Timestamp).Hours())) + 1
	fc, widening := p.fields(ctx, st, hoursAhead)

	area := st.Hazard.AreaHectares
	if area <= 0 {
		area = 10
	}

	points := make([]model.PredictedPoint, 0, len(times))
	center := st.Position
	prev := st.Timestamp
	uncM := 200.0
	for _, t := range times {
		lead := t.Sub(st.Timestamp)
		step := t.Sub(prev).Seconds()
		if step < 0 {
			step = 0
		}

		windMS, windFrom, moisture := st.Hazard.WindSpeedMS, st.Hazard.WindFromDeg, st.Hazard.FuelMoisture
		wf := widening
		if f, ok := fc.At(lead); ok {
			windMS, windFrom, moisture = f.WindSpeedMS, f.WindFromDeg, f.FuelMoisture
		} else {
			// No external fields for this lead, same widening as a
			// failed forecast call.
			wf = fallbackWidening
		}

		// Simplified Rothermel: a fixed no-wind rate scaled up by
		// wind and damped by fuel moisture.
		windFactor := 1 + (windMS*3.6)/30
		moistureFactor := math.Max(0.1, 1-2*moisture)
		spread := 0.1 * windFactor * moistureFactor // m/s head-fire rate

		// The head of the fire runs downwind; the centroid drifts a
		// fraction of that.
		downwind := spread * step * 1.5
		center = geo.Destination(center, geo.NormalizeHeading(windFrom+180), downwind*0.3)

		// Grow the burned area from the new mean radius; the position
		// error accumulates with the spread actually forecast, so it
		// never shrinks when the wind later drops.
		radius := math.Sqrt(area*10000/math.Pi) + spread*step
		area = math.Pi * radius * radius / 10000
		uncM += 0.6 * spread * step

		points = append(points, model.PredictedPoint{
			Timestamp:  t,
			Position:   center,
			Velocity:   &model.Velocity{SpeedMS: spread, HeadingDeg: geo.NormalizeHeading(windFrom + 180)},
			Confidence: decay(0.65, 0.15, lead, 3*time.Hour),
			Uncertainty: model.UncertaintyCone{
				RadiusM: uncM * wf,
			},
			Attrs: map[string]float64{
				"area_hectares":   area,
				"perimeter_km":    2 * math.Pi * radius / 1000,
				"spread_rate_mps": spread,
			},
		})
		prev = t
	}
	return points
}
