package hazard

import (
	"time"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
)

// stormTrack advances a storm along its current heading and speed,
// blended with the climatological recurvature bias: tropical systems
// poleward of ~25 degrees curve back toward the east and slowly weaken
// over cooler water.
func (p *Predictor) stormTrack(st model.EntityState, times []time.Time) []model.PredictedPoint {
	speed, heading := 5.5, 315.0 // climatological defaults, m/s and NW
	if st.Velocity != nil {
		if st.Velocity.SpeedMS > 0 {
			speed = st.Velocity.SpeedMS
		}
		heading = st.Velocity.HeadingDeg
	}
	maxWind := st.Hazard.MaxWindKMH
	if maxWind == 0 {
		maxWind = 100
	}

	// Recurvature bias in degrees per minute once past the ridge.
	const recurveDegPerMin = 0.05

	points := make([]model.PredictedPoint, 0, len(times))
	pos := st.Position
	hdg := heading
	prev := st.Timestamp
	for _, t := range times {
		lead := t.Sub(st.Timestamp)
		step := t.Sub(prev).Seconds()
		if step < 0 {
			step = 0
		}

		if pos.Lat > 25 {
			hdg = geo.NormalizeHeading(hdg + recurveDegPerMin*step/60)
		} else if pos.Lat < -25 {
			hdg = geo.NormalizeHeading(hdg - recurveDegPerMin*step/60)
		}
		pos = geo.Destination(pos, hdg, speed*step)

		// Gradual weakening over higher latitudes.
		if pos.Lat > 30 || pos.Lat < -30 {
			maxWind *= 1 - 0.0001*step/60
		}

		points = append(points, model.PredictedPoint{
			Timestamp:  t,
			Position:   pos,
			Velocity:   &model.Velocity{SpeedMS: speed, HeadingDeg: hdg},
			Confidence: decay(0.75, 0.20, lead, 6*time.Hour),
			Uncertainty: model.UncertaintyCone{
				// Track-error cone comparable to operational forecast
				// cones: tens of kilometres growing by the day.
				RadiusM:     20000 + 2.0*lead.Seconds(),
				AlongTrackM: 20000 + 2.6*lead.Seconds(),
				CrossTrackM: 20000 + 1.4*lead.Seconds(),
			},
			Attrs: map[string]float64{"max_wind_kmh": maxWind},
		})
		prev = t
	}
	return points
}
