package hazard

import (
	"math"
	"time"

	"github.com/maelviard/trackcast/core/model"
)

// tsunami forecasts the wavefront as a ring around the source: radius
// equals the shallow-water wave speed sqrt(g*depth) times the elapsed
// time. The point stays on the source; the front radius rides in the
// attributes for the consumer to draw.
func (p *Predictor) tsunami(st model.EntityState, times []time.Time) []model.PredictedPoint {
	depth := st.Hazard.OceanDepthM
	if depth <= 0 {
		depth = 4000 // mean open-ocean depth
	}
	waveSpeed := math.Sqrt(9.81 * depth)

	points := make([]model.PredictedPoint, 0, len(times))
	for _, t := range times {
		lead := t.Sub(st.Timestamp)
		elapsed := lead.Seconds()
		if elapsed < 0 {
			elapsed = 0
		}
		radius := waveSpeed * elapsed

		points = append(points, model.PredictedPoint{
			Timestamp:  t,
			Position:   st.Position,
			Confidence: decay(0.85, 0.30, lead, 2*time.Hour),
			Uncertainty: model.UncertaintyCone{
				// Bathymetry the model does not see distorts the real
				// front more the further it travels.
				RadiusM: 500 + 0.1*radius,
			},
			Attrs: map[string]float64{
				"wavefront_radius_km": radius / 1000,
				"wave_speed_ms":       waveSpeed,
			},
		})
	}
	return points
}
