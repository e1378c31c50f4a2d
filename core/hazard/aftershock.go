package hazard

import (
	"math"
	"time"

	"github.com/maelviard/trackcast/core/model"
)

// Omori parameters, typical values for crustal sequences.
const (
	omoriC = 0.1 // days
	omoriP = 1.1
)

// aftershocks forecasts the aftershock sequence of a mainshock with a
// modified Omori law: rate(t) = K/(c+t)^p, K scaling with mainshock
// magnitude. The forecast location stays on the epicentre; the zone
// radius rides in the uncertainty cone.
func (p *Predictor) aftershocks(st model.EntityState, times []time.Time) []model.PredictedPoint {
	mag := st.Hazard.Magnitude
	if mag == 0 {
		mag = 5.0
	}
	k := math.Pow(10, mag-3.5)
	// Rupture-zone radius scales roughly with magnitude.
	zoneM := 10 * 1000 * math.Max(1, mag-4)
	// Bath's law: the largest aftershock runs about 1.2 units below
	// the mainshock.
	expectedMag := mag - 1.2

	points := make([]model.PredictedPoint, 0, len(times))
	for _, t := range times {
		lead := t.Sub(st.Timestamp)
		tDays := lead.Hours() / 24
		rate := k
		if tDays > 0 {
			rate = k / math.Pow(omoriC+tDays, omoriP)
		}

		// Confidence tracks how likely at least one aftershock is in
		// the sampled window, capped well below certainty.
		conf := math.Min(0.8, rate*(omoriC+math.Max(0, tDays))/(omoriC+math.Max(0, tDays)+10))
		conf = math.Max(0.05, math.Min(conf, 0.8))

		points = append(points, model.PredictedPoint{
			Timestamp:  t,
			Position:   st.Position,
			Confidence: conf,
			Uncertainty: model.UncertaintyCone{
				// The active zone creeps outward as the sequence
				// diffuses.
				RadiusM: zoneM * (1 + 0.05*math.Max(0, tDays)),
			},
			Attrs: map[string]float64{
				"aftershock_rate_per_day": rate,
				"expected_magnitude":      expectedMag,
			},
		})
	}
	return points
}
