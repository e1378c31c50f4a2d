package hazard

import (
	"context"
	"math"
	"time"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
)

// ashPlume advects a volcanic ash cloud with the wind field, spreading
// it laterally and letting it settle. Wind comes from the external
// forecaster when available, otherwise from the ingested detail with a
// widened cone.
func (p *Predictor) ashPlume(ctx context.Context, st model.EntityState, times []time.Time) []model.PredictedPoint {
	last := times[len(times)-1]
	hoursAhead := int(math.Ceil(last.Sub(st.Timestamp).Hours())) + 1
	fc, widening := p.fields(ctx, st, hoursAhead)

	height := st.Hazard.PlumeHeightM
	if height <= 0 {
		height = 10000
	}

	const (
		lateralSpreadMPerHour = 2000
		settleMPerHour        = 500
		minHeightM            = 1000
	)

	points := make([]model.PredictedPoint, 0, len(times))
	center := st.Position
	widthM := 5000.0
	prev := st.Timestamp
	for _, t := range times {
		lead := t.Sub(st.Timestamp)
		step := t.Sub(prev).Seconds()
		if step < 0 {
			step = 0
		}

		windMS, windFrom := st.Hazard.WindSpeedMS, st.Hazard.WindFromDeg
		wf := widening
		if f, ok := fc.At(lead); ok {
			windMS, windFrom = f.WindSpeedMS, f.WindFromDeg
		} else {
			wf = fallbackWidening
		}

		center = geo.Destination(center, geo.NormalizeHeading(windFrom+180), windMS*step)
		widthM += lateralSpreadMPerHour * step / 3600
		alt := math.Max(minHeightM, height-settleMPerHour*lead.Hours())

		points = append(points, model.PredictedPoint{
			Timestamp:  t,
			Position:   center.WithAlt(alt),
			Velocity:   &model.Velocity{SpeedMS: windMS, HeadingDeg: geo.NormalizeHeading(windFrom + 180)},
			Confidence: decay(0.60, 0.10, lead, 4*time.Hour),
			Uncertainty: model.UncertaintyCone{
				RadiusM: widthM * wf,
			},
			Attrs: map[string]float64{
				"cloud_width_km": widthM / 1000,
				"plume_height_m": alt,
			},
		})
		prev = t
	}
	return points
}
