package satellite

import (
	"context"
	"math"
	"time"

	"github.com/maelviard/trackcast/core/model"
)

// mu is the Earth gravitational parameter in km^3/s^2.
const mu = 398600.4418

// earthRotationDegPerDay is the sidereal rotation rate.
const earthRotationDegPerDay = 360.98564736629

// propagateKepler is the simplified two-body fallback: mean elements
// advanced at the mean motion, Kepler's equation solved per sample, the
// in-plane position rotated into the inertial frame, and longitude
// corrected for Earth rotation since the element epoch.
func propagateKepler(ctx context.Context, el model.MeanElements, times []time.Time) ([]model.PredictedPoint, error) {
	nRad := el.MeanMotion * 2 * math.Pi / 86400.0 // rad/s
	aKm := math.Cbrt(mu / (nRad * nRad))
	inc := el.InclinationDeg * math.Pi / 180
	raan := el.RAANDeg * math.Pi / 180
	argp := el.ArgPerigeeDeg * math.Pi / 180
	m0 := el.MeanAnomalyDeg * math.Pi / 180

	points := make([]model.PredictedPoint, 0, len(times))
	for i, t := range times {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		dt := t.Sub(el.Epoch).Seconds()
		meanAnom := math.Mod(m0+nRad*dt, 2*math.Pi)

		ecc := solveKepler(meanAnom, el.Eccentricity)
		// True anomaly and radius from the eccentric anomaly.
		nu := 2 * math.Atan2(
			math.Sqrt(1+el.Eccentricity)*math.Sin(ecc/2),
			math.Sqrt(1-el.Eccentricity)*math.Cos(ecc/2),
		)
		rKm := aKm * (1 - el.Eccentricity*math.Cos(ecc))

		// Perifocal -> ECI rotation.
		u := argp + nu
		xi := rKm * (math.Cos(raan)*math.Cos(u) - math.Sin(raan)*math.Sin(u)*math.Cos(inc))
		yi := rKm * (math.Sin(raan)*math.Cos(u) + math.Cos(raan)*math.Sin(u)*math.Cos(inc))
		zi := rKm * math.Sin(u) * math.Sin(inc)

		lat := math.Atan2(zi, math.Hypot(xi, yi)) * 180 / math.Pi
		lonInertial := math.Atan2(yi, xi) * 180 / math.Pi
		lon := wrapLon(lonInertial - gmstDeg(t))
		altKm := rKm - earthRadiusKm

		speed := math.Sqrt(mu*(2/rKm-1/aKm)) * kmToM

		points = append(points, model.PredictedPoint{
			Timestamp: t,
			Position:  model.GeoPoint{Lat: lat, Lon: lon}.WithAlt(altKm * kmToM),
			Velocity:  &model.Velocity{SpeedMS: speed},
			Attrs:     map[string]float64{"altitude_km": altKm},
		})
	}
	return points, nil
}

// solveKepler iterates M = E - e*sin(E) with Newton's method.
func solveKepler(meanAnom, e float64) float64 {
	ecc := meanAnom
	for i := 0; i < 10; i++ {
		delta := (ecc - e*math.Sin(ecc) - meanAnom) / (1 - e*math.Cos(ecc))
		ecc -= delta
		if math.Abs(delta) < 1e-10 {
			break
		}
	}
	return ecc
}

// gmstDeg is the Greenwich mean sidereal time in degrees.
func gmstDeg(t time.Time) float64 {
	jd := float64(t.UTC().Unix())/86400.0 + 2440587.5
	d := jd - 2451545.0
	tc := d / 36525.0
	gmst := 280.46061837 + earthRotationDegPerDay*d + 0.000387933*tc*tc
	return math.Mod(math.Mod(gmst, 360)+360, 360)
}

func wrapLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
