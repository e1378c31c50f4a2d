// Package geo provides the spherical-Earth geometry used by the
// predictors: great-circle distance, bearing, destination and
// interpolation, plus rhumb-line dead reckoning for marine tracks.
package geo

import (
	"math"

	"github.com/maelviard/trackcast/core/model"
)

// EarthRadiusM is the mean Earth radius in metres.
const EarthRadiusM = 6371000.0

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// NormalizeHeading wraps a heading into [0,360).
func NormalizeHeading(deg float64) float64 {
	h := math.Mod(deg, 360)
	if h < 0 {
		h += 360
	}
	return h
}

// DistanceM returns the great-circle distance between two points in
// metres, by the haversine formula.
func DistanceM(a, b model.GeoPoint) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dlat := radians(b.Lat - a.Lat)
	dlon := radians(b.Lon - a.Lon)

	h := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	return EarthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BearingDeg returns the initial great-circle bearing from a to b in
// degrees, 0 = north, 90 = east.
func BearingDeg(a, b model.GeoPoint) float64 {
	lat1 := radians(a.Lat)
	lat2 := radians(b.Lat)
	dlon := radians(b.Lon - a.Lon)

	x := math.Sin(dlon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dlon)
	return NormalizeHeading(degrees(math.Atan2(x, y)))
}

// Destination returns the point reached by travelling distanceM metres
// from start along the given initial bearing on a great circle. Altitude
// carries over unchanged.
func Destination(start model.GeoPoint, bearingDeg, distanceM float64) model.GeoPoint {
	lat1 := radians(start.Lat)
	lon1 := radians(start.Lon)
	brg := radians(bearingDeg)
	d := distanceM / EarthRadiusM

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lon2 := lon1 + math.Atan2(
		math.Sin(brg)*math.Sin(d)*math.Cos(lat1),
		math.Cos(d)-math.Sin(lat1)*math.Sin(lat2),
	)

	return model.GeoPoint{
		Lat: degrees(lat2),
		Lon: normalizeLon(degrees(lon2)),
		Alt: start.Alt,
	}
}

// Interpolate returns the point at the given fraction of the great
// circle from a to b. Fraction 0 yields a, 1 yields b. Altitudes are
// interpolated linearly when both ends carry one.
func Interpolate(a, b model.GeoPoint, fraction float64) model.GeoPoint {
	if fraction <= 0 {
		return a
	}
	if fraction >= 1 {
		return b
	}

	d := DistanceM(a, b) / EarthRadiusM
	if d < 1e-10 {
		return a
	}

	lat1 := radians(a.Lat)
	lon1 := radians(a.Lon)
	lat2 := radians(b.Lat)
	lon2 := radians(b.Lon)

	fa := math.Sin((1-fraction)*d) / math.Sin(d)
	fb := math.Sin(fraction*d) / math.Sin(d)

	x := fa*math.Cos(lat1)*math.Cos(lon1) + fb*math.Cos(lat2)*math.Cos(lon2)
	y := fa*math.Cos(lat1)*math.Sin(lon1) + fb*math.Cos(lat2)*math.Sin(lon2)
	z := fa*math.Sin(lat1) + fb*math.Sin(lat2)

	p := model.GeoPoint{
		Lat: degrees(math.Atan2(z, math.Sqrt(x*x+y*y))),
		Lon: normalizeLon(degrees(math.Atan2(y, x))),
	}
	if a.Alt != nil && b.Alt != nil {
		p = p.WithAlt(*a.Alt + fraction*(*b.Alt-*a.Alt))
	}
	return p
}

// RhumbDestination returns the point reached by travelling distanceM
// metres from start on a constant-bearing rhumb line. Vessels steaming a
// steady course follow rhumb lines, not great circles.
func RhumbDestination(start model.GeoPoint, bearingDeg, distanceM float64) model.GeoPoint {
	lat1 := radians(start.Lat)
	lon1 := radians(start.Lon)
	brg := radians(bearingDeg)
	d := distanceM / EarthRadiusM

	lat2 := lat1 + d*math.Cos(brg)
	// Clamp at the poles; a rhumb line spiralling past a pole is not a
	// meaningful vessel track.
	if math.Abs(lat2) > math.Pi/2 {
		if lat2 > 0 {
			lat2 = math.Pi / 2
		} else {
			lat2 = -math.Pi / 2
		}
	}

	dPsi := math.Log(math.Tan(lat2/2+math.Pi/4) / math.Tan(lat1/2+math.Pi/4))
	q := math.Cos(lat1)
	if math.Abs(dPsi) > 1e-12 {
		q = (lat2 - lat1) / dPsi
	}
	lon2 := lon1 + d*math.Sin(brg)/q

	return model.GeoPoint{
		Lat: degrees(lat2),
		Lon: normalizeLon(degrees(lon2)),
		Alt: start.Alt,
	}
}

func normalizeLon(lon float64) float64 {
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}
