package model

// GeoPoint is a geographic position. Altitude is metres above mean sea
// level and may be absent.
type GeoPoint struct {
	Lat float64  `json:"lat"`
	Lon float64  `json:"lon"`
	Alt *float64 `json:"alt,omitempty"`
}

// WithAlt returns a copy of the point carrying the given altitude.
func (p GeoPoint) WithAlt(alt float64) GeoPoint {
	p.Alt = &alt
	return p
}

// AltOr returns the altitude or def when none is set.
func (p GeoPoint) AltOr(def float64) float64 {
	if p.Alt == nil {
		return def
	}
	return *p.Alt
}

// Velocity is a ground-referenced velocity. Heading is degrees clockwise
// from true north in [0,360). VerticalRate is metres per second, positive
// up, and may be absent.
type Velocity struct {
	SpeedMS      float64  `json:"speed_ms"`
	HeadingDeg   float64  `json:"heading_deg"`
	VerticalRate *float64 `json:"vertical_rate_ms,omitempty"`
}

// VerticalRateOr returns the vertical rate or def when none is set.
func (v Velocity) VerticalRateOr(def float64) float64 {
	if v.VerticalRate == nil {
		return def
	}
	return *v.VerticalRate
}

// UncertaintyCone is the spatial error envelope around a predicted
// position. RadiusM is the lateral radius in metres. AlongTrackM and
// CrossTrackM refine the envelope when the error is asymmetric; zero
// values mean the cone is symmetric with radius RadiusM.
type UncertaintyCone struct {
	RadiusM     float64 `json:"radius_m"`
	AlongTrackM float64 `json:"along_track_m,omitempty"`
	CrossTrackM float64 `json:"cross_track_m,omitempty"`
}
