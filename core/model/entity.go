package model

import (
	"fmt"
	"time"
)

// EntityType identifies the kind of tracked entity. The set is closed:
// each type is served by exactly one predictor.
type EntityType string

const (
	EntityAircraft  EntityType = "aircraft"
	EntityVessel    EntityType = "vessel"
	EntitySatellite EntityType = "satellite"
	EntityWildlife  EntityType = "wildlife"
	EntityHazard    EntityType = "hazard"
)

// EntityTypes lists all supported entity types.
func EntityTypes() []EntityType {
	return []EntityType{EntityAircraft, EntityVessel, EntitySatellite, EntityWildlife, EntityHazard}
}

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityAircraft, EntityVessel, EntitySatellite, EntityWildlife, EntityHazard:
		return true
	}
	return false
}

func (t EntityType) String() string { return string(t) }

// ParseEntityType converts a string into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type %q", s)
	}
	return t, nil
}

// HazardKind selects the hazard sub-model.
type HazardKind string

const (
	HazardEarthquake HazardKind = "earthquake"
	HazardWildfire   HazardKind = "wildfire"
	HazardStorm      HazardKind = "storm"
	HazardTsunami    HazardKind = "tsunami"
	HazardAshPlume   HazardKind = "ash_plume"
)

// Waypoint is a single fix on a filed route.
type Waypoint struct {
	Name     string   `json:"name,omitempty"`
	Position GeoPoint `json:"position"`
}

// Route is a filed flight plan expressed as an ordered waypoint list.
type Route struct {
	Waypoints []Waypoint `json:"waypoints"`
}

// HazardDetail carries sub-model parameters supplied by ingestion. Only
// the fields relevant to the hazard kind are populated.
type HazardDetail struct {
	Kind         HazardKind `json:"kind"`
	Magnitude    float64    `json:"magnitude,omitempty"`
	WindSpeedMS  float64    `json:"wind_speed_ms,omitempty"`
	WindFromDeg  float64    `json:"wind_from_deg,omitempty"`
	FuelMoisture float64    `json:"fuel_moisture,omitempty"`
	AreaHectares float64    `json:"area_hectares,omitempty"`
	MaxWindKMH   float64    `json:"max_wind_kmh,omitempty"`
	OceanDepthM  float64    `json:"ocean_depth_m,omitempty"`
	PlumeHeightM float64    `json:"plume_height_m,omitempty"`
}

// TrackSample is one historical observation, used by predictors that
// estimate a recent trajectory.
type TrackSample struct {
	Timestamp time.Time `json:"timestamp"`
	Position  GeoPoint  `json:"position"`
}

// EntityState is the last known kinematic and auxiliary state of a
// tracked entity. It is supplied by the ingestion tier and never mutated
// by the prediction core.
type EntityState struct {
	EntityID  string     `json:"entity_id"`
	Type      EntityType `json:"entity_type"`
	Timestamp time.Time  `json:"timestamp"`
	Position  GeoPoint   `json:"position"`
	Velocity  *Velocity  `json:"velocity,omitempty"`

	// Auxiliary data; population depends on Type.
	FlightPlan  *Route        `json:"flight_plan,omitempty"`
	Destination string        `json:"destination,omitempty"`
	VesselClass string        `json:"vessel_class,omitempty"`
	TLELine1    string        `json:"tle_line1,omitempty"`
	TLELine2    string        `json:"tle_line2,omitempty"`
	Elements    *MeanElements `json:"elements,omitempty"`
	Species     string        `json:"species,omitempty"`
	Hazard      *HazardDetail `json:"hazard,omitempty"`
	History     []TrackSample `json:"history,omitempty"`

	// HeadingChangedAt marks the last observed heading change, when the
	// ingestion tier detected one.
	HeadingChangedAt *time.Time `json:"heading_changed_at,omitempty"`
}

// MeanElements are simplified Keplerian mean elements, used when a full
// TLE is unavailable.
type MeanElements struct {
	Epoch          time.Time `json:"epoch"`
	InclinationDeg float64   `json:"inclination_deg"`
	RAANDeg        float64   `json:"raan_deg"`
	Eccentricity   float64   `json:"eccentricity"`
	ArgPerigeeDeg  float64   `json:"arg_perigee_deg"`
	MeanAnomalyDeg float64   `json:"mean_anomaly_deg"`
	// MeanMotion is revolutions per day.
	MeanMotion float64 `json:"mean_motion"`
}
