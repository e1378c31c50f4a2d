// Package scenarios runs forecast acceptance scenarios described in
// YAML files against a fully wired service.
package scenarios

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/maelviard/trackcast/core/model"
)

type StateDef struct {
	EntityID    string  `yaml:"entity_id"`
	Type        string  `yaml:"type"`
	Lat         float64 `yaml:"lat"`
	Lon         float64 `yaml:"lon"`
	AltM        float64 `yaml:"alt_m"`
	SpeedMS     float64 `yaml:"speed_ms"`
	HeadingDeg  float64 `yaml:"heading_deg"`
	Species     string  `yaml:"species,omitempty"`
	VesselClass string  `yaml:"vessel_class,omitempty"`
	Destination string  `yaml:"destination,omitempty"`
}

func (s StateDef) ToModel(now time.Time) model.EntityState {
	pos := model.GeoPoint{Lat: s.Lat, Lon: s.Lon}
	if s.AltM != 0 {
		pos = pos.WithAlt(s.AltM)
	}
	return model.EntityState{
		EntityID:    s.EntityID,
		Type:        model.EntityType(s.Type),
		Timestamp:   now,
		Position:    pos,
		Velocity:    &model.Velocity{SpeedMS: s.SpeedMS, HeadingDeg: s.HeadingDeg},
		Species:     s.Species,
		VesselClass: s.VesselClass,
		Destination: s.Destination,
	}
}

type RequestDef struct {
	HorizonMinutes    int `yaml:"horizon_minutes"`
	ResolutionSeconds int `yaml:"resolution_seconds"`
}

type Expected struct {
	Points             int     `yaml:"points"`
	MinFinalConfidence float64 `yaml:"min_final_confidence"`
	MaxFinalConfidence float64 `yaml:"max_final_confidence"`
	MaxDriftKM         float64 `yaml:"max_drift_km"`
}

type Scenario struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	State       StateDef   `yaml:"state"`
	Request     RequestDef `yaml:"request"`
	Expected    Expected   `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
