package config

import (
	"github.com/maelviard/trackcast/core/aircraft"
	"github.com/maelviard/trackcast/core/hazard"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/satellite"
	"github.com/maelviard/trackcast/core/vessel"
	"github.com/maelviard/trackcast/core/wildlife"
)

// PredictorsConfig groups the per-entity-type predictor settings.
type PredictorsConfig struct {
	Aircraft  aircraft.Config  `json:"aircraft"`
	Vessel    VesselConfig     `json:"vessel"`
	Satellite satellite.Config `json:"satellite"`
	Wildlife  wildlife.Config  `json:"wildlife"`
	Hazard    hazard.Config    `json:"hazard"`
}

// VesselConfig extends the vessel predictor settings with the static
// port table used to resolve declared destinations.
type VesselConfig struct {
	vessel.Config `json:",squash"`
	Ports         map[string]model.GeoPoint `json:"ports"`
}

// PortTable converts the configured ports into a resolver.
func (c VesselConfig) PortTable() vessel.PortTable {
	t := make(vessel.PortTable, len(c.Ports))
	for code, p := range c.Ports {
		t[code] = p
	}
	return t
}

// SetDefaults applies defaults to every predictor section.
func (c *PredictorsConfig) SetDefaults() {
	c.Aircraft.SetDefaults()
	c.Vessel.SetDefaults()
	c.Satellite.SetDefaults()
	c.Wildlife.SetDefaults()
	c.Hazard.SetDefaults()
}
