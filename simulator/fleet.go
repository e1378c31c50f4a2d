package main

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
)

var fleetRng = rand.New(rand.NewSource(time.Now().UnixNano()))

// SimulatedEntity is one moving track. Advance mutates the state in
// place for the next publication.
type SimulatedEntity struct {
	State   model.EntityState
	speedMS float64
	turnDeg float64
}

// Advance moves the entity along its heading for dt and stamps the
// state with now.
func (e *SimulatedEntity) Advance(now time.Time, dt time.Duration) {
	if e.State.Velocity == nil {
		e.State.Timestamp = now
		return
	}
	heading := geo.NormalizeHeading(e.State.Velocity.HeadingDeg + e.turnDeg*dt.Seconds())
	e.State.Position = geo.Destination(e.State.Position, heading, e.speedMS*dt.Seconds())
	e.State.Velocity.HeadingDeg = heading
	e.State.Timestamp = now
}

// GenerateFleet creates the configured mix of synthetic entities spread
// around a mid-Atlantic origin.
func GenerateFleet(cfg Config) []*SimulatedEntity {
	now := time.Now().UTC()
	var out []*SimulatedEntity
	for i := 0; i < cfg.Aircraft; i++ {
		alt := 9000 + fleetRng.Float64()*3000
		speed := 200 + fleetRng.Float64()*60
		heading := fleetRng.Float64() * 360
		out = append(out, &SimulatedEntity{
			State: model.EntityState{
				EntityID:  fmt.Sprintf("sim-ac-%04d", i+1),
				Type:      model.EntityAircraft,
				Timestamp: now,
				Position:  model.GeoPoint{Lat: 40 + fleetRng.Float64()*10, Lon: -40 + fleetRng.Float64()*20}.WithAlt(alt),
				Velocity:  &model.Velocity{SpeedMS: speed, HeadingDeg: heading},
			},
			speedMS: speed,
		})
	}
	for i := 0; i < cfg.Vessels; i++ {
		speed := 4 + fleetRng.Float64()*6
		heading := fleetRng.Float64() * 360
		out = append(out, &SimulatedEntity{
			State: model.EntityState{
				EntityID:  fmt.Sprintf("sim-vs-%04d", i+1),
				Type:      model.EntityVessel,
				Timestamp: now,
				Position:  model.GeoPoint{Lat: 30 + fleetRng.Float64()*15, Lon: -50 + fleetRng.Float64()*30},
				Velocity:  &model.Velocity{SpeedMS: speed, HeadingDeg: heading},
			},
			speedMS: speed,
		})
	}
	for i := 0; i < cfg.Wildlife; i++ {
		speed := 0.2 + fleetRng.Float64()*0.5
		heading := fleetRng.Float64() * 360
		out = append(out, &SimulatedEntity{
			State: model.EntityState{
				EntityID:  fmt.Sprintf("sim-wl-%04d", i+1),
				Type:      model.EntityWildlife,
				Timestamp: now,
				Position:  model.GeoPoint{Lat: -2 + fleetRng.Float64()*4, Lon: 34 + fleetRng.Float64()*4},
				Velocity:  &model.Velocity{SpeedMS: speed, HeadingDeg: heading},
				Species:   "wildebeest",
			},
			speedMS: speed,
			turnDeg: fleetRng.Float64()*2 - 1,
		})
	}
	return out
}
