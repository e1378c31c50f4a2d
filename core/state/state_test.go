package state

import (
	"context"
	"testing"
	"time"

	"github.com/maelviard/trackcast/core/model"
)

func TestMemorySource(t *testing.T) {
	src := NewMemorySource()
	ctx := context.Background()

	if _, ok, err := src.Current(ctx, "AF123", model.EntityAircraft); ok || err != nil {
		t.Fatalf("empty source returned ok=%v err=%v", ok, err)
	}

	st := model.EntityState{
		EntityID:  "AF123",
		Type:      model.EntityAircraft,
		Timestamp: time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC),
		Position:  model.GeoPoint{Lat: 48.7, Lon: 2.3},
	}
	src.Set(st)

	got, ok, err := src.Current(ctx, "AF123", model.EntityAircraft)
	if err != nil || !ok {
		t.Fatalf("current: ok=%v err=%v", ok, err)
	}
	if got.Position != st.Position {
		t.Errorf("position = %v", got.Position)
	}

	// The key includes the entity type.
	if _, ok, _ := src.Current(ctx, "AF123", model.EntityVessel); ok {
		t.Error("identical IDs of different types must not collide")
	}

	// A newer observation replaces the old one.
	st.Timestamp = st.Timestamp.Add(time.Minute)
	st.Position = model.GeoPoint{Lat: 48.8, Lon: 2.4}
	src.Set(st)
	got, _, _ = src.Current(ctx, "AF123", model.EntityAircraft)
	if got.Position.Lat != 48.8 {
		t.Errorf("stale state survived the update: %v", got.Position)
	}
}
