package wildlife

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/maelviard/trackcast/core/geo"
	"github.com/maelviard/trackcast/core/model"
)

var t0 = time.Date(2026, 7, 10, 6, 0, 0, 0, time.UTC)

func herdState() model.EntityState {
	return model.EntityState{
		EntityID:  "WL-7",
		Type:      model.EntityWildlife,
		Timestamp: t0,
		Position:  model.GeoPoint{Lat: -2.6, Lon: 34.8},
		Species:   "wildebeest",
	}
}

func sampleTimes(n int, step time.Duration) []time.Time {
	times := make([]time.Time, 0, n)
	for i := 1; i <= n; i++ {
		times = append(times, t0.Add(time.Duration(i)*step))
	}
	return times
}

func serengetiCorridor() Corridor {
	return Corridor{
		Species:    "wildebeest",
		StartMonth: time.June,
		EndMonth:   time.October,
		Path: []model.GeoPoint{
			{Lat: -2.5, Lon: 34.8},
			{Lat: -1.9, Lon: 34.9},
			{Lat: -1.4, Lon: 35.0},
		},
	}
}

func TestUncertaintyGrowth(t *testing.T) {
	prof := New(Config{}).ProfileFor(herdState())
	if got := prof.UncertaintyM(0); got != 5000 {
		t.Errorf("base uncertainty = %v", got)
	}
	// One hour out the cone reaches 5000 + 2.0*3600 = 12200 m.
	if got := prof.UncertaintyM(3600 * time.Second); got < 12200 {
		t.Errorf("uncertainty at 1h = %v, want >= 12200", got)
	}
}

func TestSeededNoiseIsReproducible(t *testing.T) {
	p := New(Config{Corridors: []Corridor{serengetiCorridor()}})
	st := herdState()
	times := sampleTimes(12, 10*time.Minute)

	a, _, err := p.Extrapolate(context.Background(), st, times)
	if err != nil {
		t.Fatalf("extrapolate: %v", err)
	}
	b, _, err := p.Extrapolate(context.Background(), st, times)
	if err != nil {
		t.Fatalf("extrapolate: %v", err)
	}
	for i := range a {
		if a[i].Position != b[i].Position {
			t.Fatalf("point %d differs between runs: %v vs %v", i, a[i].Position, b[i].Position)
		}
	}

	// A different observation seeds differently.
	st2 := st
	st2.Timestamp = t0.Add(time.Second)
	c, _, err := p.Extrapolate(context.Background(), st2, times)
	if err != nil {
		t.Fatalf("extrapolate: %v", err)
	}
	same := true
	for i := range a {
		if a[i].Position != c[i].Position {
			same = false
			break
		}
	}
	if same {
		t.Error("different state timestamps produced identical noise")
	}
}

func TestCorridorSelection(t *testing.T) {
	p := New(Config{Corridors: []Corridor{serengetiCorridor()}})
	st := herdState()

	pts, source, err := p.Extrapolate(context.Background(), st, sampleTimes(6, time.Hour))
	if err != nil {
		t.Fatalf("extrapolate: %v", err)
	}
	if source != model.SourceCorridor {
		t.Fatalf("source = %v, want corridor", source)
	}
	// 30 km/day for 6h is 7.5 km of progress, roughly northward along
	// the polyline.
	last := pts[len(pts)-1]
	if last.Position.Lat <= st.Position.Lat {
		t.Errorf("corridor runs north, got lat %v", last.Position.Lat)
	}
	if d := geo.DistanceM(st.Position, last.Position); d > 15000 {
		t.Errorf("herd covered %v m in 6h, implausible", d)
	}

	// Out of season the corridor does not apply.
	off := st
	off.Timestamp = time.Date(2026, 12, 10, 6, 0, 0, 0, time.UTC)
	offTimes := []time.Time{off.Timestamp.Add(time.Hour)}
	_, source, err = p.Extrapolate(context.Background(), off, offTimes)
	if err != nil {
		t.Fatalf("extrapolate: %v", err)
	}
	if source == model.SourceCorridor {
		t.Error("corridor matched outside its months")
	}
}

func TestCorridorWrapsYearEnd(t *testing.T) {
	c := Corridor{StartMonth: time.November, EndMonth: time.February}
	for _, tc := range []struct {
		month time.Month
		want  bool
	}{
		{time.December, true},
		{time.January, true},
		{time.November, true},
		{time.February, true},
		{time.June, false},
	} {
		at := time.Date(2026, tc.month, 15, 0, 0, 0, 0, time.UTC)
		if got := c.active(at); got != tc.want {
			t.Errorf("active(%v) = %v, want %v", tc.month, got, tc.want)
		}
	}
}

func TestNetTrajectoryFallback(t *testing.T) {
	st := herdState()

	// Measured velocity wins.
	st.Velocity = &model.Velocity{SpeedMS: 1.5, HeadingDeg: 45}
	hdg, spd, ok := netTrajectory(st)
	if !ok || hdg != 45 || spd != 1.5 {
		t.Fatalf("velocity trajectory = %v %v %v", hdg, spd, ok)
	}

	// Otherwise the history supplies the net course.
	st.Velocity = nil
	st.History = []model.TrackSample{
		{Timestamp: t0.Add(-time.Hour), Position: model.GeoPoint{Lat: -2.35, Lon: 34.83}},
		{Timestamp: t0, Position: model.GeoPoint{Lat: -2.33, Lon: 34.83}},
	}
	hdg, spd, ok = netTrajectory(st)
	if !ok {
		t.Fatal("expected a history-derived trajectory")
	}
	if math.Abs(hdg) > 1 {
		t.Errorf("northward history gave heading %v", hdg)
	}
	if spd <= 0 {
		t.Errorf("speed = %v", spd)
	}

	// Neither velocity nor usable history.
	st.History = st.History[:1]
	if _, _, ok = netTrajectory(st); ok {
		t.Error("single history sample should not yield a trajectory")
	}
}

func TestRandomWalkStaysBounded(t *testing.T) {
	p := New(Config{})
	st := herdState()
	st.Species = "lion"
	times := sampleTimes(12, time.Hour)

	pts, source, err := p.Extrapolate(context.Background(), st, times)
	if err != nil {
		t.Fatalf("extrapolate: %v", err)
	}
	if source != model.SourceRandomWalk {
		t.Fatalf("source = %v, want random walk", source)
	}
	// Each hourly step is capped at half the 10 km/day species speed,
	// so 12 hours cannot exceed 2.5 km of path length.
	maxStep := speciesSpeedMS("lion") * 0.5 * 3600
	prev := st.Position
	for i, pt := range pts {
		if d := geo.DistanceM(prev, pt.Position); d > maxStep+1 {
			t.Errorf("step %d moved %v m, cap is %v", i, d, maxStep)
		}
		prev = pt.Position
	}
}

func TestSpeciesSpeed(t *testing.T) {
	if s := speciesSpeedMS("Arctic Tern"); math.Abs(s-500*1000/86400.0) > 1e-9 {
		t.Errorf("arctic tern speed = %v", s)
	}
	if s := speciesSpeedMS("chupacabra"); math.Abs(s-DefaultSpeedKmDay*1000/86400.0) > 1e-9 {
		t.Errorf("unknown species speed = %v", s)
	}
}
