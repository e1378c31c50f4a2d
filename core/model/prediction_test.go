package model

import (
	"testing"
	"time"
)

func validRequest() PredictionRequest {
	from := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	return PredictionRequest{
		EntityID:          "AC-1",
		Type:              EntityAircraft,
		From:              from,
		To:                from.Add(time.Hour),
		ResolutionSeconds: 60,
	}
}

func TestRequestValidate(t *testing.T) {
	if err := validRequest().Validate(); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	r := validRequest()
	r.EntityID = ""
	if err := r.Validate(); err == nil {
		t.Error("missing entity id accepted")
	}

	r = validRequest()
	r.Type = "submarine"
	if err := r.Validate(); err == nil {
		t.Error("unknown type accepted")
	}

	r = validRequest()
	r.To = r.From
	if err := r.Validate(); err == nil {
		t.Error("empty window accepted")
	}
	r.To = r.From.Add(-time.Minute)
	if err := r.Validate(); err == nil {
		t.Error("inverted window accepted")
	}

	r = validRequest()
	r.ResolutionSeconds = 0
	if err := r.Validate(); err == nil {
		t.Error("zero resolution accepted")
	}
}

func TestRequestResolution(t *testing.T) {
	r := validRequest()
	r.ResolutionSeconds = 90
	if r.Resolution() != 90*time.Second {
		t.Fatalf("resolution = %v", r.Resolution())
	}
}

func TestParseEntityType(t *testing.T) {
	for _, typ := range EntityTypes() {
		got, err := ParseEntityType(string(typ))
		if err != nil || got != typ {
			t.Errorf("ParseEntityType(%q) = %v, %v", typ, got, err)
		}
	}
	if _, err := ParseEntityType("balloon"); err == nil {
		t.Error("unknown type parsed")
	}
}

func TestGeoPointAlt(t *testing.T) {
	p := GeoPoint{Lat: 1, Lon: 2}
	if p.AltOr(500) != 500 {
		t.Error("AltOr should fall back")
	}
	p = p.WithAlt(1000)
	if p.AltOr(500) != 1000 {
		t.Error("AltOr should prefer the set altitude")
	}
}
