package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/infra/logger"
)

func TestForecastRoundtrip(t *testing.T) {
	var gotPath, gotAuth string
	var gotQuery map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"model_id": "fcn",
			"generated_at": "2026-07-01T12:00:00Z",
			"hourly": [
				{"wind_speed_ms": 8.5, "wind_from_deg": 270, "temperature_c": 31, "relative_humidity": 0.2, "fuel_moisture": 0.08},
				{"wind_speed_ms": 9.1, "wind_from_deg": 265, "temperature_c": 30, "relative_humidity": 0.25, "fuel_moisture": 0.09}
			]
		}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret", logger.NopLogger{})
	fc, err := c.Forecast(context.Background(), model.GeoPoint{Lat: 38.2, Lon: 23.5}, 2, "fcn")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}

	if gotPath != "/v1/forecast" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("authorization = %q", gotAuth)
	}
	for k, want := range map[string]string{"lat": "38.2", "lon": "23.5", "hours": "2", "model": "fcn"} {
		if got := gotQuery[k]; len(got) != 1 || got[0] != want {
			t.Errorf("query %s = %v, want %s", k, got, want)
		}
	}

	if len(fc.Hourly) != 2 {
		t.Fatalf("hourly = %d", len(fc.Hourly))
	}
	if fc.Hourly[0].WindSpeedMS != 8.5 || fc.Hourly[1].WindFromDeg != 265 {
		t.Errorf("hourly = %+v", fc.Hourly)
	}
	if fc.ModelID != "fcn" || fc.GeneratedAt.IsZero() {
		t.Errorf("forecast meta = %q %v", fc.ModelID, fc.GeneratedAt)
	}
	if fc.Location.Lat != 38.2 {
		t.Errorf("location = %v", fc.Location)
	}
}

func TestForecastDefaultsMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"hourly": [{"wind_speed_ms": 1}]}`))
	}))
	defer srv.Close()

	fc, err := NewHTTPClient(srv.URL, "", logger.NopLogger{}).Forecast(context.Background(), model.GeoPoint{}, 1, "graphcast")
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if fc.ModelID != "graphcast" {
		t.Errorf("model id = %q, want the requested one", fc.ModelID)
	}
	if fc.GeneratedAt.IsZero() {
		t.Error("generated_at not defaulted")
	}
}

func TestForecastErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	if _, err := NewHTTPClient(srv.URL, "", logger.NopLogger{}).Forecast(context.Background(), model.GeoPoint{}, 1, "fcn"); err == nil {
		t.Fatal("expected an error on a non-200 status")
	}

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{broken`))
	}))
	defer bad.Close()
	if _, err := NewHTTPClient(bad.URL, "", logger.NopLogger{}).Forecast(context.Background(), model.GeoPoint{}, 1, "fcn"); err == nil {
		t.Fatal("expected a decode error")
	}

	down := NewHTTPClient("http://127.0.0.1:1", "", logger.NopLogger{})
	if _, err := down.Forecast(context.Background(), model.GeoPoint{}, 1, "fcn"); err == nil {
		t.Fatal("expected a transport error")
	}
}
