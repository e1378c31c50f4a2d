// Package weather models the external atmospheric forecasting
// collaborator as an injected, timeout-bounded capability. Hazard
// sub-models that depend on it fall back to their no-external-input
// variants when it is slow or absent.
package weather

import (
	"context"
	"errors"
	"time"

	"github.com/maelviard/trackcast/core/model"
)

// ErrForecastTimeout marks a forecast call that exceeded its deadline.
// It is recovered locally by the caller, never surfaced to the API.
var ErrForecastTimeout = errors.New("weather forecast timed out")

// Fields are the atmospheric quantities the hazard models consume.
type Fields struct {
	WindSpeedMS      float64 `json:"wind_speed_ms"`
	WindFromDeg      float64 `json:"wind_from_deg"`
	TemperatureC     float64 `json:"temperature_c"`
	RelativeHumidity float64 `json:"relative_humidity"`
	FuelMoisture     float64 `json:"fuel_moisture"`
}

// Forecast is the collaborator's answer for one location: one Fields
// sample per hour ahead.
type Forecast struct {
	Location    model.GeoPoint `json:"location"`
	ModelID     string         `json:"model_id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Hourly      []Fields       `json:"hourly"`
}

// At returns the fields for the given lead time, holding the last hour
// beyond the forecast's end.
func (f Forecast) At(lead time.Duration) (Fields, bool) {
	if len(f.Hourly) == 0 {
		return Fields{}, false
	}
	h := int(lead.Hours())
	if h < 0 {
		h = 0
	}
	if h >= len(f.Hourly) {
		h = len(f.Hourly) - 1
	}
	return f.Hourly[h], true
}

// Forecaster is the external forecasting contract.
type Forecaster interface {
	Forecast(ctx context.Context, loc model.GeoPoint, hoursAhead int, modelID string) (Forecast, error)
}

// Bounded wraps a Forecaster with a hard per-call deadline.
type Bounded struct {
	Inner   Forecaster
	Timeout time.Duration
}

// Forecast calls the inner forecaster under the deadline, mapping a
// deadline overrun to ErrForecastTimeout.
func (b Bounded) Forecast(ctx context.Context, loc model.GeoPoint, hoursAhead int, modelID string) (Forecast, error) {
	ctx, cancel := context.WithTimeout(ctx, b.Timeout)
	defer cancel()
	f, err := b.Inner.Forecast(ctx, loc, hoursAhead, modelID)
	if errors.Is(err, context.DeadlineExceeded) {
		return Forecast{}, ErrForecastTimeout
	}
	return f, err
}

// Static is a Forecaster returning fixed fields for every hour. It
// backs tests and the one-shot CLI.
type Static struct {
	Fields  Fields
	ModelID string
	Err     error
}

// Forecast implements Forecaster.
func (s Static) Forecast(_ context.Context, loc model.GeoPoint, hoursAhead int, modelID string) (Forecast, error) {
	if s.Err != nil {
		return Forecast{}, s.Err
	}
	if hoursAhead < 1 {
		hoursAhead = 1
	}
	hourly := make([]Fields, hoursAhead)
	for i := range hourly {
		hourly[i] = s.Fields
	}
	id := s.ModelID
	if id == "" {
		id = modelID
	}
	return Forecast{Location: loc, ModelID: id, GeneratedAt: time.Now().UTC(), Hourly: hourly}, nil
}
