// Package weather implements the HTTP client for the external forecast
// collaborator.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/maelviard/trackcast/core/logger"
	"github.com/maelviard/trackcast/core/model"
	coreweather "github.com/maelviard/trackcast/core/weather"
)

// HTTPClient queries a forecast API over HTTP.
type HTTPClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
	log     logger.Logger
}

// NewHTTPClient creates a client for the forecast API at baseURL.
// apiKey may be empty for unauthenticated endpoints.
func NewHTTPClient(baseURL, apiKey string, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

type forecastPayload struct {
	ModelID     string    `json:"model_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Hourly      []struct {
		WindSpeedMS      float64 `json:"wind_speed_ms"`
		WindFromDeg      float64 `json:"wind_from_deg"`
		TemperatureC     float64 `json:"temperature_c"`
		RelativeHumidity float64 `json:"relative_humidity"`
		FuelMoisture     float64 `json:"fuel_moisture"`
	} `json:"hourly"`
}

// Forecast implements the core forecaster contract.
func (c *HTTPClient) Forecast(ctx context.Context, loc model.GeoPoint, hoursAhead int, modelID string) (coreweather.Forecast, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	q.Set("hours", strconv.Itoa(hoursAhead))
	q.Set("model", modelID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/forecast?"+q.Encode(), nil)
	if err != nil {
		return coreweather.Forecast{}, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return coreweather.Forecast{}, err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.log.Warnf("close forecast response: %v", cerr)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return coreweather.Forecast{}, fmt.Errorf("forecast api: status %d", resp.StatusCode)
	}

	var payload forecastPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return coreweather.Forecast{}, fmt.Errorf("decode forecast: %w", err)
	}

	fc := coreweather.Forecast{
		Location:    loc,
		ModelID:     payload.ModelID,
		GeneratedAt: payload.GeneratedAt,
		Hourly:      make([]coreweather.Fields, len(payload.Hourly)),
	}
	if fc.ModelID == "" {
		fc.ModelID = modelID
	}
	if fc.GeneratedAt.IsZero() {
		fc.GeneratedAt = time.Now().UTC()
	}
	for i, h := range payload.Hourly {
		fc.Hourly[i] = coreweather.Fields{
			WindSpeedMS:      h.WindSpeedMS,
			WindFromDeg:      h.WindFromDeg,
			TemperatureC:     h.TemperatureC,
			RelativeHumidity: h.RelativeHumidity,
			FuelMoisture:     h.FuelMoisture,
		}
	}
	return fc, nil
}
