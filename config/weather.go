package config

import (
	"fmt"
	"time"
)

// WeatherConfig points at the external forecast collaborator. Leaving
// BaseURL empty disables the integration; hazard sub-models then run
// their conservative fallbacks.
type WeatherConfig struct {
	// BaseURL is the forecast API endpoint.
	BaseURL string `json:"base_url"`
	// APIKey authenticates against the forecast API, when required.
	APIKey string `json:"api_key"`
	// Timeout caps each forecast query. Hazard sub-models fall back to
	// their conservative defaults when it elapses.
	Timeout time.Duration `json:"timeout"`
	// ModelID selects the upstream forecast model.
	ModelID string `json:"model_id"`
}

// SetDefaults applies the weather defaults.
func (c *WeatherConfig) SetDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
	if c.ModelID == "" {
		c.ModelID = "fcn"
	}
}

// Validate checks the weather settings.
func (c WeatherConfig) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("weather: timeout must be positive")
	}
	return nil
}
