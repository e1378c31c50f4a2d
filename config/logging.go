package config

import (
	"fmt"
	"os"
	"strings"
)

// LoggingConfig controls log verbosity and format.
type LoggingConfig struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string `json:"level"`
	// Pretty selects human-readable console output instead of JSON.
	Pretty bool `json:"pretty"`
}

// SetDefaults applies the logging defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks the configured level.
func (c LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("logging: unknown level %q", c.Level)
}

// Apply exports the settings to the environment consulted by the
// logger constructors.
func (c LoggingConfig) Apply() {
	os.Setenv("LOG_LEVEL", strings.ToLower(c.Level))
	if c.Pretty {
		os.Setenv("APP_ENV", "dev")
	}
}
