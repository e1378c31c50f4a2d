// Package config loads the application configuration from a YAML or
// JSON file with environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/maelviard/trackcast/core/service"
	"github.com/maelviard/trackcast/infra/ingest"
	memstore "github.com/maelviard/trackcast/infra/store"
)

type Config struct {
	Predictors PredictorsConfig `json:"predictors"`
	Store      memstore.Config  `json:"store"`
	Service    service.Config   `json:"service"`
	Weather    WeatherConfig    `json:"weather"`
	MQTT       ingest.Config    `json:"mqtt"`
	Metrics    MetricsConfig    `json:"metrics"`
	Logging    LoggingConfig    `json:"logging"`
}

// Load reads the file at path and applies TC_ environment overrides
// (TC_METRICS__PROMETHEUS__PORT=9100 sets metrics.prometheus.port).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("TC_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "tc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults applies defaults to every section.
func (c *Config) SetDefaults() {
	c.Predictors.SetDefaults()
	c.Store.SetDefaults()
	c.Service.SetDefaults()
	c.Weather.SetDefaults()
	c.Metrics.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Weather.Validate(); err != nil {
		return err
	}
	if err := c.Metrics.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if c.MQTT.Enabled {
		if err := c.MQTT.Validate(); err != nil {
			return err
		}
	}
	return nil
}
