package config

import "fmt"

// PrometheusConfig exposes the Prometheus scrape endpoint.
type PrometheusConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// InfluxConfig pushes prediction events to InfluxDB.
type InfluxConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
	Token   string `json:"token"`
	Org     string `json:"org"`
	Bucket  string `json:"bucket"`
}

// MetricsConfig selects the metrics sinks. Both may be enabled at once;
// events fan out to each.
type MetricsConfig struct {
	Prometheus PrometheusConfig `json:"prometheus"`
	Influx     InfluxConfig     `json:"influx"`
}

// SetDefaults applies the metrics defaults.
func (c *MetricsConfig) SetDefaults() {
	if c.Prometheus.Port == 0 {
		c.Prometheus.Port = 9100
	}
}

// Validate checks the enabled sinks.
func (c MetricsConfig) Validate() error {
	if c.Prometheus.Enabled && (c.Prometheus.Port < 1 || c.Prometheus.Port > 65535) {
		return fmt.Errorf("metrics: invalid prometheus port %d", c.Prometheus.Port)
	}
	if c.Influx.Enabled {
		if c.Influx.URL == "" {
			return fmt.Errorf("metrics: influx url required")
		}
		if c.Influx.Org == "" || c.Influx.Bucket == "" {
			return fmt.Errorf("metrics: influx org and bucket required")
		}
	}
	return nil
}
