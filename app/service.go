// Package app assembles the prediction service from configuration.
package app

import (
	"context"
	"fmt"

	"github.com/maelviard/trackcast/config"
	"github.com/maelviard/trackcast/core/aircraft"
	"github.com/maelviard/trackcast/core/hazard"
	coremetrics "github.com/maelviard/trackcast/core/metrics"
	"github.com/maelviard/trackcast/core/predict"
	"github.com/maelviard/trackcast/core/satellite"
	"github.com/maelviard/trackcast/core/service"
	"github.com/maelviard/trackcast/core/state"
	"github.com/maelviard/trackcast/core/vessel"
	"github.com/maelviard/trackcast/core/weather"
	"github.com/maelviard/trackcast/core/wildlife"
	"github.com/maelviard/trackcast/infra/ingest"
	"github.com/maelviard/trackcast/infra/logger"
	"github.com/maelviard/trackcast/infra/metrics"
	memstore "github.com/maelviard/trackcast/infra/store"
	infraweather "github.com/maelviard/trackcast/infra/weather"
	"github.com/maelviard/trackcast/internal/eventbus"
)

// Service wires the predictors, cache, ingest listener and sinks.
type Service struct {
	Predictions *service.Service
	Source      *state.MemorySource
	Bus         *eventbus.Bus

	cache    *memstore.Memory
	listener *ingest.Listener
	influx   *metrics.InfluxSink
	log      logger.Logger

	promEnabled bool
	promPort    int
}

// Option adjusts the assembly before wiring.
type Option func(*options)

type options struct {
	forecaster weather.Forecaster
}

// WithForecaster plugs in the external weather collaborator. Without
// one the weather-dependent hazard sub-models run their conservative
// fallbacks and the forecast pass-through is unavailable.
func WithForecaster(f weather.Forecaster) Option {
	return func(o *options) { o.forecaster = f }
}

// New creates a Service from the configuration.
func New(cfg *config.Config, opts ...Option) (*Service, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	cfg.Logging.Apply()
	logg := logger.New("app")

	var sinks []coremetrics.Sink
	var influx *metrics.InfluxSink
	if cfg.Metrics.Prometheus.Enabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.Influx.Enabled {
		sink := metrics.NewInfluxSinkWithFallback(cfg.Metrics.Influx.URL, cfg.Metrics.Influx.Token, cfg.Metrics.Influx.Org, cfg.Metrics.Influx.Bucket)
		if is, ok := sink.(*metrics.InfluxSink); ok {
			influx = is
		}
		sinks = append(sinks, sink)
	}
	var sink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		sink = sinks[0]
	} else if len(sinks) > 1 {
		sink = metrics.NewMultiSink(sinks...)
	}

	cache := memstore.NewMemory(cfg.Store, logger.New("store"))
	source := state.NewMemorySource()
	bus := eventbus.New()

	upstream := o.forecaster
	if upstream == nil && cfg.Weather.BaseURL != "" {
		upstream = infraweather.NewHTTPClient(cfg.Weather.BaseURL, cfg.Weather.APIKey, logger.New("weather"))
	}
	var forecaster weather.Forecaster
	if upstream != nil {
		forecaster = weather.Bounded{Inner: upstream, Timeout: cfg.Weather.Timeout}
	}

	predictors := []*predict.Predictor{
		predict.New(aircraft.New(cfg.Predictors.Aircraft), source, cache, logger.New("aircraft")),
		predict.New(vessel.New(cfg.Predictors.Vessel.Config, cfg.Predictors.Vessel.PortTable()), source, cache, logger.New("vessel")),
		predict.New(satellite.New(cfg.Predictors.Satellite), source, cache, logger.New("satellite")),
		predict.New(wildlife.New(cfg.Predictors.Wildlife), source, cache, logger.New("wildlife")),
		predict.New(hazard.New(cfg.Predictors.Hazard, forecaster, logger.New("hazard")), source, cache, logger.New("hazard")),
	}

	svcOpts := []service.Option{
		service.WithEventBus(bus),
		service.WithMetrics(sink),
	}
	if forecaster != nil {
		svcOpts = append(svcOpts, service.WithForecaster(forecaster))
	}
	svc := service.New(cfg.Service, predictors, cache, logger.New("service"), svcOpts...)

	app := &Service{
		Predictions: svc,
		Source:      source,
		Bus:         bus,
		cache:       cache,
		influx:      influx,
		log:         logg,
		promEnabled: cfg.Metrics.Prometheus.Enabled,
		promPort:    cfg.Metrics.Prometheus.Port,
	}

	if cfg.MQTT.Enabled {
		listener, err := ingest.NewListener(cfg.MQTT, source, svc, logger.New("ingest"))
		if err != nil {
			return nil, fmt.Errorf("state listener: %w", err)
		}
		app.listener = listener
	}
	return app, nil
}

// Run starts the background workers and blocks until the context is
// cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.cache.Run(ctx)
	if s.promEnabled {
		go func() {
			if err := metrics.StartPromServer(s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

// Close releases broker connections and flushes the sinks.
func (s *Service) Close() error {
	if s.listener != nil {
		s.listener.Disconnect()
	}
	if s.influx != nil {
		s.influx.Close()
	}
	s.Bus.Close()
	return nil
}
