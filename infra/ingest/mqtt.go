// Package ingest consumes normalized entity state updates from MQTT and
// feeds them into the in-process state source, invalidating any cached
// forecasts anchored to the previous observation.
package ingest

import (
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"os"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/maelviard/trackcast/core/logger"
	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/state"
)

// Config defines the connection parameters for the state listener.
type Config struct {
	Enabled    bool        `json:"enabled"`
	Broker     string      `json:"broker"`
	ClientID   string      `json:"client_id"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	StateTopic string      `json:"state_topic"`
	QoS        byte        `json:"qos"`
	UseTLS     bool        `json:"use_tls"`
	ClientCert string      `json:"client_cert"`
	ClientKey  string      `json:"client_key"`
	CABundle   string      `json:"ca_bundle"`
	TLSConfig  *tls.Config `json:"-"`
}

// SetDefaults applies the listener defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "trackcast-ingest"
	}
	if c.StateTopic == "" {
		c.StateTopic = "entities/+/state"
	}
}

// Validate checks the listener configuration.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("ingest: broker required")
	}
	return nil
}

// Invalidator drops cached forecasts when fresh state arrives.
type Invalidator interface {
	Invalidate(entityID string, entityType model.EntityType)
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// Listener subscribes to the state topic and applies each update.
type Listener struct {
	cli    pahoClient
	cfg    Config
	source *state.MemorySource
	inv    Invalidator
	log    logger.Logger
}

// NewListener connects to the broker and subscribes to the state topic.
// inv may be nil when no cache needs dropping.
func NewListener(cfg Config, source *state.MemorySource, inv Invalidator, log logger.Logger) (*Listener, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := newClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	l := &Listener{cfg: cfg, source: source, inv: inv, log: log}
	opts.OnConnect = func(c paho.Client) {
		log.Infof("state listener connected to %s", cfg.Broker)
		if token := c.Subscribe(cfg.StateTopic, cfg.QoS, l.onState); token.Wait() && token.Error() != nil {
			log.Errorf("subscribe %s: %v", cfg.StateTopic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("state listener connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("state listener reconnecting")
	}

	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	l.cli = c
	return l, nil
}

func newClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.loadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	return opts, nil
}

func (c Config) loadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (l *Listener) onState(_ paho.Client, msg paho.Message) {
	var st model.EntityState
	if err := json.Unmarshal(msg.Payload(), &st); err != nil {
		l.log.Errorf("decode state on %s: %v", msg.Topic(), err)
		return
	}
	if err := l.apply(st); err != nil {
		l.log.Errorf("apply state on %s: %v", msg.Topic(), err)
	}
}

// apply stores the update and drops forecasts anchored to the previous
// observation.
func (l *Listener) apply(st model.EntityState) error {
	if st.EntityID == "" || !st.Type.Valid() {
		return fmt.Errorf("state update missing entity id or type")
	}
	if st.Timestamp.IsZero() {
		st.Timestamp = time.Now().UTC()
	}
	l.source.Set(st)
	if l.inv != nil {
		l.inv.Invalidate(st.EntityID, st.Type)
	}
	l.log.Debugf("state updated for %s/%s", st.Type, st.EntityID)
	return nil
}

// Disconnect closes the broker connection.
func (l *Listener) Disconnect() {
	if l.cli != nil && l.cli.IsConnected() {
		l.cli.Disconnect(250)
	}
}
