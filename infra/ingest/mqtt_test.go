package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/maelviard/trackcast/core/model"
	"github.com/maelviard/trackcast/core/state"
	"github.com/maelviard/trackcast/infra/logger"
)

type fakeToken struct{ err error }

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	connected    bool
	connectErr   error
	disconnected bool
	subscribed   []string
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Connect() paho.Token {
	if c.connectErr == nil {
		c.connected = true
	}
	return &fakeToken{err: c.connectErr}
}

func (c *fakeClient) Disconnect(uint) {
	c.connected = false
	c.disconnected = true
}

func (c *fakeClient) Subscribe(topic string, _ byte, _ paho.MessageHandler) paho.Token {
	c.subscribed = append(c.subscribed, topic)
	return &fakeToken{}
}

func withFakeClient(t *testing.T, cli *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return cli }
	t.Cleanup(func() { newMQTTClient = orig })
}

type fakeInvalidator struct {
	calls []string
}

func (f *fakeInvalidator) Invalidate(entityID string, entityType model.EntityType) {
	f.calls = append(f.calls, string(entityType)+"/"+entityID)
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m *fakeMessage) Duplicate() bool   { return false }
func (m *fakeMessage) Qos() byte         { return 0 }
func (m *fakeMessage) Retained() bool    { return false }
func (m *fakeMessage) Topic() string     { return m.topic }
func (m *fakeMessage) MessageID() uint16 { return 0 }
func (m *fakeMessage) Payload() []byte   { return m.payload }
func (m *fakeMessage) Ack()              {}

func TestNewListenerConnects(t *testing.T) {
	cli := &fakeClient{}
	withFakeClient(t, cli)

	l, err := NewListener(Config{Broker: "tcp://localhost:1883"}, state.NewMemorySource(), nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("new listener: %v", err)
	}
	if !cli.connected {
		t.Error("listener did not connect")
	}

	l.Disconnect()
	if !cli.disconnected {
		t.Error("listener did not disconnect")
	}
}

func TestNewListenerErrors(t *testing.T) {
	withFakeClient(t, &fakeClient{connectErr: errors.New("broker down")})
	if _, err := NewListener(Config{Broker: "tcp://localhost:1883"}, state.NewMemorySource(), nil, logger.NopLogger{}); err == nil {
		t.Fatal("expected the connect error to surface")
	}

	if _, err := NewListener(Config{}, state.NewMemorySource(), nil, logger.NopLogger{}); err == nil {
		t.Fatal("expected a validation error without a broker")
	}
}

func TestOnStateAppliesUpdate(t *testing.T) {
	src := state.NewMemorySource()
	inv := &fakeInvalidator{}
	l := &Listener{cfg: Config{}, source: src, inv: inv, log: logger.NopLogger{}}

	l.onState(nil, &fakeMessage{
		topic: "entities/AF1/state",
		payload: []byte(`{
			"entity_id": "AF1",
			"entity_type": "aircraft",
			"timestamp": "2026-07-01T12:00:00Z",
			"position": {"lat": 48.7, "lon": 2.3}
		}`),
	})

	st, ok, _ := src.Current(context.Background(), "AF1", model.EntityAircraft)
	if !ok {
		t.Fatal("state was not stored")
	}
	if st.Position.Lat != 48.7 {
		t.Errorf("position = %v", st.Position)
	}
	if len(inv.calls) != 1 || inv.calls[0] != "aircraft/AF1" {
		t.Errorf("invalidations = %v", inv.calls)
	}
}

func TestApplyRejectsInvalidState(t *testing.T) {
	src := state.NewMemorySource()
	l := &Listener{source: src, log: logger.NopLogger{}}

	if err := l.apply(model.EntityState{Type: model.EntityAircraft}); err == nil {
		t.Error("missing entity id accepted")
	}
	if err := l.apply(model.EntityState{EntityID: "X1", Type: "submarine"}); err == nil {
		t.Error("unknown type accepted")
	}

	// Malformed JSON is dropped without applying anything.
	l.onState(nil, &fakeMessage{topic: "entities/AF1/state", payload: []byte(`{not json`)})
	if _, ok, _ := src.Current(context.Background(), "AF1", model.EntityAircraft); ok {
		t.Error("malformed payload produced state")
	}
}

func TestApplyDefaultsTimestamp(t *testing.T) {
	src := state.NewMemorySource()
	l := &Listener{source: src, log: logger.NopLogger{}}

	before := time.Now().UTC()
	if err := l.apply(model.EntityState{EntityID: "VS1", Type: model.EntityVessel}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	st, _, _ := src.Current(context.Background(), "VS1", model.EntityVessel)
	if st.Timestamp.Before(before) || st.Timestamp.After(time.Now().UTC()) {
		t.Errorf("timestamp not defaulted to now: %v", st.Timestamp)
	}
}
