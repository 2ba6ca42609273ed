package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/danmuck/canctl/internal/testutil/testlog"
)

type fakeToken struct {
	err error
}

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type publishRecord struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeConn struct {
	connected bool
	subErr    error
	handlers  map[string]paho.MessageHandler
	published []publishRecord
	unsubbed  []string
}

func newFakeConn(connected bool) *fakeConn {
	return &fakeConn{connected: connected, handlers: make(map[string]paho.MessageHandler)}
}

func (f *fakeConn) Connect() paho.Token { return fakeToken{} }

func (f *fakeConn) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	if f.subErr != nil {
		return fakeToken{err: f.subErr}
	}
	f.handlers[topic] = cb
	return fakeToken{}
}

func (f *fakeConn) Unsubscribe(topics ...string) paho.Token {
	f.unsubbed = append(f.unsubbed, topics...)
	return fakeToken{}
}

func (f *fakeConn) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	f.published = append(f.published, publishRecord{topic: topic, qos: qos, payload: payload.([]byte)})
	return fakeToken{}
}

func (f *fakeConn) Disconnect(quiesce uint) { f.connected = false }
func (f *fakeConn) IsConnected() bool       { return f.connected }

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func TestSubscribeDelivPayloadCopyToHandler(t *testing.T) {
	testlog.Start(t)

	fc := newFakeConn(true)
	c := newClient(fc, Config{BrokerURL: "tcp://localhost:1883", QoS: 1}, zerolog.Nop())

	var got Message
	if err := c.Subscribe("car/speed", func(m Message) { got = m }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	cb, ok := fc.handlers["car/speed"]
	if !ok {
		t.Fatalf("no live subscription installed")
	}
	raw := []byte(`{"kmh":88}`)
	cb(nil, fakeMessage{topic: "car/speed", payload: raw})

	if got.Topic != "car/speed" || string(got.Payload) != `{"kmh":88}` {
		t.Fatalf("handler got %q %q", got.Topic, got.Payload)
	}
	raw[0] = 'X'
	if got.Payload[0] == 'X' {
		t.Fatalf("handler payload shares storage with broker buffer")
	}
}

func TestSubscribeWhileDisconnectedInstallsOnConnect(t *testing.T) {
	testlog.Start(t)

	fc := newFakeConn(false)
	c := newClient(fc, Config{}, zerolog.Nop())

	if err := c.Subscribe("car/door", func(Message) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(fc.handlers) != 0 {
		t.Fatalf("subscribed while disconnected")
	}

	fc.connected = true
	c.onConnect()
	if _, ok := fc.handlers["car/door"]; !ok {
		t.Fatalf("subscription not replayed on connect")
	}
}

func TestPublishFailsFastWhileDisconnected(t *testing.T) {
	testlog.Start(t)

	fc := newFakeConn(false)
	c := newClient(fc, Config{}, zerolog.Nop())

	err := c.Publish("car/speed", []byte("{}"))
	if !errors.Is(err, ErrNotConnected) {
		t.Fatalf("publish err = %v, want ErrNotConnected", err)
	}
	if len(fc.published) != 0 {
		t.Fatalf("publish reached broker while disconnected")
	}
}

func TestPublishUsesConfiguredQoS(t *testing.T) {
	testlog.Start(t)

	fc := newFakeConn(true)
	c := newClient(fc, Config{QoS: 1}, zerolog.Nop())

	if err := c.Publish("car/speed", []byte(`{"kmh":42}`)); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fc.published) != 1 {
		t.Fatalf("published %d messages, want 1", len(fc.published))
	}
	rec := fc.published[0]
	if rec.topic != "car/speed" || rec.qos != 1 || string(rec.payload) != `{"kmh":42}` {
		t.Fatalf("published %q qos=%d payload=%q", rec.topic, rec.qos, rec.payload)
	}
}

func TestUnsubscribeForgetsTopic(t *testing.T) {
	testlog.Start(t)

	fc := newFakeConn(true)
	c := newClient(fc, Config{}, zerolog.Nop())

	if err := c.Subscribe("car/lock", func(Message) {}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if err := c.Unsubscribe("car/lock"); err != nil {
		t.Fatalf("unsubscribe: %v", err)
	}
	if len(fc.unsubbed) != 1 || fc.unsubbed[0] != "car/lock" {
		t.Fatalf("unsubscribed %v", fc.unsubbed)
	}

	delete(fc.handlers, "car/lock")
	c.onConnect()
	if _, ok := fc.handlers["car/lock"]; ok {
		t.Fatalf("forgotten topic replayed on connect")
	}
}
