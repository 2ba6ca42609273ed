// Package mqtt wraps the Eclipse Paho client with reconnect-safe
// subscriptions and a small publish surface for the bridge.
package mqtt

import (
	"errors"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

var (
	ErrNotConnected = errors.New("mqtt: not connected")
	ErrTokenTimeout = errors.New("mqtt: operation timed out")
)

const (
	defaultConnectRetryInterval = 5 * time.Second
	defaultMaxReconnectInterval = time.Minute
	defaultOpTimeout            = 5 * time.Second
)

// Config carries broker connection settings.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	QoS       byte
	TLS       TLSConfig
}

// Message is one delivery from the broker. The payload is owned by the
// receiver.
type Message struct {
	Topic   string
	Payload []byte
}

// Handler consumes one delivered message. Handlers run on the Paho
// router goroutine and must not block.
type Handler func(Message)

// conn is the slice of paho.Client the wrapper drives.
type conn interface {
	Connect() paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
	Unsubscribe(topics ...string) paho.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Client keeps the desired subscription set and replays it every time
// the broker connection is established.
type Client struct {
	cfg  Config
	log  zerolog.Logger
	conn conn

	mu   sync.Mutex
	subs map[string]Handler
}

// Dial starts a broker connection in the background and returns
// immediately. Paho retries until the broker is reachable; registered
// subscriptions are replayed on every connect. Only certificate
// material problems fail the call.
func Dial(cfg Config, log zerolog.Logger) (*Client, error) {
	if err := cfg.TLS.Validate(); err != nil {
		return nil, err
	}
	c := newClient(nil, cfg, log)

	opts := paho.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(defaultConnectRetryInterval)
	opts.SetMaxReconnectInterval(defaultMaxReconnectInterval)
	opts.SetCleanSession(false)
	opts.SetResumeSubs(true)
	opts.SetOrderMatters(false)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	if cfg.TLS.Enabled {
		tlsCfg, err := cfg.TLS.build(cfg.BrokerURL)
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.SetOnConnectHandler(func(paho.Client) { c.onConnect() })
	opts.SetConnectionLostHandler(func(_ paho.Client, err error) {
		c.log.Warn().Err(err).Msg("broker connection lost")
	})

	c.conn = paho.NewClient(opts)
	token := c.conn.Connect()
	go func() {
		if token.Wait() && token.Error() != nil {
			c.log.Warn().Err(token.Error()).Str("broker", cfg.BrokerURL).Msg("initial connect failed, retrying")
		}
	}()
	return c, nil
}

func newClient(cn conn, cfg Config, log zerolog.Logger) *Client {
	return &Client{
		cfg:  cfg,
		log:  log,
		conn: cn,
		subs: make(map[string]Handler),
	}
}

// Subscribe registers a handler for a topic. The subscription survives
// reconnects; when the broker is currently unreachable it is installed
// on the next connect.
func (c *Client) Subscribe(topic string, h Handler) error {
	c.mu.Lock()
	c.subs[topic] = h
	c.mu.Unlock()

	if !c.conn.IsConnected() {
		return nil
	}
	return c.subscribe(topic, h)
}

func (c *Client) subscribe(topic string, h Handler) error {
	token := c.conn.Subscribe(topic, c.cfg.QoS, func(_ paho.Client, m paho.Message) {
		payload := make([]byte, len(m.Payload()))
		copy(payload, m.Payload())
		h(Message{Topic: m.Topic(), Payload: payload})
	})
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: subscribe %q", ErrTokenTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: subscribe %q: %w", topic, err)
	}
	c.log.Debug().Str("topic", topic).Msg("subscribed")
	return nil
}

// Unsubscribe removes a topic from the desired set and from the broker.
func (c *Client) Unsubscribe(topic string) error {
	c.mu.Lock()
	delete(c.subs, topic)
	c.mu.Unlock()

	if !c.conn.IsConnected() {
		return nil
	}
	token := c.conn.Unsubscribe(topic)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: unsubscribe %q", ErrTokenTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: unsubscribe %q: %w", topic, err)
	}
	return nil
}

// Publish sends one message at the configured QoS. Deliveries attempted
// while the broker is unreachable fail fast.
func (c *Client) Publish(topic string, payload []byte) error {
	if !c.conn.IsConnected() {
		return fmt.Errorf("%w: publish %q", ErrNotConnected, topic)
	}
	token := c.conn.Publish(topic, c.cfg.QoS, false, payload)
	if !token.WaitTimeout(defaultOpTimeout) {
		return fmt.Errorf("%w: publish %q", ErrTokenTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt: publish %q: %w", topic, err)
	}
	return nil
}

// IsConnected reports whether the broker session is up.
func (c *Client) IsConnected() bool {
	return c.conn.IsConnected()
}

// Close drops the broker connection after flushing in-flight work.
func (c *Client) Close() {
	c.conn.Disconnect(500)
}

// onConnect replays the desired subscription set after every connect.
func (c *Client) onConnect() {
	c.log.Info().Str("broker", c.cfg.BrokerURL).Msg("broker connected")

	c.mu.Lock()
	pending := make(map[string]Handler, len(c.subs))
	for topic, h := range c.subs {
		pending[topic] = h
	}
	c.mu.Unlock()

	for topic, h := range pending {
		if err := c.subscribe(topic, h); err != nil {
			c.log.Error().Str("topic", topic).Err(err).Msg("resubscribe failed")
		}
	}
}
