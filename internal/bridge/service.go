package bridge

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/danmuck/canctl/internal/admin"
	"github.com/danmuck/canctl/internal/canbus"
	"github.com/danmuck/canctl/internal/logging"
	"github.com/danmuck/canctl/internal/mqtt"
	"github.com/danmuck/canctl/internal/slcan"
)

var (
	ErrInvalidHeartbeatInterval = errors.New("bridge: invalid heartbeat interval")
	ErrUnknownBusKind           = errors.New("bridge: unknown bus kind")
)

// BusKind selects the transport the daemon attaches to.
type BusKind string

const (
	BusSocketCAN BusKind = "socketcan"
	BusSLCAN     BusKind = "slcan"
	BusLoopback  BusKind = "loopback"
)

// BusConfig describes one bus attachment.
type BusConfig struct {
	Kind      BusKind
	Interface string
	EnableFD  bool

	SerialPort string
	BaudRate   int
	Bitrate    int

	// LogFrames wraps the bus so every frame is logged at debug level.
	LogFrames bool
}

// Name returns the label used in logs and metrics for this bus.
func (b BusConfig) Name() string {
	switch b.Kind {
	case BusSLCAN:
		return b.SerialPort
	case BusLoopback:
		return "loopback"
	default:
		return b.Interface
	}
}

// ServiceConfig configures the bridge daemon runtime.
type ServiceConfig struct {
	Bus               BusConfig
	MQTT              mqtt.Config
	Rules             []Rule
	AdminListenAddr   string
	CORSOrigins       []string
	HeartbeatInterval time.Duration
}

// Bridge daemon defaults: loopback bus, local broker, no admin server.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Bus:               BusConfig{Kind: BusLoopback},
		MQTT:              mqtt.Config{BrokerURL: "tcp://localhost:1883", ClientID: "canctl-bridge"},
		HeartbeatInterval: 30 * time.Second,
	}
}

// Service owns the daemon lifecycle: bus, broker session, bridge loop,
// and the optional admin server.
type Service struct {
	cfg     ServiceConfig
	log     zerolog.Logger
	started time.Time

	bus    canbus.Bus
	hub    *canbus.Loopback
	client *mqtt.Client
	bridge *Bridge
	admin  *admin.Server
}

func NewService(cfg ServiceConfig) *Service {
	return &Service{
		cfg: cfg,
		log: logging.Component("bridge"),
	}
}

// Run blocks until a process signal or a fatal transport error.
func (s *Service) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := s.bootstrap(ctx); err != nil {
		return err
	}
	defer s.teardown()
	return s.serve(ctx)
}

func (s *Service) bootstrap(ctx context.Context) error {
	if s.cfg.HeartbeatInterval <= 0 {
		return ErrInvalidHeartbeatInterval
	}

	conv, err := NewConverter(s.cfg.Rules)
	if err != nil {
		return err
	}

	bus, err := s.openBus()
	if err != nil {
		return err
	}
	if s.cfg.Bus.LogFrames {
		bus = canbus.NewLoggedBus(bus, s.log, canbus.LogAll)
	}
	s.bus = bus

	s.client, err = mqtt.Dial(s.cfg.MQTT, logging.Component("mqtt"))
	if err != nil {
		return fmt.Errorf("bridge: broker session: %w", err)
	}
	s.bridge = NewBridge(bus, s.client, conv, s.cfg.Bus.Name(), s.log)
	s.started = time.Now()

	for _, topic := range s.bridge.Topics() {
		err := s.client.Subscribe(topic, func(m mqtt.Message) {
			handleCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			_ = s.bridge.HandleMQTT(handleCtx, m.Topic, m.Payload)
		})
		if err != nil {
			return fmt.Errorf("bridge: subscribe %q: %w", topic, err)
		}
	}

	if s.cfg.AdminListenAddr != "" {
		s.admin = admin.New(admin.Config{
			Addr:        s.cfg.AdminListenAddr,
			CORSOrigins: s.cfg.CORSOrigins,
			Status:      s.statusDocument,
		}, logging.Component("admin"))
	}

	fromCAN, toCAN := conv.RuleCounts()
	s.log.Info().
		Str("bus", s.cfg.Bus.Name()).
		Str("broker", s.cfg.MQTT.BrokerURL).
		Int("rules_from_can", fromCAN).
		Int("rules_to_can", toCAN).
		Msg("bridge ready")
	return nil
}

func (s *Service) serve(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.HeartbeatInterval)
	defer ticker.Stop()

	bridgeErr := make(chan error, 1)
	go func() {
		bridgeErr <- s.bridge.Run(ctx)
	}()

	adminErr := make(chan error, 1)
	if s.admin != nil {
		go func() {
			adminErr <- s.admin.Run(ctx)
		}()
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("bridge shutdown")
			return nil
		case err := <-bridgeErr:
			if err != nil {
				return fmt.Errorf("bridge: bus loop: %w", err)
			}
			return nil
		case err := <-adminErr:
			if err != nil {
				return fmt.Errorf("bridge: admin server: %w", err)
			}
		case <-ticker.C:
			stats := s.bridge.Stats()
			s.log.Info().
				Uint64("frames_in", stats.FramesIn).
				Uint64("frames_out", stats.FramesOut).
				Uint64("published", stats.Published).
				Uint64("dropped", stats.Dropped).
				Bool("broker_connected", s.client.IsConnected()).
				Msg("bridge heartbeat")
		}
	}
}

func (s *Service) teardown() {
	if s.bus != nil {
		_ = s.bus.Close()
	}
	if s.hub != nil {
		_ = s.hub.Close()
	}
	if s.client != nil {
		s.client.Close()
	}
}

func (s *Service) openBus() (canbus.Bus, error) {
	switch s.cfg.Bus.Kind {
	case BusSocketCAN:
		return canbus.DialSocketCAN(s.cfg.Bus.Interface, s.cfg.Bus.EnableFD)
	case BusSLCAN:
		return slcan.DialSerial(slcan.SerialConfig{
			Port:     s.cfg.Bus.SerialPort,
			BaudRate: s.cfg.Bus.BaudRate,
			Bitrate:  s.cfg.Bus.Bitrate,
		})
	case BusLoopback:
		s.hub = canbus.NewLoopback()
		return s.hub.Open(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBusKind, s.cfg.Bus.Kind)
	}
}

// statusDocument is served by the admin /status route.
func (s *Service) statusDocument() any {
	stats := s.bridge.Stats()
	fromCAN, toCAN := s.bridge.conv.RuleCounts()
	return map[string]any{
		"bus":              s.cfg.Bus.Name(),
		"bus_kind":         string(s.cfg.Bus.Kind),
		"broker":           s.cfg.MQTT.BrokerURL,
		"broker_connected": s.client.IsConnected(),
		"rules_from_can":   fromCAN,
		"rules_to_can":     toCAN,
		"uptime":           time.Since(s.started).String(),
		"stats":            stats,
	}
}
