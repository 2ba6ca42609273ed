package bridge

import (
	"errors"
	"testing"

	"github.com/danmuck/canctl/internal/mqtt"
	"github.com/danmuck/canctl/internal/testutil/testlog"
)

func TestServiceRejectsZeroHeartbeat(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.HeartbeatInterval = 0
	if err := NewService(cfg).Run(); !errors.Is(err, ErrInvalidHeartbeatInterval) {
		t.Fatalf("err = %v, want ErrInvalidHeartbeatInterval", err)
	}
}

func TestServiceRejectsUnknownBusKind(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.Bus.Kind = "pigeon"
	if err := NewService(cfg).Run(); !errors.Is(err, ErrUnknownBusKind) {
		t.Fatalf("err = %v, want ErrUnknownBusKind", err)
	}
}

func TestServiceRejectsBrokenRules(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.Rules = []Rule{{Name: "broken", ID: 1, Direction: Bidirectional}}
	if err := NewService(cfg).Run(); !errors.Is(err, ErrInvalidRule) {
		t.Fatalf("err = %v, want ErrInvalidRule", err)
	}
}

func TestServiceRejectsBrokenTLS(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.MQTT.TLS.Enabled = true
	if err := NewService(cfg).Run(); !errors.Is(err, mqtt.ErrTLSCAFileRequired) {
		t.Fatalf("err = %v, want ErrTLSCAFileRequired", err)
	}
}

func TestBusConfigName(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		cfg  BusConfig
		want string
	}{
		{BusConfig{Kind: BusSocketCAN, Interface: "can0"}, "can0"},
		{BusConfig{Kind: BusSLCAN, SerialPort: "/dev/ttyACM0"}, "/dev/ttyACM0"},
		{BusConfig{Kind: BusLoopback}, "loopback"},
	}
	for _, tc := range cases {
		if got := tc.cfg.Name(); got != tc.want {
			t.Fatalf("name for %q = %q, want %q", tc.cfg.Kind, got, tc.want)
		}
	}
}

func TestDefaultServiceConfigIsRunnable(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	if cfg.Bus.Kind != BusLoopback {
		t.Fatalf("default bus kind = %q, want loopback", cfg.Bus.Kind)
	}
	if cfg.HeartbeatInterval <= 0 {
		t.Fatalf("default heartbeat %v not positive", cfg.HeartbeatInterval)
	}
	if cfg.MQTT.BrokerURL == "" || cfg.MQTT.ClientID == "" {
		t.Fatalf("default mqtt config incomplete: %+v", cfg.MQTT)
	}
}
