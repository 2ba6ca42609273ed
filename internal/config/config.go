// Package config loads and validates the TOML configuration for the
// bridge daemon and converts it into runtime settings.
package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config mirrors the bridge daemon's TOML file.
type Config struct {
	Heartbeat string       `toml:"heartbeat"`
	Bus       BusConfig    `toml:"bus"`
	MQTT      MQTTConfig   `toml:"mqtt"`
	Admin     AdminConfig  `toml:"admin"`
	Rules     []RuleConfig `toml:"rules"`
}

type BusConfig struct {
	Kind       string `toml:"kind"`
	Interface  string `toml:"interface"`
	FD         bool   `toml:"fd"`
	SerialPort string `toml:"serial_port"`
	BaudRate   int    `toml:"baud_rate"`
	Bitrate    int    `toml:"bitrate"`
	LogFrames  bool   `toml:"log_frames"`
}

type MQTTConfig struct {
	BrokerURL string    `toml:"broker_url"`
	ClientID  string    `toml:"client_id"`
	Username  string    `toml:"username"`
	Password  string    `toml:"password"`
	QoS       int       `toml:"qos"`
	TLS       TLSConfig `toml:"tls"`
}

type TLSConfig struct {
	Enabled            bool   `toml:"enabled"`
	CAFile             string `toml:"ca_file"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

type AdminConfig struct {
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors_origins"`
}

// RuleConfig is the file form of one conversion rule. The identifier is
// hexadecimal, with or without a 0x prefix.
type RuleConfig struct {
	Name      string        `toml:"name"`
	ID        string        `toml:"id"`
	Extended  bool          `toml:"extended"`
	Topic     string        `toml:"topic"`
	Direction string        `toml:"direction"`
	Length    int           `toml:"length"`
	Fields    []FieldConfig `toml:"fields"`
}

type FieldConfig struct {
	Key    string  `toml:"key"`
	Type   string  `toml:"type"`
	Offset int     `toml:"offset"`
	Length int     `toml:"length"`
	Scale  float64 `toml:"scale"`
}

// LoadBridgeConfig reads a daemon config file and fills in defaults.
func LoadBridgeConfig(path string) (Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("bridge config load failed (%s): %w", path, err)
	}

	if cfg.Bus.Kind == "" {
		cfg.Bus.Kind = "loopback"
	}
	if cfg.MQTT.BrokerURL == "" {
		cfg.MQTT.BrokerURL = "tcp://localhost:1883"
	}
	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "canctl-bridge"
	}

	if err := ValidateBridgeConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ValidateBridgeConfig(cfg Config) error {
	switch cfg.Bus.Kind {
	case "socketcan":
		if strings.TrimSpace(cfg.Bus.Interface) == "" {
			return fmt.Errorf("bridge config: socketcan bus missing interface")
		}
	case "slcan":
		if strings.TrimSpace(cfg.Bus.SerialPort) == "" {
			return fmt.Errorf("bridge config: slcan bus missing serial_port")
		}
	case "loopback":
	default:
		return fmt.Errorf("bridge config: unknown bus kind %q", cfg.Bus.Kind)
	}

	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		return fmt.Errorf("bridge config: qos %d outside 0..2", cfg.MQTT.QoS)
	}
	if cfg.MQTT.TLS.Enabled {
		if strings.TrimSpace(cfg.MQTT.TLS.CAFile) == "" && !cfg.MQTT.TLS.InsecureSkipVerify {
			return fmt.Errorf("bridge config: tls enabled without ca_file")
		}
		if (strings.TrimSpace(cfg.MQTT.TLS.CertFile) == "") != (strings.TrimSpace(cfg.MQTT.TLS.KeyFile) == "") {
			return fmt.Errorf("bridge config: tls cert_file and key_file must be set together")
		}
	}

	for i, rule := range cfg.Rules {
		if strings.TrimSpace(rule.Name) == "" {
			return fmt.Errorf("bridge config: rule[%d] missing name", i)
		}
		if strings.TrimSpace(rule.ID) == "" {
			return fmt.Errorf("bridge config: rule %q missing id", rule.Name)
		}
		if strings.TrimSpace(rule.Topic) == "" {
			return fmt.Errorf("bridge config: rule %q missing topic", rule.Name)
		}
	}
	return nil
}
