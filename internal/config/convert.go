package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/canctl/internal/bridge"
	"github.com/danmuck/canctl/internal/mqtt"
)

const defaultHeartbeat = 30 * time.Second

// ServiceConfig converts a loaded file into bridge runtime settings.
// Rule identifiers parse here; field layouts are checked by the bridge
// when the converter is built.
func ServiceConfig(cfg Config) (bridge.ServiceConfig, error) {
	out := bridge.ServiceConfig{
		Bus: bridge.BusConfig{
			Kind:       bridge.BusKind(cfg.Bus.Kind),
			Interface:  cfg.Bus.Interface,
			EnableFD:   cfg.Bus.FD,
			SerialPort: cfg.Bus.SerialPort,
			BaudRate:   cfg.Bus.BaudRate,
			Bitrate:    cfg.Bus.Bitrate,
			LogFrames:  cfg.Bus.LogFrames,
		},
		MQTT: mqtt.Config{
			BrokerURL: cfg.MQTT.BrokerURL,
			ClientID:  cfg.MQTT.ClientID,
			Username:  cfg.MQTT.Username,
			Password:  cfg.MQTT.Password,
			QoS:       byte(cfg.MQTT.QoS),
			TLS: mqtt.TLSConfig{
				Enabled:            cfg.MQTT.TLS.Enabled,
				CAFile:             cfg.MQTT.TLS.CAFile,
				CertFile:           cfg.MQTT.TLS.CertFile,
				KeyFile:            cfg.MQTT.TLS.KeyFile,
				ServerName:         cfg.MQTT.TLS.ServerName,
				InsecureSkipVerify: cfg.MQTT.TLS.InsecureSkipVerify,
			},
		},
		AdminListenAddr:   cfg.Admin.Addr,
		CORSOrigins:       cfg.Admin.CORSOrigins,
		HeartbeatInterval: defaultHeartbeat,
	}

	if strings.TrimSpace(cfg.Heartbeat) != "" {
		interval, err := time.ParseDuration(cfg.Heartbeat)
		if err != nil {
			return bridge.ServiceConfig{}, fmt.Errorf("bridge config: heartbeat %q: %w", cfg.Heartbeat, err)
		}
		out.HeartbeatInterval = interval
	}

	rules, err := BridgeRules(cfg.Rules)
	if err != nil {
		return bridge.ServiceConfig{}, err
	}
	out.Rules = rules
	return out, nil
}

// BridgeRules converts file rules into bridge rules.
func BridgeRules(entries []RuleConfig) ([]bridge.Rule, error) {
	rules := make([]bridge.Rule, 0, len(entries))
	for _, entry := range entries {
		id, err := parseIdentifier(entry.ID)
		if err != nil {
			return nil, fmt.Errorf("bridge config: rule %q: %w", entry.Name, err)
		}

		direction := bridge.Direction(entry.Direction)
		if strings.TrimSpace(entry.Direction) == "" {
			direction = bridge.Bidirectional
		}

		fields := make([]bridge.Field, 0, len(entry.Fields))
		for _, field := range entry.Fields {
			fields = append(fields, bridge.Field{
				Key:    field.Key,
				Type:   bridge.FieldType(field.Type),
				Offset: field.Offset,
				Length: field.Length,
				Scale:  field.Scale,
			})
		}

		rules = append(rules, bridge.Rule{
			Name:      entry.Name,
			ID:        id,
			Extended:  entry.Extended,
			Topic:     entry.Topic,
			Direction: direction,
			Length:    entry.Length,
			Fields:    fields,
		})
	}
	return rules, nil
}

func parseIdentifier(raw string) (uint32, error) {
	text := strings.TrimPrefix(strings.TrimSpace(raw), "0x")
	id, err := strconv.ParseUint(text, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("identifier %q is not hexadecimal", raw)
	}
	return uint32(id), nil
}
