package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns a starter config body for the given kind.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "bridge", "":
		return bridgeTemplate, nil
	case "loopback":
		return loopbackTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

// WriteTemplate writes a starter config to path. Existing files are
// kept unless overwrite is set.
func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const bridgeTemplate = `heartbeat = "30s"

[bus]
kind = "socketcan"
interface = "can0"
fd = false
log_frames = false

# For a serial adapter instead:
# kind = "slcan"
# serial_port = "/dev/ttyACM0"
# baud_rate = 115200
# bitrate = 500000

[mqtt]
broker_url = "tcp://localhost:1883"
client_id = "canctl-bridge"
username = ""
password = ""
qos = 0

# For a TLS broker:
# broker_url = "ssl://broker.example:8883"
# [mqtt.tls]
# enabled = true
# ca_file = "/etc/canctl/ca.crt"
# cert_file = "/etc/canctl/bridge.crt"
# key_file = "/etc/canctl/bridge.key"

[admin]
addr = ":9000"
cors_origins = ["http://localhost:3000"]

[[rules]]
name = "engine"
id = "0x123"
topic = "car/engine"
direction = "both"
length = 8

[[rules.fields]]
key = "rpm"
type = "uint16"
offset = 0
scale = 0.25

[[rules.fields]]
key = "temp"
type = "int8"
offset = 2

[[rules.fields]]
key = "load"
type = "float32"
offset = 4
`

const loopbackTemplate = `heartbeat = "10s"

[bus]
kind = "loopback"
log_frames = true

[mqtt]
broker_url = "tcp://localhost:1883"
client_id = "canctl-demo"

[admin]
addr = ":9000"

[[rules]]
name = "demo"
id = "0x100"
topic = "demo/values"
direction = "both"
length = 4

[[rules.fields]]
key = "value"
type = "uint32"
offset = 0
`
