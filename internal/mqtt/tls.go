package mqtt

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
)

var (
	ErrTLSCAFileRequired    = errors.New("mqtt: tls ca file required")
	ErrTLSKeyPairIncomplete = errors.New("mqtt: tls cert and key files must both be set")
)

// TLSConfig secures the broker connection. The zero value leaves the
// connection in plain TCP; brokers then usually listen on ssl:// URLs
// when Enabled is set.
type TLSConfig struct {
	Enabled            bool
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// Validate checks the field combination without touching the
// filesystem. Disabled configurations pass regardless of their fields.
func (t TLSConfig) Validate() error {
	if !t.Enabled {
		return nil
	}
	if strings.TrimSpace(t.CAFile) == "" && !t.InsecureSkipVerify {
		return ErrTLSCAFileRequired
	}
	haveCert := strings.TrimSpace(t.CertFile) != ""
	haveKey := strings.TrimSpace(t.KeyFile) != ""
	if haveCert != haveKey {
		return ErrTLSKeyPairIncomplete
	}
	return nil
}

// build loads the certificate material into a tls.Config for the broker
// at brokerURL. The server name defaults to the broker host.
func (t TLSConfig) build(brokerURL string) (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: t.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(t.ServerName)
	if serverName == "" {
		u, err := url.Parse(brokerURL)
		if err != nil {
			return nil, fmt.Errorf("mqtt: broker url: %w", err)
		}
		serverName = u.Hostname()
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(t.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, err
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("mqtt: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	if strings.TrimSpace(t.CertFile) != "" {
		cert, err := tls.LoadX509KeyPair(t.CertFile, t.KeyFile)
		if err != nil {
			return nil, err
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}
