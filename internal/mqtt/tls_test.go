package mqtt

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/canctl/internal/testutil/tlstest"
)

func TestTLSValidateChecksFieldCombinations(t *testing.T) {
	cases := []struct {
		name string
		cfg  TLSConfig
		want error
	}{
		{"disabled ignores fields", TLSConfig{CertFile: "only.crt"}, nil},
		{"enabled needs ca", TLSConfig{Enabled: true}, ErrTLSCAFileRequired},
		{"skip verify stands in for ca", TLSConfig{Enabled: true, InsecureSkipVerify: true}, nil},
		{"cert without key", TLSConfig{Enabled: true, CAFile: "ca.crt", CertFile: "c.crt"}, ErrTLSKeyPairIncomplete},
		{"key without cert", TLSConfig{Enabled: true, CAFile: "ca.crt", KeyFile: "c.key"}, ErrTLSKeyPairIncomplete},
		{"full set", TLSConfig{Enabled: true, CAFile: "ca.crt", CertFile: "c.crt", KeyFile: "c.key"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("got %v, want %v", err, tc.want)
			}
		})
	}
}

func TestTLSBuildLoadsAuthorityAndKeyPair(t *testing.T) {
	dir := t.TempDir()
	ca := tlstest.New(t, dir)
	certFile, keyFile := ca.IssueClientCert(t, dir, "bridge")

	cfg := TLSConfig{
		Enabled:  true,
		CAFile:   ca.CAFile(),
		CertFile: certFile,
		KeyFile:  keyFile,
	}
	tlsCfg, err := cfg.build("ssl://broker.example:8883")
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if tlsCfg.RootCAs == nil {
		t.Fatal("ca pool not loaded")
	}
	if len(tlsCfg.Certificates) != 1 {
		t.Fatalf("expected one client certificate, got %d", len(tlsCfg.Certificates))
	}
	if tlsCfg.ServerName != "broker.example" {
		t.Fatalf("server name %q not taken from broker url", tlsCfg.ServerName)
	}
}

func TestTLSBuildHonorsServerNameOverride(t *testing.T) {
	cfg := TLSConfig{Enabled: true, InsecureSkipVerify: true, ServerName: "broker.internal"}
	tlsCfg, err := cfg.build("ssl://10.0.0.5:8883")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if tlsCfg.ServerName != "broker.internal" {
		t.Fatalf("override lost, server name is %q", tlsCfg.ServerName)
	}
}

func TestTLSBuildRejectsBrokenMaterial(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "ca.crt")
	if err := os.WriteFile(garbage, []byte("not a certificate"), 0o600); err != nil {
		t.Fatalf("write garbage: %v", err)
	}

	if _, err := (TLSConfig{Enabled: true, CAFile: garbage}).build("ssl://broker:8883"); err == nil {
		t.Fatal("garbage ca bundle must be rejected")
	}
	if _, err := (TLSConfig{Enabled: true, CAFile: filepath.Join(dir, "missing.crt")}).build("ssl://broker:8883"); err == nil {
		t.Fatal("missing ca file must be rejected")
	}
}
