package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edgemesh/meshexec/internal/testutil/testlog"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "meshexec.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadServiceConfigDefaults(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, "")
	cfg, err := LoadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Name != "meshexecd" {
		t.Errorf("name = %q, want meshexecd", cfg.Name)
	}
	if cfg.Addr != ":9000" {
		t.Errorf("addr = %q, want :9000", cfg.Addr)
	}
	if cfg.Exec.Transport != TransportCLI {
		t.Errorf("transport = %q, want %q", cfg.Exec.Transport, TransportCLI)
	}
	if cfg.Exec.OverallTimeoutSeconds != 60 {
		t.Errorf("overall timeout = %d, want 60", cfg.Exec.OverallTimeoutSeconds)
	}
	if cfg.Overlay.AuthKeyEnv != "TS_AUTHKEY" {
		t.Errorf("auth key env = %q, want TS_AUTHKEY", cfg.Overlay.AuthKeyEnv)
	}
}

func TestLoadServiceConfigOverrides(t *testing.T) {
	testlog.Start(t)

	path := writeConfig(t, `
name = "edge-dispatch"
addr = ":8088"
cors_origins = ["https://ops.example.com"]

[overlay]
hostname = "dispatch-01"
state_dir = "/var/lib/meshexec"

[exec]
user = "deploy"
probe_timeout_seconds = 5
`)
	cfg, err := LoadServiceConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Name != "edge-dispatch" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Overlay.Hostname != "dispatch-01" {
		t.Errorf("hostname = %q", cfg.Overlay.Hostname)
	}
	if cfg.Exec.User != "deploy" {
		t.Errorf("user = %q", cfg.Exec.User)
	}
	if cfg.Exec.ProbeTimeoutSeconds != 5 {
		t.Errorf("probe timeout = %d", cfg.Exec.ProbeTimeoutSeconds)
	}
	// Untouched fields still get defaults.
	if cfg.Exec.ConnectTimeoutSeconds != 25 {
		t.Errorf("connect timeout = %d, want 25", cfg.Exec.ConnectTimeoutSeconds)
	}
	if len(cfg.CorsOrigins) != 1 || cfg.CorsOrigins[0] != "https://ops.example.com" {
		t.Errorf("cors origins = %v", cfg.CorsOrigins)
	}
}

func TestLoadServiceConfigMissingFile(t *testing.T) {
	testlog.Start(t)

	if _, err := LoadServiceConfig(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestValidateServiceConfigTransport(t *testing.T) {
	testlog.Start(t)

	cfg := DefaultServiceConfig()
	cfg.Exec.Transport = "carrier-pigeon"
	if err := ValidateServiceConfig(cfg); err == nil {
		t.Error("expected error for unknown transport")
	}

	cfg = DefaultServiceConfig()
	cfg.Exec.Transport = TransportNative
	if err := ValidateServiceConfig(cfg); err == nil {
		t.Error("expected error for native transport without key path")
	}

	cfg.Exec.SSHKeyPath = "/etc/meshexec/id_ed25519"
	if err := ValidateServiceConfig(cfg); err != nil {
		t.Errorf("validate: %v", err)
	}
}
