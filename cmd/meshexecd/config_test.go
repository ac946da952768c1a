package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/edgemesh/meshexec/internal/config"
	"github.com/edgemesh/meshexec/internal/testutil/testlog"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDaemonConfigDefaultsOnly(t *testing.T) {
	testlog.Start(t)

	cfg, err := loadDaemonConfig("", filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "meshexecd" || cfg.Addr != ":9000" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestLoadDaemonConfigLocalOverrides(t *testing.T) {
	testlog.Start(t)

	local := writeFile(t, "meshexecd.toml", `
name = "dispatch-02"
addr = ":8099"
exec_user = "deploy"
`)
	cfg, err := loadDaemonConfig("", local)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "dispatch-02" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Addr != ":8099" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.Exec.User != "deploy" {
		t.Errorf("user = %q", cfg.Exec.User)
	}
	// Undefined keys keep their service-config values.
	if cfg.Exec.Transport != config.TransportCLI {
		t.Errorf("transport = %q", cfg.Exec.Transport)
	}
	if cfg.Overlay.Hostname != "meshexecd" {
		t.Errorf("overlay hostname = %q", cfg.Overlay.Hostname)
	}
}

func TestLoadDaemonConfigLayering(t *testing.T) {
	testlog.Start(t)

	service := writeFile(t, "service.toml", `
name = "dispatch-01"
addr = ":8088"

[exec]
user = "ops"
`)
	local := writeFile(t, "local.toml", `
addr = ":8090"
`)
	cfg, err := loadDaemonConfig(service, local)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Name != "dispatch-01" {
		t.Errorf("name = %q", cfg.Name)
	}
	if cfg.Addr != ":8090" {
		t.Errorf("local override lost: addr = %q", cfg.Addr)
	}
	if cfg.Exec.User != "ops" {
		t.Errorf("user = %q", cfg.Exec.User)
	}
}

func TestLoadDaemonConfigInvalidTransport(t *testing.T) {
	testlog.Start(t)

	local := writeFile(t, "meshexecd.toml", `
exec_transport = "teleport"
`)
	if _, err := loadDaemonConfig("", local); err == nil {
		t.Fatal("expected validation error")
	}
}
