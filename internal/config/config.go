package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ServiceConfig is the meshexecd service configuration file shape.
type ServiceConfig struct {
	Name        string        `toml:"name"`
	Addr        string        `toml:"addr"`
	CorsOrigins []string      `toml:"cors_origins"`
	Overlay     OverlayConfig `toml:"overlay"`
	Exec        ExecConfig    `toml:"exec"`
}

// OverlayConfig configures the embedded overlay node. The credential itself
// never lives in the file; AuthKeyEnv names the environment variable read at
// startup.
type OverlayConfig struct {
	Hostname   string `toml:"hostname"`
	StateDir   string `toml:"state_dir"`
	AuthKeyEnv string `toml:"auth_key_env"`
	CLIPath    string `toml:"cli_path"`
}

// ExecConfig tunes the remote-execution transport chain.
type ExecConfig struct {
	User                  string `toml:"user"`
	Transport             string `toml:"transport"`
	SSHBinary             string `toml:"ssh_binary"`
	SSHKeyPath            string `toml:"ssh_key_path"`
	KnownHostsPath        string `toml:"known_hosts_path"`
	OverallTimeoutSeconds int    `toml:"overall_timeout_seconds"`
	ProbeTimeoutSeconds   int    `toml:"probe_timeout_seconds"`
	ConnectTimeoutSeconds int    `toml:"connect_timeout_seconds"`
	KeepaliveSeconds      int    `toml:"keepalive_seconds"`
}

const (
	TransportCLI    = "cli"
	TransportNative = "native"
)

func LoadServiceConfig(path string) (ServiceConfig, error) {
	var cfg ServiceConfig
	if err := loadToml(path, &cfg); err != nil {
		return ServiceConfig{}, err
	}
	applyDefaults(&cfg)
	if err := ValidateServiceConfig(cfg); err != nil {
		return ServiceConfig{}, err
	}
	return cfg, nil
}

// DefaultServiceConfig is the zero-file configuration the daemon boots with.
func DefaultServiceConfig() ServiceConfig {
	var cfg ServiceConfig
	applyDefaults(&cfg)
	return cfg
}

func applyDefaults(cfg *ServiceConfig) {
	if cfg.Name == "" {
		cfg.Name = "meshexecd"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9000"
	}
	if cfg.Overlay.Hostname == "" {
		cfg.Overlay.Hostname = "meshexecd"
	}
	if cfg.Overlay.StateDir == "" {
		cfg.Overlay.StateDir = "/tmp/tsnet-meshexecd"
	}
	if cfg.Overlay.AuthKeyEnv == "" {
		cfg.Overlay.AuthKeyEnv = "TS_AUTHKEY"
	}
	if cfg.Overlay.CLIPath == "" {
		cfg.Overlay.CLIPath = "tailscale"
	}
	if cfg.Exec.User == "" {
		cfg.Exec.User = "root"
	}
	if cfg.Exec.Transport == "" {
		cfg.Exec.Transport = TransportCLI
	}
	if cfg.Exec.SSHBinary == "" {
		cfg.Exec.SSHBinary = "ssh"
	}
	if cfg.Exec.OverallTimeoutSeconds <= 0 {
		cfg.Exec.OverallTimeoutSeconds = 60
	}
	if cfg.Exec.ProbeTimeoutSeconds <= 0 {
		cfg.Exec.ProbeTimeoutSeconds = 20
	}
	if cfg.Exec.ConnectTimeoutSeconds <= 0 {
		cfg.Exec.ConnectTimeoutSeconds = 25
	}
	if cfg.Exec.KeepaliveSeconds <= 0 {
		cfg.Exec.KeepaliveSeconds = 10
	}
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateServiceConfig(cfg ServiceConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("service config missing name")
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("service config missing addr")
	}
	switch cfg.Exec.Transport {
	case TransportCLI:
	case TransportNative:
		if strings.TrimSpace(cfg.Exec.SSHKeyPath) == "" {
			return fmt.Errorf("exec config ssh_key_path required for native transport")
		}
	default:
		return fmt.Errorf("exec config invalid transport %q", cfg.Exec.Transport)
	}
	if strings.TrimSpace(cfg.Overlay.Hostname) == "" {
		return fmt.Errorf("overlay config missing hostname")
	}
	return nil
}
