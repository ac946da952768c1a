package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/edgemesh/meshexec/internal/config"
)

// localConfig is the operator override file shape. Only keys actually present
// in the file replace the loaded service config.
type localConfig struct {
	Name        string   `toml:"name"`
	Addr        string   `toml:"addr"`
	CorsOrigins []string `toml:"cors_origins"`

	OverlayHostname string `toml:"overlay_hostname"`
	OverlayStateDir string `toml:"overlay_state_dir"`

	ExecUser      string `toml:"exec_user"`
	ExecTransport string `toml:"exec_transport"`
}

// loadDaemonConfig layers the optional local override file on top of the
// service config. A missing local file is not an error; a missing service
// config file falls back to defaults.
func loadDaemonConfig(configPath, localPath string) (config.ServiceConfig, error) {
	cfg := config.DefaultServiceConfig()
	if strings.TrimSpace(configPath) != "" {
		loaded, err := config.LoadServiceConfig(configPath)
		if err != nil {
			return config.ServiceConfig{}, err
		}
		cfg = loaded
	}

	if strings.TrimSpace(localPath) != "" {
		if _, err := os.Stat(localPath); err == nil {
			if err := applyLocalOverrides(&cfg, localPath); err != nil {
				return config.ServiceConfig{}, err
			}
		}
	}

	if err := config.ValidateServiceConfig(cfg); err != nil {
		return config.ServiceConfig{}, err
	}
	return cfg, nil
}

func applyLocalOverrides(cfg *config.ServiceConfig, path string) error {
	var raw localConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load local config: %w", err)
	}

	if meta.IsDefined("name") {
		if v := strings.TrimSpace(raw.Name); v != "" {
			cfg.Name = v
		}
	}
	if meta.IsDefined("addr") {
		if v := strings.TrimSpace(raw.Addr); v != "" {
			cfg.Addr = v
		}
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeOrigins(raw.CorsOrigins)
	}
	if meta.IsDefined("overlay_hostname") {
		if v := strings.TrimSpace(raw.OverlayHostname); v != "" {
			cfg.Overlay.Hostname = v
		}
	}
	if meta.IsDefined("overlay_state_dir") {
		if v := strings.TrimSpace(raw.OverlayStateDir); v != "" {
			cfg.Overlay.StateDir = v
		}
	}
	if meta.IsDefined("exec_user") {
		if v := strings.TrimSpace(raw.ExecUser); v != "" {
			cfg.Exec.User = v
		}
	}
	if meta.IsDefined("exec_transport") {
		cfg.Exec.Transport = strings.TrimSpace(raw.ExecTransport)
	}
	return nil
}

func normalizeOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, origin := range in {
		v := strings.TrimSpace(origin)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
