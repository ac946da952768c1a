package overlay

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edgemesh/meshexec/internal/tools"
	"github.com/rs/zerolog/log"
	"tailscale.com/tsnet"
)

// TailnetConfig configures the tsnet-backed overlay node.
type TailnetConfig struct {
	Hostname string
	StateDir string
	AuthKey  string
	CLIPath  string
}

// Tailnet defaults for the embedded overlay node.
func DefaultTailnetConfig() TailnetConfig {
	return TailnetConfig{
		Hostname: "meshexecd",
		StateDir: "/tmp/tsnet-meshexecd",
		CLIPath:  "tailscale",
	}
}

// Tailnet is the production Network implementation backed by an embedded
// tsnet node plus the tailscale CLI for the overlay-native remote shell.
type Tailnet struct {
	cfg    TailnetConfig
	runner tools.CommandRunner

	mu    sync.RWMutex
	srv   *tsnet.Server
	ready bool
}

func NewTailnet(cfg TailnetConfig, runner tools.CommandRunner) *Tailnet {
	if strings.TrimSpace(cfg.Hostname) == "" {
		cfg.Hostname = DefaultTailnetConfig().Hostname
	}
	if strings.TrimSpace(cfg.StateDir) == "" {
		cfg.StateDir = DefaultTailnetConfig().StateDir
	}
	if strings.TrimSpace(cfg.CLIPath) == "" {
		cfg.CLIPath = DefaultTailnetConfig().CLIPath
	}
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	return &Tailnet{cfg: cfg, runner: runner}
}

// Up performs one-shot overlay bring-up from the configured credential.
func (t *Tailnet) Up(ctx context.Context) error {
	if strings.TrimSpace(t.cfg.AuthKey) == "" {
		return ErrAuthKeyMissing
	}

	srv := &tsnet.Server{
		Hostname: t.cfg.Hostname,
		Dir:      t.cfg.StateDir,
		AuthKey:  t.cfg.AuthKey,
	}
	if _, err := srv.Up(ctx); err != nil {
		return fmt.Errorf("overlay: tsnet up failed: %w", err)
	}

	t.mu.Lock()
	t.srv = srv
	t.ready = true
	t.mu.Unlock()

	log.Info().Str("hostname", t.cfg.Hostname).Msg("overlay_up")
	return nil
}

func (t *Tailnet) Ready() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ready
}

func (t *Tailnet) Dial(ctx context.Context, target string, port int, timeout time.Duration) (net.Conn, error) {
	if strings.TrimSpace(target) == "" {
		return nil, ErrTargetRequired
	}

	t.mu.RLock()
	srv := t.srv
	ready := t.ready
	t.mu.RUnlock()
	if !ready || srv == nil {
		return nil, ErrNotReady
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return srv.Dial(ctx, "tcp", net.JoinHostPort(target, strconv.Itoa(port)))
}

// RunRemoteShell invokes the overlay's own remote-shell path. The CLI does
// not accept connection-tuning flags, so target and command go through as-is.
func (t *Tailnet) RunRemoteShell(ctx context.Context, target, command string) ([]byte, error) {
	if strings.TrimSpace(target) == "" {
		return nil, ErrTargetRequired
	}
	if !t.Ready() {
		return nil, ErrNotReady
	}

	stdout, stderr, exitCode, err := t.runner.Run(ctx, t.cfg.CLIPath, "ssh", target, command)
	output := []byte(tools.CombinedOutput(stdout, stderr))
	if err != nil {
		return output, fmt.Errorf("overlay: remote shell exit=%d: %w", exitCode, err)
	}
	return output, nil
}
