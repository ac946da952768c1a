package transport

import (
	"context"
	"strings"
	"time"

	"github.com/edgemesh/meshexec/internal/observability"
	"github.com/edgemesh/meshexec/internal/overlay"
	"github.com/rs/zerolog/log"
)

const (
	DefaultOverallTimeout = 60 * time.Second
	DefaultSSHUser        = "root"

	overlayShellName = "overlay-shell"
)

// ChainConfig configures the per-execution fallback chain.
type ChainConfig struct {
	User           string
	OverallTimeout time.Duration
	ProbeTimeout   time.Duration
	Node           string
}

// Chain runs one execution attempt sequence: readiness check, diagnostic
// probe, primary remote shell, and at most one secondary attempt over the
// overlay-native shell when the primary was denied by access policy.
type Chain struct {
	network  overlay.Network
	prober   Prober
	primary  Executor
	classify DenialClassifier
	cfg      ChainConfig
}

func NewChain(network overlay.Network, primary Executor, cfg ChainConfig) *Chain {
	if strings.TrimSpace(cfg.User) == "" {
		cfg.User = DefaultSSHUser
	}
	if cfg.OverallTimeout <= 0 {
		cfg.OverallTimeout = DefaultOverallTimeout
	}
	return &Chain{
		network:  network,
		prober:   Prober{Network: network, Timeout: cfg.ProbeTimeout},
		primary:  primary,
		classify: DefaultDenialClassifier,
		cfg:      cfg,
	}
}

// SetDenialClassifier replaces the policy-denial detection rule.
func (c *Chain) SetDenialClassifier(fn DenialClassifier) {
	if fn != nil {
		c.classify = fn
	}
}

// Execute runs the chain for one built command. Every sub-step shares one
// overall deadline; the probe outcome is logged and never gates the attempt.
func (c *Chain) Execute(ctx context.Context, deviceID, command string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.OverallTimeout)
	defer cancel()

	if !c.network.Ready() {
		return "", overlay.ErrNotReady
	}

	reachable := c.prober.Probe(ctx, deviceID)
	log.Info().
		Str("device_id", deviceID).
		Bool("reachable", reachable).
		Msg("probe_complete")

	target := Target{User: c.cfg.User, DeviceID: deviceID}
	output, err := c.primary.Run(ctx, target, command)
	if err == nil {
		observability.RecordTransportAttempt(c.cfg.Node, c.primary.Name(), "success")
		return output, nil
	}

	if !c.classify(output, err) {
		observability.RecordTransportAttempt(c.cfg.Node, c.primary.Name(), "failed")
		return output, err
	}
	observability.RecordTransportAttempt(c.cfg.Node, c.primary.Name(), "denied")
	log.Warn().
		Str("device_id", deviceID).
		Str("transport", c.primary.Name()).
		Msg("primary_denied_by_policy")

	fallbackOut, fallbackErr := c.network.RunRemoteShell(ctx, target.Addr(), command)
	if fallbackErr != nil {
		observability.RecordTransportAttempt(c.cfg.Node, overlayShellName, "failed")
		return string(fallbackOut), fallbackErr
	}
	observability.RecordTransportAttempt(c.cfg.Node, overlayShellName, "success")
	return string(fallbackOut), nil
}
