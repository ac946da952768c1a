package transport

import (
	"context"
	"time"

	"github.com/edgemesh/meshexec/internal/overlay"
	"github.com/rs/zerolog/log"
)

// DefaultProbeTimeout bounds one reachability check. Overlay peer discovery
// can be lazy, so the window is generous without approaching the overall
// execution deadline.
const DefaultProbeTimeout = 20 * time.Second

// Prober is a best-effort transport-level reachability check. Failures are
// reported as false, never as errors; overlay NAT traversal produces false
// negatives that must not block a legitimate command.
type Prober struct {
	Network overlay.Network
	Timeout time.Duration
}

// Probe dials the device's remote-shell port through the overlay.
func (p Prober) Probe(ctx context.Context, deviceID string) bool {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}

	conn, err := p.Network.Dial(ctx, deviceID, SSHPort, timeout)
	if err != nil {
		log.Debug().
			Str("device_id", deviceID).
			Err(err).
			Msg("probe_unreachable")
		return false
	}
	_ = conn.Close()
	return true
}
