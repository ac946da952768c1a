// Package overlay owns the private-network capability boundary.
//
// Ownership boundary:
//   - overlay identity bring-up from a credential
//   - raw connection dialing into the overlay
//   - the overlay-native remote shell (secondary transport)
//
// The dispatcher consumes this package only through the Network interface;
// readiness is re-checked lazily per execution and a failed bring-up is
// never fatal to the process.
package overlay

import (
	"context"
	"errors"
	"net"
	"time"
)

var (
	ErrNotReady       = errors.New("overlay: network not initialized")
	ErrAuthKeyMissing = errors.New("overlay: auth key missing")
	ErrTargetRequired = errors.New("overlay: target is required")
)

// Network is the capability surface the execution core consumes.
type Network interface {
	// Ready reports whether overlay bring-up completed.
	Ready() bool

	// Dial opens a raw TCP connection to target:port through the overlay,
	// bounded by timeout when it is positive.
	Dial(ctx context.Context, target string, port int, timeout time.Duration) (net.Conn, error)

	// RunRemoteShell runs command on target through the overlay's own
	// remote-shell path and returns combined output. Target carries the
	// user spec the way a shell would, e.g. "root@device".
	RunRemoteShell(ctx context.Context, target, command string) ([]byte, error)
}
