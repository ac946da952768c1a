package transport

import (
	"context"
	"fmt"
	"strings"
)

// SSHPort is the remote-shell port probed and dialed on target devices.
const SSHPort = 22

// PolicyDenialSignature is the error-text pattern emitted when the overlay's
// access-control policy blocks a conventional ssh session.
const PolicyDenialSignature = "policy does not permit"

// Target identifies one remote login endpoint.
type Target struct {
	User     string
	DeviceID string
}

// Addr renders the target the way a shell client expects it.
func (t Target) Addr() string {
	user := strings.TrimSpace(t.User)
	if user == "" {
		return t.DeviceID
	}
	return fmt.Sprintf("%s@%s", user, t.DeviceID)
}

// Executor runs one remote command attempt over one transport.
type Executor interface {
	Name() string
	Run(ctx context.Context, target Target, command string) (string, error)
}

// DenialClassifier decides whether a failed primary attempt was rejected by
// overlay access policy rather than being a transport failure. Detection is
// string-pattern based and therefore pluggable.
type DenialClassifier func(output string, err error) bool

// DefaultDenialClassifier matches the documented policy-denial signature in
// the failed attempt's combined output or error text. A clean exit is never
// a denial regardless of what the command printed.
func DefaultDenialClassifier(output string, err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(output, PolicyDenialSignature) ||
		strings.Contains(err.Error(), PolicyDenialSignature)
}
