package dispatch

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidRequest   = errors.New("dispatch: invalid request")
	ErrDeviceIDRequired = errors.New("dispatch: device_id is required")
)

// Request is the submit boundary envelope for one remote execution.
// Exactly one of the two forms must be present: a raw command sequence, or
// the complete deployment-intent pair (AppType, AppRef).
type Request struct {
	DeviceID string
	Command  []string
	AppType  string
	AppRef   string
}

// Validate enforces the required submit-request shape.
func (r Request) Validate() error {
	if strings.TrimSpace(r.DeviceID) == "" {
		return ErrDeviceIDRequired
	}

	raw := len(r.Command) > 0
	intent := r.hasDeploymentIntent()
	switch {
	case raw && intent:
		return wrapInvalidRequest("both command and deployment intent present")
	case !raw && !intent:
		return wrapInvalidRequest("either command or (app_type, app_ref) is required")
	}
	return nil
}

// hasDeploymentIntent reports a complete (app_type, app_ref) pair.
func (r Request) hasDeploymentIntent() bool {
	return strings.TrimSpace(r.AppType) != "" && strings.TrimSpace(r.AppRef) != ""
}

func wrapInvalidRequest(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, reason)
}
