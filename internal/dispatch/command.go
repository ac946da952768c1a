package dispatch

import (
	"fmt"
	"strings"
)

// noopCommand is the diagnostic line returned when a request carries neither
// a usable command nor a complete deployment intent. Unreachable through
// Dispatch, which validates first; kept for direct builder callers.
const noopCommand = "echo 'deployment command not recognized'"

// BuildCommand translates a request into a single remote shell line.
// Pure: no I/O, deterministic for a given request.
func BuildCommand(req Request) string {
	if req.hasDeploymentIntent() {
		appType := strings.TrimSpace(req.AppType)
		appRef := strings.TrimSpace(req.AppRef)
		return fmt.Sprintf(
			"docker pull %s && docker run -d --name %s-instance --restart=always %s",
			appRef, appType, appRef,
		)
	}
	if len(req.Command) > 0 {
		return strings.Join(req.Command, " ")
	}
	return noopCommand
}
