package transport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edgemesh/meshexec/internal/tools"
)

const (
	DefaultSSHBinary         = "ssh"
	DefaultConnectTimeout    = 25 * time.Second
	DefaultKeepaliveInterval = 10 * time.Second
)

// CLISSH is the conventional primary transport: the system ssh executable
// with relaxed host-identity verification. Host identity is already
// established by the overlay network layer, so strict host-key checks only
// produce first-contact failures here.
type CLISSH struct {
	Runner            tools.CommandRunner
	Binary            string
	ConnectTimeout    time.Duration
	KeepaliveInterval time.Duration
}

func (t CLISSH) Name() string { return "ssh-cli" }

// Run executes command on target and returns combined output.
func (t CLISSH) Run(ctx context.Context, target Target, command string) (string, error) {
	runner := t.Runner
	if runner == nil {
		runner = tools.ExecRunner{}
	}
	binary := strings.TrimSpace(t.Binary)
	if binary == "" {
		binary = DefaultSSHBinary
	}

	args := []string{
		"-o", "StrictHostKeyChecking=no",
		"-o", "UserKnownHostsFile=/dev/null",
		"-o", fmt.Sprintf("ConnectTimeout=%d", seconds(t.ConnectTimeout, DefaultConnectTimeout)),
		"-o", fmt.Sprintf("ServerAliveInterval=%d", seconds(t.KeepaliveInterval, DefaultKeepaliveInterval)),
		"-o", "BatchMode=yes",
		target.Addr(),
		command,
	}

	stdout, stderr, exitCode, err := runner.Run(ctx, binary, args...)
	output := tools.CombinedOutput(stdout, stderr)
	if err != nil {
		return output, fmt.Errorf("transport: ssh exit=%d: %w", exitCode, err)
	}
	return output, nil
}

func seconds(d, fallback time.Duration) int {
	if d <= 0 {
		d = fallback
	}
	return int(d / time.Second)
}
