package transport

import (
	"context"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/edgemesh/meshexec/internal/overlay"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// NativeSSH is an in-process primary transport: an ssh client dialed through
// the overlay itself, for deployments where no host-level ssh binary or
// overlay route exists outside this process. Host-identity verification is
// relaxed unless a known-hosts path is configured.
type NativeSSH struct {
	Network        overlay.Network
	KeyPath        string
	Passphrase     []byte
	KnownHostsPath string
	ConnectTimeout time.Duration
}

func (t NativeSSH) Name() string { return "ssh-native" }

// Run executes command on target over one ssh session and returns combined
// output.
func (t NativeSSH) Run(ctx context.Context, target Target, command string) (string, error) {
	config, err := t.clientConfig(target)
	if err != nil {
		return "", err
	}

	timeout := t.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	conn, err := t.Network.Dial(ctx, target.DeviceID, SSHPort, timeout)
	if err != nil {
		return "", fmt.Errorf("transport: overlay dial failed: %w", err)
	}

	// The ssh client has no context support past the dial, so a watcher
	// closing the transport is the only way to unblock the handshake and
	// session when the caller's deadline expires.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-watchDone:
		}
	}()

	addr := net.JoinHostPort(target.DeviceID, strconv.Itoa(SSHPort))
	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("transport: ssh handshake aborted: %w", ctxErr)
		}
		return "", fmt.Errorf("transport: ssh handshake failed: %w", err)
	}
	client := ssh.NewClient(clientConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("transport: ssh session aborted: %w", ctxErr)
		}
		return "", fmt.Errorf("transport: ssh session failed: %w", err)
	}
	defer session.Close()

	out, err := session.CombinedOutput(command)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return string(out), fmt.Errorf("transport: ssh command aborted: %w", ctxErr)
		}
		return string(out), fmt.Errorf("transport: ssh command failed: %w", err)
	}
	return string(out), nil
}

func (t NativeSSH) clientConfig(target Target) (*ssh.ClientConfig, error) {
	user := strings.TrimSpace(target.User)
	if user == "" {
		return nil, fmt.Errorf("transport: ssh user is required")
	}

	signer, err := t.signer()
	if err != nil {
		return nil, err
	}

	hostKeyCallback := ssh.InsecureIgnoreHostKey()
	if path := strings.TrimSpace(t.KnownHostsPath); path != "" {
		callback, err := knownhosts.New(path)
		if err != nil {
			return nil, fmt.Errorf("transport: known hosts load failed: %w", err)
		}
		hostKeyCallback = callback
	}

	timeout := t.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}

	return &ssh.ClientConfig{
		User:            user,
		Auth:            []ssh.AuthMethod{ssh.PublicKeys(signer)},
		HostKeyCallback: hostKeyCallback,
		Timeout:         timeout,
	}, nil
}

func (t NativeSSH) signer() (ssh.Signer, error) {
	if strings.TrimSpace(t.KeyPath) == "" {
		return nil, fmt.Errorf("transport: ssh key path is required")
	}

	privateKey, err := os.ReadFile(t.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("transport: ssh key read failed: %w", err)
	}

	if len(t.Passphrase) > 0 {
		return ssh.ParsePrivateKeyWithPassphrase(privateKey, t.Passphrase)
	}
	return ssh.ParsePrivateKey(privateKey)
}
