package transport

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/edgemesh/meshexec/internal/overlay"
	"github.com/edgemesh/meshexec/internal/testutil/testlog"
)

type fakeNetwork struct {
	ready    bool
	dialErr  error
	shellOut []byte
	shellErr error

	dialCount  int
	shellCalls []string
}

func (f *fakeNetwork) Ready() bool { return f.ready }

func (f *fakeNetwork) Dial(ctx context.Context, target string, port int, timeout time.Duration) (net.Conn, error) {
	f.dialCount++
	if f.dialErr != nil {
		return nil, f.dialErr
	}
	client, server := net.Pipe()
	go server.Close()
	return client, nil
}

func (f *fakeNetwork) RunRemoteShell(ctx context.Context, target, command string) ([]byte, error) {
	f.shellCalls = append(f.shellCalls, target+" "+command)
	return f.shellOut, f.shellErr
}

type fakePrimary struct {
	output string
	err    error
	calls  int
}

func (f *fakePrimary) Name() string { return "fake-primary" }

func (f *fakePrimary) Run(ctx context.Context, target Target, command string) (string, error) {
	f.calls++
	return f.output, f.err
}

type fakeRunner struct {
	name   string
	args   []string
	stdout []byte
	stderr []byte
	code   int32
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, int32, error) {
	f.name = name
	f.args = args
	return f.stdout, f.stderr, f.code, f.err
}

func TestTargetAddr(t *testing.T) {
	testlog.Start(t)

	target := Target{User: "root", DeviceID: "edge-01"}
	if got := target.Addr(); got != "root@edge-01" {
		t.Errorf("Addr() = %q", got)
	}
}

func TestDefaultDenialClassifier(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name   string
		output string
		err    error
		want   bool
	}{
		{"denial in output", "tailscale: policy does not permit this connection", errors.New("exit status 1"), true},
		{"denial in error", "", errors.New("ssh: policy does not permit"), true},
		{"plain failure", "connection refused", errors.New("exit status 255"), false},
		{"no error", "policy does not permit", nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultDenialClassifier(tc.output, tc.err); got != tc.want {
				t.Errorf("classify = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProbe(t *testing.T) {
	testlog.Start(t)

	reachable := Prober{Network: &fakeNetwork{ready: true}}
	if !reachable.Probe(context.Background(), "edge-01") {
		t.Error("probe = false, want true")
	}

	unreachable := Prober{Network: &fakeNetwork{ready: true, dialErr: errors.New("no route")}}
	if unreachable.Probe(context.Background(), "edge-01") {
		t.Error("probe = true, want false")
	}
}

func TestCLISSHArgs(t *testing.T) {
	testlog.Start(t)

	runner := &fakeRunner{stdout: []byte("ok\n")}
	cli := CLISSH{Runner: runner}
	out, err := cli.Run(context.Background(), Target{User: "root", DeviceID: "edge-01"}, "uname -a")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if out != "ok\n" {
		t.Errorf("output = %q", out)
	}
	if runner.name != "ssh" {
		t.Errorf("binary = %q", runner.name)
	}

	joined := strings.Join(runner.args, " ")
	for _, want := range []string{
		"-o StrictHostKeyChecking=no",
		"-o UserKnownHostsFile=/dev/null",
		"-o ConnectTimeout=25",
		"-o ServerAliveInterval=10",
		"-o BatchMode=yes",
		"root@edge-01 uname -a",
	} {
		if !strings.Contains(joined, want) {
			t.Errorf("args missing %q in %q", want, joined)
		}
	}
}

func TestCLISSHFailureKeepsOutput(t *testing.T) {
	testlog.Start(t)

	runner := &fakeRunner{
		stdout: []byte("partial"),
		stderr: []byte("denied"),
		code:   1,
		err:    errors.New("exit status 1"),
	}
	cli := CLISSH{Runner: runner}
	out, err := cli.Run(context.Background(), Target{User: "root", DeviceID: "edge-01"}, "false")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out, "partial") || !strings.Contains(out, "denied") {
		t.Errorf("combined output = %q", out)
	}
	if !strings.Contains(err.Error(), "exit=1") {
		t.Errorf("error = %v", err)
	}
}

func TestChainNotReady(t *testing.T) {
	testlog.Start(t)

	network := &fakeNetwork{ready: false}
	primary := &fakePrimary{}
	chain := NewChain(network, primary, ChainConfig{Node: "test"})

	_, err := chain.Execute(context.Background(), "edge-01", "uptime")
	if !errors.Is(err, overlay.ErrNotReady) {
		t.Fatalf("err = %v, want overlay.ErrNotReady", err)
	}
	if primary.calls != 0 {
		t.Errorf("primary called %d times before readiness", primary.calls)
	}
}

func TestChainPrimarySuccess(t *testing.T) {
	testlog.Start(t)

	network := &fakeNetwork{ready: true}
	primary := &fakePrimary{output: "Linux edge-01"}
	chain := NewChain(network, primary, ChainConfig{Node: "test"})

	out, err := chain.Execute(context.Background(), "edge-01", "uname -a")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "Linux edge-01" {
		t.Errorf("output = %q", out)
	}
	if len(network.shellCalls) != 0 {
		t.Errorf("fallback used on success: %v", network.shellCalls)
	}
}

func TestChainFallsBackOnPolicyDenial(t *testing.T) {
	testlog.Start(t)

	network := &fakeNetwork{ready: true, shellOut: []byte("fallback ok")}
	primary := &fakePrimary{
		output: "ssh: policy does not permit this connection",
		err:    errors.New("exit status 1"),
	}
	chain := NewChain(network, primary, ChainConfig{Node: "test"})

	out, err := chain.Execute(context.Background(), "edge-01", "uptime")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "fallback ok" {
		t.Errorf("output = %q", out)
	}
	if primary.calls != 1 {
		t.Errorf("primary calls = %d, want 1", primary.calls)
	}
	if len(network.shellCalls) != 1 {
		t.Fatalf("fallback calls = %d, want exactly 1", len(network.shellCalls))
	}
	if network.shellCalls[0] != "root@edge-01 uptime" {
		t.Errorf("fallback call = %q", network.shellCalls[0])
	}
}

func TestChainNoFallbackOnPlainFailure(t *testing.T) {
	testlog.Start(t)

	network := &fakeNetwork{ready: true}
	primaryErr := errors.New("exit status 255")
	primary := &fakePrimary{output: "connection refused", err: primaryErr}
	chain := NewChain(network, primary, ChainConfig{Node: "test"})

	out, err := chain.Execute(context.Background(), "edge-01", "uptime")
	if !errors.Is(err, primaryErr) {
		t.Fatalf("err = %v, want primary failure", err)
	}
	if out != "connection refused" {
		t.Errorf("output = %q", out)
	}
	if len(network.shellCalls) != 0 {
		t.Errorf("fallback used for non-denial failure: %v", network.shellCalls)
	}
}

func TestChainFallbackFailureSurfaces(t *testing.T) {
	testlog.Start(t)

	shellErr := errors.New("exit status 1")
	network := &fakeNetwork{ready: true, shellOut: []byte("still denied"), shellErr: shellErr}
	primary := &fakePrimary{
		output: "policy does not permit",
		err:    errors.New("exit status 1"),
	}
	chain := NewChain(network, primary, ChainConfig{Node: "test"})

	out, err := chain.Execute(context.Background(), "edge-01", "uptime")
	if !errors.Is(err, shellErr) {
		t.Fatalf("err = %v, want fallback failure", err)
	}
	if out != "still denied" {
		t.Errorf("output = %q", out)
	}
	if len(network.shellCalls) != 1 {
		t.Errorf("fallback calls = %d, want 1", len(network.shellCalls))
	}
}

func TestChainCustomClassifier(t *testing.T) {
	testlog.Start(t)

	network := &fakeNetwork{ready: true, shellOut: []byte("fallback ok")}
	primary := &fakePrimary{output: "ACCESS-DENIED-BY-ACL", err: errors.New("exit status 1")}
	chain := NewChain(network, primary, ChainConfig{Node: "test"})
	chain.SetDenialClassifier(func(output string, err error) bool {
		return err != nil && strings.Contains(output, "ACCESS-DENIED-BY-ACL")
	})

	out, err := chain.Execute(context.Background(), "edge-01", "uptime")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "fallback ok" {
		t.Errorf("output = %q", out)
	}
}

func TestChainUserDefault(t *testing.T) {
	testlog.Start(t)

	network := &fakeNetwork{ready: true, shellOut: []byte("ok")}
	primary := &fakePrimary{output: "policy does not permit", err: errors.New("exit status 1")}
	chain := NewChain(network, primary, ChainConfig{Node: "test"})

	if _, err := chain.Execute(context.Background(), "edge-01", "true"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(network.shellCalls[0], DefaultSSHUser+"@") {
		t.Errorf("fallback target = %q, want default user", network.shellCalls[0])
	}
}
