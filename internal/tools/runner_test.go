package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/edgemesh/meshexec/internal/testutil/testlog"
)

func TestExecRunnerSuccess(t *testing.T) {
	testlog.Start(t)

	stdout, stderr, code, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if code != 0 {
		t.Errorf("exit code = %d", code)
	}
	if strings.TrimSpace(string(stdout)) != "hello" {
		t.Errorf("stdout = %q", stdout)
	}
	if len(stderr) != 0 {
		t.Errorf("stderr = %q", stderr)
	}
}

func TestExecRunnerExitCode(t *testing.T) {
	testlog.Start(t)

	_, _, code, err := ExecRunner{}.Run(context.Background(), "sh", "-c", "echo oops >&2; exit 3")
	if err == nil {
		t.Fatal("expected error")
	}
	if code != 3 {
		t.Errorf("exit code = %d, want 3", code)
	}
}

func TestExecRunnerMissingBinary(t *testing.T) {
	testlog.Start(t)

	_, _, code, err := ExecRunner{}.Run(context.Background(), "definitely-not-a-binary-zz")
	if err == nil {
		t.Fatal("expected error")
	}
	if code != 127 {
		t.Errorf("exit code = %d, want 127", code)
	}
}

func TestCombinedOutput(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		name   string
		stdout string
		stderr string
		want   string
	}{
		{"stdout only", "out\n", "", "out\n"},
		{"stderr only", "", "err\n", "err\n"},
		{"both", "out\n", "err\n", "out\nerr\n"},
		{"empty", "", "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CombinedOutput([]byte(tc.stdout), []byte(tc.stderr))
			if got != tc.want {
				t.Errorf("CombinedOutput() = %q, want %q", got, tc.want)
			}
		})
	}
}
