//go:build unix

package supervisor

import (
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

func newExecSupervisor(t *testing.T, stdout *syncBuffer) (*Supervisor, *syncBuffer) {
	t.Helper()
	logs := &syncBuffer{}
	l := zerolog.New(logs).Level(zerolog.DebugLevel)
	cfg := Config{Logger: &l}
	if stdout != nil {
		cfg.Stdout = stdout
		cfg.Stderr = stdout
	}
	s := New(cfg)
	t.Cleanup(func() { _ = s.Close() })
	return s, logs
}

func shellEnv() map[string]string {
	return map[string]string{"PATH": os.Getenv("PATH")}
}

func TestExecLaunchMissingBinary(t *testing.T) {
	s, _ := newExecSupervisor(t, nil)
	_, err := s.Launch("missing", "/nonexistent/procsup-test-binary", nil, LaunchOptions{})
	if !IsLaunchError(err) {
		t.Fatalf("expected LaunchError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist underneath, got %v", err)
	}
	if n := s.Len(); n != 0 {
		t.Fatalf("live set should be empty, got %d", n)
	}
}

func TestExecTerminateAllEndsWithoutError(t *testing.T) {
	s, logs := newExecSupervisor(t, nil)
	mp, err := s.Launch("sleeper", "/bin/sh", []string{"-c", "exec sleep 30"}, LaunchOptions{Detached: true, Env: shellEnv()})
	if err != nil {
		t.Fatalf("Launch: %v", err)
	}
	sid, err := unix.Getsid(mp.PID)
	if err != nil {
		t.Fatalf("Getsid: %v", err)
	}
	if sid != mp.PID {
		t.Fatalf("detached child should lead its own session: sid=%d pid=%d", sid, mp.PID)
	}

	if n := s.TerminateAll(nil); n != 1 {
		t.Fatalf("signalled %d, want 1", n)
	}
	waitFor(t, "sleeper exit", func() bool { return s.Len() == 0 })
	if errs := logs.lines(t, "error"); len(errs) != 0 {
		t.Fatalf("signal termination must not log errors: %+v", errs)
	}
}

func TestExecUnexpectedExitIsLogged(t *testing.T) {
	s, logs := newExecSupervisor(t, nil)
	if _, err := s.Launch("quitter", "/bin/sh", []string{"-c", "exit 3"}, LaunchOptions{Detached: true}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	waitFor(t, "quitter exit", func() bool { return s.Len() == 0 })
	errs := logs.lines(t, "error")
	if len(errs) != 1 || errs[0].Message != "quitter exited with exit code 3" {
		t.Fatalf("unexpected error logs: %+v", errs)
	}
}

func TestExecAttachedSharesOutputAndEnvIsExplicit(t *testing.T) {
	out := &syncBuffer{}
	s, logs := newExecSupervisor(t, out)
	env := map[string]string{"PROCSUP_TEST_VAR": "hello"}
	if _, err := s.Launch("echo", "/bin/sh", []string{"-c", `echo "$PROCSUP_TEST_VAR|$HOME"`}, LaunchOptions{Env: env}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	waitFor(t, "echo exit", func() bool { return s.Len() == 0 })

	if got := strings.TrimSpace(out.String()); got != "hello|" {
		t.Fatalf("child output = %q, want %q", got, "hello|")
	}
	// A clean exit is still unexpected for a supervised service.
	if errs := logs.lines(t, "error"); len(errs) != 1 {
		t.Fatalf("expected the zero exit to be logged as an error, got %+v", errs)
	}
}

func TestExecDetachedDiscardsOutput(t *testing.T) {
	out := &syncBuffer{}
	s, _ := newExecSupervisor(t, out)
	if _, err := s.Launch("quiet", "/bin/sh", []string{"-c", "echo noisy"}, LaunchOptions{Detached: true}); err != nil {
		t.Fatalf("Launch: %v", err)
	}
	waitFor(t, "quiet exit", func() bool { return s.Len() == 0 })
	if got := out.String(); got != "" {
		t.Fatalf("detached child output leaked: %q", got)
	}
}
