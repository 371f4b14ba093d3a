package supervisor

import (
	"errors"
	"io"
	"os"
	"os/exec"
	"sort"
)

// Process describes a spawned child process.
type Process interface {
	PID() int
	Signal(os.Signal) error
	// Wait blocks until the process exits. It is called exactly once, from the
	// child's waiter goroutine.
	Wait() ExitStatus
}

// ExitStatus is a process' exit status.
type ExitStatus struct {
	// Code is nil when the process was terminated by a signal.
	Code *int
	// Err is a failure reported while waiting that is not a plain non-zero
	// exit, e.g. a broken stdio copy.
	Err error
}

// Exited builds an ExitStatus carrying a numeric exit code.
func Exited(code int) ExitStatus { return ExitStatus{Code: &code} }

// Signaled builds an ExitStatus for a process terminated by a signal.
func Signaled() ExitStatus { return ExitStatus{} }

// Command is a fully resolved spawn request.
type Command struct {
	Path     string
	Args     []string
	Env      []string
	Detached bool
	Stdout   io.Writer
	Stderr   io.Writer
}

// Spawner creates OS processes. The default implementation is backed by
// os/exec; tests inject fakes.
type Spawner interface {
	Spawn(Command) (Process, error)
}

// ExecSpawner spawns processes with os/exec.
type ExecSpawner struct{}

var _ Spawner = ExecSpawner{}

// Spawn starts the command and returns as soon as the OS has created the
// process. Stdin is always the null device.
func (ExecSpawner) Spawn(c Command) (Process, error) {
	cmd := exec.Command(c.Path, c.Args...)
	// A nil Env would make os/exec inherit ours.
	cmd.Env = c.Env
	if cmd.Env == nil {
		cmd.Env = []string{}
	}
	if !c.Detached {
		cmd.Stdout = c.Stdout
		cmd.Stderr = c.Stderr
	}
	setProcAttr(cmd, c.Detached)
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execProcess{cmd}, nil
}

type execProcess struct {
	cmd *exec.Cmd
}

func (p execProcess) PID() int { return p.cmd.Process.Pid }

func (p execProcess) Signal(sig os.Signal) error { return p.cmd.Process.Signal(sig) }

func (p execProcess) Wait() ExitStatus {
	err := p.cmd.Wait()
	ps := p.cmd.ProcessState
	if ps == nil {
		return ExitStatus{Err: err}
	}
	var st ExitStatus
	// ExitCode is -1 when the process was killed by a signal.
	if code := ps.ExitCode(); code >= 0 {
		st = Exited(code)
	}
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		st.Err = err
	}
	return st
}

// envList flattens an environment map into sorted KEY=VALUE pairs.
func envList(env map[string]string) []string {
	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
