package supervisor

import (
	"time"

	"procsup/pkg/types"
)

// LaunchOptions configures a single Launch.
type LaunchOptions struct {
	// Detached places the child in its own session/process group and discards
	// its output. Attached children share our stdout/stderr.
	Detached bool
	// Env is the complete child environment. Nothing is inherited implicitly.
	Env map[string]string
}

// ManagedProcess is a child created and tracked by a Supervisor. Its exported
// fields never change after Launch returns.
type ManagedProcess struct {
	ID        string
	Name      string
	Command   string
	Args      []string
	Detached  bool
	PID       int
	StartedAt time.Time

	proc Process
	// terminating is set once the graceful signal was delivered. Owned by the
	// event loop.
	terminating bool
}

// Info returns the JSON view of the process.
func (p *ManagedProcess) Info() types.ProcessInfo {
	return types.ProcessInfo{
		ID:        p.ID,
		Name:      p.Name,
		PID:       p.PID,
		Command:   p.Command,
		Args:      append([]string(nil), p.Args...),
		Detached:  p.Detached,
		StartedAt: p.StartedAt,
	}
}
