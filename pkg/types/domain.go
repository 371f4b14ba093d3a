package types

import "time"

// ProcessInfo describes one child in a supervisor's live set.
type ProcessInfo struct {
	// Unique identifier assigned at launch.
	// example: 3f1c2a9e-6a1b-4c55-9d0e-2f7d7f0b8c11
	ID string `json:"id" example:"3f1c2a9e-6a1b-4c55-9d0e-2f7d7f0b8c11"`
	// Display name used in log lines.
	// example: UA Service
	Name string `json:"name" example:"UA Service"`
	// OS process id.
	// example: 48213
	PID int `json:"pid" example:"48213"`
	// Executable that was started.
	// example: /usr/local/bin/procsup
	Command string `json:"command" example:"/usr/local/bin/procsup"`
	// Positional arguments.
	Args []string `json:"args"`
	// Whether the child runs in its own session/process group.
	Detached bool `json:"detached"`
	// Launch time.
	StartedAt time.Time `json:"started_at"`
}
