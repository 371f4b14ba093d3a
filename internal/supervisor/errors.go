package supervisor

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by operations on a closed Supervisor.
var ErrClosed = errors.New("supervisor closed")

// LaunchError reports that the OS failed to create a process. Nothing is added
// to the live set when it is returned.
type LaunchError struct {
	Name    string
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s (%s): %v", e.Name, e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }

// IsLaunchError reports whether err is or wraps a LaunchError.
func IsLaunchError(err error) bool {
	var le *LaunchError
	return errors.As(err, &le)
}

// ChildRuntimeError is logged when a running child reports an error. It is
// never returned to callers.
type ChildRuntimeError struct {
	Name string
	PID  int
	Err  error
}

func (e *ChildRuntimeError) Error() string {
	return fmt.Sprintf("%s threw error %v", e.Name, e.Err)
}

func (e *ChildRuntimeError) Unwrap() error { return e.Err }

// UnexpectedExitError is logged when a child exits with a numeric code.
type UnexpectedExitError struct {
	Name string
	PID  int
	Code int
}

func (e *UnexpectedExitError) Error() string {
	return fmt.Sprintf("%s exited with exit code %d", e.Name, e.Code)
}
