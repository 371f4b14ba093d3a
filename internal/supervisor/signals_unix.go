//go:build unix

package supervisor

import (
	"os"

	"golang.org/x/sys/unix"
)

// GracefulSignal is sent to children on shutdown.
var GracefulSignal os.Signal = unix.SIGTERM

// ShutdownSignals are the host signals that trigger TerminateAll.
var ShutdownSignals = []os.Signal{os.Interrupt, unix.SIGTERM}
