//go:build windows

package supervisor

import (
	"os"
	"syscall"
)

// GracefulSignal is sent to children on shutdown. Windows processes cannot be
// sent SIGTERM, so this falls back to a kill.
var GracefulSignal os.Signal = os.Kill

// ShutdownSignals are the host signals that trigger TerminateAll.
var ShutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}
