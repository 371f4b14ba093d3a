//go:build linux

package supervisor

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcAttr puts detached children in their own session. Attached children
// get a parent-death signal so they do not outlive a crashed supervisor; the
// signal fires when the spawning thread dies, which is why the event loop
// locks its OS thread.
func setProcAttr(cmd *exec.Cmd, detached bool) {
	if detached {
		cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
		return
	}
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: unix.SIGTERM}
}
