package supervisor

import (
	"errors"
	"os"

	"procsup/internal/lifecycle"
)

// TerminateAll sends sig to every child in the live set and returns how many
// were signalled. It neither waits for the children to die nor removes them;
// entries leave the live set when their exit is observed. A nil sig means
// GracefulSignal.
func (s *Supervisor) TerminateAll(sig os.Signal) int {
	if sig == nil {
		sig = GracefulSignal
	}
	n := 0
	s.do(func() { n = s.terminateAll(sig) })
	return n
}

func (s *Supervisor) terminateAll(sig os.Signal) int {
	n := 0
	for _, mp := range s.live {
		if s.signal(mp, sig) {
			n++
		}
	}
	return n
}

// terminateRemaining sends GracefulSignal to the children that have not
// received it yet.
func (s *Supervisor) terminateRemaining() int {
	n := 0
	for _, mp := range s.live {
		if mp.terminating {
			continue
		}
		if s.signal(mp, GracefulSignal) {
			n++
		}
	}
	return n
}

// signal delivers sig to one child. A child that has already exited but whose
// exit the loop has not seen yet is skipped quietly.
func (s *Supervisor) signal(mp *ManagedProcess, sig os.Signal) bool {
	if err := mp.proc.Signal(sig); err != nil {
		if errors.Is(err, os.ErrProcessDone) {
			s.log.Debug().Str("name", mp.Name).Int("pid", mp.PID).Msg("process already finished")
			return false
		}
		s.log.Warn().Err(err).Str("name", mp.Name).Int("pid", mp.PID).Str("signal", sig.String()).Msg("failed to signal process")
		return false
	}
	if sig == GracefulSignal {
		mp.terminating = true
	}
	signalsSentTotal.WithLabelValues(mp.Name).Inc()
	s.log.Debug().Str("name", mp.Name).Int("pid", mp.PID).Str("signal", sig.String()).Msg("signal sent")
	s.pub.Publish(Event{Name: EventSignal, ProcessID: mp.ID, ProcessName: mp.Name, Fields: map[string]any{"signal": sig.String()}})
	return true
}

// ShutdownRegistrar maps a host signal to a shutdown callback.
type ShutdownRegistrar interface {
	OnShutdown(sig os.Signal, fn func(os.Signal))
}

// InstallShutdownHooks makes normal exit, interrupt and termination of the
// host all send GracefulSignal to every live child.
func (s *Supervisor) InstallShutdownHooks(reg ShutdownRegistrar) {
	sigs := append([]os.Signal{lifecycle.Exit}, ShutdownSignals...)
	for _, sig := range sigs {
		reg.OnShutdown(sig, func(got os.Signal) {
			n := s.TerminateAll(GracefulSignal)
			s.log.Debug().Str("trigger", got.String()).Int("signalled", n).Msg("terminated children")
		})
	}
}
