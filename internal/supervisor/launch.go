package supervisor

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Launch starts a named child process and registers it in the live set before
// returning. If the OS cannot create the process, a *LaunchError wrapping the
// OS error is returned and the live set is left unchanged.
func (s *Supervisor) Launch(name, command string, args []string, opts LaunchOptions) (*ManagedProcess, error) {
	if strings.TrimSpace(name) == "" {
		return nil, &LaunchError{Name: name, Command: command, Err: errors.New("empty process name")}
	}

	// Documentation only; arguments are not escaped.
	s.log.Info().Str("name", name).Msg("Executing " + strings.TrimSpace(command+" "+strings.Join(args, " ")))

	var (
		mp  *ManagedProcess
		err error
	)
	ok := s.do(func() {
		if s.closing {
			err = ErrClosed
			return
		}
		proc, serr := s.spawner.Spawn(Command{
			Path:     command,
			Args:     args,
			Env:      envList(opts.Env),
			Detached: opts.Detached,
			Stdout:   s.stdout,
			Stderr:   s.stderr,
		})
		if serr != nil {
			err = &LaunchError{Name: name, Command: command, Err: serr}
			return
		}
		mp = &ManagedProcess{
			ID:        uuid.NewString(),
			Name:      name,
			Command:   command,
			Args:      append([]string(nil), args...),
			Detached:  opts.Detached,
			PID:       proc.PID(),
			StartedAt: time.Now(),
			proc:      proc,
		}
		s.live[mp.ID] = mp
		liveProcesses.Inc()
		go s.wait(mp)
	})
	if !ok {
		err = ErrClosed
	}
	if err != nil {
		if IsLaunchError(err) {
			launchesTotal.WithLabelValues(name, "error").Inc()
			s.pub.Publish(Event{Name: EventLaunchError, ProcessName: name, Fields: map[string]any{"command": command, "error": err.Error()}})
		}
		return nil, err
	}

	launchesTotal.WithLabelValues(name, "ok").Inc()
	s.log.Debug().Str("name", name).Str("id", mp.ID).Int("pid", mp.PID).Bool("detached", mp.Detached).Msg("process started")
	s.pub.Publish(Event{Name: EventLaunch, ProcessID: mp.ID, ProcessName: name, Fields: map[string]any{"pid": mp.PID, "detached": mp.Detached}})
	return mp, nil
}

// wait blocks on the child and reports its error, then its exit, to the loop.
// Posting both from one goroutine keeps them in order for this child.
func (s *Supervisor) wait(mp *ManagedProcess) {
	st := mp.proc.Wait()
	if st.Err != nil {
		s.post(func() { s.onChildError(mp, st.Err) })
	}
	s.post(func() { s.onExit(mp, st) })
}

func (s *Supervisor) onChildError(mp *ManagedProcess, err error) {
	cerr := &ChildRuntimeError{Name: mp.Name, PID: mp.PID, Err: err}
	s.log.Error().Str("name", mp.Name).Int("pid", mp.PID).Msg(cerr.Error())
	s.pub.Publish(Event{Name: EventChildError, ProcessID: mp.ID, ProcessName: mp.Name, Fields: map[string]any{"error": err.Error()}})
}

func (s *Supervisor) onExit(mp *ManagedProcess, st ExitStatus) {
	if _, ok := s.live[mp.ID]; !ok {
		return
	}
	delete(s.live, mp.ID)
	liveProcesses.Dec()
	defer s.checkDrained()

	if st.Code == nil {
		// Killed by a signal: the expected shutdown path.
		exitsTotal.WithLabelValues(mp.Name, "signaled").Inc()
		s.log.Debug().Str("name", mp.Name).Int("pid", mp.PID).Msg("process terminated by signal")
		s.pub.Publish(Event{Name: EventExit, ProcessID: mp.ID, ProcessName: mp.Name, Fields: map[string]any{"signaled": true}})
		return
	}

	// Supervised services never exit on their own, so any code is an error.
	exitsTotal.WithLabelValues(mp.Name, "unexpected").Inc()
	uerr := &UnexpectedExitError{Name: mp.Name, PID: mp.PID, Code: *st.Code}
	s.log.Error().Str("name", mp.Name).Int("pid", mp.PID).Int("code", uerr.Code).Bool("closing", s.closing).Msg(uerr.Error())
	s.pub.Publish(Event{Name: EventExit, ProcessID: mp.ID, ProcessName: mp.Name, Fields: map[string]any{"code": uerr.Code}})
}

// checkDrained releases a Close waiting for the live set to empty.
func (s *Supervisor) checkDrained() {
	if s.drained != nil && len(s.live) == 0 {
		close(s.drained)
		s.drained = nil
	}
}
