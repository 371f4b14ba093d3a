package supervisor

import (
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"procsup/pkg/types"
)

// Supervisor launches and tracks child processes. Construct one with New and
// release it with Close.
type Supervisor struct {
	log          zerolog.Logger
	spawner      Spawner
	pub          EventPublisher
	stdout       io.Writer
	stderr       io.Writer
	drainTimeout time.Duration

	evCh      chan func()
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once

	// Owned by the event loop.
	live    map[string]*ManagedProcess
	closing bool
	drained chan struct{}
}

// New constructs a Supervisor and starts its event loop.
func New(cfg Config) *Supervisor {
	cfg = cfg.withDefaults()
	s := &Supervisor{
		log:          cfg.Logger.With().Str("component", "supervisor").Logger(),
		spawner:      cfg.Spawner,
		pub:          cfg.Publisher,
		stdout:       cfg.Stdout,
		stderr:       cfg.Stderr,
		drainTimeout: cfg.DrainTimeout,

		evCh:    make(chan func()),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
		live:    make(map[string]*ManagedProcess),
	}
	go s.loop()
	return s
}

func (s *Supervisor) loop() {
	// Children are spawned from this goroutine. Keeping it on one OS thread
	// for its whole life ties Pdeathsig to the supervisor rather than to
	// whatever thread the scheduler picked. The thread is discarded when the
	// loop returns.
	runtime.LockOSThread()
	defer close(s.stopped)

	for {
		select {
		case <-s.quit:
			return
		case fn := <-s.evCh:
			fn()
		}
	}
}

// do runs fn on the event loop and waits for it. It reports false if the loop
// has stopped.
func (s *Supervisor) do(fn func()) bool {
	ran := make(chan struct{})
	select {
	case s.evCh <- func() { defer close(ran); fn() }:
	case <-s.quit:
		return false
	}
	<-ran
	return true
}

// post schedules fn on the event loop without waiting for it to run.
func (s *Supervisor) post(fn func()) {
	select {
	case s.evCh <- fn:
	case <-s.quit:
	}
}

// Len returns the number of children in the live set.
func (s *Supervisor) Len() int {
	n := 0
	s.do(func() { n = len(s.live) })
	return n
}

// Snapshot returns the live set ordered by start time.
func (s *Supervisor) Snapshot() []types.ProcessInfo {
	var out []types.ProcessInfo
	s.do(func() {
		out = make([]types.ProcessInfo, 0, len(s.live))
		for _, mp := range s.live {
			out = append(out, mp.Info())
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Status summarizes the supervisor for the status surface.
func (s *Supervisor) Status() types.StatusResponse {
	procs := s.Snapshot()
	closed := false
	select {
	case <-s.quit:
		closed = true
	default:
	}
	return types.StatusResponse{Live: len(procs), Closed: closed, Processes: procs}
}

// Close sends the graceful signal to every live child that has not had it
// yet, waits up to the drain timeout for their exits to be observed, and stops
// the event loop. Close is idempotent.
func (s *Supervisor) Close() error {
	s.closeOnce.Do(func() {
		var drained chan struct{}
		s.do(func() {
			s.closing = true
			s.terminateRemaining()
			if len(s.live) > 0 && s.drainTimeout > 0 {
				drained = make(chan struct{})
				s.drained = drained
			}
		})
		if drained != nil {
			t := time.NewTimer(s.drainTimeout)
			select {
			case <-drained:
			case <-t.C:
				s.log.Warn().Dur("timeout", s.drainTimeout).Msg("children still running after drain timeout")
			}
			t.Stop()
		}
		close(s.quit)
		<-s.stopped
	})
	return nil
}
