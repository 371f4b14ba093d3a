package supervisor

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeProcess is an in-memory Process. It exits when exit is called, or on
// the first signal if exitOnSignal is set.
type fakeProcess struct {
	pid          int
	exitCh       chan ExitStatus
	exitOnSignal bool
	signalErr    error

	mu      sync.Mutex
	signals []os.Signal
	exited  bool
}

func newFakeProcess(pid int) *fakeProcess {
	return &fakeProcess{pid: pid, exitCh: make(chan ExitStatus, 1)}
}

func (p *fakeProcess) PID() int { return p.pid }

func (p *fakeProcess) Signal(sig os.Signal) error {
	p.mu.Lock()
	p.signals = append(p.signals, sig)
	err := p.signalErr
	auto := p.exitOnSignal && err == nil
	p.mu.Unlock()
	if auto {
		p.exit(Signaled())
	}
	return err
}

func (p *fakeProcess) setSignalErr(err error) {
	p.mu.Lock()
	p.signalErr = err
	p.mu.Unlock()
}

func (p *fakeProcess) Wait() ExitStatus { return <-p.exitCh }

// exit makes Wait return st. Only the first call has an effect.
func (p *fakeProcess) exit(st ExitStatus) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.exited {
		return
	}
	p.exited = true
	p.exitCh <- st
}

func (p *fakeProcess) received() []os.Signal {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]os.Signal(nil), p.signals...)
}

// fakeSpawner hands out fakeProcesses and records every Command.
type fakeSpawner struct {
	mu           sync.Mutex
	err          error
	nextPID      int
	exitOnSignal bool
	procs        []*fakeProcess
	cmds         []Command
}

func (s *fakeSpawner) Spawn(c Command) (Process, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmds = append(s.cmds, c)
	if s.err != nil {
		return nil, s.err
	}
	s.nextPID++
	p := newFakeProcess(1000 + s.nextPID)
	p.exitOnSignal = s.exitOnSignal
	s.procs = append(s.procs, p)
	return p, nil
}

func (s *fakeSpawner) setErr(err error) {
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

func (s *fakeSpawner) setExitOnSignal(v bool) {
	s.mu.Lock()
	s.exitOnSignal = v
	s.mu.Unlock()
}

func (s *fakeSpawner) proc(i int) *fakeProcess {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.procs[i]
}

func (s *fakeSpawner) commands() []Command {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Command(nil), s.cmds...)
}

func (s *fakeSpawner) releaseAll() {
	s.mu.Lock()
	procs := append([]*fakeProcess(nil), s.procs...)
	s.mu.Unlock()
	for _, p := range procs {
		p.exit(Signaled())
	}
}

// syncBuffer is a bytes.Buffer safe for the event loop to write while the
// test reads.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type logLine struct {
	Level   string `json:"level"`
	Message string `json:"message"`
	Name    string `json:"name"`
	Code    *int   `json:"code"`
}

func (b *syncBuffer) lines(t *testing.T, level string) []logLine {
	t.Helper()
	var out []logLine
	sc := bufio.NewScanner(strings.NewReader(b.String()))
	for sc.Scan() {
		var l logLine
		if err := json.Unmarshal(sc.Bytes(), &l); err != nil {
			t.Fatalf("bad log line %q: %v", sc.Text(), err)
		}
		if level == "" || l.Level == level {
			out = append(out, l)
		}
	}
	return out
}

type harness struct {
	sup     *Supervisor
	spawner *fakeSpawner
	logs    *syncBuffer
	pub     *MemoryPublisher
}

func newHarness(t *testing.T, mutate ...func(*Config)) *harness {
	t.Helper()
	h := &harness{spawner: &fakeSpawner{}, logs: &syncBuffer{}, pub: NewMemoryPublisher()}
	l := zerolog.New(h.logs).Level(zerolog.DebugLevel)
	cfg := Config{Logger: &l, Spawner: h.spawner, Publisher: h.pub}
	for _, m := range mutate {
		m(&cfg)
	}
	h.sup = New(cfg)
	t.Cleanup(func() {
		h.spawner.releaseAll()
		_ = h.sup.Close()
	})
	return h
}

func (h *harness) launch(t *testing.T, name string, detached bool) *ManagedProcess {
	t.Helper()
	mp, err := h.sup.Launch(name, "/usr/bin/"+strings.ToLower(strings.ReplaceAll(name, " ", "-")), []string{"--port", "9090"}, LaunchOptions{Detached: detached, Env: map[string]string{"A": "1"}})
	if err != nil {
		t.Fatalf("Launch %s: %v", name, err)
	}
	return mp
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

var errBoom = errors.New("boom")
