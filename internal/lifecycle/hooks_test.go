package lifecycle

import (
	"bytes"
	"context"
	"os"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// fakeSource records subscriptions and lets a test deliver signals by hand.
type fakeSource struct {
	mu      sync.Mutex
	ch      chan<- os.Signal
	sigs    []os.Signal
	stopped bool
	ready   chan struct{}
}

func newFakeSource() *fakeSource { return &fakeSource{ready: make(chan struct{})} }

func (f *fakeSource) Notify(c chan<- os.Signal, sig ...os.Signal) {
	f.mu.Lock()
	f.ch = c
	f.sigs = append([]os.Signal(nil), sig...)
	f.mu.Unlock()
	close(f.ready)
}

func (f *fakeSource) Stop(c chan<- os.Signal) {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeSource) deliver(t *testing.T, sig os.Signal) {
	t.Helper()
	select {
	case <-f.ready:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify was never called")
	}
	f.mu.Lock()
	c := f.ch
	f.mu.Unlock()
	c <- sig
}

func TestWaitFiresReceivedSignal(t *testing.T) {
	src := newFakeSource()
	h := New(src, zerolog.Nop())

	var got []string
	h.OnShutdown(os.Interrupt, func(s os.Signal) { got = append(got, "int:"+s.String()) })
	h.OnShutdown(syscall.SIGTERM, func(s os.Signal) { got = append(got, "term") })
	h.OnShutdown(Exit, func(os.Signal) { got = append(got, "exit") })

	done := make(chan os.Signal, 1)
	go func() { done <- h.Wait(context.Background()) }()
	src.deliver(t, os.Interrupt)

	select {
	case sig := <-done:
		if sig != os.Interrupt {
			t.Fatalf("Wait returned %v", sig)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Wait did not return")
	}
	if len(got) != 1 || got[0] != "int:"+os.Interrupt.String() {
		t.Fatalf("callbacks = %v", got)
	}

	src.mu.Lock()
	defer src.mu.Unlock()
	if !src.stopped {
		t.Fatal("Wait should stop the subscription")
	}
	if len(src.sigs) != 2 {
		t.Fatalf("subscribed to %v, Exit must not be passed to Notify", src.sigs)
	}
}

func TestWaitReturnsNilOnContextDone(t *testing.T) {
	h := New(newFakeSource(), zerolog.Nop())
	fired := false
	h.OnShutdown(os.Interrupt, func(os.Signal) { fired = true })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if sig := h.Wait(ctx); sig != nil {
		t.Fatalf("Wait = %v, want nil", sig)
	}
	if fired {
		t.Fatal("no callback should run when ctx ends first")
	}
}

func TestWaitWithoutSignalsDoesNotSubscribe(t *testing.T) {
	src := newFakeSource()
	h := New(src, zerolog.Nop())
	h.OnShutdown(Exit, func(os.Signal) {})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if sig := h.Wait(ctx); sig != nil {
		t.Fatalf("Wait = %v, want nil", sig)
	}
	select {
	case <-src.ready:
		t.Fatal("Notify must not be called with an empty signal list")
	default:
	}
}

func TestExitFiresOnce(t *testing.T) {
	h := New(nil, zerolog.Nop())
	n := 0
	h.OnShutdown(Exit, func(s os.Signal) {
		if s != Exit {
			t.Errorf("callback got %v", s)
		}
		n++
	})
	h.Exit()
	h.Exit()
	if n != 1 {
		t.Fatalf("Exit callbacks ran %d times", n)
	}
	if Exit.String() != "exit" {
		t.Fatalf("Exit.String() = %q", Exit.String())
	}
}

func TestFireRecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := New(nil, zerolog.New(&buf))
	ran := false
	h.OnShutdown(os.Interrupt, func(os.Signal) { panic("bad hook") })
	h.OnShutdown(os.Interrupt, func(os.Signal) { ran = true })

	h.Fire(os.Interrupt)
	if !ran {
		t.Fatal("second callback should run after the first panics")
	}
	if !strings.Contains(buf.String(), "shutdown hook panicked") {
		t.Fatalf("panic not logged: %s", buf.String())
	}
}

func TestSignalsPreservesOrderAndSkipsExit(t *testing.T) {
	h := New(nil, zerolog.Nop())
	h.OnShutdown(Exit, func(os.Signal) {})
	h.OnShutdown(syscall.SIGTERM, func(os.Signal) {})
	h.OnShutdown(os.Interrupt, func(os.Signal) {})
	h.OnShutdown(syscall.SIGTERM, func(os.Signal) {})

	got := h.Signals()
	if len(got) != 2 || got[0] != syscall.SIGTERM || got[1] != os.Interrupt {
		t.Fatalf("Signals() = %v", got)
	}
}

func TestExitAfterReceivedSignalDoesNotFireAgain(t *testing.T) {
	src := newFakeSource()
	h := New(src, zerolog.Nop())
	var mu sync.Mutex
	var got []os.Signal
	record := func(s os.Signal) {
		mu.Lock()
		got = append(got, s)
		mu.Unlock()
	}
	h.OnShutdown(os.Interrupt, record)
	h.OnShutdown(Exit, record)

	done := make(chan struct{})
	go func() {
		h.Wait(context.Background())
		close(done)
	}()
	src.deliver(t, os.Interrupt)
	<-done
	h.Exit()

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != os.Interrupt {
		t.Fatalf("callbacks fired for %v, want only interrupt", got)
	}
}
