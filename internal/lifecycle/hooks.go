// Package lifecycle maps host-process shutdown triggers to callbacks. OS
// signals come from an injectable SignalSource so the mapping can be tested
// without real signal delivery; normal termination is represented by the Exit
// pseudo-signal.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync"

	"github.com/rs/zerolog"
)

// SignalSource delivers OS signals. Its method set matches os/signal.
type SignalSource interface {
	Notify(c chan<- os.Signal, sig ...os.Signal)
	Stop(c chan<- os.Signal)
}

type osSignals struct{}

func (osSignals) Notify(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) }
func (osSignals) Stop(c chan<- os.Signal)                    { signal.Stop(c) }

// OSSignals is the SignalSource backed by os/signal.
var OSSignals SignalSource = osSignals{}

type exitSignal struct{}

func (exitSignal) String() string { return "exit" }
func (exitSignal) Signal()        {}

// Exit stands for normal termination of the hosting process. It is never
// delivered by a SignalSource; Hooks.Exit fires it.
var Exit os.Signal = exitSignal{}

// Hooks is a registry of shutdown callbacks keyed by signal.
type Hooks struct {
	log zerolog.Logger
	src SignalSource

	mu       sync.Mutex
	order    []os.Signal
	handlers map[os.Signal][]func(os.Signal)
	// shutdown fires the first host shutdown trigger only.
	shutdown sync.Once
}

// New creates an empty registry reading OS signals from src.
func New(src SignalSource, log zerolog.Logger) *Hooks {
	if src == nil {
		src = OSSignals
	}
	return &Hooks{
		log:      log.With().Str("component", "lifecycle").Logger(),
		src:      src,
		handlers: make(map[os.Signal][]func(os.Signal)),
	}
}

// OnShutdown registers fn to run when sig is received. Callbacks for the same
// signal run in registration order.
func (h *Hooks) OnShutdown(sig os.Signal, fn func(os.Signal)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.handlers[sig]; !ok {
		h.order = append(h.order, sig)
	}
	h.handlers[sig] = append(h.handlers[sig], fn)
}

// Signals returns the registered OS signals, excluding Exit.
func (h *Hooks) Signals() []os.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]os.Signal, 0, len(h.order))
	for _, sig := range h.order {
		if sig != Exit {
			out = append(out, sig)
		}
	}
	return out
}

// Fire runs the callbacks registered for sig. A panicking callback is logged
// and does not stop the others.
func (h *Hooks) Fire(sig os.Signal) {
	h.mu.Lock()
	fns := slices.Clone(h.handlers[sig])
	h.mu.Unlock()
	for _, fn := range fns {
		h.run(sig, fn)
	}
}

func (h *Hooks) run(sig os.Signal, fn func(os.Signal)) {
	defer func() {
		if r := recover(); r != nil {
			h.log.Error().Interface("panic", r).Str("signal", sig.String()).Msg("shutdown hook panicked")
		}
	}()
	fn(sig)
}

// Wait blocks until one of the registered signals arrives or ctx is done. A
// received signal fires its callbacks before Wait returns it, and a later Exit
// is then a no-op. nil is returned when ctx ends first.
func (h *Hooks) Wait(ctx context.Context) os.Signal {
	sigs := h.Signals()
	if len(sigs) == 0 {
		// Notify with no signals would subscribe to all of them.
		<-ctx.Done()
		return nil
	}
	ch := make(chan os.Signal, 1)
	h.src.Notify(ch, sigs...)
	defer h.src.Stop(ch)

	select {
	case sig := <-ch:
		h.log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
		h.fireShutdown(sig)
		return sig
	case <-ctx.Done():
		return nil
	}
}

// Exit fires the Exit callbacks unless a signal received by Wait already
// started the shutdown. Hosts defer it in main.
func (h *Hooks) Exit() {
	h.fireShutdown(Exit)
}

// fireShutdown fires sig if it is the first shutdown trigger of the host.
func (h *Hooks) fireShutdown(sig os.Signal) {
	fired := false
	h.shutdown.Do(func() {
		fired = true
		h.Fire(sig)
	})
	if !fired {
		h.log.Debug().Str("signal", sig.String()).Msg("shutdown already in progress")
	}
}
