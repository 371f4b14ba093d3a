// Package supervisor launches named child processes, tracks them in a live
// set, logs abnormal termination, and terminates every tracked child when the
// hosting process shuts down. It is structured into small files by concern:
//
//   - supervisor.go: Supervisor type, constructor, event loop, Close.
//   - launch.go: Launch and the per-child waiter.
//   - terminate.go: TerminateAll and shutdown hook installation.
//   - process.go: Process/Spawner abstraction over os/exec.
//   - procattr_*.go: per-OS detach and parent-death attributes.
//   - signals_*.go: per-OS graceful and shutdown signals.
//   - config.go: Config and package defaults.
//   - types.go: ManagedProcess and LaunchOptions.
//   - errors.go: LaunchError, ChildRuntimeError, UnexpectedExitError, ErrClosed.
//   - events.go, eventpub_memory.go: lifecycle events for observers and tests.
//   - metrics.go: Prometheus counters and the live gauge.
//
// The live set is owned by a single event-loop goroutine. Every mutation,
// including exit notifications from waiter goroutines, is funneled through
// that loop, so no lock guards it.
//
// A child that exits with any numeric code, zero included, is logged as an
// error: supervised services are never expected to stop on their own. A child
// terminated by a signal is the expected shutdown path and is logged at debug
// level only.
package supervisor
