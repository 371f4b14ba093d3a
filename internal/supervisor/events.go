package supervisor

// Event names published by the Supervisor.
const (
	EventLaunch      = "launch"
	EventLaunchError = "launch_error"
	EventChildError  = "child_error"
	EventExit        = "exit"
	EventSignal      = "signal"
)

// Event represents a supervisor lifecycle event.
// Minimal and stable: name + process identity and optional fields.
type Event struct {
	Name        string
	ProcessID   string
	ProcessName string
	Fields      map[string]any
}

// EventPublisher receives events from the supervisor. Publish may run on the
// event loop or on the goroutine calling Launch, so implementations must be
// safe for concurrent use and must not call back into the Supervisor.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
