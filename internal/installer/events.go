package installer

// Event represents an installer lifecycle event.
// Name is one of install_start, step_start, step_done, item_done, install_done.
type Event struct {
	Name      string
	RunID     string
	Component string
	Fields    map[string]any
}

// EventPublisher receives events from the orchestrator. Implementations should
// be lightweight and non-blocking; Publish must not panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
