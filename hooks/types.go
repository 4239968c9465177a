package hooks

import "context"

// EventType identifies a lifecycle notification.
type EventType string

const (
	EventToolBefore       EventType = "tool.before"
	EventToolAfter        EventType = "tool.after"
	EventFileBeforeUpload EventType = "file.before_upload"
	EventFileAfterUpload  EventType = "file.after_upload"
	EventAgentStarted     EventType = "agent.started"
	EventAgentCompleted   EventType = "agent.completed"
)

// Event carries a lifecycle notification to registered handlers.
type Event struct {
	Type    EventType
	Payload map[string]any
}

// Handler processes a single event. A returned error is logged and
// swallowed; it never affects the operation being observed.
type Handler func(ctx context.Context, event *Event) error

// Priority orders handlers for one event type. Lower runs first.
type Priority int

const (
	PriorityHigh   Priority = 0
	PriorityNormal Priority = 50
	PriorityLow    Priority = 100
)

// Registration records one handler subscription.
type Registration struct {
	ID       string
	Event    EventType
	Handler  Handler
	Priority Priority
	Name     string
}
