package hooks

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Bus dispatches lifecycle events to registered handlers. Handlers run
// sequentially in priority order; handler errors and panics are logged
// and swallowed so an observer can never fail the operation it observes.
type Bus struct {
	handlers map[EventType][]*Registration
	byID     map[string]*Registration
	logger   *slog.Logger
	mu       sync.RWMutex
}

// NewBus creates an empty hook bus.
func NewBus(logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		handlers: make(map[EventType][]*Registration),
		byID:     make(map[string]*Registration),
		logger:   logger.With("component", "hooks"),
	}
}

// RegisterOption configures a registration.
type RegisterOption func(*Registration)

// WithPriority sets the handler priority.
func WithPriority(p Priority) RegisterOption {
	return func(r *Registration) { r.Priority = p }
}

// WithName sets the handler name for debugging.
func WithName(name string) RegisterOption {
	return func(r *Registration) { r.Name = name }
}

// Register adds a handler for an event type and returns the registration
// ID for later unregistration.
func (b *Bus) Register(event EventType, handler Handler, opts ...RegisterOption) string {
	reg := &Registration{
		ID:       uuid.New().String(),
		Event:    event,
		Handler:  handler,
		Priority: PriorityNormal,
	}
	for _, opt := range opts {
		opt(reg)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[event] = append(b.handlers[event], reg)
	b.byID[reg.ID] = reg

	sort.SliceStable(b.handlers[event], func(i, j int) bool {
		return b.handlers[event][i].Priority < b.handlers[event][j].Priority
	})

	b.logger.Debug("registered hook",
		"id", reg.ID,
		"event", event,
		"name", reg.Name,
		"priority", reg.Priority)

	return reg.ID
}

// Unregister removes a handler by its registration ID.
func (b *Bus) Unregister(id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	reg, exists := b.byID[id]
	if !exists {
		return false
	}
	delete(b.byID, id)

	handlers := b.handlers[reg.Event]
	for i, h := range handlers {
		if h.ID == id {
			b.handlers[reg.Event] = append(handlers[:i], handlers[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes all registered handlers.
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[EventType][]*Registration)
	b.byID = make(map[string]*Registration)
}

// HandlerCount returns the number of handlers for an event type.
func (b *Bus) HandlerCount(event EventType) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event])
}

// Emit dispatches an event to all handlers registered for its type, in
// priority order. It never returns an error.
func (b *Bus) Emit(ctx context.Context, event *Event) {
	if b == nil || event == nil {
		return
	}

	b.mu.RLock()
	regs := make([]*Registration, len(b.handlers[event.Type]))
	copy(regs, b.handlers[event.Type])
	b.mu.RUnlock()

	for _, reg := range regs {
		if err := b.callHandler(ctx, reg, event); err != nil {
			b.logger.Warn("hook handler error",
				"event", event.Type,
				"handler_id", reg.ID,
				"handler_name", reg.Name,
				"error", err)
		}
	}
}

func (b *Bus) callHandler(ctx context.Context, reg *Registration, event *Event) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("hook panic: %v", p)
		}
	}()
	return reg.Handler(ctx, event)
}
