package hooks

import (
	"context"
	"errors"
	"testing"
)

func TestBusPriorityOrder(t *testing.T) {
	bus := NewBus(nil)
	var order []string

	bus.Register(EventToolBefore, func(ctx context.Context, e *Event) error {
		order = append(order, "low")
		return nil
	}, WithPriority(PriorityLow))
	bus.Register(EventToolBefore, func(ctx context.Context, e *Event) error {
		order = append(order, "high")
		return nil
	}, WithPriority(PriorityHigh))
	bus.Register(EventToolBefore, func(ctx context.Context, e *Event) error {
		order = append(order, "normal")
		return nil
	})

	bus.Emit(context.Background(), &Event{Type: EventToolBefore})

	want := []string{"high", "normal", "low"}
	if len(order) != len(want) {
		t.Fatalf("got %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("position %d = %s, want %s", i, order[i], want[i])
		}
	}
}

func TestBusSwallowsErrorsAndPanics(t *testing.T) {
	bus := NewBus(nil)
	var reached bool

	bus.Register(EventFileBeforeUpload, func(ctx context.Context, e *Event) error {
		return errors.New("handler failed")
	}, WithPriority(PriorityHigh))
	bus.Register(EventFileBeforeUpload, func(ctx context.Context, e *Event) error {
		panic("handler panicked")
	}, WithPriority(PriorityHigh))
	bus.Register(EventFileBeforeUpload, func(ctx context.Context, e *Event) error {
		reached = true
		return nil
	}, WithPriority(PriorityLow))

	bus.Emit(context.Background(), &Event{Type: EventFileBeforeUpload})

	if !reached {
		t.Error("later handler did not run after earlier failures")
	}
}

func TestBusUnregister(t *testing.T) {
	bus := NewBus(nil)
	var calls int

	id := bus.Register(EventToolAfter, func(ctx context.Context, e *Event) error {
		calls++
		return nil
	})

	bus.Emit(context.Background(), &Event{Type: EventToolAfter})
	if !bus.Unregister(id) {
		t.Fatal("unregister returned false for live registration")
	}
	if bus.Unregister(id) {
		t.Error("unregister returned true for removed registration")
	}
	bus.Emit(context.Background(), &Event{Type: EventToolAfter})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if n := bus.HandlerCount(EventToolAfter); n != 0 {
		t.Errorf("handler count = %d, want 0", n)
	}
}

func TestNilBusEmitIsNoOp(t *testing.T) {
	var bus *Bus
	bus.Emit(context.Background(), &Event{Type: EventAgentStarted})
}
