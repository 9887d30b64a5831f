package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"dealership_backend/platform/logger"
)

type testEvent struct {
	BaseEvent
	name string
}

func (e testEvent) EventName() string { return e.name }

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	calls := 0
	bus.Subscribe("lead.changed", HandlerFunc(func(context.Context, Event) error {
		calls++
		return nil
	}))
	bus.Subscribe("lead.changed", HandlerFunc(func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	}))

	err := bus.PublishSync(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "lead.changed"})
	if err == nil {
		t.Fatalf("expected joined handler error")
	}
	if calls != 2 {
		t.Fatalf("expected both handlers to run, got %d", calls)
	}
}

func TestPublishDeliversOnlyToMatchingSubscribers(t *testing.T) {
	bus := NewInMemoryBus(logger.Discard())
	delivered := make(chan string, 2)
	bus.Subscribe("a", HandlerFunc(func(_ context.Context, e Event) error {
		delivered <- e.EventName()
		return nil
	}))
	bus.Subscribe("b", HandlerFunc(func(_ context.Context, e Event) error {
		delivered <- e.EventName()
		return nil
	}))

	bus.Publish(context.Background(), testEvent{BaseEvent: NewBaseEvent(), name: "a"})

	select {
	case name := <-delivered:
		if name != "a" {
			t.Fatalf("expected event a, got %s", name)
		}
	case <-time.After(time.Second):
		t.Fatalf("event was not delivered")
	}

	select {
	case name := <-delivered:
		t.Fatalf("unexpected second delivery of %s", name)
	case <-time.After(50 * time.Millisecond):
	}
}
