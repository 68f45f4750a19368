package bus

import (
	"context"
	"testing"

	"github.com/wc3hostbot/core/internal/core"
)

func TestEventBusPublishDeliversToSubscriber(t *testing.T) {
	b := NewEventBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(context.Background(), Event{Kind: EventGameStarted, Handle: core.GameHandle{}})

	select {
	case ev := <-ch:
		if ev.Kind != EventGameStarted {
			t.Fatalf("expected EventGameStarted, got %v", ev.Kind)
		}
	default:
		t.Fatalf("expected event to be delivered synchronously to a buffered subscriber")
	}
}

func TestEventBusPublishDropsWhenSubscriberBufferFull(t *testing.T) {
	b := NewEventBus()
	ch, cancel := b.Subscribe(1)
	defer cancel()

	b.Publish(context.Background(), Event{Kind: EventGameStarted})
	b.Publish(context.Background(), Event{Kind: EventGameEnded}) // buffer full, dropped

	first := <-ch
	if first.Kind != EventGameStarted {
		t.Fatalf("expected the first published event to survive, got %v", first.Kind)
	}
	select {
	case <-ch:
		t.Fatalf("expected the second event to have been dropped")
	default:
	}
}

func TestEventBusCancelClosesChannel(t *testing.T) {
	b := NewEventBus()
	ch, cancel := b.Subscribe(1)
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed after cancel")
	}
}
