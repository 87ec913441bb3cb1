package events

import (
	"context"
	"testing"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	bus := NewBus(nil)

	var first, second []Event
	bus.Subscribe(func(e Event) { first = append(first, e) })
	bus.Subscribe(func(e Event) { second = append(second, e) })

	bus.Publish(context.Background(), EventCartUpdated, "i1")

	if len(first) != 1 || len(second) != 1 {
		t.Fatalf("expected one delivery per subscriber, got %d and %d", len(first), len(second))
	}
	if first[0].Type != EventCartUpdated || first[0].Payload != "i1" {
		t.Fatalf("unexpected event: %+v", first[0])
	}
	if first[0].Timestamp == 0 {
		t.Fatal("event must carry a timestamp")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus(nil)

	var got []Event
	unsubscribe := bus.Subscribe(func(e Event) { got = append(got, e) })

	bus.Publish(context.Background(), EventCartUpdated, "before")
	unsubscribe()
	bus.Publish(context.Background(), EventCartCleared, "after")

	if len(got) != 1 {
		t.Fatalf("expected delivery to stop after unsubscribe, got %d events", len(got))
	}
	if got[0].Payload != "before" {
		t.Fatalf("unexpected event after unsubscribe: %+v", got[0])
	}
}

func TestPublishWithoutSubscribersIsHarmless(t *testing.T) {
	bus := NewBus(nil)
	bus.Publish(context.Background(), EventCartError, "i1")
}
