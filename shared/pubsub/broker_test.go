package pubsub

import (
	"context"
	"testing"

	"github.com/focusnest/gauntlet-service/shared/events"
)

func TestBrokerDeliversToMatchingTopicsInOrder(t *testing.T) {
	b := NewBroker()
	var got []string

	b.Subscribe(TopicWellnessUpdates, func(_ context.Context, env events.Envelope) {
		got = append(got, "updates:"+env.Type)
	})
	b.Subscribe("", func(_ context.Context, env events.Envelope) {
		got = append(got, "all:"+env.Type)
	})
	b.Subscribe(TopicSocial, func(_ context.Context, env events.Envelope) {
		got = append(got, "social:"+env.Type)
	})

	b.Publish(context.Background(), events.Envelope{Topic: TopicWellnessUpdates, Type: events.TypeStoneUpdate})

	if len(got) != 2 || got[0] != "updates:stone-update" || got[1] != "all:stone-update" {
		t.Fatalf("unexpected deliveries: %v", got)
	}
}

func TestBrokerUnsubscribedHandlerMissesEvents(t *testing.T) {
	b := NewBroker()
	calls := 0
	unsubscribe := b.Subscribe("", func(context.Context, events.Envelope) { calls++ })

	b.Publish(context.Background(), events.Envelope{Type: "a"})
	unsubscribe()
	unsubscribe()
	b.Publish(context.Background(), events.Envelope{Type: "b"})

	if calls != 1 {
		t.Fatalf("expected exactly one delivery, got %d", calls)
	}
	if b.Subscribers() != 0 {
		t.Fatalf("expected no subscribers left, got %d", b.Subscribers())
	}
}

func TestNopPublisher(t *testing.T) {
	NopPublisher().Publish(context.Background(), events.Envelope{})
	var f PublisherFunc
	f.Publish(context.Background(), events.Envelope{})
}
