package pubsub

import (
	"context"
	"sync"

	"github.com/focusnest/gauntlet-service/shared/events"
)

// Handler receives envelopes synchronously on the publisher's goroutine.
type Handler func(ctx context.Context, env events.Envelope)

// Publisher is the write side of the broker.
type Publisher interface {
	Publish(ctx context.Context, env events.Envelope)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, env events.Envelope)

func (f PublisherFunc) Publish(ctx context.Context, env events.Envelope) {
	if f == nil {
		return
	}
	f(ctx, env)
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, events.Envelope) {}

// NopPublisher drops every envelope.
func NopPublisher() Publisher {
	return nopPublisher{}
}

type subscription struct {
	id      uint64
	topic   string
	handler Handler
}

// Broker fans envelopes out to subscribers in subscription order. Delivery is
// synchronous with no queueing or retry: a handler that is not subscribed at
// publish time never sees the envelope.
type Broker struct {
	mu     sync.RWMutex
	nextID uint64
	subs   []subscription
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{}
}

// Subscribe registers handler for topic; an empty topic receives everything.
// The returned func removes the subscription and is safe to call twice.
func (b *Broker) Subscribe(topic string, handler Handler) func() {
	if handler == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs = append(b.subs, subscription{id: id, topic: topic, handler: handler})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Broker) remove(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subs {
		if sub.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers env to every matching subscriber before returning.
func (b *Broker) Publish(ctx context.Context, env events.Envelope) {
	b.mu.RLock()
	targets := make([]Handler, 0, len(b.subs))
	for _, sub := range b.subs {
		if sub.topic == "" || sub.topic == env.Topic {
			targets = append(targets, sub.handler)
		}
	}
	b.mu.RUnlock()

	for _, handler := range targets {
		handler(ctx, env)
	}
}

// Subscribers reports the current subscription count.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
