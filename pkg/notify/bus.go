package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBufferSize is the channel capacity of a Bus subscriber.
const DefaultBufferSize = 100

// Subscriber is a channel that receives notifications published on a Bus.
type Subscriber chan Notification

// Bus is an in-process pub/sub Sink. Slow subscribers lose notifications
// instead of blocking the publisher.
type Bus struct {
	mu      sync.RWMutex
	subs    []Subscriber
	dropped atomic.Int64
}

// NewBus creates an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers a subscriber. The returned function unsubscribes and
// closes the channel.
func (b *Bus) Subscribe() (Subscriber, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, DefaultBufferSize)
	b.subs = append(b.subs, sub)
	return sub, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, existing := range b.subs {
			if existing == sub {
				b.subs = append(b.subs[:i], b.subs[i+1:]...)
				close(sub)
				return
			}
		}
	}
}

// Notify publishes n to every subscriber without blocking.
func (b *Bus) Notify(_ context.Context, n Notification) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		select {
		case sub <- n:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber was full.
func (b *Bus) Dropped() int64 {
	return b.dropped.Load()
}

// Subscribers returns the number of active subscribers.
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
