// Package pubsub provides a small multi-subscriber broadcast primitive used
// to fan decoded domain events out to an arbitrary number of consumers.
package pubsub

import (
	"sync"

	"github.com/google/uuid"
)

// Subscription is one consumer's handle on a Broadcaster channel. Events are
// delivered in publish order; a subscription opened after events have fired
// does not see them.
type Subscription[T any] struct {
	id     uuid.UUID
	ch     chan T
	parent *Broadcaster[T]
	once   sync.Once
}

// Events returns the channel events are delivered on. The channel is closed
// when the subscription is cancelled or the broadcaster shuts down.
func (s *Subscription[T]) Events() <-chan T {
	return s.ch
}

// Cancel detaches the subscription and closes its channel. Safe to call more
// than once; it never blocks a publisher.
func (s *Subscription[T]) Cancel() {
	s.once.Do(func() {
		s.parent.remove(s.id)
		close(s.ch)
	})
}

// Broadcaster multicasts values to zero or more subscribers. Publish order is
// preserved per subscriber as long as publishers are serialized, which the
// connection manager guarantees. Slow subscribers do not block publishers:
// when a subscriber's buffer is full the value is dropped for that subscriber.
type Broadcaster[T any] struct {
	mu      sync.Mutex
	subs    map[uuid.UUID]*Subscription[T]
	buffer  int
	dropped uint64
	closed  bool
}

// NewBroadcaster creates a Broadcaster whose subscribers each get a buffered
// channel of the given size.
func NewBroadcaster[T any](buffer int) *Broadcaster[T] {
	if buffer <= 0 {
		buffer = 16
	}
	return &Broadcaster[T]{
		subs:   make(map[uuid.UUID]*Subscription[T]),
		buffer: buffer,
	}
}

// Subscribe registers a new consumer. Subscribing on a closed broadcaster
// returns a subscription whose channel is already closed.
func (b *Broadcaster[T]) Subscribe() *Subscription[T] {
	sub := &Subscription[T]{
		id:     uuid.New(),
		ch:     make(chan T, b.buffer),
		parent: b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		sub.once.Do(func() { close(sub.ch) })
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Publish delivers v to every current subscriber without blocking.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, sub := range b.subs {
		select {
		case sub.ch <- v:
		default:
			b.dropped++
		}
	}
}

// SubscriberCount reports the number of attached subscriptions.
func (b *Broadcaster[T]) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Dropped reports how many deliveries were skipped because a subscriber's
// buffer was full.
func (b *Broadcaster[T]) Dropped() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped
}

// Close detaches and closes every subscription. Publish becomes a no-op.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := b.subs
	b.subs = make(map[uuid.UUID]*Subscription[T])
	b.mu.Unlock()

	for _, sub := range subs {
		sub.once.Do(func() { close(sub.ch) })
	}
}

func (b *Broadcaster[T]) remove(id uuid.UUID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}
