package pubsub

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcaster_DeliversInPublishOrder(t *testing.T) {
	b := NewBroadcaster[int](8)
	sub := b.Subscribe()
	defer sub.Cancel()

	for i := 1; i <= 5; i++ {
		b.Publish(i)
	}

	for i := 1; i <= 5; i++ {
		select {
		case got := <-sub.Events():
			assert.Equal(t, i, got)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

func TestBroadcaster_MultipleSubscribersEachGetAllEvents(t *testing.T) {
	b := NewBroadcaster[string](8)
	first := b.Subscribe()
	second := b.Subscribe()
	defer first.Cancel()
	defer second.Cancel()

	b.Publish("a")
	b.Publish("b")

	for _, sub := range []*Subscription[string]{first, second} {
		assert.Equal(t, "a", <-sub.Events())
		assert.Equal(t, "b", <-sub.Events())
	}
}

func TestBroadcaster_LateSubscriberSeesNoReplay(t *testing.T) {
	b := NewBroadcaster[int](8)

	b.Publish(1)
	b.Publish(2)

	sub := b.Subscribe()
	defer sub.Cancel()

	select {
	case v := <-sub.Events():
		t.Fatalf("late subscriber received replayed event %d", v)
	case <-time.After(50 * time.Millisecond):
		// Live feed, not a durable log.
	}
}

func TestBroadcaster_SlowSubscriberDoesNotBlockPublisher(t *testing.T) {
	b := NewBroadcaster[int](1)
	sub := b.Subscribe()
	defer sub.Cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Buffer holds one event; the rest are dropped for this subscriber.
		for i := 0; i < 100; i++ {
			b.Publish(i)
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a slow subscriber")
	}
	assert.Equal(t, 0, <-sub.Events())
	assert.NotZero(t, b.Dropped())
}

func TestBroadcaster_CancelDetachesSubscriber(t *testing.T) {
	b := NewBroadcaster[int](8)
	sub := b.Subscribe()
	require.Equal(t, 1, b.SubscriberCount())

	sub.Cancel()
	assert.Equal(t, 0, b.SubscriberCount())

	// Channel is closed; publishing afterwards must not panic.
	_, ok := <-sub.Events()
	assert.False(t, ok)
	b.Publish(42)

	// Cancel is idempotent.
	sub.Cancel()
}

func TestBroadcaster_PublishWithoutSubscribers(t *testing.T) {
	b := NewBroadcaster[int](8)
	b.Publish(1) // must not panic or block
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestBroadcaster_CloseShutsDownSubscriptions(t *testing.T) {
	b := NewBroadcaster[int](8)
	sub := b.Subscribe()

	b.Close()

	_, ok := <-sub.Events()
	assert.False(t, ok)

	// Subscribing after close yields an already-closed channel.
	late := b.Subscribe()
	_, ok = <-late.Events()
	assert.False(t, ok)

	// Publish after close is a no-op.
	b.Publish(7)
}
