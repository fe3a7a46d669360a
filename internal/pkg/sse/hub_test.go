package sse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_PublishReachesEverySubscriberOfTopic(t *testing.T) {
	hub := NewHub(4)

	a, cleanupA := hub.Subscribe("emp-1")
	defer cleanupA()
	b, cleanupB := hub.Subscribe("emp-1")
	defer cleanupB()
	other, cleanupOther := hub.Subscribe("emp-2")
	defer cleanupOther()

	hub.Publish("emp-1", Event{Event: "status", Seq: 7})

	for _, sub := range []*Subscriber{a, b} {
		select {
		case ev := <-sub.Events():
			assert.Equal(t, "emp-1", ev.Topic)
			assert.Equal(t, int64(7), ev.Seq)
		default:
			t.Fatal("expected an event")
		}
	}

	select {
	case <-other.Events():
		t.Fatal("unexpected event on other topic")
	default:
	}

	assert.Equal(t, 2, hub.SubscriberCount("emp-1"))
	assert.Equal(t, 3, hub.TotalSubscribers())
}

func TestHub_FullBufferFlagsDropped(t *testing.T) {
	hub := NewHub(1)

	sub, cleanup := hub.Subscribe("emp-1")
	defer cleanup()

	hub.Publish("emp-1", Event{Seq: 1})
	hub.Publish("emp-1", Event{Seq: 2})

	assert.True(t, sub.TakeDropped())
	assert.False(t, sub.TakeDropped())

	ev := <-sub.Events()
	assert.Equal(t, int64(1), ev.Seq)
}

func TestHub_CleanupIsIdempotent(t *testing.T) {
	hub := NewHub(1)

	sub, cleanup := hub.Subscribe("emp-1")
	cleanup()
	require.NotPanics(t, cleanup)

	_, ok := <-sub.Events()
	assert.False(t, ok)
	assert.Equal(t, 0, hub.SubscriberCount("emp-1"))

	// Publishing to a topic without subscribers is a no-op
	hub.Publish("emp-1", Event{Seq: 1})
}
