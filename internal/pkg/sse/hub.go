package sse

import (
	"sync"
	"sync/atomic"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	Topic string
	Event string
	Seq   int64
	Data  interface{}
}

// Subscriber receives the events published on one topic.
type Subscriber struct {
	ch      chan Event
	dropped atomic.Bool
}

// Events returns the receive side of the subscriber buffer. It is closed by
// the cleanup function returned from Subscribe.
func (s *Subscriber) Events() <-chan Event {
	return s.ch
}

// TakeDropped reports whether an event was dropped since the last call.
func (s *Subscriber) TakeDropped() bool {
	return s.dropped.Swap(false)
}

// Hub manages SSE subscribers and event broadcasting
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscriber]struct{}
	bufferSize  int
}

// NewHub creates a new SSE Hub instance
func NewHub(bufferSize int) *Hub {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &Hub{
		subscribers: make(map[string]map[*Subscriber]struct{}),
		bufferSize:  bufferSize,
	}
}

// Subscribe registers a new subscriber for a topic and returns it with an
// idempotent cleanup function
func (h *Hub) Subscribe(topic string) (*Subscriber, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub := &Subscriber{ch: make(chan Event, h.bufferSize)}

	if h.subscribers[topic] == nil {
		h.subscribers[topic] = make(map[*Subscriber]struct{})
	}
	h.subscribers[topic][sub] = struct{}{}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			delete(h.subscribers[topic], sub)
			close(sub.ch)
			if len(h.subscribers[topic]) == 0 {
				delete(h.subscribers, topic)
			}
		})
	}

	return sub, cleanup
}

// Publish sends an event to all subscribers of a topic. A subscriber whose
// buffer is full misses the event and is flagged as dropped.
func (h *Hub) Publish(topic string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	event.Topic = topic
	if subs, ok := h.subscribers[topic]; ok {
		for sub := range subs {
			select {
			case sub.ch <- event:
			default:
				sub.dropped.Store(true)
			}
		}
	}
}

// SubscriberCount returns the number of active subscribers for a topic
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[topic]; ok {
		return len(subs)
	}
	return 0
}

// TotalSubscribers returns the total number of active subscribers across all topics
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.subscribers {
		total += len(subs)
	}
	return total
}
