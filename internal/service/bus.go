package service

import "sync"

// Event is one legend state change within a session.
type Event struct {
	Session string `json:"session"`
	Action  string `json:"action"` // "group", "layer", "error"
	Name    string `json:"name"`   // group name or layer id
	Checked bool   `json:"checked"`
	Message string `json:"message,omitempty"`
}

// eventBuffer is the per-subscriber backlog. Events beyond it are dropped.
const eventBuffer = 16

// EventBus fans session events out to subscribers. Once closed it accepts
// no subscribers and publishes nothing.
type EventBus struct {
	mu     sync.RWMutex
	subs   map[chan Event]struct{}
	closed bool
}

func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]struct{})}
}

// Publish delivers e to every subscriber with room in its buffer.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel of future events. On a closed bus the channel
// is already closed.
func (b *EventBus) Subscribe() chan Event {
	ch := make(chan Event, eventBuffer)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe closes ch. Unknown channels are ignored.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
}

// Close closes every subscriber channel.
func (b *EventBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
