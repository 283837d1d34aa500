package incident

import "sync"

// EventBus provides pub/sub for analysis events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[string][]chan *Event
}

// NewEventBus creates a new EventBus.
func NewEventBus() *EventBus {
	return &EventBus{
		subs: make(map[string][]chan *Event),
	}
}

// Subscribe creates a channel that receives events for an analysis.
func (b *EventBus) Subscribe(analysisID string) chan *Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan *Event, 64)
	b.subs[analysisID] = append(b.subs[analysisID], ch)
	return ch
}

// Unsubscribe removes a channel from the analysis's subscribers.
func (b *EventBus) Unsubscribe(analysisID string, ch chan *Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs := b.subs[analysisID]
	for i, s := range subs {
		if s == ch {
			b.subs[analysisID] = append(subs[:i], subs[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends an event to all subscribers for an analysis.
func (b *EventBus) Publish(analysisID string, event *Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subs[analysisID] {
		select {
		case ch <- event:
		default:
			// Drop event if subscriber is too slow.
		}
	}
}
