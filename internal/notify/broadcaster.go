package notify

import "sync"

// Event is one broadcast message pushed to live subscribers.
type Event struct {
	Channel string `json:"channel"`
	Event   string `json:"event"`
	Payload any    `json:"payload"`
}

// Broadcaster fans mutation events out to in-process subscribers. Slow
// subscribers are skipped rather than blocking the publisher.
type Broadcaster struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a buffered channel receiving future events. The
// returned cancel func removes the subscription and closes the channel.
func (b *Broadcaster) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Broadcast publishes an event to every subscriber.
func (b *Broadcaster) Broadcast(channel, event string, payload any) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- Event{Channel: channel, Event: event, Payload: payload}:
		default:
		}
	}
	return nil
}
