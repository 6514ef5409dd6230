// Package notify implements a non-blocking broadcast bus the dispatcher
// uses to fan out event:processing/event:processed/event:queued and
// state:updated/state:appended notifications to observers, grounded on
// the nugget-thane-ai-agent events.Bus pattern: buffered per-subscriber
// channels, slow subscribers drop events rather than block publishers.
package notify

import (
	"sync"
	"time"
)

// Kind names the notification being published.
type Kind string

const (
	KindEventQueued     Kind = "event:queued"
	KindEventProcessing Kind = "event:processing"
	KindEventProcessed  Kind = "event:processed"
	KindStateUpdated    Kind = "state:updated"
	KindStateAppended   Kind = "state:appended"
)

// Notification is one broadcast message.
type Notification struct {
	Kind      Kind
	Timestamp time.Time
	Data      map[string]any
}

// Bus is a non-blocking broadcast bus. Publish, NotifyStateChanged and
// SubscriberCount are no-ops on a nil receiver, so callers that only
// publish don't need guard checks; Subscribe and Unsubscribe are not
// nil-safe and panic on a nil *Bus.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Notification]struct{}
}

// New creates an empty Bus.
func New() *Bus {
	return &Bus{subs: make(map[chan Notification]struct{})}
}

// Publish sends n to every subscriber. Non-blocking: a subscriber whose
// channel is full misses the notification instead of stalling the
// dispatcher.
func (b *Bus) Publish(kind Kind, data map[string]any) {
	if b == nil {
		return
	}
	n := Notification{Kind: kind, Timestamp: time.Now().UTC(), Data: data}
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

// Subscribe returns a channel that receives published notifications.
// Callers must eventually call Unsubscribe to release it.
func (b *Bus) Subscribe(bufSize int) <-chan Notification {
	ch := make(chan Notification, bufSize)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes and closes a subscription. Safe to call twice.
func (b *Bus) Unsubscribe(ch <-chan Notification) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for sendCh := range b.subs {
		if (<-chan Notification)(sendCh) == ch {
			delete(b.subs, sendCh)
			close(sendCh)
			return
		}
	}
}

// NotifyStateChanged implements state.Notifier, letting a *Bus be passed
// directly as a state.Manager's notifier.
func (b *Bus) NotifyStateChanged(kind string) {
	b.Publish(Kind(kind), nil)
}

// SubscriberCount reports how many subscribers are currently attached.
func (b *Bus) SubscriberCount() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
