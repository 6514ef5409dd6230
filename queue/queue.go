// Package queue implements the engine's priority queue (spec.md §4.2):
// strict priority ordering (high > normal > low) with FIFO-within-priority,
// optionally bounded, non-blocking on both ends.
package queue

import (
	"sync"

	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/pkg/metrics"

	"github.com/otolab/sebas-chan-sub000/event"
)

// Queue is a priority buffer of pending events. The zero value is not
// usable; construct with New. Safe for concurrent use.
type Queue struct {
	mu       sync.Mutex
	high     []*event.Event
	normal   []*event.Event
	low      []*event.Event
	capacity int // 0 means unbounded
}

// New creates a Queue. capacity <= 0 means unbounded, matching spec.md
// §6.4's queue_capacity default.
func New(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{capacity: capacity}
}

// Enqueue appends ev to the tail of its priority's FIFO lane. Fails with a
// BufferFull EngineError when the queue is bounded and at capacity.
func (q *Queue) Enqueue(ev *event.Event) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.capacity > 0 && q.sizeLocked() >= q.capacity {
		metrics.EventsRejected.WithLabelValues(string(ev.Kind)).Inc()
		return pkgerrors.BufferFull(q.capacity)
	}

	switch ev.Priority {
	case event.PriorityHigh:
		q.high = append(q.high, ev)
	case event.PriorityLow:
		q.low = append(q.low, ev)
	default:
		q.normal = append(q.normal, ev)
	}

	metrics.EventsEnqueued.WithLabelValues(string(ev.Kind), ev.Priority.String()).Inc()
	q.reportDepthLocked()
	return nil
}

// Dequeue removes and returns the earliest-enqueued event from the
// highest non-empty priority lane. Returns (nil, false) when the queue is
// empty; Dequeue never blocks (spec.md §4.2) — the dispatcher waits via an
// external signal.
func (q *Queue) Dequeue() (*event.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	lane := q.leadingLaneLocked()
	if lane == nil || len(*lane) == 0 {
		return nil, false
	}
	ev := (*lane)[0]
	*lane = (*lane)[1:]
	q.reportDepthLocked()
	return ev, true
}

// Peek returns the event Dequeue would return next, without removing it.
func (q *Queue) Peek() (*event.Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	lane := q.leadingLaneLocked()
	if lane == nil || len(*lane) == 0 {
		return nil, false
	}
	return (*lane)[0], true
}

// Size returns the total number of events across all priority lanes.
func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.sizeLocked()
}

// Clear empties every priority lane.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.high = nil
	q.normal = nil
	q.low = nil
	q.reportDepthLocked()
}

// Capacity returns the configured capacity (0 means unbounded).
func (q *Queue) Capacity() int {
	return q.capacity
}

func (q *Queue) sizeLocked() int {
	return len(q.high) + len(q.normal) + len(q.low)
}

// leadingLaneLocked returns a pointer to the highest-priority non-empty
// lane, or nil if all lanes are empty. Must be called with q.mu held.
func (q *Queue) leadingLaneLocked() *[]*event.Event {
	switch {
	case len(q.high) > 0:
		return &q.high
	case len(q.normal) > 0:
		return &q.normal
	case len(q.low) > 0:
		return &q.low
	default:
		return nil
	}
}

func (q *Queue) reportDepthLocked() {
	metrics.QueueDepth.WithLabelValues("high").Set(float64(len(q.high)))
	metrics.QueueDepth.WithLabelValues("normal").Set(float64(len(q.normal)))
	metrics.QueueDepth.WithLabelValues("low").Set(float64(len(q.low)))
}
