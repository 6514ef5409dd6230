package queue

import (
	"testing"

	"github.com/otolab/sebas-chan-sub000/event"
)

func mustEvent(t *testing.T, kind event.Kind, priority event.Priority) *event.Event {
	t.Helper()
	ev, err := event.New(kind, nil, priority)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return ev
}

func TestFIFOWithinPriority(t *testing.T) {
	q := New(0)
	a := mustEvent(t, event.KindDataArrived, event.PriorityNormal)
	b := mustEvent(t, event.KindDataArrived, event.PriorityNormal)

	if err := q.Enqueue(a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if err := q.Enqueue(b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}

	first, ok := q.Dequeue()
	if !ok || first.ID != a.ID {
		t.Fatalf("expected a first, got %#v (ok=%v)", first, ok)
	}
	second, ok := q.Dequeue()
	if !ok || second.ID != b.ID {
		t.Fatalf("expected b second, got %#v (ok=%v)", second, ok)
	}
}

func TestStrictPriorityOrdering(t *testing.T) {
	q := New(0)
	low := mustEvent(t, event.KindDataArrived, event.PriorityLow)
	normal := mustEvent(t, event.KindDataArrived, event.PriorityNormal)
	high := mustEvent(t, event.KindDataArrived, event.PriorityHigh)

	for _, ev := range []*event.Event{low, normal, high} {
		if err := q.Enqueue(ev); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	first, _ := q.Dequeue()
	if first.ID != high.ID {
		t.Fatalf("expected high priority first, got %s", first.Priority)
	}
	second, _ := q.Dequeue()
	if second.ID != normal.ID {
		t.Fatalf("expected normal priority second, got %s", second.Priority)
	}
	third, _ := q.Dequeue()
	if third.ID != low.ID {
		t.Fatalf("expected low priority third, got %s", third.Priority)
	}
}

func TestDequeueEmptyReturnsFalse(t *testing.T) {
	q := New(0)
	if _, ok := q.Dequeue(); ok {
		t.Fatal("expected empty queue to return ok=false")
	}
}

func TestBoundedQueueRejectsAtCapacity(t *testing.T) {
	q := New(2)
	a := mustEvent(t, event.KindDataArrived, event.PriorityNormal)
	b := mustEvent(t, event.KindDataArrived, event.PriorityNormal)
	c := mustEvent(t, event.KindDataArrived, event.PriorityNormal)

	if err := q.Enqueue(a); err != nil {
		t.Fatalf("enqueue a: %v", err)
	}
	if err := q.Enqueue(b); err != nil {
		t.Fatalf("enqueue b: %v", err)
	}
	if err := q.Enqueue(c); err == nil {
		t.Fatal("expected BufferFull on the 3rd enqueue of a capacity-2 queue")
	}
}

func TestClearEmptiesAllLanes(t *testing.T) {
	q := New(0)
	_ = q.Enqueue(mustEvent(t, event.KindDataArrived, event.PriorityHigh))
	_ = q.Enqueue(mustEvent(t, event.KindDataArrived, event.PriorityLow))
	q.Clear()
	if q.Size() != 0 {
		t.Fatalf("expected empty queue after Clear, got size %d", q.Size())
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := New(0)
	ev := mustEvent(t, event.KindDataArrived, event.PriorityNormal)
	_ = q.Enqueue(ev)

	peeked, ok := q.Peek()
	if !ok || peeked.ID != ev.ID {
		t.Fatal("expected peek to return the enqueued event")
	}
	if q.Size() != 1 {
		t.Fatalf("expected size to remain 1 after peek, got %d", q.Size())
	}
}
