package event

import "testing"

func TestNewRejectsUnknownKind(t *testing.T) {
	_, err := New(Kind("not-a-real-kind"), nil, PriorityNormal)
	if err == nil {
		t.Fatal("expected ErrBadKind, got nil")
	}
	var badKind *ErrBadKind
	if _, ok := err.(*ErrBadKind); !ok {
		t.Fatalf("expected *ErrBadKind, got %T", err)
	}
	_ = badKind
}

func TestNewAssignsUniqueIDs(t *testing.T) {
	a, err := New(KindUserRequestReceived, map[string]any{"content": "hi"}, PriorityNormal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := New(KindUserRequestReceived, map[string]any{"content": "hi"}, PriorityNormal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == "" || b.ID == "" {
		t.Fatal("expected non-empty ids")
	}
	if a.ID == b.ID {
		t.Fatalf("expected unique ids, got %s twice", a.ID)
	}
}

func TestEnqueuedAtMonotonicNonDecreasing(t *testing.T) {
	a, _ := New(KindDataArrived, nil, PriorityNormal)
	b, _ := New(KindDataArrived, nil, PriorityNormal)
	if b.EnqueuedAt.Before(a.EnqueuedAt) {
		t.Fatalf("expected non-decreasing timestamps, got %v then %v", a.EnqueuedAt, b.EnqueuedAt)
	}
}

func TestWithAttemptDoesNotMutateOriginal(t *testing.T) {
	a, _ := New(KindDataArrived, nil, PriorityNormal)
	b := a.WithAttempt(3)
	if a.Attempt != 0 {
		t.Fatalf("expected original attempt 0, got %d", a.Attempt)
	}
	if b.Attempt != 3 {
		t.Fatalf("expected copy attempt 3, got %d", b.Attempt)
	}
}

func TestKindValid(t *testing.T) {
	if !KindIssueCreated.Valid() {
		t.Fatal("expected issue-created to be valid")
	}
	if Kind("bogus").Valid() {
		t.Fatal("expected bogus kind to be invalid")
	}
}
