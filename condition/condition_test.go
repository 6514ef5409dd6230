package condition

import (
	"testing"

	"github.com/otolab/sebas-chan-sub000/event"
)

func mustEvent(t *testing.T, payload map[string]any) *event.Event {
	t.Helper()
	ev, err := event.New(event.KindIssueUpdated, payload, event.PriorityNormal)
	if err != nil {
		t.Fatalf("event.New: %v", err)
	}
	return ev
}

func TestCompileEvaluatesPayloadField(t *testing.T) {
	pred, err := Compile("payload.priority > 50")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	if pred(mustEvent(t, map[string]any{"priority": 75})) != true {
		t.Fatal("expected priority 75 to satisfy condition")
	}
	if pred(mustEvent(t, map[string]any{"priority": 30})) != false {
		t.Fatal("expected priority 30 to not satisfy condition")
	}
}

func TestCompileRejectsInvalidSyntax(t *testing.T) {
	if _, err := Compile("(("); err == nil {
		t.Fatal("expected compile error for invalid syntax")
	}
}

func TestCompiledPredicatePanicsOnMissingField(t *testing.T) {
	pred, err := Compile("payload.nested.deep > 1")
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic reading through a nil field")
		}
	}()
	pred(mustEvent(t, map[string]any{}))
}

func TestFieldExtractsNestedValue(t *testing.T) {
	result, err := Field(map[string]any{"issue": map[string]any{"priority": 90}}, "issue.priority")
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	if result.Int() != 90 {
		t.Fatalf("expected 90, got %d", result.Int())
	}
}
