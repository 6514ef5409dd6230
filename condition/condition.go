// Package condition compiles declarative trigger conditions — small
// JavaScript expressions evaluated against an event's payload — into
// workflow.Triggers.Condition predicates. This lets a driver_registry_path
// style configuration file describe "priority > 50" instead of requiring a
// Go closure, mirroring how the teacher's system/tee script engine runs
// untrusted expressions through goja for isolation.
package condition

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"
	"github.com/tidwall/gjson"

	"github.com/otolab/sebas-chan-sub000/event"
)

// Compile turns a JavaScript boolean expression into a predicate
// suitable for workflow.Triggers.Condition. The expression sees a single
// global, `payload`, holding the event's payload as a plain object, and
// `event`, holding {kind, priority, attempt}. A goja runtime is created
// fresh per call to keep evaluations isolated from each other, matching
// the teacher's per-execution goja.New() pattern.
func Compile(expression string) (func(*event.Event) bool, error) {
	if _, err := goja.Compile("condition", wrapExpression(expression), true); err != nil {
		return nil, fmt.Errorf("compile condition %q: %w", expression, err)
	}

	var mu sync.Mutex
	return func(ev *event.Event) bool {
		mu.Lock()
		defer mu.Unlock()

		vm := goja.New()
		_ = vm.Set("payload", ev.Payload)
		_ = vm.Set("event", map[string]any{
			"kind":     string(ev.Kind),
			"priority": ev.Priority.String(),
			"attempt":  ev.Attempt,
		})

		result, err := vm.RunString(wrapExpression(expression))
		if err != nil {
			panic(fmt.Errorf("condition %q threw: %w", expression, err))
		}
		return result.ToBoolean()
	}, nil
}

func wrapExpression(expression string) string {
	return "(function(){ return (" + expression + "); })()"
}

// Field extracts a single field from an event's payload using a gjson
// path, for condition logic that needs more than top-level key access
// (e.g. nested issue.fields.priority). Payload is marshaled to JSON once
// per call; callers evaluating many paths against the same event should
// marshal once and call gjson.GetBytes directly instead.
func Field(payload map[string]any, path string) (gjson.Result, error) {
	data, err := marshalPayload(payload)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(data, path), nil
}
