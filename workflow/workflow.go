// Package workflow defines the workflow data model (spec.md §3 and §4.3):
// a Definition names the event kinds it reacts to, an optional condition
// predicate, and the executor function the engine invokes.
package workflow

import (
	"context"

	"github.com/otolab/sebas-chan-sub000/event"
	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/runctx"
)

// Triggers declares when a Definition is eligible to run.
type Triggers struct {
	EventKinds []event.Kind
	// Condition, if set, is evaluated against the triggering event. A nil
	// Condition means "always eligible". Condition must not panic in
	// well-behaved workflows, but the resolver treats a panic the same as
	// a false return (see resolver.Resolve).
	Condition func(*event.Event) bool
	// PriorityHint breaks ties among workflows triggered by the same
	// event; higher runs first. Default zero.
	PriorityHint int
}

// ContextUpdate carries the portions of Context a workflow wants to
// change. A nil State means "leave the state document untouched".
type ContextUpdate struct {
	State *string
}

// Result is what an executor function returns. Success and Error are
// mutually meaningful: a failed result should set Error; context updates
// on a failed result are ignored by the executor.
type Result struct {
	Success       bool
	ContextUpdate *ContextUpdate
	Output        map[string]any
	Error         *pkgerrors.EngineError
}

// Func is the signature every workflow executor implements. It is the
// only mutator in the system: it reads ev and ctx and may emit new
// events through emit, but never touches ctx.State in place.
type Func func(ctx context.Context, ev *event.Event, wctx *runctx.Context, emit runctx.Emitter) (Result, error)

// Definition is an immutable, registered workflow, built as a struct
// literal; the zero value is not meaningful.
type Definition struct {
	Name        string
	Description string
	Triggers    Triggers
	Executor    Func
}

// HandlesKind reports whether d declares ev's kind among its triggers.
func (d Definition) HandlesKind(kind event.Kind) bool {
	for _, k := range d.Triggers.EventKinds {
		if k == kind {
			return true
		}
	}
	return false
}
