// Package resolver implements the trigger resolver (spec.md §4.4): given
// one event, it returns the ordered list of workflow definitions that
// should run. The resolver is pure and synchronous — no I/O, no side
// effects beyond the optional warn it records when a condition throws.
package resolver

import (
	"sort"

	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/recorder"
	"github.com/otolab/sebas-chan-sub000/registry"
	"github.com/otolab/sebas-chan-sub000/workflow"
)

// Resolver resolves events against a workflow registry.
type Resolver struct {
	registry       *registry.Registry
	systemRecorder *recorder.Recorder
}

// New creates a Resolver. systemRecorder may be nil, in which case a
// thrown condition is silently treated as false — callers that want the
// warn record spec.md §4.4 describes should pass a shared
// engine-lifetime recorder.
func New(reg *registry.Registry, systemRecorder *recorder.Recorder) *Resolver {
	return &Resolver{registry: reg, systemRecorder: systemRecorder}
}

// Resolve returns the definitions eligible to run against ev, ordered by
// descending priority_hint with registration-order ties.
func (r *Resolver) Resolve(ev *event.Event) []workflow.Definition {
	candidates := r.registry.ByKind(ev.Kind)

	eligible := make([]indexed, 0, len(candidates))
	for i, d := range candidates {
		if r.satisfies(d, ev) {
			eligible = append(eligible, indexed{def: d, order: i})
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		return eligible[i].def.Triggers.PriorityHint > eligible[j].def.Triggers.PriorityHint
	})

	out := make([]workflow.Definition, len(eligible))
	for i, e := range eligible {
		out[i] = e.def
	}
	return out
}

type indexed struct {
	def   workflow.Definition
	order int
}

// satisfies evaluates d's condition against ev, treating both a false
// return and a panic as "not eligible". A panic is recorded as a warn
// against the system recorder, not the (nonexistent, at resolve time)
// per-execution recorder.
func (r *Resolver) satisfies(d workflow.Definition, ev *event.Event) (ok bool) {
	if d.Triggers.Condition == nil {
		return true
	}

	defer func() {
		if rec := recover(); rec != nil {
			ok = false
			if r.systemRecorder != nil {
				r.systemRecorder.Warn(workflowConditionPanicMessage(d.Name, rec))
			}
		}
	}()

	return d.Triggers.Condition(ev)
}

func workflowConditionPanicMessage(name string, recovered any) string {
	return "condition for workflow " + name + " panicked: " + errString(recovered)
}

func errString(v any) string {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if s, ok := v.(string); ok {
		return s
	}
	return "non-error panic value"
}
