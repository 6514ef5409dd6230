// Package registry implements the workflow registry (spec.md §4.3): a
// name-keyed map of immutable workflow definitions plus a by-kind index,
// grounded on the teacher's system/core module registry (map + explicit
// order slice + mutex, duplicate names rejected at registration).
package registry

import (
	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"

	"sync"

	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/workflow"
)

// Registry holds registered workflow definitions. The zero value is not
// usable; construct with New. Safe for concurrent use, though spec.md §5
// notes the registry is immutable after start and may be read lock-free
// by callers that only call after that point.
type Registry struct {
	mu    sync.RWMutex
	byKey map[string]workflow.Definition
	order []string
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{byKey: make(map[string]workflow.Definition)}
}

// Register adds a definition. Fails with DuplicateName if a definition
// with the same Name is already registered. Definitions are immutable
// after registration — Register stores a copy of d.
func (r *Registry) Register(d workflow.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Name == "" {
		return pkgerrors.New(pkgerrors.CodeDuplicateName, "workflow name required")
	}
	if _, exists := r.byKey[d.Name]; exists {
		return pkgerrors.DuplicateName(d.Name)
	}

	r.byKey[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Get returns the definition registered under name, if any.
func (r *Registry) Get(name string) (workflow.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byKey[name]
	return d, ok
}

// List returns every registered definition, in registration order.
func (r *Registry) List() []workflow.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]workflow.Definition, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byKey[name])
	}
	return out
}

// ByKind returns every definition whose triggers declare kind, in
// registration order. The resolver applies its own ordering on top of
// this.
func (r *Registry) ByKind(kind event.Kind) []workflow.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []workflow.Definition
	for _, name := range r.order {
		d := r.byKey[name]
		if d.HandlesKind(kind) {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of registered definitions.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
