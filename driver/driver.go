// Package driver implements the AI driver selector (spec.md §4.6): a
// registry of capability-tagged factories, selected by a criteria match
// and instantiated on demand.
package driver

import (
	"context"

	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/pkg/metrics"
)

// Options configures a single Query call.
type Options struct {
	Temperature      float64
	MaxTokens        int
	StructuredSchema map[string]any
}

// Response is what a Driver returns from Query.
type Response struct {
	Content           string
	StructuredOutput  map[string]any
}

// Driver is the external AI driver contract. The engine never retries a
// failed Query — that decision belongs to the calling workflow.
type Driver interface {
	Query(ctx context.Context, prompt string, opts Options) (Response, error)
}

// Factory constructs a Driver instance and advertises the capability
// tags it supports (e.g. "structured", "japanese", "reasoning", "fast").
type Factory interface {
	Name() string
	Capabilities() []string
	Create() (Driver, error)
}

// Criteria is passed to Select. Required tags must all be present on a
// candidate factory; Preferred tags are scored by size of intersection.
type Criteria struct {
	Required  []string
	Preferred []string
}

// Registry holds registered driver factories, grounded on the same
// map-plus-order-slice shape the workflow registry uses.
type Registry struct {
	factories map[string]Factory
	order     []string
}

// NewRegistry creates an empty driver factory registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds a factory. Names must be unique.
func (r *Registry) Register(f Factory) error {
	if f == nil {
		return pkgerrors.New(pkgerrors.CodeDuplicateName, "nil driver factory")
	}
	name := f.Name()
	if _, exists := r.factories[name]; exists {
		return pkgerrors.DuplicateName(name)
	}
	r.factories[name] = f
	r.order = append(r.order, name)
	return nil
}

// Select evaluates criteria against every registered factory and returns
// the best match. Ties (equal preferred-tag score) are broken by
// registration order. Fails with NoSuitableDriver when no factory
// carries every required tag.
func (r *Registry) Select(criteria Criteria) (Factory, error) {
	var best Factory
	bestScore := -1

	for _, name := range r.order {
		f := r.factories[name]
		caps := toSet(f.Capabilities())
		if !hasAll(caps, criteria.Required) {
			continue
		}
		score := intersectionSize(caps, criteria.Preferred)
		if score > bestScore {
			best = f
			bestScore = score
		}
	}

	if best == nil {
		metrics.DriverSelections.WithLabelValues("no_suitable_driver").Inc()
		return nil, pkgerrors.NoSuitableDriver(criteria.Required)
	}
	metrics.DriverSelections.WithLabelValues("selected").Inc()
	return best, nil
}

// Count returns the number of registered driver factories.
func (r *Registry) Count() int {
	return len(r.order)
}

// Factories returns every registered factory in registration order, for
// callers that need to copy one registry's entries into another (e.g.
// merging a declarative driver registry file into the engine's registry).
func (r *Registry) Factories() []Factory {
	out := make([]Factory, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.factories[name])
	}
	return out
}

// Create builds a Driver instance from the given factory, wrapping any
// construction failure as a DriverError.
func Create(f Factory) (Driver, error) {
	d, err := f.Create()
	if err != nil {
		return nil, pkgerrors.DriverError(err)
	}
	return d, nil
}

func toSet(tags []string) map[string]struct{} {
	s := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func hasAll(set map[string]struct{}, tags []string) bool {
	for _, t := range tags {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}

func intersectionSize(set map[string]struct{}, tags []string) int {
	n := 0
	for _, t := range tags {
		if _, ok := set[t]; ok {
			n++
		}
	}
	return n
}
