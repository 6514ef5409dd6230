// Package runctx defines the per-execution bundle a workflow executor
// receives (spec.md §4.7): a value-semantics state snapshot, the
// permitted storage facade, a driver factory lookup, the execution's
// recorder, and free-form metadata. The event emitter is defined here
// too, since it travels alongside the context on every executor call.
package runctx

import (
	"github.com/otolab/sebas-chan-sub000/driver"
	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/recorder"
	"github.com/otolab/sebas-chan-sub000/storage"
)

// Emitter appends a new event for the engine to dispatch later. The
// executor's staging implementation buffers these until the execution
// commits; emissions never become visible mid-execution.
type Emitter interface {
	Emit(kind event.Kind, payload map[string]any, priority event.Priority) error
}

// Context is built fresh for each (event, workflow) execution and
// discarded at execution end. State is a snapshot taken at the moment
// the event was dequeued — never a live reference — so an executor
// reading it twice always sees the same value even if another execution
// commits a state change concurrently.
type Context struct {
	State         string
	Storage       storage.Handle
	DriverFactory func(criteria driver.Criteria) (driver.Factory, error)
	Recorder      *recorder.Recorder
	Metadata      map[string]any
}

// SelectDriver resolves a factory via DriverFactory and constructs it,
// wrapping any construction failure as a DriverError (via driver.Create).
func (c *Context) SelectDriver(criteria driver.Criteria) (driver.Driver, error) {
	factory, err := c.DriverFactory(criteria)
	if err != nil {
		return nil, err
	}
	return driver.Create(factory)
}
