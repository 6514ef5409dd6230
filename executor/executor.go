// Package executor implements the executor component (spec.md §4.8):
// runs one (event, workflow) pair to completion, handling staged
// emissions, state commit/rollback, and recorder persistence.
package executor

import (
	"time"

	"github.com/otolab/sebas-chan-sub000/driver"
	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/pkg/logger"
	"github.com/otolab/sebas-chan-sub000/queue"
	"github.com/otolab/sebas-chan-sub000/recorder"
	"github.com/otolab/sebas-chan-sub000/state"
	"github.com/otolab/sebas-chan-sub000/storage"
	"github.com/otolab/sebas-chan-sub000/workflow"
)

// Outcome classifies how an execution ended.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeTimeout Outcome = "timeout"
	OutcomePanic   Outcome = "panic"
)

// Execution is the record of one finished (event, workflow) run, handed
// back to the dispatcher for logging and notification.
type Execution struct {
	ID        string
	Workflow  string
	Event     *event.Event
	Outcome   Outcome
	Result    workflow.Result
	Err       error
	StartedAt time.Time
	EndedAt   time.Time
	Records   []recorder.Record
}

// Executor runs workflow definitions against events. Construct with New.
type Executor struct {
	Queue          *queue.Queue
	State          *state.Manager
	Storage        storage.Handle
	SelectDriver   func(driver.Criteria) (driver.Factory, error)
	MaxEmitDepth   int
	defaultTimeout time.Duration
	log            *logger.Logger
}

// Snapshot returns the state document as it stands right now. The
// dispatcher calls this once per dequeued event, before fanning out its
// resolved executions, so every execution for that event starts from the
// same snapshot regardless of when its goroutine actually runs.
func (x *Executor) Snapshot() string {
	return x.State.Get()
}

// New creates an Executor. maxEmitDepth <= 0 disables the emission-depth
// guard (not recommended; spec.md's default is 5). defaultTimeout <= 0
// means workflows run with no soft timeout, matching
// default_workflow_timeout's "none" default.
func New(q *queue.Queue, st *state.Manager, store storage.Handle, selectDriver func(driver.Criteria) (driver.Factory, error), maxEmitDepth int, defaultTimeout time.Duration, log *logger.Logger) *Executor {
	if log == nil {
		log = logger.NewDefault("executor")
	}
	return &Executor{
		Queue:          q,
		State:          st,
		Storage:        store,
		SelectDriver:   selectDriver,
		MaxEmitDepth:   maxEmitDepth,
		defaultTimeout: defaultTimeout,
		log:            log,
	}
}
