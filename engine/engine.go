// Package engine implements the top-level lifecycle (spec.md §4.11):
// uninitialized → initializing → ready → running → stopping → stopped,
// wiring together the queue, registry, resolver, driver selector,
// executor, dispatcher, and state manager built by the other packages.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/otolab/sebas-chan-sub000/dispatcher"
	"github.com/otolab/sebas-chan-sub000/driver"
	"github.com/otolab/sebas-chan-sub000/event"
	pkgconfig "github.com/otolab/sebas-chan-sub000/pkg/config"
	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/pkg/logger"
	"github.com/otolab/sebas-chan-sub000/notify"
	"github.com/otolab/sebas-chan-sub000/queue"
	"github.com/otolab/sebas-chan-sub000/recorder"
	"github.com/otolab/sebas-chan-sub000/registry"
	"github.com/otolab/sebas-chan-sub000/resolver"
	"github.com/otolab/sebas-chan-sub000/state"
	"github.com/otolab/sebas-chan-sub000/storage"
	"github.com/otolab/sebas-chan-sub000/workflow"

	executorpkg "github.com/otolab/sebas-chan-sub000/executor"
)

// State names a point in the engine's lifecycle.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateInitializing  State = "initializing"
	StateReady         State = "ready"
	StateRunning       State = "running"
	StateStopping      State = "stopping"
	StateStopped       State = "stopped"
)

// Health is the synchronous snapshot spec.md §6.1 names.
type Health struct {
	Ready        bool   `json:"ready"`
	EngineState  State  `json:"engine_state"`
	StorageState string `json:"storage_state"`
	DriverCount  int    `json:"driver_count"`
	QueueSize    int    `json:"queue_size"`
	LastError    string `json:"last_error,omitempty"`
}

// RegisterDefaultWorkflows is supplied by callers of Initialize to seed
// the workflow registry. Kept as a function value rather than a fixed
// list so embedders decide what "default workflows" means for them.
type RegisterDefaultWorkflows func(*registry.Registry) error

// Engine wires every component package into one lifecycle-managed unit.
// Construct with New, then Initialize, Start, Stop in that order.
type Engine struct {
	mu        sync.RWMutex
	state     State
	lastError string

	cfg     pkgconfig.Config
	storage storage.Handle
	log     *logger.Logger

	workflowRegistry *registry.Registry
	driverRegistry   *driver.Registry
	queue            *queue.Queue
	stateManager     *state.Manager
	resolver         *resolver.Resolver
	executor         *executorpkg.Executor
	dispatcher       *dispatcher.Dispatcher
	notify           *notify.Bus
	systemRecorder   *recorder.Recorder
}

// New creates an Engine in state uninitialized. store must be non-nil;
// registerWorkflows and registerDrivers populate the registries during
// Initialize.
func New(cfg pkgconfig.Config, store storage.Handle, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output, FilePrefix: cfg.Logging.FilePrefix})
	}
	return &Engine{
		state:   StateUninitialized,
		cfg:     cfg,
		storage: store,
		log:     log,
	}
}

// Initialize connects storage, loads bootstrap state, registers default
// workflows and driver factories, and builds the dispatch pipeline. On
// failure the engine remains in state uninitialized with LastError set.
func (e *Engine) Initialize(ctx context.Context, registerWorkflows RegisterDefaultWorkflows, registerDrivers func(*driver.Registry) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUninitialized {
		return pkgerrors.NotRunning(string(e.state))
	}
	e.state = StateInitializing

	if !e.storage.Ready(ctx) {
		return e.failInitLocked(fmt.Errorf("storage backend not ready"))
	}

	bootstrap, err := e.storage.GetState(ctx)
	if err != nil || bootstrap == "" {
		bootstrap = e.cfg.StateBootstrap
	}

	e.workflowRegistry = registry.New()
	if registerWorkflows != nil {
		if err := registerWorkflows(e.workflowRegistry); err != nil {
			return e.failInitLocked(fmt.Errorf("register default workflows: %w", err))
		}
	}

	e.driverRegistry = driver.NewRegistry()
	if registerDrivers != nil {
		if err := registerDrivers(e.driverRegistry); err != nil {
			return e.failInitLocked(fmt.Errorf("register driver factories: %w", err))
		}
	}

	e.systemRecorder = recorder.New()
	e.notify = notify.New()
	e.queue = queue.New(e.cfg.QueueCapacity)
	e.stateManager = state.New(bootstrap, e.storage, e.notify, e.log)
	e.resolver = resolver.New(e.workflowRegistry, e.systemRecorder)
	e.executor = executorpkg.New(e.queue, e.stateManager, e.storage, e.selectDriver, e.cfg.MaxEmissionDepth, e.cfg.DefaultWorkflowTimeout, e.log)
	e.dispatcher = dispatcher.New(e.queue, e.resolver, e.executor, e.notify, e.cfg.MaxConcurrency, e.cfg.DrainTimeout, e.log)

	e.state = StateReady
	e.lastError = ""
	return nil
}

func (e *Engine) failInitLocked(err error) error {
	e.state = StateUninitialized
	e.lastError = err.Error()
	return err
}

func (e *Engine) selectDriver(criteria driver.Criteria) (driver.Factory, error) {
	return e.driverRegistry.Select(criteria)
}

// Start begins the dispatch loop. Fails with NotRunning if the engine is
// not in state ready.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateReady {
		return pkgerrors.NotRunning(string(e.state))
	}

	e.dispatcher.Start(ctx)
	e.state = StateRunning
	return nil
}

// Stop stops the dispatcher and waits for its drain (see Dispatcher.Stop).
// It does not close the storage handle; that stays with its owner. Safe to
// call from any state; a no-op if the engine was never started.
func (e *Engine) Stop() {
	e.mu.Lock()
	if e.state != StateRunning {
		e.mu.Unlock()
		return
	}
	e.state = StateStopping
	e.mu.Unlock()

	e.dispatcher.Stop()

	e.mu.Lock()
	e.state = StateStopped
	e.mu.Unlock()
}

// EnqueueEvent is the producer API (spec.md §6.1): enqueue_event(kind,
// payload, priority?) -> event_id. priority defaults to normal when the
// caller passes PriorityNormal explicitly, matching the zero value.
func (e *Engine) EnqueueEvent(kind event.Kind, payload map[string]any, priority event.Priority) (string, error) {
	e.mu.RLock()
	running := e.state == StateRunning
	e.mu.RUnlock()

	if !running {
		return "", pkgerrors.NotRunning(string(e.currentState()))
	}

	ev, err := event.New(kind, payload, priority)
	if err != nil {
		return "", err
	}
	if err := e.queue.Enqueue(ev); err != nil {
		return "", err
	}
	e.notify.Publish(notify.KindEventQueued, map[string]any{"event_id": ev.ID, "kind": string(ev.Kind)})
	e.dispatcher.Signal()
	return ev.ID, nil
}

func (e *Engine) currentState() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// RegisterWorkflow exposes the workflow registry for callers that want
// to register workflows after Initialize but before Start (e.g. plugins
// loaded from configuration).
func (e *Engine) RegisterWorkflow(d workflow.Definition) error {
	e.mu.RLock()
	reg := e.workflowRegistry
	e.mu.RUnlock()
	if reg == nil {
		return pkgerrors.NotRunning(string(e.currentState()))
	}
	return reg.Register(d)
}

// State returns the engine's current lifecycle state.
func (e *Engine) State() State {
	return e.currentState()
}

// Health returns a synchronous snapshot of engine readiness. Readiness
// is true iff running, storage reports ready, and the driver registry
// has at least one factory.
func (e *Engine) Health(ctx context.Context) Health {
	e.mu.RLock()
	defer e.mu.RUnlock()

	h := Health{EngineState: e.state, LastError: e.lastError}
	if e.storage != nil {
		if e.storage.Ready(ctx) {
			h.StorageState = "ready"
		} else {
			h.StorageState = "unready"
		}
	}
	if e.queue != nil {
		h.QueueSize = e.queue.Size()
	}
	driverCount := 0
	if e.driverRegistry != nil {
		driverCount = e.driverRegistry.Count()
	}
	h.DriverCount = driverCount
	h.Ready = e.state == StateRunning && h.StorageState == "ready" && driverCount > 0
	return h
}

