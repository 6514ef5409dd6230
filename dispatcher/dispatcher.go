// Package dispatcher implements the engine loop (spec.md §4.9): wait for
// an event, dequeue the head of the highest non-empty priority, resolve
// workflows, schedule executions under a max-concurrency cap, and fan out
// processing notifications.
package dispatcher

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/executor"
	"github.com/otolab/sebas-chan-sub000/notify"
	"github.com/otolab/sebas-chan-sub000/pkg/logger"
	"github.com/otolab/sebas-chan-sub000/queue"
	"github.com/otolab/sebas-chan-sub000/resolver"
)

// Dispatcher owns the engine's dispatch loop. Construct with New.
type Dispatcher struct {
	queue    *queue.Queue
	resolver *resolver.Resolver
	executor *executor.Executor
	notify   *notify.Bus
	log      *logger.Logger

	maxConcurrency int
	drainTimeout   time.Duration

	signal chan struct{}

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	sem chan struct{}
}

// New creates a Dispatcher. maxConcurrency <= 0 defaults to the number
// of logical CPUs, matching spec.md §6.4's default. drainTimeout <= 0
// defaults to 30s.
func New(q *queue.Queue, res *resolver.Resolver, exec *executor.Executor, bus *notify.Bus, maxConcurrency int, drainTimeout time.Duration, log *logger.Logger) *Dispatcher {
	if maxConcurrency <= 0 {
		maxConcurrency = runtime.NumCPU()
	}
	if drainTimeout <= 0 {
		drainTimeout = 30 * time.Second
	}
	if log == nil {
		log = logger.NewDefault("dispatcher")
	}
	return &Dispatcher{
		queue:          q,
		resolver:       res,
		executor:       exec,
		notify:         bus,
		log:            log,
		maxConcurrency: maxConcurrency,
		drainTimeout:   drainTimeout,
		signal:         make(chan struct{}, 1),
		sem:            make(chan struct{}, maxConcurrency),
	}
}

// Signal wakes the dispatch loop. Called by the engine's enqueue path
// after a successful Queue.Enqueue, so the loop never busy-waits.
func (d *Dispatcher) Signal() {
	select {
	case d.signal <- struct{}{}:
	default:
	}
}

// Start begins the dispatch loop in a background goroutine. Calling
// Start on an already-running Dispatcher is a no-op.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running = true
	d.mu.Unlock()

	d.wg.Add(1)
	go d.loop(loopCtx)
}

// Stop stops accepting new dispatch cycles and cancels the dispatch
// context, which is also the context every in-flight execution runs under,
// then waits up to drainTimeout for the loop and those executions to
// return. In-flight executions get no grace period before cancellation.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.running = false
	d.mu.Unlock()

	cancel()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(d.drainTimeout):
		d.log.Warn("drain timeout exceeded; in-flight executions were cancelled but may not have returned")
	}
}

func (d *Dispatcher) loop(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.signal:
		}

		for {
			ev, ok := d.queue.Dequeue()
			if !ok {
				break
			}
			if ctx.Err() != nil {
				return
			}
			d.dispatchOne(ctx, ev)
		}
	}
}

func (d *Dispatcher) dispatchOne(ctx context.Context, ev *event.Event) {
	defs := d.resolver.Resolve(ev)
	if len(defs) == 0 {
		return
	}

	d.notify.Publish(notify.KindEventProcessing, map[string]any{"event_id": ev.ID, "kind": string(ev.Kind)})

	// All executions for this event share the snapshot taken at dequeue
	// time, per spec.md §4.9 — not whatever the state happens to be when
	// each goroutine actually gets scheduled.
	snapshot := d.executor.Snapshot()

	for _, def := range defs {
		def := def
		select {
		case d.sem <- struct{}{}:
		case <-ctx.Done():
			return
		}
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			defer func() { <-d.sem }()

			exec := d.executor.Run(ctx, def, ev, snapshot)
			d.notify.Publish(notify.KindEventProcessed, map[string]any{
				"event_id": ev.ID,
				"workflow": def.Name,
				"outcome":  string(exec.Outcome),
			})
		}()
	}
}
