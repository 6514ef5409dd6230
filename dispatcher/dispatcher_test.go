package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/otolab/sebas-chan-sub000/driver"
	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/executor"
	"github.com/otolab/sebas-chan-sub000/notify"
	"github.com/otolab/sebas-chan-sub000/queue"
	"github.com/otolab/sebas-chan-sub000/registry"
	"github.com/otolab/sebas-chan-sub000/resolver"
	"github.com/otolab/sebas-chan-sub000/runctx"
	"github.com/otolab/sebas-chan-sub000/state"
	"github.com/otolab/sebas-chan-sub000/storage/memory"
	"github.com/otolab/sebas-chan-sub000/workflow"
)

func noDriver(driver.Criteria) (driver.Factory, error) {
	return nil, fmt.Errorf("no drivers registered")
}

func TestDispatcherRunsRegisteredWorkflowOnMatchingEvent(t *testing.T) {
	q := queue.New(0)
	reg := registry.New()
	st := state.New("## bootstrap\n", nil, nil, nil)
	store := memory.New("## bootstrap\n")
	exec := executor.New(q, st, store, noDriver, 5, 0, nil)
	res := resolver.New(reg, nil)
	bus := notify.New()

	var mu sync.Mutex
	var ran int
	_ = reg.Register(workflow.Definition{
		Name:     "counter",
		Triggers: workflow.Triggers{EventKinds: []event.Kind{event.KindUserRequestReceived}},
		Executor: func(ctx context.Context, ev *event.Event, wctx *runctx.Context, emit runctx.Emitter) (workflow.Result, error) {
			mu.Lock()
			ran++
			mu.Unlock()
			return workflow.Result{Success: true, Output: map[string]any{}}, nil
		},
	})

	d := New(q, res, exec, bus, 1, time.Second, nil)
	d.Start(context.Background())
	defer d.Stop()

	ev, err := event.New(event.KindUserRequestReceived, nil, event.PriorityNormal)
	if err != nil {
		t.Fatalf("event.New: %v", err)
	}
	if err := q.Enqueue(ev); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	d.Signal()

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return ran == 1
	}, 2*time.Second, 10*time.Millisecond, "workflow should run exactly once for the matching event")
}

func TestStopDrainsBeforeReturning(t *testing.T) {
	q := queue.New(0)
	reg := registry.New()
	st := state.New("", nil, nil, nil)
	store := memory.New("")
	exec := executor.New(q, st, store, noDriver, 5, 0, nil)
	res := resolver.New(reg, nil)
	bus := notify.New()

	d := New(q, res, exec, bus, 1, 2*time.Second, nil)
	d.Start(context.Background())
	d.Stop()
	// Calling Stop twice must not panic or hang.
	d.Stop()
}
