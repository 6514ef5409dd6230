package executor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/otolab/sebas-chan-sub000/event"
	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/pkg/metrics"
	"github.com/otolab/sebas-chan-sub000/recorder"
	"github.com/otolab/sebas-chan-sub000/runctx"
	"github.com/otolab/sebas-chan-sub000/storage"
	"github.com/otolab/sebas-chan-sub000/workflow"
)

// Run executes def against ev to completion: prepare, invoke, classify,
// then commit or rollback. Run itself never fails — every workflow
// outcome (success, returned failure, thrown panic, timeout) is captured
// in the returned Execution.
func (x *Executor) Run(ctx context.Context, def workflow.Definition, ev *event.Event, snapshot string) Execution {
	exec := Execution{
		ID:        generateExecutionID(),
		Workflow:  def.Name,
		Event:     ev,
		StartedAt: time.Now().UTC(),
	}

	// 1. Prepare.
	rec := recorder.New()
	rec.Input(ev.Payload)
	staging := newStagingEmitter(ev.Attempt, x.MaxEmitDepth)
	wctx := &runctx.Context{
		State:         snapshot,
		Storage:       x.Storage,
		DriverFactory: x.SelectDriver,
		Recorder:      rec,
		Metadata:      map[string]any{"execution_id": exec.ID},
	}

	if def.Executor != nil && x.DefaultTimeoutFor(def) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, x.DefaultTimeoutFor(def))
		defer cancel()
	}

	// 2. Invoke, with panic recovery (spec.md §4.8 step 3: "Threw:
	// convert to failure; record error with stack").
	result, err := x.invoke(ctx, def, ev, wctx, staging, rec)

	// 3. Classify.
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		exec.Outcome = OutcomeTimeout
		exec.Err = pkgerrors.WorkflowTimeout(def.Name)
		rec.Error(exec.Err)
	case err != nil:
		exec.Outcome = OutcomePanic
		exec.Err = pkgerrors.WorkflowThrown(def.Name, err)
		rec.Error(exec.Err)
	case !result.Success:
		exec.Outcome = OutcomeFailure
		if result.Error != nil {
			exec.Err = result.Error
		} else {
			exec.Err = pkgerrors.WorkflowThrown(def.Name, fmt.Errorf("workflow reported failure"))
		}
		rec.Error(exec.Err)
	default:
		exec.Outcome = OutcomeSuccess
		rec.Output(result.Output)
	}
	exec.Result = result

	// 4/5. Commit or rollback.
	if exec.Outcome == OutcomeSuccess {
		if commitErr := x.commit(result, staging); commitErr != nil {
			exec.Outcome = OutcomeFailure
			exec.Err = commitErr
			rec.Error(commitErr)
		}
	}
	// Rollback is implicit: staging's buffer is simply discarded by
	// never calling drain() on a non-success outcome.

	exec.EndedAt = time.Now().UTC()
	exec.Records = rec.Records()

	metrics.WorkflowExecutions.WithLabelValues(def.Name, string(exec.Outcome)).Inc()
	metrics.WorkflowDuration.WithLabelValues(def.Name).Observe(exec.EndedAt.Sub(exec.StartedAt).Seconds())

	x.persistLog(ctx, exec)

	return exec
}

// DefaultTimeoutFor returns the soft timeout to apply to def's
// execution. Workflow definitions don't currently carry a per-definition
// override field, so this returns the executor-wide default.
func (x *Executor) DefaultTimeoutFor(def workflow.Definition) time.Duration {
	return x.defaultTimeout
}

func (x *Executor) invoke(ctx context.Context, def workflow.Definition, ev *event.Event, wctx *runctx.Context, staging *stagingEmitter, rec *recorder.Recorder) (result workflow.Result, err error) {
	if def.Executor == nil {
		return workflow.Result{}, fmt.Errorf("workflow %q has no executor function", def.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in workflow %q: %v", def.Name, r)
		}
	}()

	return def.Executor(ctx, ev, wctx, staging)
}

// commit applies a successful result: state replacement, then flushing
// staged emissions into the queue. Emissions are flushed first; if one
// fails to enqueue (buffer full), state is not replaced and the commit is
// reported as a failure of this execution only (spec.md §5,
// back-pressure). Emissions enqueued before the failing one are not
// withdrawn and stay on the queue.
func (x *Executor) commit(result workflow.Result, staging *stagingEmitter) error {
	buffered := staging.drain()
	depth := staging.nextDepth()

	for _, s := range buffered {
		ev, err := event.New(s.kind, s.payload, s.priority)
		if err != nil {
			return err
		}
		ev = ev.WithAttempt(depth)
		// The queue has no multi-item transaction: a failure partway
		// through a multi-emission flush still fails the whole commit,
		// but earlier emissions in this batch may already be visible.
		if err := x.Queue.Enqueue(ev); err != nil {
			return err
		}
	}

	if result.ContextUpdate != nil && result.ContextUpdate.State != nil {
		x.State.Replace(*result.ContextUpdate.State)
	}

	return nil
}

func (x *Executor) persistLog(ctx context.Context, exec Execution) {
	if x.Storage == nil {
		return
	}
	records := make([]storage.LogRecord, 0, len(exec.Records))
	for _, r := range exec.Records {
		records = append(records, storage.LogRecord{
			Type:      string(r.Type),
			Timestamp: r.Timestamp.Format(time.RFC3339Nano),
			Payload:   r.Payload,
			SeqNum:    r.SeqNum,
		})
	}

	var errMsg string
	if exec.Err != nil {
		errMsg = exec.Err.Error()
	}

	log := storage.ExecutionLog{
		ExecutionID:  exec.ID,
		WorkflowName: exec.Workflow,
		StartedAt:    exec.StartedAt.Format(time.RFC3339Nano),
		EndedAt:      exec.EndedAt.Format(time.RFC3339Nano),
		Status:       string(exec.Outcome),
		Input:        exec.Event.Payload,
		Output:       exec.Result.Output,
		Records:      records,
	}
	if errMsg != "" {
		if log.Output == nil {
			log.Output = map[string]any{}
		}
		log.Output["error"] = errMsg
	}

	if err := x.Storage.RecordLog(ctx, log); err != nil {
		x.log.WithField("error", err).Warn("failed to persist execution log")
	}
}

func generateExecutionID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "exec_" + hex.EncodeToString(buf) + fmt.Sprintf("_%d", time.Now().UnixNano()%1_000_000)
}
