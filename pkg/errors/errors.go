// Package errors provides the engine's unified error taxonomy (spec.md §7).
// Every engine-raised failure is one of these codes so callers can branch on
// Code rather than string-matching messages.
package errors

import "fmt"

// Code identifies one of the error kinds in spec.md §7's table.
type Code string

const (
	CodeBadEventKind     Code = "BAD_EVENT_KIND"
	CodeBufferFull       Code = "BUFFER_FULL"
	CodeNoSuitableDriver Code = "NO_SUITABLE_DRIVER"
	CodeDriverError      Code = "DRIVER_ERROR"
	CodeStorageError     Code = "STORAGE_ERROR"
	CodeWorkflowThrown   Code = "WORKFLOW_THROWN"
	CodeWorkflowTimeout  Code = "WORKFLOW_TIMEOUT"
	CodeNotRunning       Code = "NOT_RUNNING"
	CodeDuplicateName    Code = "DUPLICATE_NAME"
)

// EngineError is a structured error carrying a Code, a human message, an
// optional wrapped cause, and optional details — the same shape as the
// teacher's ServiceError, minus the HTTP status the engine has no use for
// (it exposes no HTTP surface of its own; see spec.md §1).
type EngineError struct {
	Code    Code
	Message string
	Err     error
	Details map[string]any
}

func (e *EngineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// WithDetails attaches contextual key/value pairs and returns the receiver
// for chaining.
func (e *EngineError) WithDetails(key string, value any) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an EngineError with no wrapped cause.
func New(code Code, message string) *EngineError {
	return &EngineError{Code: code, Message: message}
}

// Wrap creates an EngineError wrapping an underlying cause.
func Wrap(code Code, message string, err error) *EngineError {
	return &EngineError{Code: code, Message: message, Err: err}
}

// BadEventKind reports an event constructed (or routed) with an unrecognized kind.
func BadEventKind(kind string) *EngineError {
	return New(CodeBadEventKind, "unknown event kind").WithDetails("kind", kind)
}

// BufferFull reports a bounded queue rejecting an enqueue at capacity.
func BufferFull(capacity int) *EngineError {
	return New(CodeBufferFull, "event queue is at capacity").WithDetails("capacity", capacity)
}

// NoSuitableDriver reports a driver selection with no factory matching the
// required capability tags.
func NoSuitableDriver(required []string) *EngineError {
	return New(CodeNoSuitableDriver, "no driver factory satisfies required capabilities").
		WithDetails("required", required)
}

// DriverError wraps a failure surfaced by a driver's Query call.
func DriverError(err error) *EngineError {
	return Wrap(CodeDriverError, "driver query failed", err)
}

// StorageError wraps a failure surfaced by the storage facade.
func StorageError(operation string, err error) *EngineError {
	return Wrap(CodeStorageError, "storage operation failed", err).WithDetails("operation", operation)
}

// WorkflowThrown wraps a panic or returned error from a workflow executor body.
func WorkflowThrown(workflow string, err error) *EngineError {
	return Wrap(CodeWorkflowThrown, "workflow executor failed", err).WithDetails("workflow", workflow)
}

// WorkflowTimeout reports a workflow execution that exceeded its soft timeout.
func WorkflowTimeout(workflow string) *EngineError {
	return New(CodeWorkflowTimeout, "workflow execution timed out").WithDetails("workflow", workflow)
}

// NotRunning reports an operation attempted while the engine is not in the
// running lifecycle state.
func NotRunning(state string) *EngineError {
	return New(CodeNotRunning, "engine is not running").WithDetails("state", state)
}

// DuplicateName reports a registry registration collision.
func DuplicateName(name string) *EngineError {
	return New(CodeDuplicateName, "name already registered").WithDetails("name", name)
}
