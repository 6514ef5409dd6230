// Package recorder implements the per-execution activity log (spec.md
// §4.5): an append-only sequence of Records a workflow accumulates while
// it runs, later persisted alongside the workflow's Result.
package recorder

import (
	"sync"
	"time"
)

// Type classifies a Record. The set is closed; Record does not reject an
// unknown type but stores the record as TypeWarn, tagged "invalid_type".
type Type string

const (
	TypeInput   Type = "input"
	TypeInfo    Type = "info"
	TypeAICall  Type = "ai_call"
	TypeDBQuery Type = "db_query"
	TypeWarn    Type = "warn"
	TypeError   Type = "error"
	TypeOutput  Type = "output"
)

var types = map[Type]struct{}{
	TypeInput:   {},
	TypeInfo:    {},
	TypeAICall:  {},
	TypeDBQuery: {},
	TypeWarn:    {},
	TypeError:   {},
	TypeOutput:  {},
}

// Valid reports whether t is one of the recognized record types.
func (t Type) Valid() bool {
	_, ok := types[t]
	return ok
}

// Record is a single append-only entry in a workflow execution's log.
type Record struct {
	Type      Type           `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
	SeqNum    int            `json:"seq_num"`
}

// Recorder accumulates Records for a single workflow execution. The zero
// value is not usable; construct with New. Safe for concurrent use —
// executor invokes workflow code in a single goroutine, but drivers may
// log from background goroutines they spawn.
type Recorder struct {
	mu      sync.Mutex
	records []Record
	nextSeq int
}

// New creates an empty Recorder.
func New() *Recorder {
	return &Recorder{}
}

// Record appends an entry of the given type. Unknown types are recorded
// as TypeWarn with the original type string preserved under payload key
// "invalid_type" — a malformed record is kept, not silently dropped, so
// a bug in calling code remains visible in the log it corrupted.
func (r *Recorder) Record(typ Type, payload map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !typ.Valid() {
		payload = cloneAndTag(payload, string(typ))
		typ = TypeWarn
	}

	r.records = append(r.records, Record{
		Type:      typ,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
		SeqNum:    r.nextSeq,
	})
	r.nextSeq++
}

func cloneAndTag(payload map[string]any, invalidType string) map[string]any {
	out := make(map[string]any, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["invalid_type"] = invalidType
	return out
}

// Input records an incoming trigger payload.
func (r *Recorder) Input(payload map[string]any) { r.Record(TypeInput, payload) }

// Info records a free-form informational note.
func (r *Recorder) Info(message string) { r.Record(TypeInfo, map[string]any{"message": message}) }

// AICall records a driver invocation's prompt and resulting content.
func (r *Recorder) AICall(prompt, result string) {
	r.Record(TypeAICall, map[string]any{"prompt": prompt, "result": result})
}

// DBQuery records a storage operation.
func (r *Recorder) DBQuery(operation string, details map[string]any) {
	payload := cloneAndTag(details, "")
	delete(payload, "invalid_type")
	payload["operation"] = operation
	r.Record(TypeDBQuery, payload)
}

// Warn records a non-fatal problem (e.g. a thrown trigger condition).
func (r *Recorder) Warn(message string) { r.Record(TypeWarn, map[string]any{"message": message}) }

// Error records a fatal problem that will end the execution.
func (r *Recorder) Error(err error) {
	r.Record(TypeError, map[string]any{"error": err.Error()})
}

// Output records a workflow's final result payload.
func (r *Recorder) Output(payload map[string]any) { r.Record(TypeOutput, payload) }

// Records returns a snapshot of the accumulated log, in append order.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Record, len(r.records))
	copy(out, r.records)
	return out
}

// Len returns the number of records accumulated so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
