// Package storage defines the narrow persistence facade the engine
// consumes (spec.md §6.2): issues, flows, knowledge, pond entries,
// schedules, the state document, and execution log records. The engine
// never forms SQL; search queries are opaque strings interpreted by the
// storage implementation.
package storage

import "context"

// Issue is a tracked unit of work surfaced to the user.
type Issue struct {
	ID        string
	Title     string
	Body      string
	Status    string
	UpdatedAt string
	Fields    map[string]any
}

// Flow is a longer-running thread of related issues/activity.
type Flow struct {
	ID        string
	Title     string
	Status    string
	IssueIDs  []string
	UpdatedAt string
	Fields    map[string]any
}

// Knowledge is a distilled, reusable fact extracted from activity.
type Knowledge struct {
	ID        string
	Summary   string
	Body      string
	Tags      []string
	UpdatedAt string
	Fields    map[string]any
}

// PondEntry is a raw, unprocessed observation awaiting triage.
type PondEntry struct {
	ID        string
	Source    string
	Content   string
	CreatedAt string
	Fields    map[string]any
}

// Schedule is a declarative recurrence the engine's producer side uses
// to emit schedule-triggered events.
type Schedule struct {
	ID       string
	Name     string
	CronSpec string
	Kind     string
	Payload  map[string]any
	Enabled  bool
}

// LogRecord is one line of a workflow execution's recorder buffer,
// mirroring recorder.Record but decoupled from that package so storage
// implementations don't need to import it.
type LogRecord struct {
	Type      string
	Timestamp string
	Payload   map[string]any
	SeqNum    int
}

// ExecutionLog is the persisted-layout artifact spec.md §6.5 names:
// one batch write per execution, at execution end.
type ExecutionLog struct {
	ExecutionID  string
	WorkflowName string
	StartedAt    string
	EndedAt      string
	Status       string
	Input        map[string]any
	Output       map[string]any
	Records      []LogRecord
}

// Handle is the subset of storage operations the engine is permitted to
// call. Every method returns StorageError on failure; no method forms
// or exposes SQL.
type Handle interface {
	GetIssue(ctx context.Context, id string) (Issue, error)
	CreateIssue(ctx context.Context, data Issue) (Issue, error)
	UpdateIssue(ctx context.Context, id string, patch map[string]any) (Issue, error)
	SearchIssues(ctx context.Context, query string) ([]Issue, error)

	GetFlow(ctx context.Context, id string) (Flow, error)
	CreateFlow(ctx context.Context, data Flow) (Flow, error)
	UpdateFlow(ctx context.Context, id string, patch map[string]any) (Flow, error)
	SearchFlows(ctx context.Context, query string) ([]Flow, error)

	GetKnowledge(ctx context.Context, id string) (Knowledge, error)
	CreateKnowledge(ctx context.Context, data Knowledge) (Knowledge, error)
	UpdateKnowledge(ctx context.Context, id string, patch map[string]any) (Knowledge, error)
	SearchKnowledge(ctx context.Context, query string) ([]Knowledge, error)

	AddPondEntry(ctx context.Context, entry PondEntry) (PondEntry, error)
	SearchPond(ctx context.Context, filters string) ([]PondEntry, error)
	GetPondSources(ctx context.Context) ([]string, error)

	GetState(ctx context.Context) (string, error)
	UpdateState(ctx context.Context, text string) error

	RecordLog(ctx context.Context, log ExecutionLog) error

	AddSchedule(ctx context.Context, s Schedule) (Schedule, error)
	UpdateSchedule(ctx context.Context, id string, patch map[string]any) (Schedule, error)
	SearchSchedules(ctx context.Context, query string) ([]Schedule, error)

	// Ready reports whether the storage backend is reachable, feeding
	// the engine's health snapshot.
	Ready(ctx context.Context) bool
}
