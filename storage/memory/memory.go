// Package memory implements storage.Handle entirely in process memory.
// It is the reference implementation used by tests and by the engine
// when no external database is configured — grounded on the teacher's
// infrastructure/cache in-process map pattern rather than its SQL store,
// since the engine's facade here is document-shaped, not relational.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/storage"
)

// Store is an in-memory storage.Handle. The zero value is not usable;
// construct with New.
type Store struct {
	mu sync.Mutex

	issues    map[string]storage.Issue
	flows     map[string]storage.Flow
	knowledge map[string]storage.Knowledge
	pond      []storage.PondEntry
	schedules map[string]storage.Schedule
	logs      []storage.ExecutionLog

	state string
	seq   int
}

// New creates an empty Store seeded with bootstrap as the initial state
// document.
func New(bootstrap string) *Store {
	return &Store{
		issues:    make(map[string]storage.Issue),
		flows:     make(map[string]storage.Flow),
		knowledge: make(map[string]storage.Knowledge),
		schedules: make(map[string]storage.Schedule),
		state:     bootstrap,
	}
}

func (s *Store) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s_%d_%d", prefix, time.Now().UTC().UnixNano(), s.seq)
}

func (s *Store) GetIssue(_ context.Context, id string) (storage.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[id]
	if !ok {
		return storage.Issue{}, pkgerrors.StorageError("get_issue", fmt.Errorf("issue %q not found", id))
	}
	return issue, nil
}

func (s *Store) CreateIssue(_ context.Context, data storage.Issue) (storage.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.ID == "" {
		data.ID = s.nextID("issue")
	}
	data.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.issues[data.ID] = data
	return data, nil
}

func (s *Store) UpdateIssue(_ context.Context, id string, patch map[string]any) (storage.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	issue, ok := s.issues[id]
	if !ok {
		return storage.Issue{}, pkgerrors.StorageError("update_issue", fmt.Errorf("issue %q not found", id))
	}
	applyIssuePatch(&issue, patch)
	issue.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.issues[id] = issue
	return issue, nil
}

func applyIssuePatch(issue *storage.Issue, patch map[string]any) {
	if v, ok := patch["title"].(string); ok {
		issue.Title = v
	}
	if v, ok := patch["body"].(string); ok {
		issue.Body = v
	}
	if v, ok := patch["status"].(string); ok {
		issue.Status = v
	}
	for k, v := range patch {
		if k == "title" || k == "body" || k == "status" {
			continue
		}
		if issue.Fields == nil {
			issue.Fields = map[string]any{}
		}
		issue.Fields[k] = v
	}
}

func (s *Store) SearchIssues(_ context.Context, query string) ([]storage.Issue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Issue
	for _, issue := range s.issues {
		if matches(query, issue.Title, issue.Body, issue.Status) {
			out = append(out, issue)
		}
	}
	return out, nil
}

func (s *Store) GetFlow(_ context.Context, id string) (storage.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[id]
	if !ok {
		return storage.Flow{}, pkgerrors.StorageError("get_flow", fmt.Errorf("flow %q not found", id))
	}
	return flow, nil
}

func (s *Store) CreateFlow(_ context.Context, data storage.Flow) (storage.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.ID == "" {
		data.ID = s.nextID("flow")
	}
	data.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.flows[data.ID] = data
	return data, nil
}

func (s *Store) UpdateFlow(_ context.Context, id string, patch map[string]any) (storage.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flow, ok := s.flows[id]
	if !ok {
		return storage.Flow{}, pkgerrors.StorageError("update_flow", fmt.Errorf("flow %q not found", id))
	}
	if v, ok := patch["title"].(string); ok {
		flow.Title = v
	}
	if v, ok := patch["status"].(string); ok {
		flow.Status = v
	}
	flow.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.flows[id] = flow
	return flow, nil
}

func (s *Store) SearchFlows(_ context.Context, query string) ([]storage.Flow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Flow
	for _, flow := range s.flows {
		if matches(query, flow.Title, flow.Status) {
			out = append(out, flow)
		}
	}
	return out, nil
}

func (s *Store) GetKnowledge(_ context.Context, id string) (storage.Knowledge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.knowledge[id]
	if !ok {
		return storage.Knowledge{}, pkgerrors.StorageError("get_knowledge", fmt.Errorf("knowledge %q not found", id))
	}
	return k, nil
}

func (s *Store) CreateKnowledge(_ context.Context, data storage.Knowledge) (storage.Knowledge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if data.ID == "" {
		data.ID = s.nextID("knowledge")
	}
	data.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.knowledge[data.ID] = data
	return data, nil
}

func (s *Store) UpdateKnowledge(_ context.Context, id string, patch map[string]any) (storage.Knowledge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k, ok := s.knowledge[id]
	if !ok {
		return storage.Knowledge{}, pkgerrors.StorageError("update_knowledge", fmt.Errorf("knowledge %q not found", id))
	}
	if v, ok := patch["summary"].(string); ok {
		k.Summary = v
	}
	if v, ok := patch["body"].(string); ok {
		k.Body = v
	}
	k.UpdatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.knowledge[id] = k
	return k, nil
}

func (s *Store) SearchKnowledge(_ context.Context, query string) ([]storage.Knowledge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Knowledge
	for _, k := range s.knowledge {
		if matches(query, k.Summary, k.Body) {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *Store) AddPondEntry(_ context.Context, entry storage.PondEntry) (storage.PondEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = s.nextID("pond")
	}
	entry.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	s.pond = append(s.pond, entry)
	return entry, nil
}

func (s *Store) SearchPond(_ context.Context, filters string) ([]storage.PondEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.PondEntry
	for _, entry := range s.pond {
		if matches(filters, entry.Content, entry.Source) {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *Store) GetPondSources(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, entry := range s.pond {
		if _, ok := seen[entry.Source]; !ok {
			seen[entry.Source] = struct{}{}
			out = append(out, entry.Source)
		}
	}
	return out, nil
}

func (s *Store) GetState(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

func (s *Store) UpdateState(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = text
	return nil
}

func (s *Store) RecordLog(_ context.Context, log storage.ExecutionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, log)
	return nil
}

// Logs returns a snapshot of every execution log recorded so far. Test
// helper, not part of storage.Handle.
func (s *Store) Logs() []storage.ExecutionLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]storage.ExecutionLog, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *Store) AddSchedule(_ context.Context, sched storage.Schedule) (storage.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sched.ID == "" {
		sched.ID = s.nextID("schedule")
	}
	s.schedules[sched.ID] = sched
	return sched, nil
}

func (s *Store) UpdateSchedule(_ context.Context, id string, patch map[string]any) (storage.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sched, ok := s.schedules[id]
	if !ok {
		return storage.Schedule{}, pkgerrors.StorageError("update_schedule", fmt.Errorf("schedule %q not found", id))
	}
	if v, ok := patch["enabled"].(bool); ok {
		sched.Enabled = v
	}
	if v, ok := patch["cron_spec"].(string); ok {
		sched.CronSpec = v
	}
	s.schedules[id] = sched
	return sched, nil
}

func (s *Store) SearchSchedules(_ context.Context, query string) ([]storage.Schedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []storage.Schedule
	for _, sched := range s.schedules {
		if matches(query, sched.Name, sched.Kind) {
			out = append(out, sched)
		}
	}
	return out, nil
}

func (s *Store) Ready(_ context.Context) bool { return true }

// matches implements the opaque-string search contract spec.md §6.2
// describes: the engine never forms structured queries, so the memory
// backend just does a case-insensitive substring match. An empty query
// matches everything.
func matches(query string, fields ...string) bool {
	if strings.TrimSpace(query) == "" {
		return true
	}
	q := strings.ToLower(query)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

var _ storage.Handle = (*Store)(nil)
