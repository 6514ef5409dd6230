// Package postgres implements storage.Handle against PostgreSQL, grounded
// on the teacher's per-service store_postgres.go files (e.g.
// packages/com.r3e.services.secrets/store_postgres.go): a thin wrapper
// around *sql.DB, plain ExecContext/QueryRowContext calls with $N
// placeholders, and read-modify-write patch semantics rather than a query
// builder. Document-shaped fields (Fields, Tags, IssueIDs, Payload,
// Records) are stored as JSONB and marshaled/unmarshaled at the boundary;
// the engine's opaque-query contract (spec.md §6.2) is honored with a
// case-insensitive ILIKE scan, the SQL analogue of storage/memory's
// substring match.
package postgres

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	pkgerrors "github.com/otolab/sebas-chan-sub000/pkg/errors"
	"github.com/otolab/sebas-chan-sub000/storage"
)

// generateID mirrors the crypto/rand-plus-timestamp convention event.New
// uses, rather than pulling in a UUID dependency the teacher's own
// id-generation code (system/events/router.go:generateRequestID) doesn't
// use either.
func generateID(prefix string) string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s_%s_%d", prefix, hex.EncodeToString(b), time.Now().UnixNano()%1_000_000)
}

// Store is a PostgreSQL-backed storage.Handle.
type Store struct {
	db *sql.DB
}

// Open connects to dsn and wraps the resulting pool in a Store. Callers
// own the returned *sql.DB's lifetime via Store.Close.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "open postgres", err)
	}
	return &Store{db: db}, nil
}

// New wraps an already-open *sql.DB, mirroring the teacher's
// NewPostgresStore(db) constructor for callers that manage pooling
// themselves (connection limits, migrations) before handing the Store off.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// Migrate creates the tables this Store needs if they don't already
// exist. A reference implementation has no need for a full migration
// framework (golang-migrate, as the teacher uses, assumes a fleet of
// services evolving independently); one idempotent DDL pass covers it.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS issues (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			updated_at TIMESTAMPTZ NOT NULL,
			fields JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS flows (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT '',
			issue_ids JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL,
			fields JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS knowledge (
			id TEXT PRIMARY KEY,
			summary TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			tags JSONB NOT NULL DEFAULT '[]',
			updated_at TIMESTAMPTZ NOT NULL,
			fields JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS pond_entries (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL,
			fields JSONB NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS schedules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL DEFAULT '',
			cron_spec TEXT NOT NULL DEFAULT '',
			kind TEXT NOT NULL DEFAULT '',
			payload JSONB NOT NULL DEFAULT '{}',
			enabled BOOLEAN NOT NULL DEFAULT true
		)`,
		`CREATE TABLE IF NOT EXISTS execution_logs (
			execution_id TEXT PRIMARY KEY,
			workflow_name TEXT NOT NULL,
			started_at TIMESTAMPTZ NOT NULL,
			ended_at TIMESTAMPTZ NOT NULL,
			status TEXT NOT NULL,
			input JSONB NOT NULL DEFAULT '{}',
			output JSONB NOT NULL DEFAULT '{}',
			records JSONB NOT NULL DEFAULT '[]'
		)`,
		`CREATE TABLE IF NOT EXISTS engine_state (
			id BOOLEAN PRIMARY KEY DEFAULT true CHECK (id),
			document TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeStorageError, "migrate", err)
		}
	}
	return nil
}

// Ready reports whether the connection pool can reach the database.
func (s *Store) Ready(ctx context.Context) bool {
	return s.db.PingContext(ctx) == nil
}

func marshalJSON(v any) ([]byte, error) {
	if v == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(v)
}

func unmarshalFields(data []byte) map[string]any {
	if len(data) == 0 {
		return nil
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil
	}
	return out
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// --- issues ---

func (s *Store) GetIssue(ctx context.Context, id string) (storage.Issue, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, body, status, updated_at, fields FROM issues WHERE id = $1`, id)
	return scanIssue(row)
}

func (s *Store) CreateIssue(ctx context.Context, data storage.Issue) (storage.Issue, error) {
	if data.ID == "" {
		data.ID = generateID("issue")
	}
	data.UpdatedAt = nowStamp()
	fields, err := marshalJSON(data.Fields)
	if err != nil {
		return storage.Issue{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_issue", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO issues (id, title, body, status, updated_at, fields)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, data.ID, data.Title, data.Body, data.Status, data.UpdatedAt, fields)
	if err != nil {
		return storage.Issue{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_issue", err)
	}
	return data, nil
}

func (s *Store) UpdateIssue(ctx context.Context, id string, patch map[string]any) (storage.Issue, error) {
	issue, err := s.GetIssue(ctx, id)
	if err != nil {
		return storage.Issue{}, err
	}
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
	issue.UpdatedAt = nowStamp()

	fields, err := marshalJSON(issue.Fields)
	if err != nil {
		return storage.Issue{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_issue", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE issues SET title = $1, body = $2, status = $3, updated_at = $4, fields = $5 WHERE id = $6
	`, issue.Title, issue.Body, issue.Status, issue.UpdatedAt, fields, id)
	if err != nil {
		return storage.Issue{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_issue", err)
	}
	return issue, nil
}

func (s *Store) SearchIssues(ctx context.Context, query string) ([]storage.Issue, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, body, status, updated_at, fields FROM issues
		WHERE $1 = '' OR title ILIKE $2 OR body ILIKE $2 OR status ILIKE $2
		ORDER BY updated_at DESC
	`, query, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "search_issues", err)
	}
	defer rows.Close()

	var out []storage.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, issue)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIssue(row rowScanner) (storage.Issue, error) {
	var issue storage.Issue
	var fields []byte
	if err := row.Scan(&issue.ID, &issue.Title, &issue.Body, &issue.Status, &issue.UpdatedAt, &fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Issue{}, pkgerrors.StorageError("get_issue", fmt.Errorf("issue not found"))
		}
		return storage.Issue{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "scan_issue", err)
	}
	issue.Fields = unmarshalFields(fields)
	return issue, nil
}

// --- flows ---

func (s *Store) GetFlow(ctx context.Context, id string) (storage.Flow, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, status, issue_ids, updated_at, fields FROM flows WHERE id = $1`, id)
	return scanFlow(row)
}

func (s *Store) CreateFlow(ctx context.Context, data storage.Flow) (storage.Flow, error) {
	if data.ID == "" {
		data.ID = generateID("flow")
	}
	data.UpdatedAt = nowStamp()
	issueIDs, err := marshalJSON(data.IssueIDs)
	if err != nil {
		return storage.Flow{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_flow", err)
	}
	fields, err := marshalJSON(data.Fields)
	if err != nil {
		return storage.Flow{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_flow", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO flows (id, title, status, issue_ids, updated_at, fields)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, data.ID, data.Title, data.Status, issueIDs, data.UpdatedAt, fields)
	if err != nil {
		return storage.Flow{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_flow", err)
	}
	return data, nil
}

func (s *Store) UpdateFlow(ctx context.Context, id string, patch map[string]any) (storage.Flow, error) {
	flow, err := s.GetFlow(ctx, id)
	if err != nil {
		return storage.Flow{}, err
	}
	if v, ok := patch["title"].(string); ok {
		flow.Title = v
	}
	if v, ok := patch["status"].(string); ok {
		flow.Status = v
	}
	flow.UpdatedAt = nowStamp()

	issueIDs, err := marshalJSON(flow.IssueIDs)
	if err != nil {
		return storage.Flow{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_flow", err)
	}
	fields, err := marshalJSON(flow.Fields)
	if err != nil {
		return storage.Flow{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_flow", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE flows SET title = $1, status = $2, issue_ids = $3, updated_at = $4, fields = $5 WHERE id = $6
	`, flow.Title, flow.Status, issueIDs, flow.UpdatedAt, fields, id)
	if err != nil {
		return storage.Flow{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_flow", err)
	}
	return flow, nil
}

func (s *Store) SearchFlows(ctx context.Context, query string) ([]storage.Flow, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, status, issue_ids, updated_at, fields FROM flows
		WHERE $1 = '' OR title ILIKE $2 OR status ILIKE $2
		ORDER BY updated_at DESC
	`, query, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "search_flows", err)
	}
	defer rows.Close()

	var out []storage.Flow
	for rows.Next() {
		flow, err := scanFlow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, flow)
	}
	return out, rows.Err()
}

func scanFlow(row rowScanner) (storage.Flow, error) {
	var flow storage.Flow
	var issueIDs, fields []byte
	if err := row.Scan(&flow.ID, &flow.Title, &flow.Status, &issueIDs, &flow.UpdatedAt, &fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Flow{}, pkgerrors.StorageError("get_flow", fmt.Errorf("flow not found"))
		}
		return storage.Flow{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "scan_flow", err)
	}
	_ = json.Unmarshal(issueIDs, &flow.IssueIDs)
	flow.Fields = unmarshalFields(fields)
	return flow, nil
}

// --- knowledge ---

func (s *Store) GetKnowledge(ctx context.Context, id string) (storage.Knowledge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, summary, body, tags, updated_at, fields FROM knowledge WHERE id = $1`, id)
	return scanKnowledge(row)
}

func (s *Store) CreateKnowledge(ctx context.Context, data storage.Knowledge) (storage.Knowledge, error) {
	if data.ID == "" {
		data.ID = generateID("knowledge")
	}
	data.UpdatedAt = nowStamp()
	tags, err := marshalJSON(data.Tags)
	if err != nil {
		return storage.Knowledge{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_knowledge", err)
	}
	fields, err := marshalJSON(data.Fields)
	if err != nil {
		return storage.Knowledge{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_knowledge", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO knowledge (id, summary, body, tags, updated_at, fields)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, data.ID, data.Summary, data.Body, tags, data.UpdatedAt, fields)
	if err != nil {
		return storage.Knowledge{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "create_knowledge", err)
	}
	return data, nil
}

func (s *Store) UpdateKnowledge(ctx context.Context, id string, patch map[string]any) (storage.Knowledge, error) {
	k, err := s.GetKnowledge(ctx, id)
	if err != nil {
		return storage.Knowledge{}, err
	}
	if v, ok := patch["summary"].(string); ok {
		k.Summary = v
	}
	if v, ok := patch["body"].(string); ok {
		k.Body = v
	}
	k.UpdatedAt = nowStamp()

	tags, err := marshalJSON(k.Tags)
	if err != nil {
		return storage.Knowledge{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_knowledge", err)
	}
	fields, err := marshalJSON(k.Fields)
	if err != nil {
		return storage.Knowledge{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_knowledge", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE knowledge SET summary = $1, body = $2, tags = $3, updated_at = $4, fields = $5 WHERE id = $6
	`, k.Summary, k.Body, tags, k.UpdatedAt, fields, id)
	if err != nil {
		return storage.Knowledge{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_knowledge", err)
	}
	return k, nil
}

func (s *Store) SearchKnowledge(ctx context.Context, query string) ([]storage.Knowledge, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, summary, body, tags, updated_at, fields FROM knowledge
		WHERE $1 = '' OR summary ILIKE $2 OR body ILIKE $2
		ORDER BY updated_at DESC
	`, query, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "search_knowledge", err)
	}
	defer rows.Close()

	var out []storage.Knowledge
	for rows.Next() {
		k, err := scanKnowledge(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func scanKnowledge(row rowScanner) (storage.Knowledge, error) {
	var k storage.Knowledge
	var tags, fields []byte
	if err := row.Scan(&k.ID, &k.Summary, &k.Body, &tags, &k.UpdatedAt, &fields); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Knowledge{}, pkgerrors.StorageError("get_knowledge", fmt.Errorf("knowledge not found"))
		}
		return storage.Knowledge{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "scan_knowledge", err)
	}
	_ = json.Unmarshal(tags, &k.Tags)
	k.Fields = unmarshalFields(fields)
	return k, nil
}

// --- pond ---

func (s *Store) AddPondEntry(ctx context.Context, entry storage.PondEntry) (storage.PondEntry, error) {
	if entry.ID == "" {
		entry.ID = generateID("pond")
	}
	entry.CreatedAt = nowStamp()
	fields, err := marshalJSON(entry.Fields)
	if err != nil {
		return storage.PondEntry{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "add_pond_entry", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO pond_entries (id, source, content, created_at, fields)
		VALUES ($1, $2, $3, $4, $5)
	`, entry.ID, entry.Source, entry.Content, entry.CreatedAt, fields)
	if err != nil {
		return storage.PondEntry{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "add_pond_entry", err)
	}
	return entry, nil
}

func (s *Store) SearchPond(ctx context.Context, filters string) ([]storage.PondEntry, error) {
	pattern := "%" + filters + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, source, content, created_at, fields FROM pond_entries
		WHERE $1 = '' OR source ILIKE $2 OR content ILIKE $2
		ORDER BY created_at DESC
	`, filters, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "search_pond", err)
	}
	defer rows.Close()

	var out []storage.PondEntry
	for rows.Next() {
		var entry storage.PondEntry
		var fields []byte
		if err := rows.Scan(&entry.ID, &entry.Source, &entry.Content, &entry.CreatedAt, &fields); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "scan_pond_entry", err)
		}
		entry.Fields = unmarshalFields(fields)
		out = append(out, entry)
	}
	return out, rows.Err()
}

func (s *Store) GetPondSources(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT source FROM pond_entries WHERE source != '' ORDER BY source`)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "get_pond_sources", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "scan_pond_source", err)
		}
		out = append(out, source)
	}
	return out, rows.Err()
}

// --- state ---

func (s *Store) GetState(ctx context.Context) (string, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM engine_state WHERE id = true`).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeStorageError, "get_state", err)
	}
	return doc, nil
}

func (s *Store) UpdateState(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engine_state (id, document) VALUES (true, $1)
		ON CONFLICT (id) DO UPDATE SET document = EXCLUDED.document
	`, text)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_state", err)
	}
	return nil
}

// --- execution log ---

func (s *Store) RecordLog(ctx context.Context, log storage.ExecutionLog) error {
	input, err := marshalJSON(log.Input)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageError, "record_log", err)
	}
	output, err := marshalJSON(log.Output)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageError, "record_log", err)
	}
	records, err := marshalJSON(log.Records)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageError, "record_log", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO execution_logs (execution_id, workflow_name, started_at, ended_at, status, input, output, records)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (execution_id) DO NOTHING
	`, log.ExecutionID, log.WorkflowName, log.StartedAt, log.EndedAt, log.Status, input, output, records)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorageError, "record_log", err)
	}
	return nil
}

// --- schedules ---

func (s *Store) AddSchedule(ctx context.Context, sc storage.Schedule) (storage.Schedule, error) {
	if sc.ID == "" {
		sc.ID = generateID("schedule")
	}
	payload, err := marshalJSON(sc.Payload)
	if err != nil {
		return storage.Schedule{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "add_schedule", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO schedules (id, name, cron_spec, kind, payload, enabled)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, sc.ID, sc.Name, sc.CronSpec, sc.Kind, payload, sc.Enabled)
	if err != nil {
		return storage.Schedule{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "add_schedule", err)
	}
	return sc, nil
}

func (s *Store) UpdateSchedule(ctx context.Context, id string, patch map[string]any) (storage.Schedule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, cron_spec, kind, payload, enabled FROM schedules WHERE id = $1`, id)
	sc, err := scanSchedule(row)
	if err != nil {
		return storage.Schedule{}, err
	}
	if v, ok := patch["name"].(string); ok {
		sc.Name = v
	}
	if v, ok := patch["cron_spec"].(string); ok {
		sc.CronSpec = v
	}
	if v, ok := patch["enabled"].(bool); ok {
		sc.Enabled = v
	}
	payload, err := marshalJSON(sc.Payload)
	if err != nil {
		return storage.Schedule{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_schedule", err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE schedules SET name = $1, cron_spec = $2, kind = $3, payload = $4, enabled = $5 WHERE id = $6
	`, sc.Name, sc.CronSpec, sc.Kind, payload, sc.Enabled, id)
	if err != nil {
		return storage.Schedule{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "update_schedule", err)
	}
	return sc, nil
}

func (s *Store) SearchSchedules(ctx context.Context, query string) ([]storage.Schedule, error) {
	pattern := "%" + query + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, cron_spec, kind, payload, enabled FROM schedules
		WHERE $1 = '' OR name ILIKE $2 OR kind ILIKE $2
		ORDER BY name
	`, query, pattern)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorageError, "search_schedules", err)
	}
	defer rows.Close()

	var out []storage.Schedule
	for rows.Next() {
		sc, err := scanSchedule(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sc)
	}
	return out, rows.Err()
}

func scanSchedule(row rowScanner) (storage.Schedule, error) {
	var sc storage.Schedule
	var payload []byte
	if err := row.Scan(&sc.ID, &sc.Name, &sc.CronSpec, &sc.Kind, &payload, &sc.Enabled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Schedule{}, pkgerrors.StorageError("get_schedule", fmt.Errorf("schedule not found"))
		}
		return storage.Schedule{}, pkgerrors.Wrap(pkgerrors.CodeStorageError, "scan_schedule", err)
	}
	_ = json.Unmarshal(payload, &sc.Payload)
	return sc, nil
}

var _ storage.Handle = (*Store)(nil)
