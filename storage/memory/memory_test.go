package memory

import (
	"context"
	"testing"

	"github.com/otolab/sebas-chan-sub000/storage"
)

func TestCreateAndGetIssueRoundTrips(t *testing.T) {
	s := New("bootstrap")
	ctx := context.Background()

	created, err := s.CreateIssue(ctx, storage.Issue{Title: "fix bug"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}

	got, err := s.GetIssue(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "fix bug" {
		t.Fatalf("expected title to round trip, got %q", got.Title)
	}
}

func TestGetMissingIssueFails(t *testing.T) {
	s := New("")
	if _, err := s.GetIssue(context.Background(), "does-not-exist"); err == nil {
		t.Fatal("expected error for missing issue")
	}
}

func TestUpdateStateRoundTrips(t *testing.T) {
	s := New("## a\n")
	ctx := context.Background()

	if err := s.UpdateState(ctx, "## b\n"); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetState(ctx)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != "## b\n" {
		t.Fatalf("expected updated state, got %q", got)
	}
}

func TestSearchIssuesEmptyQueryMatchesAll(t *testing.T) {
	s := New("")
	ctx := context.Background()
	_, _ = s.CreateIssue(ctx, storage.Issue{Title: "a"})
	_, _ = s.CreateIssue(ctx, storage.Issue{Title: "b"})

	results, err := s.SearchIssues(ctx, "")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
}

func TestRecordLogAccumulates(t *testing.T) {
	s := New("")
	ctx := context.Background()
	_ = s.RecordLog(ctx, storage.ExecutionLog{ExecutionID: "e1"})
	_ = s.RecordLog(ctx, storage.ExecutionLog{ExecutionID: "e2"})

	if len(s.Logs()) != 2 {
		t.Fatalf("expected 2 logs, got %d", len(s.Logs()))
	}
}
