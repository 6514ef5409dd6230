package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func writeRegistryFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "drivers.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write registry file: %v", err)
	}
	return path
}

func TestLoadRegistryFileRegistersEntries(t *testing.T) {
	path := writeRegistryFile(t, `
- name: fast-echo
  capabilities: [fast]
- name: canned
  kind: static
  capabilities: [structured]
  response: "hello"
`)
	reg, err := LoadRegistryFile(path)
	if err != nil {
		t.Fatalf("LoadRegistryFile: %v", err)
	}
	if reg.Count() != 2 {
		t.Fatalf("expected 2 factories, got %d", reg.Count())
	}

	factory, err := reg.Select(Criteria{Required: []string{"structured"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	d, err := Create(factory)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	resp, err := d.Query(context.Background(), "ignored", Options{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Content != "hello" {
		t.Fatalf("expected canned response, got %q", resp.Content)
	}
}

func TestLoadRegistryFileRejectsUnknownKind(t *testing.T) {
	path := writeRegistryFile(t, `
- name: bad
  kind: mystery
`)
	if _, err := LoadRegistryFile(path); err == nil {
		t.Fatal("expected error for unknown driver kind")
	}
}

func TestEchoDriverReturnsPrompt(t *testing.T) {
	d := echoDriver{}
	resp, err := d.Query(context.Background(), "ping", Options{})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if resp.Content != "ping" {
		t.Fatalf("expected echoed prompt, got %q", resp.Content)
	}
}
