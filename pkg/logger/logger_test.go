package logger

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewSetsLevelAndFormat(t *testing.T) {
	l := New(Config{Level: "debug", Format: "json", Output: "stdout"})
	if l.GetLevel().String() != "debug" {
		t.Fatalf("expected level debug, got %s", l.GetLevel())
	}
}

func TestNewCreatesLogFile(t *testing.T) {
	originalWD, _ := os.Getwd()
	t.Cleanup(func() { _ = os.Chdir(originalWD) })

	dir := t.TempDir()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}

	l := New(Config{Level: "info", Format: "text", Output: "file", FilePrefix: "test"})
	l.Info("hello")

	path := filepath.Join("logs", "test.log")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected log file to contain data")
	}
}

func TestNewDefaultUsesInfoLevel(t *testing.T) {
	l := NewDefault("test-component")
	if l.GetLevel().String() != "info" {
		t.Fatalf("expected info level, got %s", l.GetLevel())
	}
}
