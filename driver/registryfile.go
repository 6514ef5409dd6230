package driver

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileEntry is one driver factory described in a driver_registry_path YAML
// file (spec.md §6.4). It exists so the selector (C6) has more than one
// in-process factory to choose among without requiring a real external AI
// backend — useful for local runs and tests of the selection logic itself.
type FileEntry struct {
	Name         string   `yaml:"name"`
	Capabilities []string `yaml:"capabilities"`
	Kind         string   `yaml:"kind"`     // "echo" or "static"
	Response     string   `yaml:"response"` // used by kind "static"
}

// LoadRegistryFile reads a YAML list of FileEntry values and registers a
// Factory for each into a fresh Registry.
func LoadRegistryFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read driver registry file %s: %w", path, err)
	}

	var entries []FileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse driver registry file %s: %w", path, err)
	}

	reg := NewRegistry()
	for _, entry := range entries {
		factory, err := newFileFactory(entry)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(factory); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func newFileFactory(entry FileEntry) (Factory, error) {
	if entry.Name == "" {
		return nil, fmt.Errorf("driver registry entry missing name")
	}
	switch entry.Kind {
	case "", "echo":
		return &fileFactory{name: entry.Name, capabilities: entry.Capabilities, kind: "echo"}, nil
	case "static":
		return &fileFactory{name: entry.Name, capabilities: entry.Capabilities, kind: "static", response: entry.Response}, nil
	default:
		return nil, fmt.Errorf("driver registry entry %q: unknown kind %q", entry.Name, entry.Kind)
	}
}

// fileFactory builds drivers from declarative config rather than wiring a
// real external AI backend, so tests and local runs can exercise driver
// selection (C6) without network access.
type fileFactory struct {
	name         string
	capabilities []string
	kind         string
	response     string
}

func (f *fileFactory) Name() string           { return f.name }
func (f *fileFactory) Capabilities() []string { return f.capabilities }

func (f *fileFactory) Create() (Driver, error) {
	switch f.kind {
	case "static":
		return staticDriver{response: f.response}, nil
	default:
		return echoDriver{}, nil
	}
}

// echoDriver returns the prompt it was given, useful for exercising
// workflow logic end to end without a real AI backend.
type echoDriver struct{}

func (echoDriver) Query(_ context.Context, prompt string, _ Options) (Response, error) {
	return Response{Content: prompt}, nil
}

// staticDriver always returns the same canned response, useful for
// deterministic tests of workflows that branch on driver output.
type staticDriver struct {
	response string
}

func (d staticDriver) Query(_ context.Context, _ string, _ Options) (Response, error) {
	return Response{Content: d.response}, nil
}
