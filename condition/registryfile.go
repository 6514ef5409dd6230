package condition

import (
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/otolab/sebas-chan-sub000/event"
	"github.com/otolab/sebas-chan-sub000/runctx"
	"github.com/otolab/sebas-chan-sub000/workflow"
)

// FileEntry is one declarative, condition-gated annotation workflow
// described in a condition_config_path YAML file. It gives an operator a
// way to react to events by appending an extracted field to the state
// document without writing Go — the declarative counterpart to the driver
// registry file, for the condition/trigger side of the engine.
type FileEntry struct {
	Name         string   `yaml:"name"`
	EventKinds   []string `yaml:"event_kinds"`
	Expression   string   `yaml:"expression"`    // goja boolean expression; empty means "always eligible"
	Section      string   `yaml:"section"`       // state document section the extracted value is appended to
	FieldPath    string   `yaml:"field_path"`    // gjson path into the event payload; empty appends the event kind instead
	PriorityHint int      `yaml:"priority_hint"`
}

// LoadWorkflowFile reads a YAML list of FileEntry values and compiles
// each into a workflow.Definition ready for registry.Registry.Register.
// Each entry's Expression (if set) is compiled through Compile, so a
// resolver evaluating the resulting Definition's Triggers.Condition
// exercises the same goja isolation path condition_test.go exercises
// directly.
func LoadWorkflowFile(path string) ([]workflow.Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read condition config file %s: %w", path, err)
	}

	var entries []FileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse condition config file %s: %w", path, err)
	}

	defs := make([]workflow.Definition, 0, len(entries))
	for _, entry := range entries {
		def, err := buildDefinition(entry)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func buildDefinition(entry FileEntry) (workflow.Definition, error) {
	if entry.Name == "" {
		return workflow.Definition{}, fmt.Errorf("condition config entry missing name")
	}
	if entry.Section == "" {
		return workflow.Definition{}, fmt.Errorf("condition config entry %q missing section", entry.Name)
	}

	kinds := make([]event.Kind, len(entry.EventKinds))
	for i, k := range entry.EventKinds {
		kinds[i] = event.Kind(k)
	}

	var cond func(*event.Event) bool
	if entry.Expression != "" {
		compiled, err := Compile(entry.Expression)
		if err != nil {
			return workflow.Definition{}, fmt.Errorf("condition config entry %q: %w", entry.Name, err)
		}
		cond = compiled
	}

	return workflow.Definition{
		Name:        entry.Name,
		Description: "declarative condition-gated annotation workflow loaded from config",
		Triggers: workflow.Triggers{
			EventKinds:   kinds,
			Condition:    cond,
			PriorityHint: entry.PriorityHint,
		},
		Executor: annotationExecutor(entry.Name, entry.Section, entry.FieldPath),
	}, nil
}

// annotationExecutor builds the executor for one declarative workflow: it
// extracts FieldPath from the triggering event's payload via Field (or
// falls back to the event kind when FieldPath is empty or absent) and
// appends it to Section in the state document.
func annotationExecutor(name, section, fieldPath string) workflow.Func {
	return func(_ context.Context, ev *event.Event, wctx *runctx.Context, _ runctx.Emitter) (workflow.Result, error) {
		value := string(ev.Kind)
		if fieldPath != "" {
			if field, err := Field(ev.Payload, fieldPath); err == nil && field.Exists() {
				value = field.String()
			}
		}

		line := fmt.Sprintf("[%s] %s", name, value)
		newState := appendLine(wctx.State, section, line)

		return workflow.Result{
			Success:       true,
			ContextUpdate: &workflow.ContextUpdate{State: &newState},
			Output:        map[string]any{"value": value},
		}, nil
	}
}

// appendLine adds line to the end of document under a "## section"
// header, creating the header if absent. Unlike state.Manager.Append
// (which inserts before the next header to keep a section contiguous),
// this always appends at document end — declarative annotation workflows
// only ever add a trailing log line, never interleave with the rest of a
// section's content.
func appendLine(document, section, line string) string {
	header := "## " + section
	if document != "" && !strings.HasSuffix(document, "\n") {
		document += "\n"
	}
	if !strings.Contains(document, header) {
		return document + header + "\n" + line + "\n"
	}
	return document + line + "\n"
}
