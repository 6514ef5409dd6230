package executor

import (
	"fmt"
	"sync"

	"github.com/otolab/sebas-chan-sub000/event"
)

// staged is one event buffered by a staging emitter, awaiting flush.
type staged struct {
	kind     event.Kind
	payload  map[string]any
	priority event.Priority
}

// stagingEmitter buffers Emit calls off-queue until the executor commits
// the execution that owns it (spec.md §4.7). depth is the emission depth
// of the event being executed; emissions that would exceed maxDepth are
// rejected outright rather than buffered, guarding against runaway
// self-trigger chains.
type stagingEmitter struct {
	mu       sync.Mutex
	buffered []staged
	depth    int
	maxDepth int
}

func newStagingEmitter(depth, maxDepth int) *stagingEmitter {
	return &stagingEmitter{depth: depth, maxDepth: maxDepth}
}

func (s *stagingEmitter) Emit(kind event.Kind, payload map[string]any, priority event.Priority) error {
	if s.maxDepth > 0 && s.depth+1 > s.maxDepth {
		return fmt.Errorf("emission depth %d exceeds max_emission_depth %d", s.depth+1, s.maxDepth)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buffered = append(s.buffered, staged{kind: kind, payload: payload, priority: priority})
	return nil
}

// nextDepth returns the emission depth staged events from this emitter
// should carry — one more than the depth of the event being executed.
func (s *stagingEmitter) nextDepth() int {
	return s.depth + 1
}

func (s *stagingEmitter) drain() []staged {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.buffered
	s.buffered = nil
	return out
}
