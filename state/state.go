// Package state implements the shared state document manager (spec.md
// §4.10): a single natural-language text composed of "## <Section>"
// blocks, mutated only under a mutex, with last-write-wins semantics and
// best-effort asynchronous persistence.
package state

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/otolab/sebas-chan-sub000/pkg/logger"
)

// Writer is the persistence sink a Manager writes through. storage.Handle
// satisfies this via its UpdateState method; kept as a narrow interface
// here so state doesn't need to import the storage package.
type Writer interface {
	UpdateState(ctx context.Context, text string) error
}

// Notifier receives state-change notifications. notify.Bus implements
// this to fan state:updated/state:appended out to observers.
type Notifier interface {
	NotifyStateChanged(kind string)
}

// Manager holds the current state document and serializes every mutation
// through a single mutex. The zero value is not usable; construct with
// New.
type Manager struct {
	mu        sync.Mutex
	document  string
	updatedAt time.Time

	writer   Writer
	notifier Notifier
	log      *logger.Logger
}

// New creates a Manager seeded with bootstrap as the initial document.
// writer and notifier may be nil.
func New(bootstrap string, writer Writer, notifier Notifier, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.NewDefault("state")
	}
	return &Manager{
		document:  bootstrap,
		updatedAt: time.Now().UTC(),
		writer:    writer,
		notifier:  notifier,
		log:       log,
	}
}

// Get returns the current document. The return value is a snapshot — the
// caller's copy is unaffected by subsequent mutations.
func (m *Manager) Get() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.document
}

// UpdatedAt returns the timestamp of the most recent mutation.
func (m *Manager) UpdatedAt() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updatedAt
}

// Replace swaps the whole document for newValue, last-write-wins among
// concurrent callers.
func (m *Manager) Replace(newValue string) {
	m.mu.Lock()
	m.document = newValue
	m.updatedAt = time.Now().UTC()
	m.mu.Unlock()

	m.persistAndNotify("state:updated")
}

// Append inserts content immediately after the "## <section>" header,
// before the next "## " header (or at document end if section is the
// last one). If section does not exist, it is created at the end of the
// document.
func (m *Manager) Append(section, content string) {
	m.mu.Lock()
	m.document = appendToSection(m.document, section, content)
	m.updatedAt = time.Now().UTC()
	m.mu.Unlock()

	m.persistAndNotify("state:appended")
}

func (m *Manager) persistAndNotify(kind string) {
	if m.notifier != nil {
		m.notifier.NotifyStateChanged(kind)
	}
	if m.writer == nil {
		return
	}
	// Persistence is asynchronous and best-effort: a write failure is
	// logged but never rolls back the in-memory document.
	doc := m.Get()
	go func() {
		if err := m.writer.UpdateState(context.Background(), doc); err != nil {
			m.log.WithField("error", err).Warn("failed to persist state document")
		}
	}()
}

const sectionPrefix = "## "

func appendToSection(document, section, content string) string {
	if content == "" {
		return document
	}

	header := sectionPrefix + section
	lines := strings.Split(document, "\n")

	headerIdx := -1
	for i, line := range lines {
		if strings.TrimRight(line, " \t") == header {
			headerIdx = i
			break
		}
	}

	if headerIdx == -1 {
		if document != "" && !strings.HasSuffix(document, "\n") {
			document += "\n"
		}
		return document + header + "\n" + content + "\n"
	}

	insertAt := len(lines)
	for i := headerIdx + 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], sectionPrefix) {
			insertAt = i
			break
		}
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, content)
	out = append(out, lines[insertAt:]...)
	return strings.Join(out, "\n")
}
