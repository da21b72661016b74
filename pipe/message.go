package pipe

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity classifies a result entry recorded on a message.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// String returns the canonical name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Result is one entry in the message's ordered result trail.
type Result struct {
	Severity Severity
	Text     string
	At       time.Time
}

// KeyFailure is the content key under which the orchestrator attaches the
// most recent captured execution error.
const KeyFailure = "pipe.failure"

// Message is the mutable execution context threaded through one pipeline
// run. It is safe for concurrent mutation, which parallel groups rely on.
// A message is scoped to exactly one Execute call; it carries no identity
// or persistence beyond that call.
type Message struct {
	mu      sync.RWMutex
	token   string
	content map[string]any
	results []Result
	locked  bool
}

// NewMessage creates an empty message with a fresh token.
func NewMessage() *Message {
	return &Message{
		token:   uuid.NewString(),
		content: make(map[string]any),
	}
}

// Token returns the unique identifier assigned to this message at creation.
func (m *Message) Token() string {
	return m.token
}

// Set stores an arbitrary content value by key.
func (m *Message) Set(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content[key] = value
}

// Get retrieves a content value by key. Returns false if the key is absent.
func (m *Message) Get(key string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.content[key]
	return v, ok
}

// Delete removes a content value by key.
func (m *Message) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.content, key)
}

// Content retrieves a typed content value from a message.
// Returns an error if the key is missing or the type doesn't match.
func Content[T any](m *Message, key string) (T, error) {
	var zero T
	raw, ok := m.Get(key)
	if !ok {
		return zero, fmt.Errorf("pipe: content key %q not found", key)
	}
	val, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("pipe: content key %q: expected %T, got %T", key, zero, raw)
	}
	return val, nil
}

// AddResult appends a result entry with the given severity.
func (m *Message) AddResult(severity Severity, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, Result{Severity: severity, Text: text, At: time.Now()})
}

// AddInfo appends an Info-severity result entry.
func (m *Message) AddInfo(text string) { m.AddResult(SeverityInfo, text) }

// AddWarning appends a Warning-severity result entry.
func (m *Message) AddWarning(text string) { m.AddResult(SeverityWarning, text) }

// AddError appends an Error-severity result entry, making the message faulty.
func (m *Message) AddError(text string) { m.AddResult(SeverityError, text) }

// Results returns a copy of the ordered result trail.
func (m *Message) Results() []Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Result, len(m.results))
	copy(out, m.results)
	return out
}

// IsFaulty reports whether any Error-severity entry has been recorded.
// Faultiness is monotonic within a run; only a new run clears it.
func (m *Message) IsFaulty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.results {
		if r.Severity == SeverityError {
			return true
		}
	}
	return false
}

// SetLock requests that subsequent non-required operations be skipped.
func (m *Message) SetLock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locked = true
}

// IsLocked reports whether the message has been locked.
func (m *Message) IsLocked() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.locked
}

// setFailure attaches a captured execution error to the message content.
func (m *Message) setFailure(err error) {
	m.Set(KeyFailure, err)
}

// Failure returns the most recent captured execution error, or nil.
func (m *Message) Failure() error {
	raw, ok := m.Get(KeyFailure)
	if !ok {
		return nil
	}
	err, ok := raw.(error)
	if !ok {
		return nil
	}
	return err
}
