package resolver

import (
	"fmt"
	"log/slog"
	"sync"
)

type Entry struct {
	Key     string `json:"key"`
	Message string `json:"message"`
}

// Metadata collects best-effort diagnostics about a resolution. A nil or
// disabled Metadata silently drops entries.
type Metadata struct {
	Enabled bool

	mu      sync.Mutex
	entries []Entry
}

func NewMetadata() *Metadata {
	return &Metadata{Enabled: true}
}

func (m *Metadata) Record(key, format string, args ...any) {
	if m == nil || !m.Enabled {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Warn("Dropped metadata entry", "key", key, "panic", r)
		}
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, Entry{Key: key, Message: fmt.Sprintf(format, args...)})
}

func (m *Metadata) Entries() []Entry {
	if m == nil {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)

	return out
}

// Lookup returns the message of the first entry with the key.
func (m *Metadata) Lookup(key string) (string, bool) {
	for _, e := range m.Entries() {
		if e.Key == key {
			return e.Message, true
		}
	}

	return "", false
}
