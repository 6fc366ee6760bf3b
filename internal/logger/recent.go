package logger

import (
	"encoding/json"
	"sync"
)

// Entry is one parsed log line.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// Recent is an io.Writer that keeps the last entries written by zerolog in a
// fixed-size ring.
type Recent struct {
	mu      sync.RWMutex
	entries []Entry
	next    int
	full    bool
}

// NewRecent creates a buffer holding up to capacity entries.
func NewRecent(capacity int) *Recent {
	if capacity <= 0 {
		capacity = 1
	}
	return &Recent{entries: make([]Entry, capacity)}
}

// Write implements io.Writer. Lines that are not JSON objects are ignored.
func (r *Recent) Write(p []byte) (int, error) {
	var raw map[string]any
	if err := json.Unmarshal(p, &raw); err != nil {
		return len(p), nil //nolint:nilerr // not a zerolog line
	}

	entry := Entry{
		Timestamp: take(raw, "time"),
		Level:     take(raw, "level"),
		Component: take(raw, "component"),
		Message:   take(raw, "message"),
	}
	if len(raw) > 0 {
		entry.Fields = raw
	}

	r.mu.Lock()
	r.entries[r.next] = entry
	r.next = (r.next + 1) % len(r.entries)
	if r.next == 0 {
		r.full = true
	}
	r.mu.Unlock()

	return len(p), nil
}

func take(raw map[string]any, key string) string {
	v, _ := raw[key].(string)
	delete(raw, key)
	return v
}

// Entries returns the buffered entries, oldest first. At most limit entries
// are returned when limit is positive.
func (r *Recent) Entries(limit int) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Entry
	if r.full {
		out = append(out, r.entries[r.next:]...)
	}
	out = append(out, r.entries[:r.next]...)

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out
}

// Len returns the number of buffered entries.
func (r *Recent) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.entries)
	}
	return r.next
}
