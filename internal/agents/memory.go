package agents

import (
	"sync"
	"time"
)

// MemoryEntry is one remembered exchange.
type MemoryEntry struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Memory is a bounded per-agent conversation buffer. When the buffer grows
// past limit it is trimmed to the keep most recent entries, oldest first out.
type Memory struct {
	mu      sync.Mutex
	entries []MemoryEntry
	limit   int
	keep    int
}

// NewMemory creates a bounded memory buffer
func NewMemory(limit, keep int) *Memory {
	if limit <= 0 {
		limit = 100
	}
	if keep <= 0 || keep > limit {
		keep = limit / 2
	}
	return &Memory{
		entries: make([]MemoryEntry, 0, limit),
		limit:   limit,
		keep:    keep,
	}
}

// Remember appends an entry, trimming to the most recent keep entries when
// the buffer exceeds its limit
func (m *Memory) Remember(role, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, MemoryEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})

	if len(m.entries) > m.limit {
		trimmed := make([]MemoryEntry, m.keep)
		copy(trimmed, m.entries[len(m.entries)-m.keep:])
		m.entries = trimmed
	}
}

// Recent returns a copy of the most recent n entries in chronological order
func (m *Memory) Recent(n int) []MemoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}

	out := make([]MemoryEntry, n)
	copy(out, m.entries[len(m.entries)-n:])
	return out
}

// Len returns the number of stored entries
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
