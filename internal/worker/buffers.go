package worker

import (
	"sync"
	"time"
)

// BufferEntry is one captured diagnostic line.
type BufferEntry struct {
	Time time.Time `json:"time"`
	Text string    `json:"text"`
}

// Buffer is a bounded append-only log owned by one worker process. Oldest
// entries are evicted first once the cap is exceeded. Never persisted and
// never shared across processes.
type Buffer struct {
	mu      sync.Mutex
	cap     int
	entries []BufferEntry
}

const DefaultBufferCap = 200

// NewBuffer creates a buffer holding at most cap entries.
func NewBuffer(cap int) *Buffer {
	if cap <= 0 {
		cap = DefaultBufferCap
	}
	return &Buffer{cap: cap}
}

// Append records one entry, evicting the oldest when full.
func (b *Buffer) Append(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = append(b.entries, BufferEntry{Time: time.Now(), Text: text})
	if len(b.entries) > b.cap {
		b.entries = b.entries[len(b.entries)-b.cap:]
	}
}

// Snapshot returns a copy of the newest limit entries, oldest first.
// limit <= 0 returns everything retained.
func (b *Buffer) Snapshot(limit int) []BufferEntry {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.entries)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]BufferEntry, n)
	copy(out, b.entries[len(b.entries)-n:])
	return out
}

// Len reports the retained entry count.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
