package logging

import "sync"

// DefaultBufferSize is the TUI ring buffer capacity.
const DefaultBufferSize = 200

// Buffer is a fixed-size ring of the most recent entries.
type Buffer struct {
	mu    sync.RWMutex
	ring  []Entry
	head  int
	count int
}

// NewBuffer allocates a ring holding up to size entries.
func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{ring: make([]Entry, size)}
}

// Add stores e, evicting the oldest entry when full.
func (b *Buffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.ring[(b.head+b.count)%len(b.ring)] = e
	if b.count < len(b.ring) {
		b.count++
		return
	}
	b.head = (b.head + 1) % len(b.ring)
}

// Entries returns a copy of the buffer, oldest first.
func (b *Buffer) Entries() []Entry {
	return b.Last(-1)
}

// Last returns up to n newest entries in chronological order. A negative n
// returns everything.
func (b *Buffer) Last(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n < 0 || n > b.count {
		n = b.count
	}
	out := make([]Entry, n)
	skip := b.count - n
	for i := range out {
		out[i] = b.ring[(b.head+skip+i)%len(b.ring)]
	}
	return out
}

func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.head, b.count = 0, 0
}
