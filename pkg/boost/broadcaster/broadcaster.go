// Package broadcaster fans values out to subscribers over buffered channels.
package broadcaster

import (
	"sync"

	"github.com/google/uuid"
)

// DefaultBuffer is the per-subscriber channel capacity.
const DefaultBuffer = 100

// Subscriber receives values on C until it unsubscribes or the
// broadcaster closes.
type Subscriber[T any] struct {
	ID     string
	C      chan T
	filter func(T) bool
}

// Broadcaster delivers each published value to every matching subscriber.
// A subscriber whose channel is full misses the value; Publish never
// blocks.
type Broadcaster[T any] struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber[T]
	closed bool
	buffer int
}

// New creates a broadcaster with DefaultBuffer-sized channels.
func New[T any]() *Broadcaster[T] {
	return NewBuffered[T](DefaultBuffer)
}

// NewBuffered creates a broadcaster with size-buffered channels.
func NewBuffered[T any](size int) *Broadcaster[T] {
	if size <= 0 {
		size = DefaultBuffer
	}
	return &Broadcaster[T]{subs: map[string]*Subscriber[T]{}, buffer: size}
}

// Subscribe registers a subscriber. A nil filter accepts everything.
// Subscribe returns nil after Close.
func (b *Broadcaster[T]) Subscribe(filter func(T) bool) *Subscriber[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	sub := &Subscriber[T]{
		ID:     uuid.NewString(),
		C:      make(chan T, b.buffer),
		filter: filter,
	}
	b.subs[sub.ID] = sub
	return sub
}

// Unsubscribe removes and closes the subscriber with id.
func (b *Broadcaster[T]) Unsubscribe(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if sub, ok := b.subs[id]; ok {
		close(sub.C)
		delete(b.subs, id)
	}
}

// Publish offers v to every subscriber whose filter accepts it.
func (b *Broadcaster[T]) Publish(v T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return
	}
	for _, sub := range b.subs {
		if sub.filter != nil && !sub.filter(v) {
			continue
		}
		select {
		case sub.C <- v:
		default:
		}
	}
}

// Close closes every subscriber channel. Later Publish calls are dropped.
func (b *Broadcaster[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.C)
		delete(b.subs, id)
	}
}

// Len is the number of live subscribers.
func (b *Broadcaster[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
