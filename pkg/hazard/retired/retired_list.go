// Package retired implements the retired list: an append-only collection
// of heap-owned values that have been logically replaced but not yet
// proven safe to free.
package retired

import (
	"sync"
	"unsafe"
)

// List holds values retired by a single core cell's writer. Appends are
// concurrent-safe with other appends and with a concurrent Reclaim or
// DrainAll call; this implementation serializes all three behind one
// mutex, mirroring the freeLock-guarded free list used by this
// codebase's slab allocators.
type List[T any] struct {
	mu    sync.Mutex
	items []*T
}

// New creates an empty retired list.
func New[T any]() *List[T] {
	return &List[T]{}
}

// Append adds an owned pointer to the list.
func (l *List[T]) Append(p *T) {
	l.mu.Lock()
	l.items = append(l.items, p)
	l.mu.Unlock()
}

// Len returns the number of values currently retired and not yet freed.
func (l *List[T]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items)
}

// Values returns a snapshot copy of every currently retired value, for
// diagnostics and tests.
func (l *List[T]) Values() []T {
	l.mu.Lock()
	defer l.mu.Unlock()

	values := make([]T, len(l.items))
	for i, p := range l.items {
		values[i] = *p
	}
	return values
}

// Reclaim frees (drops the reference to) every retired entry whose
// address is not present in protected, leaving the rest for a future
// pass. An entry is freed by removing it from the list; once no other
// reference to it exists the garbage collector reclaims the memory.
func (l *List[T]) Reclaim(protected map[uintptr]struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.items[:0]
	for _, p := range l.items {
		addr := uintptr(unsafe.Pointer(p))
		if _, stillPinned := protected[addr]; stillPinned {
			kept = append(kept, p)
		}
		// else: drop the reference, letting the GC reclaim it.
	}
	l.items = kept
}

// DrainAll frees every retired entry unconditionally. Used only during
// core cell destruction, once no reader can observe any of them.
func (l *List[T]) DrainAll() {
	l.mu.Lock()
	l.items = nil
	l.mu.Unlock()
}
