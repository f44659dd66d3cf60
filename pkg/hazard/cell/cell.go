package cell

import "sync/atomic"

// Cell is a freely cloneable, shared hazard-pointer cell. Every clone
// participates in the same underlying core cell; hazard slots are
// acquired lazily per read and released immediately after. The last
// clone to Close releases the shared core.
//
// A Cell is safe for concurrent use by multiple goroutines, including
// concurrent Clone, Get, Read, Set and Close calls.
type Cell[T any] struct {
	core *coreCell[T]
	refs *atomic.Int64
}

// NewCell constructs a Cell holding v.
func NewCell[T any](v T, opts ...Option) *Cell[T] {
	cfg := buildConfig(opts)
	refs := &atomic.Int64{}
	refs.Store(1)
	return &Cell[T]{
		core: newCoreCell(v, cfg),
		refs: refs,
	}
}

// Clone returns a new handle to the same underlying cell. The returned
// Cell must be Closed independently of the original.
func (c *Cell[T]) Clone() *Cell[T] {
	c.refs.Add(1)
	return &Cell[T]{
		core: c.core,
		refs: c.refs,
	}
}

// Get returns a snapshot copy of the currently published value.
func (c *Cell[T]) Get() T {
	slot := c.core.registry.Acquire()
	p := c.core.readProtect(slot)
	v := *p
	c.core.clearSlot(slot)
	c.core.registry.Release(slot)
	return v
}

// Read returns a scoped handle over the currently published value. The
// handle must be Closed by the caller; until then it holds a hazard slot
// pinning the value against reclamation.
func (c *Cell[T]) Read() *ReadHandle[T] {
	slot := c.core.registry.Acquire()
	p := c.core.readProtect(slot)

	core := c.core
	return &ReadHandle[T]{
		value: p,
		onClose: func() {
			core.clearSlot(slot)
			core.registry.Release(slot)
		},
	}
}

// Set replaces the published value, retiring the prior one.
func (c *Cell[T]) Set(v T) {
	c.core.set(v)
}

// Reclaim forces a reclamation pass.
func (c *Cell[T]) Reclaim() {
	c.core.reclaim()
}

// Close releases this handle's share of the underlying core cell. Once
// every clone (including the original returned by NewCell) has been
// Closed, the core cell is destroyed: the published value and every
// retired value are dropped, and the registry's off-heap memory is
// unmapped.
//
// Closing a Cell while a ReadHandle obtained from it (or from any clone)
// is still open is a usage error this library does not detect.
func (c *Cell[T]) Close() {
	if c.refs.Add(-1) == 0 {
		c.core.close()
	}
}
