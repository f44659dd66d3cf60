package cell

import "github.com/fmstephe/hzrd/pkg/hazard/registry"

// Writer owns a core cell exclusively. It is the sole source of Set
// calls against that cell; readers are constructed from it via
// MakeReader and must not outlive it.
type Writer[T any] struct {
	core *coreCell[T]
}

// NewWriter constructs a Writer holding v.
func NewWriter[T any](v T, opts ...Option) *Writer[T] {
	cfg := buildConfig(opts)
	return &Writer[T]{
		core: newCoreCell(v, cfg),
	}
}

// Set replaces the published value, retiring the prior one.
func (w *Writer[T]) Set(v T) {
	w.core.set(v)
}

// Reclaim forces a reclamation pass.
func (w *Writer[T]) Reclaim() {
	w.core.reclaim()
}

// RegistryStats reports the writer's hazard registry accounting, for
// diagnostics.
func (w *Writer[T]) RegistryStats() registry.Stats {
	return w.core.registry.Stats()
}

// MakeReader allocates a dedicated hazard slot and returns a Reader bound
// to it for its entire lifetime. The returned Reader must be Closed, and
// must not be used after w.Close is called.
func (w *Writer[T]) MakeReader() *Reader[T] {
	return &Reader[T]{
		writer: w,
		slot:   w.core.registry.Acquire(),
	}
}

// Close destroys the writer's core cell: the published value and every
// retired value are dropped, and the registry's off-heap memory is
// unmapped. Every Reader made from this Writer must already be Closed.
func (w *Writer[T]) Close() {
	w.core.close()
}

// Reader holds a dedicated hazard slot for its entire lifetime, so its
// read path skips slot acquisition and release on every call. A Reader
// must not outlive the Writer it was made from.
type Reader[T any] struct {
	writer *Writer[T]
	slot   registry.Slot
}

// Get returns a snapshot copy of the currently published value.
func (r *Reader[T]) Get() T {
	p := r.writer.core.readProtect(r.slot)
	v := *p
	r.writer.core.clearSlot(r.slot)
	return v
}

// Read returns a scoped handle over the currently published value.
// Closing the handle clears the reader's slot, but - unlike Cell's
// ReadHandle - does not release it back to the registry: the slot
// remains dedicated to this Reader until the Reader itself is Closed.
func (r *Reader[T]) Read() *ReadHandle[T] {
	p := r.writer.core.readProtect(r.slot)

	slot := r.slot
	core := r.writer.core
	return &ReadHandle[T]{
		value: p,
		onClose: func() {
			core.clearSlot(slot)
		},
	}
}

// Close releases this reader's dedicated hazard slot back to the
// writer's registry. The reader must not be used again afterwards.
func (r *Reader[T]) Close() {
	r.writer.core.registry.Release(r.slot)
}
