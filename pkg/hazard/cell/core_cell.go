// Package cell implements the hazard-pointer core cell and the two
// presentations built on top of it: a freely cloneable Cell, and a
// Writer/Reader pair.
//
// The core cell binds a single atomic published pointer, a hazard
// registry and a retired list into the read-protect / write-swap /
// reclaim protocol. It is not exported directly; callers use one of the
// two presentations.
package cell

import (
	"sync/atomic"
	"unsafe"

	"github.com/fmstephe/hzrd/pkg/hazard/registry"
	"github.com/fmstephe/hzrd/pkg/hazard/retired"
)

const minReclaimThreshold = 8

// coreCell owns the published pointer, the hazard registry and the
// retired list for one hazard-protected value. Its lifetime must bound
// the lifetime of every Slot ever acquired from its registry and every
// pointer ever returned by readProtect.
type coreCell[T any] struct {
	published atomic.Pointer[T]
	registry  *registry.Registry
	retired   *retired.List[T]
	threshold int // 0 means "use the dynamic default"
}

func newCoreCell[T any](v T, cfg config) *coreCell[T] {
	c := &coreCell[T]{
		registry:  registry.New(),
		retired:   retired.New[T](),
		threshold: cfg.reclaimThreshold,
	}
	c.published.Store(&v)
	return c
}

// readProtect is the reader's pin protocol. On return the T at the
// returned pointer is guaranteed not to be freed until slot is cleared or
// overwritten with a different value.
func (c *coreCell[T]) readProtect(slot registry.Slot) *T {
	for {
		p := c.published.Load()
		addr := uintptr(unsafe.Pointer(p))

		// Publish the candidate address into the caller's slot. This
		// store must be observable, via SnapshotPinned's sequentially
		// consistent walk, by any writer whose swap happens after the
		// load above in program order.
		slot.Publish(addr)

		// Re-read the published pointer. If it has changed since our
		// first load, a writer may have already retired the value we
		// just pinned without seeing our publish - discard it and
		// retry rather than risk returning a value whose retirement
		// we raced.
		p2 := c.published.Load()
		if uintptr(unsafe.Pointer(p2)) != addr {
			continue
		}

		return p
	}
}

// clearSlot transitions slot from pinned(*) back to active, empty.
func (c *coreCell[T]) clearSlot(slot registry.Slot) {
	slot.Clear()
}

// set is the writer protocol: publish v, retiring whatever was
// previously published, then maybe trigger a reclamation pass.
func (c *coreCell[T]) set(v T) {
	newP := &v
	oldP := c.published.Swap(newP)
	c.retired.Append(oldP)

	if c.retired.Len() > c.reclaimThreshold() {
		c.reclaim()
	}
}

// reclaim snapshots the registry's pinned set and asks the retired list
// to free every entry not in it.
func (c *coreCell[T]) reclaim() {
	protected := c.registry.SnapshotPinned()
	c.retired.Reclaim(protected)
}

func (c *coreCell[T]) reclaimThreshold() int {
	if c.threshold > 0 {
		return c.threshold
	}
	t := 2 * c.registry.SlotCount()
	if t < minReclaimThreshold {
		t = minReclaimThreshold
	}
	return t
}

// close drains the retired list unconditionally and closes the registry.
// It must only be called once nothing can still be pinned - the caller
// presentation is responsible for that lifetime discipline. Destroying
// the core while a slot remains pinned is a usage error this library
// does not detect.
func (c *coreCell[T]) close() {
	c.retired.DrainAll()
	c.registry.Close()
}
