// Package registry implements the hazard registry: a growable collection
// of per-reader hazard slots, supporting allocation, release-for-reuse,
// and a snapshot read of every currently-protected pointer value.
//
// A hazard slot is one of three logical states:
//
//   - Free: available for allocation to a new reader.
//   - Active, empty: owned by a reader, advertising "no pointer pinned".
//   - Active, pinned(p): owned by a reader, advertising that address p is
//     in use and must not be freed.
//
// Growth is monotone: slots are never removed from a Registry, only
// released for reuse, so a Slot handed out by Acquire remains valid for
// the Registry's lifetime.
package registry

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/fmstephe/hzrd/pkg/hazard/internal/slab"
)

const (
	// slotFree marks a slot as available for allocation. The end of the
	// intrusive free list threaded through released slots' metadata is
	// marked separately, by nilID.
	slotFree uintptr = 0

	// slotEmpty marks a slot as owned by a reader with nothing pinned.
	// It is a reserved sentinel distinct from slotFree and from any
	// address a reader could ever publish, since Go pointers are always
	// word-aligned and therefore never equal to 1.
	slotEmpty uintptr = 1
)

// Stats reports registry-wide bookkeeping, mirroring the accounting this
// codebase's slab allocators expose elsewhere.
type Stats struct {
	Acquired int64
	Released int64
	Reused   int64
	Live     int64
	MaxLive  int64
	Chunks   int
}

// Slot is a stable reference to one hazard slot. It remains valid for the
// lifetime of the Registry that produced it; growing the registry never
// invalidates a previously returned Slot.
type Slot struct {
	word *atomic.Uintptr
	meta *slotMeta
	id   slotID
	gen  uint32
}

// Publish pins p in this slot. The store uses sequential consistency so
// that a SnapshotPinned call whose own load is sequenced after this store
// in the single total SeqCst order is guaranteed to observe it.
func (s Slot) Publish(p uintptr) {
	s.word.Store(p)
}

// Clear transitions the slot back to "active, empty", discarding whatever
// pointer value was previously published.
func (s Slot) Clear() {
	s.word.Store(slotEmpty)
}

func (s Slot) pinned() (uintptr, bool) {
	v := s.word.Load()
	if v == slotFree || v == slotEmpty {
		return 0, false
	}
	return v, true
}

// slotID identifies a slot's position within the registry's chunk list.
type slotID struct {
	chunkIdx int
	slotIdx  int
}

func (id slotID) isNil() bool {
	return id.chunkIdx < 0
}

var nilID = slotID{chunkIdx: -1}

// slotMeta is the on-heap bookkeeping for one off-heap hazard slot: a
// generation counter used to catch a Slot being used after it has been
// released (best-effort, mirrors the generation-tagged references used by
// this codebase's object allocators), and the intrusive free-list link
// used while the slot is Free.
type slotMeta struct {
	gen      atomic.Uint32
	nextFree slotID
}

type chunkEntry struct {
	words *slab.Chunk
	meta  []slotMeta
}

// Registry is a growable collection of hazard slots, owned by exactly one
// core cell.
type Registry struct {
	// growLock protects chunks. Acquiring a slot from an existing chunk
	// only needs a read lock; appending a new chunk requires the write
	// lock. This mirrors the read/write-lock split this codebase's slab
	// allocators use to let readers and one grower proceed concurrently
	// without invalidating previously handed-out slot pointers.
	growLock sync.RWMutex
	chunks   []*chunkEntry

	// freeLock protects rootFree and every slotMeta.nextFree link
	// reachable from it.
	freeLock sync.Mutex
	rootFree slotID

	acquired atomic.Int64
	released atomic.Int64
	reused   atomic.Int64
	maxLive  atomic.Int64
}

// New creates an empty Registry. No chunks are mmap'd until the first
// Acquire call.
func New() *Registry {
	return &Registry{
		rootFree: nilID,
	}
}

// Acquire returns a Slot in state "active, empty", preferring to reuse a
// previously Released slot before growing the registry.
func (r *Registry) Acquire() Slot {
	r.acquired.Add(1)

	if s, ok := r.acquireFromFree(); ok {
		r.reused.Add(1)
		r.trackLive()
		return s
	}

	s := r.acquireFromGrowth()
	r.trackLive()
	return s
}

func (r *Registry) trackLive() {
	live := r.acquired.Load() - r.released.Load()
	for {
		max := r.maxLive.Load()
		if live <= max {
			return
		}
		if r.maxLive.CompareAndSwap(max, live) {
			return
		}
	}
}

// Release transitions a slot back to Free. The caller must not use s via
// any reference obtained before this call again.
func (r *Registry) Release(s Slot) {
	r.freeLock.Lock()
	defer r.freeLock.Unlock()

	if s.meta.gen.Load() != s.gen {
		panic(fmt.Errorf("attempted to release stale hazard slot %+v", s.id))
	}

	s.word.Store(slotFree)
	s.meta.gen.Add(1)
	s.meta.nextFree = r.rootFree
	r.rootFree = s.id

	r.released.Add(1)
}

// SnapshotPinned walks every slot in the registry and collects those
// currently in state pinned(p). The load on each slot uses sequential
// consistency, ordering this walk against any reader's Publish that is
// sequenced-before in the single total SeqCst order established with the
// writer's published-pointer swap (see cell.coreCell.set).
func (r *Registry) SnapshotPinned() map[uintptr]struct{} {
	r.growLock.RLock()
	defer r.growLock.RUnlock()

	protected := make(map[uintptr]struct{})

	for ci := range r.chunks {
		chunk := r.chunks[ci].words
		for si := 0; si < slab.Size; si++ {
			v := chunk.Slot(si).Load()
			if v == slotFree || v == slotEmpty {
				continue
			}
			protected[v] = struct{}{}
		}
	}

	return protected
}

// SlotCount returns the total number of slots the registry has ever grown
// to contain (free or not). It is used to size the default reclamation
// threshold.
func (r *Registry) SlotCount() int {
	r.growLock.RLock()
	defer r.growLock.RUnlock()

	return len(r.chunks) * slab.Size
}

// Stats returns a snapshot of the registry's allocation accounting.
func (r *Registry) Stats() Stats {
	r.growLock.RLock()
	chunks := len(r.chunks)
	r.growLock.RUnlock()

	acquired := r.acquired.Load()
	released := r.released.Load()

	return Stats{
		Acquired: acquired,
		Released: released,
		Reused:   r.reused.Load(),
		Live:     acquired - released,
		MaxLive:  r.maxLive.Load(),
		Chunks:   chunks,
	}
}

// Close unmaps every chunk's backing memory. The registry must not be
// used after Close returns.
func (r *Registry) Close() error {
	r.growLock.Lock()
	defer r.growLock.Unlock()

	for i := range r.chunks {
		if err := r.chunks[i].words.Destroy(); err != nil {
			return err
		}
	}
	r.chunks = nil
	return nil
}

func (r *Registry) acquireFromFree() (Slot, bool) {
	r.freeLock.Lock()
	defer r.freeLock.Unlock()

	if r.rootFree.isNil() {
		return Slot{}, false
	}

	id := r.rootFree
	entry := r.chunkEntry(id.chunkIdx)
	meta := &entry.meta[id.slotIdx]

	r.rootFree = meta.nextFree
	meta.nextFree = nilID

	word := entry.words.Slot(id.slotIdx)
	word.Store(slotEmpty)

	return Slot{word: word, meta: meta, id: id, gen: meta.gen.Load()}, true
}

func (r *Registry) acquireFromGrowth() Slot {
	entry := &chunkEntry{
		words: slab.NewChunk(),
		meta:  make([]slotMeta, slab.Size),
	}

	r.growLock.Lock()
	chunkIdx := len(r.chunks)
	r.chunks = append(r.chunks, entry)
	r.growLock.Unlock()

	id := slotID{chunkIdx: chunkIdx, slotIdx: 0}
	meta := &entry.meta[0]
	word := entry.words.Slot(0)
	word.Store(slotEmpty)

	// The remaining slots in the freshly grown chunk start out Free and
	// are threaded onto the free list so later acquisitions reuse them
	// instead of growing again.
	r.freeLock.Lock()
	for i := slab.Size - 1; i >= 1; i-- {
		entry.meta[i].nextFree = r.rootFree
		r.rootFree = slotID{chunkIdx: chunkIdx, slotIdx: i}
	}
	r.freeLock.Unlock()

	return Slot{word: word, meta: meta, id: id, gen: meta.gen.Load()}
}

func (r *Registry) chunkEntry(idx int) *chunkEntry {
	r.growLock.RLock()
	defer r.growLock.RUnlock()
	return r.chunks[idx]
}
