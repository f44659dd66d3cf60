// Package slab provides the off-heap, page-backed storage used by the
// hazard registry to hold its slots. Each Chunk is a fixed-size array of
// word-sized atomic cells, mmap'd outside the Go heap so the registry's
// bookkeeping memory is never scanned by the garbage collector and a
// handed-out slot pointer is never moved by it either.
package slab

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/fmstephe/flib/fmath"
	"golang.org/x/sys/unix"
)

// Size is the number of slots contained in a single chunk. It is rounded
// up to a power of two, matching the slab sizing convention used
// throughout this codebase's lineage of slab allocators.
var Size = int(fmath.NxtPowerOfTwo(256))

// A Chunk is a fixed-size, mmap'd array of word-sized atomic cells. Chunks
// are never resized or moved once allocated; a pointer into a Chunk handed
// out by a registry remains valid for the chunk's lifetime.
type Chunk struct {
	data  []byte
	slots []atomic.Uintptr
}

// NewChunk mmaps a new chunk of Size slots, all initialised to zero by the
// kernel (the zero value of atomic.Uintptr is a valid, unused cell).
func NewChunk() *Chunk {
	slotSize := int(unsafe.Sizeof(uintptr(0)))
	totalSize := slotSize * Size

	data, err := unix.Mmap(-1, 0, totalSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		panic(fmt.Errorf("cannot allocate %d bytes via mmap for %d hazard slots: %s", totalSize, Size, err))
	}

	slots := unsafe.Slice((*atomic.Uintptr)(unsafe.Pointer(&data[0])), Size)

	return &Chunk{
		data:  data,
		slots: slots,
	}
}

// Slot returns a pointer to the i'th slot in this chunk. The pointer is
// stable for the lifetime of the chunk.
func (c *Chunk) Slot(i int) *atomic.Uintptr {
	return &c.slots[i]
}

// Destroy unmaps the chunk's backing memory. It must only be called once,
// and only once nothing can still observe slots within the chunk.
func (c *Chunk) Destroy() error {
	return unix.Munmap(c.data)
}
