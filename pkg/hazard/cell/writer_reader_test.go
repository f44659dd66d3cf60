package cell

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_SingleThreaded(t *testing.T) {
	w := NewWriter(7)
	defer w.Close()

	r := w.MakeReader()
	defer r.Close()

	assert.Equal(t, 7, r.Get())

	w.Set(9)
	assert.Equal(t, 9, r.Get())
}

func TestReader_ReadHandleClearsButKeepsSlot(t *testing.T) {
	w := NewWriter(1)
	defer w.Close()

	r := w.MakeReader()
	defer r.Close()

	statsBefore := w.core.registry.Stats()

	h := r.Read()
	assert.Equal(t, 1, *h.Value())
	h.Close()

	// Reading again must not acquire a new slot: the reader keeps its
	// dedicated slot for its entire lifetime.
	h2 := r.Read()
	assert.Equal(t, 1, *h2.Value())
	h2.Close()

	statsAfter := w.core.registry.Stats()
	assert.Equal(t, statsBefore.Acquired, statsAfter.Acquired)
}

// A reader constructed from a writer observes writes in real time.
func TestWriterReader_ObservesWritesInRealTime(t *testing.T) {
	w := NewWriter(0)
	defer w.Close()

	r := w.MakeReader()
	defer r.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 1000; i++ {
			w.Set(i)
		}
	}()
	wg.Wait()

	assert.Equal(t, 1000, r.Get())
}

func TestWriter_MultipleReadersIndependentSlots(t *testing.T) {
	w := NewWriter(1)
	defer w.Close()

	r1 := w.MakeReader()
	r2 := w.MakeReader()
	defer r1.Close()
	defer r2.Close()

	w.Set(2)

	assert.Equal(t, 2, r1.Get())
	assert.Equal(t, 2, r2.Get())

	assert.Equal(t, int64(2), w.core.registry.Stats().Acquired)
}

// Go has no borrow checker, so a Reader cannot be statically prevented
// from outliving its Writer. The enforcement here is the ownership
// discipline documented on Writer and Reader: a Reader must be Closed,
// and must not be used, after its Writer is Closed. This is a usage
// error the library does not detect at runtime.
func TestWriterReader_ScopedLifetimeIsDocumentedNotEnforced(t *testing.T) {
	w := NewWriter(1)
	r := w.MakeReader()

	assert.Equal(t, 1, r.Get())

	r.Close()
	w.Close()
}
