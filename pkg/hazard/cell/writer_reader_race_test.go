package cell

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Demonstrates that a Writer and several Readers, each with their own
// dedicated slot, can run concurrently with no data race.
//
// This test should be run with -race.
func TestWriterManyReaders_Race(t *testing.T) {
	const readerCount = 32
	const readsPerReader = 5_000

	w := NewWriter(0)
	defer w.Close()

	barrier := sync.WaitGroup{}
	barrier.Add(1)

	var wg sync.WaitGroup
	for i := 0; i < readerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := w.MakeReader()
			defer r.Close()

			barrier.Wait()
			for j := 0; j < readsPerReader; j++ {
				v := r.Get()
				assert.GreaterOrEqual(t, v, 0)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		barrier.Wait()
		for i := 1; i <= 2000; i++ {
			w.Set(i)
		}
	}()

	barrier.Done()
	wg.Wait()

	w.Reclaim()
	assert.Equal(t, 0, w.core.retired.Len())
}
