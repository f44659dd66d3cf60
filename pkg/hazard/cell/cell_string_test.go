package cell

import (
	"sync"
	"testing"

	"github.com/fmstephe/hzrd/pkg/hazard/internal/testutil"
	"github.com/stretchr/testify/assert"
)

// The writer republishes a value bit-identical to one it published
// earlier (here, two distinct calls producing the same string content
// but fresh heap allocations). A reader that cannot distinguish the two
// occurrences must still find every pointer it protects valid to
// dereference.
func TestCell_ABAVisible_RepublishedValueStillValid(t *testing.T) {
	rsm := testutil.NewRandomStringMaker(42)
	repeated := rsm.MakeSizedString(16)
	other := rsm.MakeSizedString(16)

	c := NewCell(repeated)
	defer c.Close()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5000; i++ {
			if i%2 == 0 {
				c.Set(repeated)
			} else {
				c.Set(other)
			}
		}
	}()

	for i := 0; i < 5000; i++ {
		h := c.Read()
		v := *h.Value()
		assert.True(t, v == repeated || v == other)
		h.Close()
	}

	wg.Wait()
	c.Reclaim()
}

func TestCell_StringChurnNoLeak(t *testing.T) {
	rsm := testutil.NewRandomStringMaker(7)
	c := NewCell("")
	defer c.Close()

	for i := 0; i < 2000; i++ {
		c.Set(rsm.MakeSizedString(i % 32))
	}
	c.Reclaim()

	assert.Equal(t, 0, c.core.retired.Len())
}
