package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRandomStringMaker_MakeSizedString(t *testing.T) {
	rsm := NewRandomStringMaker(1)

	for i := 0; i < 1000; i++ {
		str := rsm.MakeSizedString(i)
		assert.Equal(t, i, len(str))
	}
}
