// Package testutil provides small deterministic random-data generators
// shared across this module's tests. Adapted from this codebase's
// general-purpose test helpers.
package testutil

import (
	"math/rand"
	"strings"
)

const letters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// RandomStringMaker produces reproducible pseudo-random strings, useful
// for generating tagged values in hazard-cell churn tests where T is a
// string rather than a small scalar.
type RandomStringMaker struct {
	r *rand.Rand
}

func NewRandomStringMaker(seed int64) *RandomStringMaker {
	return &RandomStringMaker{
		r: rand.New(rand.NewSource(seed)),
	}
}

func (rsm *RandomStringMaker) MakeSizedString(length int) string {
	builder := strings.Builder{}
	builder.Grow(length)
	for i := 0; i < length; i++ {
		builder.WriteByte(letters[rsm.r.Intn(len(letters))])
	}
	return builder.String()
}
