// Package fuzzutil turns an arbitrary byte stream into a sequence of
// steps, for driving byte-driven fuzz and property tests. Adapted from
// this codebase's object-store fuzzing harness.
package fuzzutil

import "encoding/binary"

// ByteConsumer hands out fixed-size chunks of a byte slice, shrinking as
// it is consumed. Once exhausted it returns zeroed chunks rather than
// panicking, so a short input still produces a (possibly trivial) step
// sequence.
type ByteConsumer struct {
	bytes []byte
}

func NewByteConsumer(bytes []byte) *ByteConsumer {
	return &ByteConsumer{bytes: bytes}
}

func (c *ByteConsumer) Len() int {
	return len(c.bytes)
}

func (c *ByteConsumer) Bytes(size int) []byte {
	consumed := make([]byte, size)
	copy(consumed, c.bytes)

	if len(c.bytes) <= size {
		c.bytes = c.bytes[:0]
	} else {
		c.bytes = c.bytes[size:]
	}
	return consumed
}

func (c *ByteConsumer) Byte() byte {
	return c.Bytes(1)[0]
}

func (c *ByteConsumer) Uint32() uint32 {
	return binary.LittleEndian.Uint32(c.Bytes(4))
}
