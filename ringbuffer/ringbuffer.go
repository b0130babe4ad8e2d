// Package ringbuffer holds the fixed, pre-allocated slot array that
// producers and consumers share. It enforces the power-of-two size
// invariant and nothing else: slot exclusivity is the sequencer's job, not
// the buffer's.
package ringbuffer

import "fmt"

// EventFactory constructs one event instance. It is called bufferSize times
// at construction and never again: the identity of the object living at
// index i is stable for the lifetime of the buffer, only its fields mutate.
type EventFactory[E any] func() *E

// RingBuffer is a mapping from (sequence mod size) to a pre-constructed
// event slot. Size must be a strictly positive power of two, enforced at
// construction.
//
// RingBuffer itself performs no synchronization: Get hands out a pointer to
// the slot's event without locking or bounds-checking beyond the mask.
// Correctness relies entirely on callers respecting the sequencer protocol
// (at most one writer per slot at a time, readers only after Available).
type RingBuffer[E any] struct {
	entries []*E
	mask    int64
	size    int64
}

// New constructs a RingBuffer of the given size, populating every slot via
// factory. Panics if size is not a strictly positive power of two; this is
// a construction-time misuse bug, not a runtime condition.
func New[E any](size int64, factory EventFactory[E]) *RingBuffer[E] {
	if size <= 0 || size&(size-1) != 0 {
		panic(fmt.Sprintf("ringbuffer: size must be a positive power of two, got %d", size))
	}
	entries := make([]*E, size)
	for i := range entries {
		entries[i] = factory()
	}
	return &RingBuffer[E]{
		entries: entries,
		mask:    size - 1,
		size:    size,
	}
}

// Get returns the slot for sequence s. No bounds check beyond the mask; no
// synchronization.
func (rb *RingBuffer[E]) Get(s int64) *E {
	return rb.entries[s&rb.mask]
}

// Size returns the buffer's fixed capacity.
func (rb *RingBuffer[E]) Size() int64 {
	return rb.size
}

// Mask returns size-1, the bitmask Get applies to a sequence to find its
// slot.
func (rb *RingBuffer[E]) Mask() int64 {
	return rb.mask
}
