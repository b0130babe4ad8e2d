// Package sequence provides the cache-line-padded monotonic counter that
// coordinates producers and consumers across the rest of this module.
package sequence

import (
	"strconv"
	"sync/atomic"
)

// cacheLinePad is the assumed size of a CPU cache line on the target
// architectures this module is built for. Padding a hot counter to this
// width on both sides keeps it from sharing a line with its neighbors.
const cacheLinePad = 64

// InitialValue is the value a fresh Sequence starts at. Nothing has been
// claimed or published yet, so the first legal sequence to hand out is 0.
const InitialValue int64 = -1

// Sequence is a monotonically increasing 64-bit counter. Once advanced past
// X it never returns below X. Producers, the sequencer, and consumers share
// a Sequence by pointer and many goroutines may read it concurrently. Set
// assumes a single writer; a Sequence advanced by several goroutines (the
// multi-producer cursor, a work-processor group's work sequence) is moved
// only through CompareAndSwap.
type Sequence struct {
	_     [cacheLinePad - 8]byte
	value atomic.Int64
	_     [cacheLinePad - 8]byte
}

// New creates a Sequence initialized to v.
func New(v int64) *Sequence {
	s := &Sequence{}
	s.value.Store(v)
	return s
}

// NewDefault creates a Sequence initialized to InitialValue.
func NewDefault() *Sequence {
	return New(InitialValue)
}

// Get is an acquire load: it observes every write that happened-before the
// matching Set that produced the returned value.
func (s *Sequence) Get() int64 {
	return s.value.Load()
}

// Set is a release store: every write a caller performed before calling Set
// becomes visible to any goroutine that later observes the stored value via
// Get.
func (s *Sequence) Set(v int64) {
	s.value.Store(v)
}

// CompareAndSwap is an acquire-release compare-and-set. Spurious failure
// (returning false even though the current value equaled old) is permitted
// by the contract but the stdlib atomic this wraps does not exhibit it.
func (s *Sequence) CompareAndSwap(old, new int64) bool {
	return s.value.CompareAndSwap(old, new)
}

// String renders the current value, mostly useful in test failure output.
func (s *Sequence) String() string {
	return strconv.FormatInt(s.Get(), 10)
}

// Min returns the smallest value among seqs. Callers pass the sequencer's
// gating sequences; an empty slice has no defined minimum and is a misuse
// bug in the caller, so Min panics rather than silently returning 0.
func Min(seqs []*Sequence) int64 {
	if len(seqs) == 0 {
		panic("sequence: Min called with no sequences")
	}
	min := seqs[0].Get()
	for _, s := range seqs[1:] {
		if v := s.Get(); v < min {
			min = v
		}
	}
	return min
}
