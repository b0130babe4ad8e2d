// Package sequencer implements the slot-ownership and publication protocol:
// claiming ranges of sequence numbers, publishing them, and answering
// availability queries, while respecting downstream gating sequences so a
// producer never overwrites a slot a consumer hasn't read yet.
package sequencer

import "github.com/rishavpaul/disruptor/sequence"

// Sequencer is the common contract shared by the single- and
// multi-producer variants.
type Sequencer interface {
	// Next reserves n contiguous sequences and returns the highest
	// reserved. It spins (yielding) until advancing would not overwrite
	// any gating sequence's slot.
	Next(n int64) int64

	// Publish marks sequence s as available for consumption.
	Publish(s int64)

	// BatchPublish marks every sequence in [lo, hi] as available.
	BatchPublish(lo, hi int64)

	// Available reports whether slot s is visible to consumers.
	Available(s int64) bool

	// HighestPublished returns the largest h such that every sequence in
	// [from, h] is available, or from-1 if from itself is unavailable.
	HighestPublished(from, to int64) int64

	// Cursor returns what a head-of-chain consumer waits on: the last
	// published sequence for SingleProducer, the last claimed one for
	// MultiProducer (consumers clamp that through HighestPublished).
	Cursor() *sequence.Sequence

	// AddGatingSequence registers a downstream sequence that caps how far
	// this sequencer may advance producers.
	AddGatingSequence(seq *sequence.Sequence)

	// BufferSize returns the size of the ring buffer this sequencer
	// guards.
	BufferSize() int64
}
