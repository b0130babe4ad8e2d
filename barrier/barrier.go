// Package barrier provides the per-consumer view combining a cursor, the
// sequences this consumer must not outrun, a wait strategy, and a sticky
// alert flag used to unwind a waiting consumer on shutdown.
package barrier

import (
	"sync/atomic"

	"github.com/rishavpaul/disruptor/sequence"
	"github.com/rishavpaul/disruptor/sequencer"
	"github.com/rishavpaul/disruptor/wait"
)

// SequenceBarrier lets a consumer determine the highest slot it may safely
// read given its upstream dependencies.
type SequenceBarrier struct {
	strategy   wait.Strategy
	sequencer  sequencer.Sequencer
	dependents []*sequence.Sequence
	alerted    atomic.Bool
}

// New constructs a SequenceBarrier. If dependents is empty it defaults to
// {seq.Cursor()}, making this a head-of-chain barrier.
func New(strategy wait.Strategy, seq sequencer.Sequencer, dependents []*sequence.Sequence) *SequenceBarrier {
	if len(dependents) == 0 {
		dependents = []*sequence.Sequence{seq.Cursor()}
	}
	return &SequenceBarrier{
		strategy:   strategy,
		sequencer:  seq,
		dependents: dependents,
	}
}

// WaitFor waits until at least target is available from every dependent
// sequence, then clamps to the sequencer's contiguous-publication front.
// Returns ok=false if the barrier was alerted during the wait.
func (b *SequenceBarrier) WaitFor(target int64) (available int64, ok bool) {
	avail, alerted := b.strategy.WaitFor(target, b.sequencer.Cursor(), b.dependents, b.IsAlerted)
	if alerted {
		return 0, false
	}
	if avail < target {
		// A blocking strategy may wake early; the caller retries.
		return avail, true
	}
	return b.sequencer.HighestPublished(target, avail), true
}

// Alert sets the sticky alert flag and wakes any parked waiter. It
// terminates any in-progress wait and prevents future waits from blocking.
func (b *SequenceBarrier) Alert() {
	b.alerted.Store(true)
	b.strategy.SignalAll()
}

// ClearAlert resets the alert flag. Processors call this once at the start
// of every run.
func (b *SequenceBarrier) ClearAlert() {
	b.alerted.Store(false)
}

// IsAlerted reports the current alert state.
func (b *SequenceBarrier) IsAlerted() bool {
	return b.alerted.Load()
}

// Dependents returns the sequences this barrier waits on. Exposed for
// topology construction (fan-in barriers combine multiple upstream
// processors' sequences).
func (b *SequenceBarrier) Dependents() []*sequence.Sequence {
	return b.dependents
}
