// Package processor implements the two consumer loops that drain a ring
// buffer: BatchEventProcessor (one handler owns a barrier outright) and
// WorkProcessor (a group of peers compete for disjoint sequences).
package processor

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/barrier"
	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequence"
)

// State is a processor's lifecycle atom.
type State int32

const (
	// Idle is the state a processor starts in and returns to once its
	// run loop observes a halt signal.
	Idle State = iota
	// Running is the state while the processor's loop is draining
	// events.
	Running
	// Halted is the requested state set by Halt; the running loop
	// re-normalizes to Idle on exit.
	Halted
)

// EventHandler is invoked once per drained event. endOfBatch is true
// exactly on the last event of the batch currently being drained, letting
// handlers amortize flushes. A handler that panics is fatal to its
// consumer: the core does not recover it.
type EventHandler[E any] interface {
	OnEvent(event *E, seq int64, endOfBatch bool)
}

// BatchEventProcessor owns a handler and a barrier, advancing its sequence
// once per drained batch rather than once per event. This
// is what lets downstream consumers observe batches instead of individual
// sequences.
type BatchEventProcessor[E any] struct {
	sequence *sequence.Sequence
	buffer   *ringbuffer.RingBuffer[E]
	barrier  *barrier.SequenceBarrier
	handler  EventHandler[E]
	logger   *zap.Logger

	state atomic.Int32
}

// NewBatchEventProcessor constructs a processor in the Idle state.
func NewBatchEventProcessor[E any](buf *ringbuffer.RingBuffer[E], b *barrier.SequenceBarrier, handler EventHandler[E], logger *zap.Logger) *BatchEventProcessor[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &BatchEventProcessor[E]{
		sequence: sequence.NewDefault(),
		buffer:   buf,
		barrier:  b,
		handler:  handler,
		logger:   logger,
	}
	p.state.Store(int32(Idle))
	return p
}

// Sequence returns the processor's own progress counter. This is what gets
// registered as a gating sequence, and what downstream barriers depend on.
func (p *BatchEventProcessor[E]) Sequence() *sequence.Sequence {
	return p.sequence
}

// State reports the processor's current lifecycle state.
func (p *BatchEventProcessor[E]) State() State {
	return State(p.state.Load())
}

// Run drains the ring buffer until Halt is called. It clears the barrier's
// alert flag once at the start, transitions Idle -> Running, and
// re-normalizes to Idle on exit.
func (p *BatchEventProcessor[E]) Run() {
	p.state.Store(int32(Running))
	p.barrier.ClearAlert()
	defer p.state.Store(int32(Idle))

	for State(p.state.Load()) == Running {
		next := p.sequence.Get() + 1
		available, ok := p.barrier.WaitFor(next)
		if !ok {
			// Alerted: shutdown requested mid-wait.
			continue
		}
		if available < next {
			continue
		}

		for s := next; s <= available; s++ {
			event := p.buffer.Get(s)
			p.handler.OnEvent(event, s, s == available)
		}
		// Advance once per batch, not per event. The throughput basis
		// of the whole design.
		p.sequence.Set(available)
	}
}

// Halt requests the processor stop. It terminates any in-progress wait and
// prevents future waits from blocking; any handler call already in
// progress runs to completion.
func (p *BatchEventProcessor[E]) Halt() {
	p.state.Store(int32(Halted))
	p.barrier.Alert()
	p.logger.Debug("processor halted")
}
