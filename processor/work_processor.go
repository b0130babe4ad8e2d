package processor

import (
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/barrier"
	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequence"
)

// WorkHandler is invoked once per event delivered to a WorkProcessor. Unlike
// EventHandler it carries no sequence or end-of-batch information. Work
// processors compete for individual events, not batches.
type WorkHandler[E any] interface {
	OnEvent(event *E)
}

// WorkProcessor is one of a group of peer processors sharing a single
// workSequence, so that every claimed sequence is delivered to exactly one
// peer (competing consumers). Peers' own sequences are all
// registered as gating sequences, so producers cannot overwrite any slot
// still in flight across the group.
type WorkProcessor[E any] struct {
	sequence     *sequence.Sequence
	buffer       *ringbuffer.RingBuffer[E]
	barrier      *barrier.SequenceBarrier
	workSequence *sequence.Sequence
	handler      WorkHandler[E]
	logger       *zap.Logger

	state           atomic.Int32
	cachedAvailable int64
}

// NewWorkProcessor constructs a WorkProcessor in the Idle state. workSeq is
// shared by every peer in the competing-consumer group.
func NewWorkProcessor[E any](buf *ringbuffer.RingBuffer[E], b *barrier.SequenceBarrier, workSeq *sequence.Sequence, handler WorkHandler[E], logger *zap.Logger) *WorkProcessor[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &WorkProcessor[E]{
		sequence:        sequence.NewDefault(),
		buffer:          buf,
		barrier:         b,
		workSequence:    workSeq,
		handler:         handler,
		logger:          logger,
		cachedAvailable: sequence.InitialValue,
	}
	p.state.Store(int32(Idle))
	return p
}

// Sequence returns this peer's own progress counter.
func (p *WorkProcessor[E]) Sequence() *sequence.Sequence {
	return p.sequence
}

// State reports the processor's current lifecycle state.
func (p *WorkProcessor[E]) State() State {
	return State(p.state.Load())
}

// Run competes for sequences against its peers until Halt is called.
func (p *WorkProcessor[E]) Run() {
	p.state.Store(int32(Running))
	p.barrier.ClearAlert()
	defer p.state.Store(int32(Idle))

	var claim int64
	needsClaim := true

	for State(p.state.Load()) == Running {
		if needsClaim {
			for {
				current := p.workSequence.Get()
				claim = current + 1
				// Announce intent before the CAS resolves: under
				// contention this briefly publishes a sequence this
				// peer did not win, but the value is monotonically
				// bounded above by whichever peer does win the CAS, so
				// no gating sequence overshoots what is actually
				// claimed.
				p.sequence.Set(claim)
				if p.workSequence.CompareAndSwap(current, claim) {
					break
				}
			}
			needsClaim = false
		}

		if p.cachedAvailable >= claim {
			p.handler.OnEvent(p.buffer.Get(claim))
			p.sequence.Set(claim)
			needsClaim = true
			continue
		}

		available, ok := p.barrier.WaitFor(claim)
		if !ok {
			return
		}
		p.cachedAvailable = available
	}
}

// Halt requests the processor stop.
func (p *WorkProcessor[E]) Halt() {
	p.state.Store(int32(Halted))
	p.barrier.Alert()
	p.logger.Debug("work processor halted")
}
