// Package coordinator owns the lifecycle of a wired pipeline: the set of
// processors draining a ring buffer, the sequencer gating the producer side,
// and the executor that runs each processor's loop.
package coordinator

import (
	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/executor"
	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequence"
	"github.com/rishavpaul/disruptor/sequencer"
)

// Handle is the subset of a processor's surface the coordinator needs: it
// is satisfied by both *processor.BatchEventProcessor[E] and
// *processor.WorkProcessor[E] for any E, without the coordinator itself
// needing a Handle-shaped type parameter.
type Handle interface {
	Run()
	Halt()
	Sequence() *sequence.Sequence
}

// Coordinator starts and stops every processor in a wired topology as a
// unit, reports whether the pipeline has unconsumed backlog, and gives
// callers the ring buffer and sequencer accessors the topology was built
// over.
type Coordinator[E any] struct {
	buffer     *ringbuffer.RingBuffer[E]
	sequencer  sequencer.Sequencer
	processors []Handle
	executor   executor.Executor
	logger     *zap.Logger
}

// New constructs a Coordinator over buf and seq, running procs through exec.
func New[E any](buf *ringbuffer.RingBuffer[E], seq sequencer.Sequencer, procs []Handle, exec executor.Executor, logger *zap.Logger) *Coordinator[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator[E]{
		buffer:     buf,
		sequencer:  seq,
		processors: procs,
		executor:   exec,
		logger:     logger,
	}
}

// Start hands every processor's Run loop to the executor. It does not block
// for the processors to finish; call Stop to halt them.
func (c *Coordinator[E]) Start() {
	c.logger.Info("starting pipeline", zap.Int("processors", len(c.processors)))
	for _, p := range c.processors {
		p := p
		c.executor.Execute(p.Run)
	}
}

// Stop halts every processor. It does not wait for their Run loops to
// return; pair with an Executor that exposes its own Wait (ErrgroupExecutor)
// if the caller needs that.
func (c *Coordinator[E]) Stop() {
	c.logger.Info("stopping pipeline")
	for _, p := range c.processors {
		p.Halt()
	}
}

// HasBacklog reports whether the sequencer's cursor has advanced past the
// slowest processor's sequence: events have been published that some
// consumer has not yet drained.
func (c *Coordinator[E]) HasBacklog() bool {
	if len(c.processors) == 0 {
		return false
	}
	seqs := make([]*sequence.Sequence, len(c.processors))
	for i, p := range c.processors {
		seqs[i] = p.Sequence()
	}
	return c.sequencer.Cursor().Get() > sequence.Min(seqs)
}

// Sequencer returns the sequencer this coordinator's pipeline publishes
// through.
func (c *Coordinator[E]) Sequencer() sequencer.Sequencer {
	return c.sequencer
}

// RingBuffer returns the ring buffer this coordinator's processors drain.
func (c *Coordinator[E]) RingBuffer() *ringbuffer.RingBuffer[E] {
	return c.buffer
}
