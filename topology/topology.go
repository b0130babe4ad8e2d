// Package topology provides the fluent builder that wires event handlers
// into a DAG of barriers: parallel fan-out chains (Handler/And) and
// sequential fan-in stages (Then).
package topology

import (
	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/barrier"
	"github.com/rishavpaul/disruptor/coordinator"
	"github.com/rishavpaul/disruptor/executor"
	"github.com/rishavpaul/disruptor/processor"
	"github.com/rishavpaul/disruptor/producer"
	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequence"
	"github.com/rishavpaul/disruptor/sequencer"
	"github.com/rishavpaul/disruptor/wait"
)

// Builder wires processor.EventHandler[E] implementations onto a shared
// ring buffer and sequencer, maintaining the barrier/sequences bookkeeping
// described above. Not safe for concurrent use: a single
// goroutine builds the topology before Build hands off the result.
type Builder[E any] struct {
	buffer    *ringbuffer.RingBuffer[E]
	sequencer sequencer.Sequencer
	strategy  wait.Strategy
	logger    *zap.Logger
	exec      executor.Executor

	currentBarrier *barrier.SequenceBarrier
	currentSeqs    []*sequence.Sequence
	processors     []coordinator.Handle
}

// NewBuilder constructs a Builder over buf and seq, with an initial barrier
// whose dependent set is {seq.Cursor()}. The head of every chain waits
// directly on publication.
func NewBuilder[E any](buf *ringbuffer.RingBuffer[E], seq sequencer.Sequencer, strategy wait.Strategy, exec executor.Executor, logger *zap.Logger) *Builder[E] {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exec == nil {
		exec = executor.Goroutine{}
	}
	return &Builder[E]{
		buffer:         buf,
		sequencer:      seq,
		strategy:       strategy,
		logger:         logger,
		exec:           exec,
		currentBarrier: barrier.New(strategy, seq, nil),
	}
}

// Handler starts a new parallel chain at the head: a fresh barrier
// dependent only on the cursor, draining through h. Clears the current
// sequences list first, so a prior chain's tail stops being a fan-in
// dependency for whatever follows (its sequence stays a gating sequence,
// so producers still respect it).
func (b *Builder[E]) Handler(h processor.EventHandler[E]) *Builder[E] {
	newBarrier := barrier.New(b.strategy, b.sequencer, nil)
	p := processor.NewBatchEventProcessor(b.buffer, newBarrier, h, b.logger)

	b.currentSeqs = b.currentSeqs[:0]
	b.currentSeqs = append(b.currentSeqs, p.Sequence())
	b.sequencer.AddGatingSequence(p.Sequence())
	b.processors = append(b.processors, p)
	b.currentBarrier = newBarrier
	return b
}

// And adds a peer to the current parallel group: a processor sharing the
// current barrier (the same upstream dependencies as its siblings), draining
// through h. The current barrier is unchanged; h's sequence joins the
// sequences list alongside its siblings'.
func (b *Builder[E]) And(h processor.EventHandler[E]) *Builder[E] {
	p := processor.NewBatchEventProcessor(b.buffer, b.currentBarrier, h, b.logger)

	b.currentSeqs = append(b.currentSeqs, p.Sequence())
	b.sequencer.AddGatingSequence(p.Sequence())
	b.processors = append(b.processors, p)
	return b
}

// Then adds a sequential stage after the current parallel group: a fresh
// barrier fanning in on every sequence in the current group, draining
// through h. Clears the sequences list and pushes h's own sequence, so a
// further Then chains after this stage rather than the group it replaced.
func (b *Builder[E]) Then(h processor.EventHandler[E]) *Builder[E] {
	dependents := append([]*sequence.Sequence(nil), b.currentSeqs...)
	newBarrier := barrier.New(b.strategy, b.sequencer, dependents)
	p := processor.NewBatchEventProcessor(b.buffer, newBarrier, h, b.logger)

	b.currentSeqs = b.currentSeqs[:0]
	b.currentSeqs = append(b.currentSeqs, p.Sequence())
	b.sequencer.AddGatingSequence(p.Sequence())
	b.processors = append(b.processors, p)
	b.currentBarrier = newBarrier
	return b
}

// WorkerGroup attaches n peer WorkProcessors sharing the current barrier
// and a single workSequence, competing for disjoint events drawn from h
// Every peer's sequence joins the current sequences list
// and is registered as a gating sequence.
func (b *Builder[E]) WorkerGroup(h processor.WorkHandler[E], n int) *Builder[E] {
	workSeq := sequence.NewDefault()
	for i := 0; i < n; i++ {
		p := processor.NewWorkProcessor(b.buffer, b.currentBarrier, workSeq, h, b.logger)
		b.currentSeqs = append(b.currentSeqs, p.Sequence())
		b.sequencer.AddGatingSequence(p.Sequence())
		b.processors = append(b.processors, p)
	}
	return b
}

// Build finalizes the topology, returning a Coordinator over every attached
// processor and a Producer façade for the sequencer variant in play.
// Which producer type comes back depends on the Sequencer's concrete type:
// a sequencer.SingleProducer yields a *producer.SingleProducer[E], anything
// else (i.e. *sequencer.MultiProducer) yields a *producer.MultiProducer[E].
func (b *Builder[E]) Build() (*coordinator.Coordinator[E], producer.Producer[E]) {
	coord := coordinator.New(b.buffer, b.sequencer, b.processors, b.exec, b.logger)

	if _, ok := b.sequencer.(*sequencer.SingleProducer); ok {
		return coord, producer.NewSingleProducer(b.buffer, b.sequencer)
	}
	return coord, producer.NewMultiProducer(b.buffer, b.sequencer)
}
