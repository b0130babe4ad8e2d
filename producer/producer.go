// Package producer provides the publish-side façade over a Sequencer: the
// surface application code actually calls, as opposed to the Sequencer
// interface itself.
package producer

import (
	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequencer"
)

// Producer publishes events into a ring buffer. Translate populates the slot
// reserved at seq; it must not retain the pointer past its own return.
type Producer[E any] interface {
	Publish(translate func(event *E, seq int64))
	PublishBatch(n int64, translate func(event *E, seq int64, index int64))
}

// SingleProducer is the façade over a single-producer Sequencer. It is not
// safe for concurrent use by multiple goroutines and is not cloneable;
// the single-producer sequencer assumes exactly one publishing
// goroutine.
type SingleProducer[E any] struct {
	buffer    *ringbuffer.RingBuffer[E]
	sequencer sequencer.Sequencer
}

// NewSingleProducer constructs a SingleProducer over buf, publishing through
// seq.
func NewSingleProducer[E any](buf *ringbuffer.RingBuffer[E], seq sequencer.Sequencer) *SingleProducer[E] {
	return &SingleProducer[E]{buffer: buf, sequencer: seq}
}

// Publish reserves one slot, lets translate populate it, then makes it
// visible to consumers.
func (p *SingleProducer[E]) Publish(translate func(event *E, seq int64)) {
	s := p.sequencer.Next(1)
	translate(p.buffer.Get(s), s)
	p.sequencer.Publish(s)
}

// PublishBatch reserves n contiguous slots, lets translate populate each one
// (index runs 0..n-1), then publishes the whole batch as a unit.
func (p *SingleProducer[E]) PublishBatch(n int64, translate func(event *E, seq int64, index int64)) {
	if n <= 0 {
		return
	}
	hi := p.sequencer.Next(n)
	lo := hi - n + 1
	for s, i := lo, int64(0); s <= hi; s, i = s+1, i+1 {
		translate(p.buffer.Get(s), s, i)
	}
	p.sequencer.BatchPublish(lo, hi)
}

// MultiProducer is the façade over a multi-producer Sequencer. Unlike
// SingleProducer it is cheap to Clone: every clone shares the same
// underlying buffer and sequencer, so cloning costs one pointer copy and
// adds no synchronization of its own; claims are already arbitrated by the
// sequencer's CAS loop.
type MultiProducer[E any] struct {
	buffer    *ringbuffer.RingBuffer[E]
	sequencer sequencer.Sequencer
}

// NewMultiProducer constructs a MultiProducer over buf, publishing through
// seq. seq must be safe for concurrent claims (a multi-producer Sequencer).
func NewMultiProducer[E any](buf *ringbuffer.RingBuffer[E], seq sequencer.Sequencer) *MultiProducer[E] {
	return &MultiProducer[E]{buffer: buf, sequencer: seq}
}

// Clone returns a handle sharing the same buffer and sequencer, safe to
// hand to another goroutine that will publish concurrently with p.
func (p *MultiProducer[E]) Clone() *MultiProducer[E] {
	return &MultiProducer[E]{buffer: p.buffer, sequencer: p.sequencer}
}

// Publish reserves one slot, lets translate populate it, then makes it
// visible to consumers.
func (p *MultiProducer[E]) Publish(translate func(event *E, seq int64)) {
	s := p.sequencer.Next(1)
	translate(p.buffer.Get(s), s)
	p.sequencer.Publish(s)
}

// PublishBatch reserves n contiguous slots, lets translate populate each one
// (index runs 0..n-1), then publishes the whole batch as a unit.
func (p *MultiProducer[E]) PublishBatch(n int64, translate func(event *E, seq int64, index int64)) {
	if n <= 0 {
		return
	}
	hi := p.sequencer.Next(n)
	lo := hi - n + 1
	for s, i := lo, int64(0); s <= hi; s, i = s+1, i+1 {
		translate(p.buffer.Get(s), s, i)
	}
	p.sequencer.BatchPublish(lo, hi)
}
