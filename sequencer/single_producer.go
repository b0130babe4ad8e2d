package sequencer

import (
	"runtime"

	"github.com/rishavpaul/disruptor/sequence"
)

// SingleProducer is the sequencer variant for exactly one producer
// goroutine. next_value and cached_value are producer-private: there is no
// contention, so no CAS is needed on the claim path.
type SingleProducer struct {
	bufferSize int64

	// nextValue and cachedValue are touched only by the single producer
	// goroutine; they need no padding or atomics.
	nextValue   int64
	cachedValue int64

	cursor          *sequence.Sequence
	gatingSequences []*sequence.Sequence
	yield           func()
}

// NewSingleProducer constructs a SingleProducer guarding a ring buffer of
// the given size. bufferSize must already have been validated as a
// positive power of two by the ring buffer that owns it.
func NewSingleProducer(bufferSize int64) *SingleProducer {
	return &SingleProducer{
		bufferSize:  bufferSize,
		nextValue:   sequence.InitialValue,
		cachedValue: sequence.InitialValue,
		cursor:      sequence.NewDefault(),
		yield:       runtime.Gosched,
	}
}

// Next implements Sequencer.
func (s *SingleProducer) Next(n int64) int64 {
	target := s.nextValue + n
	wrapPoint := target - s.bufferSize

	if len(s.gatingSequences) == 0 {
		// No consumers registered: nothing gates the producer.
		s.nextValue = target
		return target
	}

	if wrapPoint > s.cachedValue || s.cachedValue > s.nextValue {
		// Publish our current progress so downstream consumers can make
		// room, then spin until they have.
		s.cursor.Set(s.nextValue)

		for {
			min := sequence.Min(s.gatingSequences)
			if wrapPoint <= min {
				s.cachedValue = min
				break
			}
			s.yield()
		}
	}

	s.nextValue = target
	return target
}

// Publish implements Sequencer. A single producer publishes in order, so
// publication is just advancing the cursor.
func (s *SingleProducer) Publish(seq int64) {
	s.cursor.Set(seq)
}

// BatchPublish implements Sequencer.
func (s *SingleProducer) BatchPublish(lo, hi int64) {
	s.cursor.Set(hi)
}

// Available implements Sequencer.
func (s *SingleProducer) Available(seq int64) bool {
	return seq <= s.cursor.Get()
}

// HighestPublished implements Sequencer. Single-producer publication is
// always contiguous, so the clamp is a no-op: the requested upper bound is
// already guaranteed published once Cursor has reached it.
func (s *SingleProducer) HighestPublished(_, to int64) int64 {
	return to
}

// Cursor implements Sequencer.
func (s *SingleProducer) Cursor() *sequence.Sequence {
	return s.cursor
}

// AddGatingSequence implements Sequencer. Must only be called during setup,
// before the producer starts calling Next.
func (s *SingleProducer) AddGatingSequence(seq *sequence.Sequence) {
	s.gatingSequences = append(s.gatingSequences, seq)
}

// BufferSize implements Sequencer.
func (s *SingleProducer) BufferSize() int64 {
	return s.bufferSize
}
