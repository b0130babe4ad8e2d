package sequencer

import (
	"runtime"
	"sync/atomic"

	"github.com/rishavpaul/disruptor/sequence"
)

// MultiProducer is the sequencer variant for any number of concurrent
// producer goroutines. Its cursor is a CAS-advanced claim counter, not the
// publication front: publication is tracked separately, per slot, in
// availableBuffer.
type MultiProducer struct {
	bufferSize int64
	indexMask  int64
	indexShift uint

	cursor          *sequence.Sequence
	gatingCache     *sequence.Sequence
	gatingSequences []*sequence.Sequence

	// availableBuffer[s & indexMask] holds s >> indexShift iff sequence s
	// is currently published. Initialized to sequence.InitialValue, which
	// is guaranteed less than the lap flag of sequence 0 (0 >> shift == 0
	// > InitialValue), so every slot starts out correctly "unpublished".
	availableBuffer []atomic.Int64

	yield func()
}

// NewMultiProducer constructs a MultiProducer guarding a ring buffer of the
// given size.
func NewMultiProducer(bufferSize int64) *MultiProducer {
	shift := log2(bufferSize)
	available := make([]atomic.Int64, bufferSize)
	for i := range available {
		available[i].Store(sequence.InitialValue)
	}
	return &MultiProducer{
		bufferSize:      bufferSize,
		indexMask:       bufferSize - 1,
		indexShift:      shift,
		cursor:          sequence.NewDefault(),
		gatingCache:     sequence.NewDefault(),
		availableBuffer: available,
		yield:           runtime.Gosched,
	}
}

func log2(n int64) uint {
	var shift uint
	for n > 1 {
		n >>= 1
		shift++
	}
	return shift
}

// Next implements Sequencer.
func (s *MultiProducer) Next(n int64) int64 {
	for {
		current := s.cursor.Get()
		target := current + n
		wrapPoint := target - s.bufferSize

		if len(s.gatingSequences) > 0 && (wrapPoint > s.gatingCache.Get() || s.gatingCache.Get() > current) {
			min := sequence.Min(s.gatingSequences)
			if wrapPoint > min {
				s.yield()
				continue
			}
			s.gatingCache.Set(min)
		}

		if s.cursor.CompareAndSwap(current, target) {
			return target
		}
	}
}

// Publish implements Sequencer.
func (s *MultiProducer) Publish(seq int64) {
	s.setAvailable(seq)
}

// BatchPublish implements Sequencer.
func (s *MultiProducer) BatchPublish(lo, hi int64) {
	for seq := lo; seq <= hi; seq++ {
		s.setAvailable(seq)
	}
}

// setAvailable writes the lap flag for seq, a release store making every
// write the producer performed to that slot before calling Publish visible
// to a consumer that later observes the flag via Available.
func (s *MultiProducer) setAvailable(seq int64) {
	index := seq & s.indexMask
	lap := seq >> s.indexShift
	s.availableBuffer[index].Store(lap)
}

// Available implements Sequencer.
func (s *MultiProducer) Available(seq int64) bool {
	index := seq & s.indexMask
	lap := seq >> s.indexShift
	return s.availableBuffer[index].Load() == lap
}

// HighestPublished implements Sequencer. Producers may claim a contiguous
// range but publish their individual sequences out of order, so this walks
// forward and stops at the first gap, letting consumers skip nothing and
// process nothing twice.
func (s *MultiProducer) HighestPublished(from, to int64) int64 {
	for seq := from; seq <= to; seq++ {
		if !s.Available(seq) {
			return seq - 1
		}
	}
	return to
}

// Cursor implements Sequencer. For MultiProducer this is the last *claimed*
// sequence, not the last published one. Consumers must still clamp through
// HighestPublished.
func (s *MultiProducer) Cursor() *sequence.Sequence {
	return s.cursor
}

// AddGatingSequence implements Sequencer.
func (s *MultiProducer) AddGatingSequence(seq *sequence.Sequence) {
	s.gatingSequences = append(s.gatingSequences, seq)
}

// BufferSize implements Sequencer.
func (s *MultiProducer) BufferSize() int64 {
	return s.bufferSize
}
