package processor

import (
	"sync"
	"testing"
	"time"

	"github.com/rishavpaul/disruptor/barrier"
	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequence"
	"github.com/rishavpaul/disruptor/sequencer"
	"github.com/rishavpaul/disruptor/wait"
)

type recordingHandler struct {
	mu            sync.Mutex
	values        []int
	endOfBatchSeq []bool
}

func (h *recordingHandler) OnEvent(event *int, seq int64, endOfBatch bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values = append(h.values, *event)
	h.endOfBatchSeq = append(h.endOfBatchSeq, endOfBatch)
}

func (h *recordingHandler) snapshot() ([]int, []bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]int(nil), h.values...), append([]bool(nil), h.endOfBatchSeq...)
}

func TestBatchEventProcessorRoundTrip(t *testing.T) {
	buf := ringbuffer.New[int](8, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(8)
	b := barrier.New(wait.BusySpin{}, sp, nil)
	handler := &recordingHandler{}
	p := NewBatchEventProcessor(buf, b, handler, nil)
	sp.AddGatingSequence(p.Sequence())

	go p.Run()
	defer p.Halt()

	const n = 1000
	for i := 0; i < n; i++ {
		seq := sp.Next(1)
		*buf.Get(seq) = i
		sp.Publish(seq)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		values, _ := handler.snapshot()
		if len(values) == n {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d events, got %d", n, len(values))
		}
		time.Sleep(time.Millisecond)
	}

	values, _ := handler.snapshot()
	for i, v := range values {
		if v != i {
			t.Fatalf("expected values[%d]=%d, got %d", i, i, v)
		}
	}
}

func TestBatchEventProcessorEndOfBatchOncePerRun(t *testing.T) {
	buf := ringbuffer.New[int](16, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(16)
	b := barrier.New(wait.BusySpin{}, sp, nil)
	handler := &recordingHandler{}
	p := NewBatchEventProcessor(buf, b, handler, nil)
	sp.AddGatingSequence(p.Sequence())

	go p.Run()
	defer p.Halt()

	// Publish a contiguous batch in one go so the processor is very
	// likely to drain it as a single batch.
	lo := sp.Next(8)
	hi := lo
	lo = hi - 7
	for s := lo; s <= hi; s++ {
		*buf.Get(s) = int(s)
	}
	sp.BatchPublish(lo, hi)

	deadline := time.Now().Add(5 * time.Second)
	for {
		values, _ := handler.snapshot()
		if len(values) == 8 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected 8 events, got %d", len(values))
		}
		time.Sleep(time.Millisecond)
	}

	_, flags := handler.snapshot()
	trueCount := 0
	for i, f := range flags {
		if f {
			trueCount++
			if i != len(flags)-1 {
				t.Fatalf("end-of-batch flag set before the last drained event (index %d of %d)", i, len(flags))
			}
		}
	}
	if trueCount != 1 {
		t.Fatalf("expected end-of-batch exactly once, got %d", trueCount)
	}
}

func TestBatchEventProcessorHaltStopsTheLoop(t *testing.T) {
	buf := ringbuffer.New[int](8, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(8)
	b := barrier.New(wait.BusySpin{}, sp, nil)
	handler := &recordingHandler{}
	p := NewBatchEventProcessor(buf, b, handler, nil)
	sp.AddGatingSequence(p.Sequence())

	done := make(chan struct{})
	go func() {
		p.Run()
		close(done)
	}()

	time.Sleep(5 * time.Millisecond)
	p.Halt()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Halt")
	}

	if p.State() != Idle {
		t.Fatalf("expected Idle after run loop exit, got %v", p.State())
	}
}

type competingWorkHandler struct {
	mu     sync.Mutex
	counts map[int]int
}

func (h *competingWorkHandler) OnEvent(event *int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.counts[*event]++
}

func TestWorkProcessorExclusivity(t *testing.T) {
	const bufSize = 1024
	const total = 2000

	buf := ringbuffer.New[int](bufSize, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(bufSize)
	workSeq := sequence.NewDefault()

	handler := &competingWorkHandler{counts: make(map[int]int)}

	const peers = 4
	procs := make([]*WorkProcessor[int], peers)
	for i := range procs {
		b := barrier.New(wait.BusySpin{}, sp, nil)
		procs[i] = NewWorkProcessor(buf, b, workSeq, handler, nil)
		sp.AddGatingSequence(procs[i].Sequence())
	}

	for _, p := range procs {
		go p.Run()
	}
	defer func() {
		for _, p := range procs {
			p.Halt()
		}
	}()

	for i := 0; i < total; i++ {
		seq := sp.Next(1)
		*buf.Get(seq) = i
		sp.Publish(seq)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		handler.mu.Lock()
		n := len(handler.counts)
		handler.mu.Unlock()
		if n == total {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected %d distinct events delivered, got %d", total, n)
		}
		time.Sleep(time.Millisecond)
	}

	handler.mu.Lock()
	defer handler.mu.Unlock()
	for i := 0; i < total; i++ {
		if handler.counts[i] != 1 {
			t.Fatalf("event %d delivered %d times, expected exactly 1", i, handler.counts[i])
		}
	}
}

type slowHandler struct {
	mu     sync.Mutex
	values []int
	delay  time.Duration
}

func (h *slowHandler) OnEvent(event *int, seq int64, endOfBatch bool) {
	time.Sleep(h.delay)
	h.mu.Lock()
	h.values = append(h.values, *event)
	h.mu.Unlock()
}

func (h *slowHandler) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.values)
}

// TestBatchEventProcessorBackpressureFromSlowHandler checks that a producer
// publishing into a small ring buffer is throttled by gating sequences,
// rather than overrunning a handler that can't keep up: the publisher must
// block until the slow processor frees slots, so every event still arrives
// even though the buffer (4) is far smaller than the event count (32).
func TestBatchEventProcessorBackpressureFromSlowHandler(t *testing.T) {
	const bufSize = 4
	const total = 32

	buf := ringbuffer.New[int](bufSize, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(bufSize)
	b := barrier.New(wait.BusySpin{}, sp, nil)
	handler := &slowHandler{delay: time.Millisecond}
	p := NewBatchEventProcessor(buf, b, handler, nil)
	sp.AddGatingSequence(p.Sequence())

	go p.Run()
	defer p.Halt()

	for i := 0; i < total; i++ {
		seq := sp.Next(1)
		*buf.Get(seq) = i
		sp.Publish(seq)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		if handler.count() == total {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("expected all %d events drained despite a slow handler, got %d", total, handler.count())
		}
		time.Sleep(time.Millisecond)
	}
}
