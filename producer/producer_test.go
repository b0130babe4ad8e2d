package producer

import (
	"sync"
	"testing"

	"github.com/rishavpaul/disruptor/ringbuffer"
	"github.com/rishavpaul/disruptor/sequence"
	"github.com/rishavpaul/disruptor/sequencer"
)

func TestSingleProducerPublish(t *testing.T) {
	buf := ringbuffer.New[int](8, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(8)
	p := NewSingleProducer(buf, sp)

	for i := 0; i < 5; i++ {
		v := i
		p.Publish(func(event *int, seq int64) { *event = v })
	}

	for i := 0; i < 5; i++ {
		if got := *buf.Get(int64(i)); got != i {
			t.Fatalf("slot %d: expected %d, got %d", i, i, got)
		}
	}
	if sp.Cursor().Get() != 4 {
		t.Fatalf("expected cursor 4, got %d", sp.Cursor().Get())
	}
}

func TestSingleProducerPublishBatch(t *testing.T) {
	buf := ringbuffer.New[int](16, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(16)
	p := NewSingleProducer(buf, sp)

	p.PublishBatch(4, func(event *int, seq int64, index int64) {
		*event = int(index) * 10
	})

	for i := int64(0); i < 4; i++ {
		if got := *buf.Get(i); got != int(i)*10 {
			t.Fatalf("slot %d: expected %d, got %d", i, int(i)*10, got)
		}
	}
	if sp.Cursor().Get() != 3 {
		t.Fatalf("expected cursor 3, got %d", sp.Cursor().Get())
	}
}

func TestSingleProducerPublishBatchZeroIsNoop(t *testing.T) {
	buf := ringbuffer.New[int](8, func() *int { v := 0; return &v })
	sp := sequencer.NewSingleProducer(8)
	p := NewSingleProducer(buf, sp)

	p.PublishBatch(0, func(event *int, seq int64, index int64) {
		t.Fatal("translate should not be called for n=0")
	})
	if sp.Cursor().Get() != sequence.InitialValue {
		t.Fatalf("expected cursor unchanged, got %d", sp.Cursor().Get())
	}
}

func TestMultiProducerCloneSharesState(t *testing.T) {
	const total = 2000
	buf := ringbuffer.New[int](4096, func() *int { v := -1; return &v })
	mp := sequencer.NewMultiProducer(4096)
	p := NewMultiProducer(buf, mp)

	const clones = 8
	var wg sync.WaitGroup
	wg.Add(clones)
	for c := 0; c < clones; c++ {
		clone := p.Clone()
		go func(c int) {
			defer wg.Done()
			for i := 0; i < total/clones; i++ {
				v := c*1000 + i
				clone.Publish(func(event *int, seq int64) { *event = v })
			}
		}(c)
	}
	wg.Wait()

	seen := make(map[int64]bool)
	for s := int64(0); s < total; s++ {
		v := *buf.Get(s)
		if v == -1 {
			t.Fatalf("slot %d was never written", s)
		}
		if seen[s] {
			t.Fatalf("slot %d written twice", s)
		}
		seen[s] = true
	}
	if mp.Cursor().Get() != total-1 {
		t.Fatalf("expected cursor %d, got %d", total-1, mp.Cursor().Get())
	}
}
