package sequencer

import (
	"sync"
	"testing"
	"time"

	"github.com/rishavpaul/disruptor/sequence"
)

func TestSingleProducerNextNoGating(t *testing.T) {
	sp := NewSingleProducer(8)
	for i := int64(0); i < 100; i++ {
		if got := sp.Next(1); got != i {
			t.Fatalf("expected %d, got %d", i, got)
		}
		sp.Publish(i)
	}
}

func TestSingleProducerGatingBlocksOverrun(t *testing.T) {
	sp := NewSingleProducer(4)
	consumed := sequence.NewDefault()
	sp.AddGatingSequence(consumed)

	// Claim and publish all 4 slots without advancing the consumer.
	for i := int64(0); i < 4; i++ {
		seq := sp.Next(1)
		sp.Publish(seq)
	}

	done := make(chan int64, 1)
	go func() {
		done <- sp.Next(1)
	}()

	select {
	case <-done:
		t.Fatal("Next should have blocked: gating sequence has not advanced")
	default:
	}

	consumed.Set(0)

	select {
	case got := <-done:
		if got != 4 {
			t.Fatalf("expected sequence 4, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not unblock after gating sequence advanced")
	}
}

func TestSingleProducerHighestPublishedIsIdentity(t *testing.T) {
	sp := NewSingleProducer(8)
	if got := sp.HighestPublished(3, 10); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
}

func TestMultiProducerNextUnique(t *testing.T) {
	mp := NewMultiProducer(4096)

	const producers = 8
	const perProducer = 500

	claimed := make([]int64, producers*perProducer)
	var wg sync.WaitGroup
	wg.Add(producers)
	for p := 0; p < producers; p++ {
		p := p
		go func() {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				seq := mp.Next(1)
				claimed[p*perProducer+i] = seq
				mp.Publish(seq)
			}
		}()
	}
	wg.Wait()

	seen := make(map[int64]bool, len(claimed))
	for _, s := range claimed {
		if seen[s] {
			t.Fatalf("sequence %d claimed more than once", s)
		}
		seen[s] = true
	}
	if len(seen) != producers*perProducer {
		t.Fatalf("expected %d unique sequences, got %d", producers*perProducer, len(seen))
	}
}

func TestMultiProducerAvailableAndHighestPublished(t *testing.T) {
	mp := NewMultiProducer(8)

	s0 := mp.Next(1)
	s1 := mp.Next(1)
	s2 := mp.Next(1)

	// Publish out of order: 2, then 0. 1 remains unpublished, so the
	// contiguous prefix stops at s0.
	mp.Publish(s2)
	mp.Publish(s0)

	if !mp.Available(s0) {
		t.Fatal("expected s0 available")
	}
	if mp.Available(s1) {
		t.Fatal("expected s1 not yet available")
	}
	if !mp.Available(s2) {
		t.Fatal("expected s2 available")
	}

	if got := mp.HighestPublished(s0, s2); got != s0 {
		t.Fatalf("expected highest published to stop at s0 (%d), got %d", s0, got)
	}

	mp.Publish(s1)
	if got := mp.HighestPublished(s0, s2); got != s2 {
		t.Fatalf("expected highest published %d once s1 fills the gap, got %d", s2, got)
	}
}

func TestMultiProducerGatingBlocksOverrun(t *testing.T) {
	mp := NewMultiProducer(4)
	consumed := sequence.NewDefault()
	mp.AddGatingSequence(consumed)

	for i := 0; i < 4; i++ {
		seq := mp.Next(1)
		mp.Publish(seq)
	}

	done := make(chan int64, 1)
	go func() {
		done <- mp.Next(1)
	}()

	select {
	case <-done:
		t.Fatal("Next should have blocked: gating sequence has not advanced")
	default:
	}

	consumed.Set(0)

	select {
	case got := <-done:
		if got != 4 {
			t.Fatalf("expected sequence 4, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not unblock after gating sequence advanced")
	}
}
