package barrier

import (
	"testing"
	"time"

	"github.com/rishavpaul/disruptor/sequence"
	"github.com/rishavpaul/disruptor/sequencer"
	"github.com/rishavpaul/disruptor/wait"
)

func TestWaitForSingleProducer(t *testing.T) {
	sp := sequencer.NewSingleProducer(8)
	b := New(wait.BusySpin{}, sp, nil)

	done := make(chan int64, 1)
	go func() {
		available, ok := b.WaitFor(2)
		if !ok {
			t.Error("unexpected alert")
		}
		done <- available
	}()

	time.Sleep(5 * time.Millisecond)
	sp.Publish(0)
	sp.Publish(1)
	sp.Publish(2)

	select {
	case got := <-done:
		if got != 2 {
			t.Fatalf("expected 2, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return")
	}
}

func TestWaitForMultiProducerClampsToContiguousPrefix(t *testing.T) {
	mp := sequencer.NewMultiProducer(8)
	b := New(wait.BusySpin{}, mp, nil)

	s0 := mp.Next(1)
	s1 := mp.Next(1)
	s2 := mp.Next(1)

	// Publish 0 and 2 but not 1: the barrier must clamp to the
	// contiguous prefix ending at 0, not the raw cursor (2).
	mp.Publish(s0)
	mp.Publish(s2)

	done := make(chan int64, 1)
	go func() {
		available, ok := b.WaitFor(0)
		if !ok {
			t.Error("unexpected alert")
		}
		done <- available
	}()

	select {
	case got := <-done:
		if got != s0 {
			t.Fatalf("expected clamp to %d, got %d", s0, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return")
	}

	mp.Publish(s1)
	available, ok := b.WaitFor(s1)
	if !ok {
		t.Fatal("unexpected alert")
	}
	if available != s2 {
		t.Fatalf("expected %d once gap fills, got %d", s2, available)
	}
}

func TestAlertUnblocksWait(t *testing.T) {
	sp := sequencer.NewSingleProducer(8)
	b := New(wait.BusySpin{}, sp, nil)

	done := make(chan bool, 1)
	go func() {
		_, ok := b.WaitFor(5)
		done <- ok
	}()

	time.Sleep(5 * time.Millisecond)
	b.Alert()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("expected WaitFor to report alert")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return after Alert")
	}
}

func TestClearAlertAllowsWaitingAgain(t *testing.T) {
	sp := sequencer.NewSingleProducer(8)
	b := New(wait.BusySpin{}, sp, nil)

	b.Alert()
	if !b.IsAlerted() {
		t.Fatal("expected alerted")
	}
	b.ClearAlert()
	if b.IsAlerted() {
		t.Fatal("expected alert cleared")
	}

	sp.Publish(0)
	available, ok := b.WaitFor(0)
	if !ok || available != 0 {
		t.Fatalf("expected (0, true), got (%d, %v)", available, ok)
	}
}

func TestDefaultDependentsIsCursor(t *testing.T) {
	sp := sequencer.NewSingleProducer(8)
	b := New(wait.BusySpin{}, sp, nil)
	deps := b.Dependents()
	if len(deps) != 1 || deps[0] != sp.Cursor() {
		t.Fatal("expected default dependent set to be {sequencer.Cursor()}")
	}
}

func TestExplicitDependents(t *testing.T) {
	sp := sequencer.NewSingleProducer(8)
	upstream := sequence.NewDefault()
	b := New(wait.BusySpin{}, sp, []*sequence.Sequence{upstream})

	done := make(chan int64, 1)
	go func() {
		available, _ := b.WaitFor(3)
		done <- available
	}()

	sp.Publish(10) // sequencer cursor races ahead
	time.Sleep(5 * time.Millisecond)

	select {
	case <-done:
		t.Fatal("WaitFor should still be blocked on the upstream dependency")
	default:
	}

	upstream.Set(3)

	select {
	case got := <-done:
		if got != 3 {
			t.Fatalf("expected 3, got %d", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return once upstream dependency advanced")
	}
}
