package wait

import (
	"testing"
	"time"

	"github.com/rishavpaul/disruptor/sequence"
)

func testWaitForReturnsOnceAvailable(t *testing.T, s Strategy) {
	cursor := sequence.New(-1)
	dep := sequence.New(-1)

	done := make(chan struct{})
	go func() {
		defer close(done)
		available, alerted := s.WaitFor(5, cursor, []*sequence.Sequence{dep}, func() bool { return false })
		if alerted {
			t.Error("unexpected alert")
		}
		if available != 5 {
			t.Errorf("expected available=5, got %d", available)
		}
	}()

	time.Sleep(5 * time.Millisecond)
	dep.Set(5)
	cursor.Set(5)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return in time")
	}
}

func TestBusySpinWaitFor(t *testing.T) {
	testWaitForReturnsOnceAvailable(t, BusySpin{})
}

func TestYieldingWaitFor(t *testing.T) {
	testWaitForReturnsOnceAvailable(t, Yielding{})
}

func testWaitForAlert(t *testing.T, s Strategy) {
	cursor := sequence.New(-1)
	dep := sequence.New(-1)
	var alert bool

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, alerted := s.WaitFor(5, cursor, []*sequence.Sequence{dep}, func() bool { return alert })
		if !alerted {
			t.Error("expected alert to be reported")
		}
	}()

	time.Sleep(5 * time.Millisecond)
	alert = true

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitFor did not return after alert")
	}
}

func TestBusySpinAlert(t *testing.T) {
	testWaitForAlert(t, BusySpin{})
}

func TestYieldingAlert(t *testing.T) {
	testWaitForAlert(t, Yielding{})
}

func TestSignalAllIsNoop(t *testing.T) {
	// Spin strategies don't park, so SignalAll must simply not panic.
	BusySpin{}.SignalAll()
	Yielding{}.SignalAll()
}
