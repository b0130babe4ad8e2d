// Package wait provides the pluggable policies a consumer uses while its
// target sequence is not yet available: busy spin, yielding spin, and the
// seam for adding blocking/park-based strategies.
package wait

import (
	"runtime"

	"github.com/rishavpaul/disruptor/sequence"
)

// Strategy is how a consumer waits when its target sequence is not yet
// available. WaitFor returns the highest available sequence once
// min(dependents) >= target, or -1 if checkAlert reports true during the
// wait. SignalAll wakes any goroutine parked by this strategy; it is a
// no-op for spin-based strategies.
type Strategy interface {
	WaitFor(target int64, cursor *sequence.Sequence, dependents []*sequence.Sequence, checkAlert func() bool) (available int64, alerted bool)
	SignalAll()
}

// BusySpin spins in a tight loop, never yielding the OS thread. It offers
// the lowest latency at the cost of pinning a core at 100% CPU.
type BusySpin struct{}

// WaitFor implements Strategy.
func (BusySpin) WaitFor(target int64, cursor *sequence.Sequence, dependents []*sequence.Sequence, checkAlert func() bool) (int64, bool) {
	for {
		if checkAlert() {
			return -1, true
		}
		if available := minOf(cursor, dependents); available >= target {
			return available, false
		}
	}
}

// SignalAll implements Strategy; busy-spin waiters poll, so there is
// nothing to wake.
func (BusySpin) SignalAll() {}

// Yielding spins like BusySpin but yields the OS thread each iteration,
// trading a little latency for much lower CPU burn under contention.
type Yielding struct{}

// WaitFor implements Strategy.
func (Yielding) WaitFor(target int64, cursor *sequence.Sequence, dependents []*sequence.Sequence, checkAlert func() bool) (int64, bool) {
	for {
		if checkAlert() {
			return -1, true
		}
		if available := minOf(cursor, dependents); available >= target {
			return available, false
		}
		runtime.Gosched()
	}
}

// SignalAll implements Strategy; yielding waiters poll, so there is nothing
// to wake.
func (Yielding) SignalAll() {}

// minOf returns the minimum of the dependent sequences, or the cursor's
// value if dependents is empty.
func minOf(cursor *sequence.Sequence, dependents []*sequence.Sequence) int64 {
	if len(dependents) == 0 {
		return cursor.Get()
	}
	return sequence.Min(dependents)
}
