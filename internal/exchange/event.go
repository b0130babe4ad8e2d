// Package exchange wires the order matching domain onto the disruptor
// core: an Event slot flows through a pipeline of processor.EventHandler
// stages built by a topology.Builder (risk -> matching, then event log,
// market data and settlement in parallel).
package exchange

import "github.com/rishavpaul/disruptor/internal/orders"

// Kind distinguishes the two request shapes a slot can carry. Both travel
// through the same pipeline so cancellations are serialized against new
// orders in the same deterministic sequence the matching engine requires.
type Kind uint8

const (
	KindNewOrder Kind = iota
	KindCancelOrder
)

// Event is the ring buffer's payload type. A handler stage mutates it in
// place; later stages in the same chain observe those mutations, and
// RingBuffer slots are reused across wraps so every field must be
// overwritten on every publish, not merely appended to.
type Event struct {
	Kind Kind

	// New-order fields.
	Order  *orders.Order
	Result *orders.ExecutionResult
	Reject string

	// Cancel fields.
	CancelSymbol   string
	CancelOrderID  uint64
	CancelledOrder *orders.Order
	CancelErr      error

	// Done, if non-nil, is closed once the event log stage has durably
	// recorded the outcome, the synchronization point a synchronous
	// caller (an HTTP handler) waits on. Market data and settlement, which
	// run in parallel with the event log stage, are not on this critical path.
	Done chan struct{}
}

// Reset clears an Event so a producer can safely reuse the slot a prior lap
// left behind.
func (e *Event) Reset() {
	e.Kind = KindNewOrder
	e.Order = nil
	e.Result = nil
	e.Reject = ""
	e.CancelSymbol = ""
	e.CancelOrderID = 0
	e.CancelledOrder = nil
	e.CancelErr = nil
	e.Done = nil
}
