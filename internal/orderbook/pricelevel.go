// Package orderbook implements the limit order book: two red-black trees
// of price levels, each level a FIFO queue of orders, giving the
// price-time priority matching.Engine matches against.
package orderbook

import (
	"github.com/rishavpaul/disruptor/internal/orders"
)

// OrderNode is one entry in a PriceLevel's doubly-linked queue. The level
// back-pointer lets OrderBook.CancelOrder unlink a node in O(1) without
// knowing which level it lives in ahead of time.
type OrderNode struct {
	Order *orders.Order
	prev  *OrderNode
	next  *OrderNode
	level *PriceLevel
}

// Next returns the node that follows n in its level's queue.
func (n *OrderNode) Next() *OrderNode {
	return n.next
}

// PriceLevel holds every resting order at one price, oldest first.
// TotalQty tracks the sum of remaining quantities so depth queries don't
// need to walk the queue.
type PriceLevel struct {
	Price    int64
	head     *OrderNode
	tail     *OrderNode
	count    int
	TotalQty int64
}

// NewPriceLevel constructs an empty level at price.
func NewPriceLevel(price int64) *PriceLevel {
	return &PriceLevel{
		Price: price,
	}
}

// Count returns the number of orders resting at this level.
func (pl *PriceLevel) Count() int {
	return pl.count
}

// IsEmpty reports whether this level has no resting orders.
func (pl *PriceLevel) IsEmpty() bool {
	return pl.count == 0
}

// Head returns the oldest (highest time-priority) order node at this level.
func (pl *PriceLevel) Head() *OrderNode {
	return pl.head
}

// Append adds order to the tail of this level's queue, the lowest
// time-priority among orders at this price. Returns the node so the
// caller can cancel it in O(1) later.
func (pl *PriceLevel) Append(order *orders.Order) *OrderNode {
	node := &OrderNode{
		Order: order,
		level: pl,
	}

	if pl.tail == nil {
		pl.head = node
		pl.tail = node
	} else {
		node.prev = pl.tail
		pl.tail.next = node
		pl.tail = node
	}

	pl.count++
	pl.TotalQty += order.RemainingQty()
	return node
}

// Remove unlinks node from this level's queue in O(1).
func (pl *PriceLevel) Remove(node *OrderNode) {
	if node == nil {
		return
	}

	pl.TotalQty -= node.Order.RemainingQty()
	pl.count--

	if node.prev != nil {
		node.prev.next = node.next
	} else {
		pl.head = node.next
	}

	if node.next != nil {
		node.next.prev = node.prev
	} else {
		pl.tail = node.prev
	}

	node.prev = nil
	node.next = nil
	node.level = nil
}

// PopFront removes and returns the oldest order at this level, or nil if
// the level is empty.
func (pl *PriceLevel) PopFront() *orders.Order {
	if pl.head == nil {
		return nil
	}

	node := pl.head
	order := node.Order

	pl.TotalQty -= order.RemainingQty()
	pl.count--

	pl.head = node.next
	if pl.head != nil {
		pl.head.prev = nil
	} else {
		pl.tail = nil
	}

	node.next = nil
	node.level = nil

	return order
}

// UpdateQuantity applies delta to TotalQty, called whenever a fill changes
// how much quantity is actually resting at this level.
func (pl *PriceLevel) UpdateQuantity(delta int64) {
	pl.TotalQty += delta
}

// Orders returns every order resting at this level, oldest first. Allocates
// a fresh slice each call; intended for display and debugging, not the hot
// matching path.
func (pl *PriceLevel) Orders() []*orders.Order {
	result := make([]*orders.Order, 0, pl.count)
	for node := pl.head; node != nil; node = node.next {
		result = append(result, node.Order)
	}
	return result
}
