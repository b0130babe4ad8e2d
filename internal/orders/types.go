// Package orders defines the order, fill, and trade types shared by every
// pipeline stage. Prices are fixed-point int64 cents ($150.25 == 15025) so
// matching and settlement never touch floating point; every order carries
// a monotonic SequenceNum assigned on entry to the matching engine, which
// is what makes replaying the event log deterministic.
package orders

import (
	"fmt"
	"time"
)

// Side represents the side of an order (buy or sell).
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "BUY"
	case SideSell:
		return "SELL"
	default:
		return "UNKNOWN"
	}
}

// Opposite returns the opposite side.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderType represents the type of order and its execution semantics.
type OrderType int

const (
	// OrderTypeLimit rests in the book until filled or cancelled.
	// Only executes at the specified price or better.
	OrderTypeLimit OrderType = iota

	// OrderTypeMarket executes immediately at the best available price.
	// No price protection - will fill at whatever price is available.
	OrderTypeMarket

	// OrderTypeIOC (Immediate-or-Cancel) executes immediately for whatever
	// quantity is available, then cancels any remaining quantity.
	// Useful when you want immediate execution but accept partial fills.
	OrderTypeIOC

	// OrderTypeFOK (Fill-or-Kill) must be filled entirely or not at all.
	// If the full quantity cannot be matched immediately, the entire order
	// is cancelled. No partial fills allowed.
	OrderTypeFOK
)

func (t OrderType) String() string {
	switch t {
	case OrderTypeLimit:
		return "LIMIT"
	case OrderTypeMarket:
		return "MARKET"
	case OrderTypeIOC:
		return "IOC"
	case OrderTypeFOK:
		return "FOK"
	default:
		return "UNKNOWN"
	}
}

// OrderStatus represents the current state of an order.
type OrderStatus int

const (
	// OrderStatusNew - order has been accepted but not yet processed
	OrderStatusNew OrderStatus = iota

	// OrderStatusPartiallyFilled - order has been partially executed
	OrderStatusPartiallyFilled

	// OrderStatusFilled - order has been completely filled
	OrderStatusFilled

	// OrderStatusCancelled - order was cancelled (by user or system)
	OrderStatusCancelled

	// OrderStatusRejected - order was rejected (failed validation/risk check)
	OrderStatusRejected
)

func (s OrderStatus) String() string {
	switch s {
	case OrderStatusNew:
		return "NEW"
	case OrderStatusPartiallyFilled:
		return "PARTIALLY_FILLED"
	case OrderStatusFilled:
		return "FILLED"
	case OrderStatusCancelled:
		return "CANCELLED"
	case OrderStatusRejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Order is one order tracked by the matching engine, from submission
// through its final fill, cancellation, or rejection. Fields are ordered
// largest-first to keep struct padding down.
type Order struct {
	ID            uint64 // assigned by the exchange on acceptance
	SequenceNum   uint64 // assigned on entry to the matching engine, for replay
	Price         int64  // cents; ignored for market orders
	Quantity      int64
	FilledQty     int64 // RemainingQty = Quantity - FilledQty
	Timestamp     int64 // nanoseconds since epoch
	Symbol        string
	AccountID     string
	ClientOrderID string
	Side          Side
	Type          OrderType
	Status        OrderStatus
}

// RemainingQty returns the unfilled quantity of the order.
func (o *Order) RemainingQty() int64 {
	return o.Quantity - o.FilledQty
}

// IsFilled returns true if the order has been completely filled.
func (o *Order) IsFilled() bool {
	return o.FilledQty >= o.Quantity
}

// IsActive returns true if the order can still be matched.
func (o *Order) IsActive() bool {
	return o.Status == OrderStatusNew || o.Status == OrderStatusPartiallyFilled
}

// PriceStr returns the price formatted as a dollar string.
func (o *Order) PriceStr() string {
	return FormatPrice(o.Price)
}

// String returns a human-readable representation of the order.
func (o *Order) String() string {
	return fmt.Sprintf("Order{ID:%d, %s %s %d@%s, Filled:%d, Status:%s}",
		o.ID, o.Side, o.Symbol, o.Quantity, o.PriceStr(), o.FilledQty, o.Status)
}

// Fill represents one execution between an incoming (taker) order and a
// resting (maker) order; a single incoming order can produce several of
// these against different maker orders at different price levels.
type Fill struct {
	TradeID        uint64
	MakerOrderID   uint64
	TakerOrderID   uint64
	Price          int64 // always the maker's price (price improvement for taker)
	Quantity       int64
	Timestamp      int64
	Symbol         string
	MakerAccountID string
	TakerAccountID string
	TakerSide      Side
}

// String returns a human-readable representation of the fill.
func (f *Fill) String() string {
	return fmt.Sprintf("Fill{Trade:%d, %d shares@%s, Maker:%d, Taker:%d}",
		f.TradeID, f.Quantity, FormatPrice(f.Price), f.MakerOrderID, f.TakerOrderID)
}

// Trade represents a completed trade from the perspective of reporting.
// It combines information from both sides of the execution.
type Trade struct {
	ID            uint64
	Symbol        string
	Price         int64
	Quantity      int64
	BuyOrderID    uint64
	SellOrderID   uint64
	BuyerAccount  string
	SellerAccount string
	Timestamp     int64
	SequenceNum   uint64
}

// ExecutionResult contains the outcome of processing an order.
type ExecutionResult struct {
	// Order is the processed order with updated status and filled quantity.
	Order *Order

	// Fills contains all executions that occurred.
	Fills []Fill

	// Accepted indicates if the order was accepted into the system.
	Accepted bool

	// RejectReason explains why the order was rejected (if applicable).
	RejectReason string

	// RestingQty is the quantity that was added to the order book
	// (for limit orders that didn't fully match).
	RestingQty int64
}

// FormatPrice converts a price in cents to a dollar string.
func FormatPrice(cents int64) string {
	dollars := cents / 100
	remaining := cents % 100
	if remaining < 0 {
		remaining = -remaining
	}
	return fmt.Sprintf("$%d.%02d", dollars, remaining)
}

// ParsePrice converts a dollar amount to cents.
// For example, 150.25 becomes 15025.
func ParsePrice(dollars float64) int64 {
	return int64(dollars * 100)
}

// Now returns the current time in nanoseconds since epoch.
func Now() int64 {
	return time.Now().UnixNano()
}
