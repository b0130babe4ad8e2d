// Package matching implements price-time priority order matching.
//
// Engine.ProcessOrder is the single-threaded core of the pipeline: every
// order for every symbol passes through one goroutine, in arrival order,
// with no locking. That single-writer property is what lets the engine
// skip synchronization entirely and still stay deterministic under replay;
// the exclusivity itself is enforced upstream by the sequencer/barrier
// chain that feeds events to it one batch at a time.
package matching

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/internal/orderbook"
	"github.com/rishavpaul/disruptor/internal/orders"
)

// Engine matches orders against resting liquidity for every symbol it
// tracks. ProcessOrder must only be called from one goroutine at a time.
type Engine struct {
	orderBooks  map[string]*orderbook.OrderBook
	sequenceNum uint64
	tradeID     uint64
	orderID     uint64
	logger      *zap.Logger
}

// NewEngine constructs an Engine with no tracked symbols. A nil logger
// disables logging.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		orderBooks: make(map[string]*orderbook.OrderBook),
		logger:     logger,
	}
}

// AddSymbol registers symbol for trading if it isn't already tracked.
func (e *Engine) AddSymbol(symbol string) {
	if _, exists := e.orderBooks[symbol]; !exists {
		e.orderBooks[symbol] = orderbook.NewOrderBook(symbol)
		e.logger.Info("symbol added", zap.String("symbol", symbol))
	}
}

// GetOrderBook returns the order book for symbol, or nil if untracked.
func (e *Engine) GetOrderBook(symbol string) *orderbook.OrderBook {
	return e.orderBooks[symbol]
}

// NextOrderID returns a fresh, monotonically increasing order ID.
func (e *Engine) NextOrderID() uint64 {
	return atomic.AddUint64(&e.orderID, 1)
}

func (e *Engine) nextTradeID() uint64 {
	return atomic.AddUint64(&e.tradeID, 1)
}

func (e *Engine) nextSequence() uint64 {
	return atomic.AddUint64(&e.sequenceNum, 1)
}

// ProcessOrder validates order, assigns it an ID and sequence number,
// matches it against the book for its symbol, and rests any remainder
// for limit orders. The returned ExecutionResult is shared with order:
// callers observe the same fills and status through either value.
func (e *Engine) ProcessOrder(order *orders.Order) *orders.ExecutionResult {
	result := &orders.ExecutionResult{
		Order:    order,
		Fills:    make([]orders.Fill, 0),
		Accepted: false,
	}

	book := e.orderBooks[order.Symbol]
	if book == nil {
		result.RejectReason = fmt.Sprintf("unknown symbol: %s", order.Symbol)
		order.Status = orders.OrderStatusRejected
		return result
	}

	if order.Quantity <= 0 {
		result.RejectReason = "quantity must be positive"
		order.Status = orders.OrderStatusRejected
		return result
	}

	if order.Type == orders.OrderTypeLimit && order.Price <= 0 {
		result.RejectReason = "limit order must have positive price"
		order.Status = orders.OrderStatusRejected
		return result
	}

	if order.ID == 0 {
		order.ID = e.NextOrderID()
	}
	order.SequenceNum = e.nextSequence()
	if order.Timestamp == 0 {
		order.Timestamp = orders.Now()
	}
	order.Status = orders.OrderStatusNew
	result.Accepted = true

	fills := e.matchOrder(order, book)
	result.Fills = fills

	if order.IsFilled() {
		order.Status = orders.OrderStatusFilled
	} else if order.FilledQty > 0 {
		order.Status = orders.OrderStatusPartiallyFilled
	}

	remainingQty := order.RemainingQty()
	if remainingQty > 0 {
		switch order.Type {
		case orders.OrderTypeMarket:
			order.Status = orders.OrderStatusCancelled
			result.RejectReason = "insufficient liquidity"

		case orders.OrderTypeIOC:
			order.Status = orders.OrderStatusCancelled

		case orders.OrderTypeFOK:
			// matchOrder returns no fills for a FOK order it cannot fill
			// entirely, so any remainder here means the whole order is killed.
			order.Status = orders.OrderStatusCancelled
			result.RejectReason = "could not fill entire quantity"

		case orders.OrderTypeLimit:
			book.AddOrder(order)
			result.RestingQty = remainingQty
		}
	}

	if e.logger.Core().Enabled(zap.DebugLevel) {
		e.logger.Debug("order processed",
			zap.Uint64("order_id", order.ID),
			zap.String("symbol", order.Symbol),
			zap.Stringer("status", order.Status),
			zap.Int("fills", len(fills)))
	}

	return result
}

// matchOrder walks the opposite side of book, filling order against
// resting orders in price-then-FIFO order until order is exhausted, the
// book runs out, or the next level's price is no longer acceptable.
func (e *Engine) matchOrder(order *orders.Order, book *orderbook.OrderBook) []orders.Fill {
	var fills []orders.Fill

	if order.Type == orders.OrderTypeFOK {
		if !e.canFillEntirely(order, book) {
			return fills
		}
	}

	var getMatchLevel func() *orderbook.PriceLevel
	var priceAcceptable func(bookPrice int64) bool

	if order.Side == orders.SideBuy {
		getMatchLevel = book.GetBestAsk
		priceAcceptable = func(bookPrice int64) bool {
			if order.Type == orders.OrderTypeMarket {
				return true
			}
			return bookPrice <= order.Price
		}
	} else {
		getMatchLevel = book.GetBestBid
		priceAcceptable = func(bookPrice int64) bool {
			if order.Type == orders.OrderTypeMarket {
				return true
			}
			return bookPrice >= order.Price
		}
	}

	for order.RemainingQty() > 0 {
		level := getMatchLevel()
		if level == nil {
			break
		}

		if !priceAcceptable(level.Price) {
			break
		}

		for node := level.Head(); node != nil && order.RemainingQty() > 0; {
			makerOrder := node.Order
			nextNode := node

			fillQty := min(order.RemainingQty(), makerOrder.RemainingQty())

			fill := orders.Fill{
				TradeID:        e.nextTradeID(),
				MakerOrderID:   makerOrder.ID,
				TakerOrderID:   order.ID,
				Price:          level.Price, // maker's price: price improvement for taker
				Quantity:       fillQty,
				Timestamp:      orders.Now(),
				Symbol:         order.Symbol,
				MakerAccountID: makerOrder.AccountID,
				TakerAccountID: order.AccountID,
				TakerSide:      order.Side,
			}
			fills = append(fills, fill)

			order.FilledQty += fillQty
			makerOrder.FilledQty += fillQty

			if makerOrder.IsFilled() {
				makerOrder.Status = orders.OrderStatusFilled
			} else {
				makerOrder.Status = orders.OrderStatusPartiallyFilled
			}

			nextNode = nextNode.Next()

			level.UpdateQuantity(-fillQty)
			if makerOrder.IsFilled() {
				book.CancelOrder(makerOrder.ID)
			}

			node = nextNode
		}
	}

	return fills
}

// canFillEntirely reports whether book holds enough acceptable-priced
// liquidity to fill order in full, without mutating book or order. Used
// to decide FOK admission before matchOrder commits to any fills.
func (e *Engine) canFillEntirely(order *orders.Order, book *orderbook.OrderBook) bool {
	remainingQty := order.Quantity
	var levelIter func(func(*orderbook.PriceLevel) bool)
	var priceOK func(int64) bool

	if order.Side == orders.SideBuy {
		levelIter = func(fn func(*orderbook.PriceLevel) bool) {
			for level := book.GetBestAsk(); level != nil; {
				if !fn(level) {
					return
				}
				asks := book.GetAskDepth(0)
				found := false
				for i, l := range asks {
					if l.Price == level.Price && i+1 < len(asks) {
						level = asks[i+1]
						found = true
						break
					}
				}
				if !found {
					return
				}
			}
		}
		priceOK = func(p int64) bool {
			return order.Type == orders.OrderTypeMarket || p <= order.Price
		}
	} else {
		levelIter = func(fn func(*orderbook.PriceLevel) bool) {
			for level := book.GetBestBid(); level != nil; {
				if !fn(level) {
					return
				}
				bids := book.GetBidDepth(0)
				found := false
				for i, l := range bids {
					if l.Price == level.Price && i+1 < len(bids) {
						level = bids[i+1]
						found = true
						break
					}
				}
				if !found {
					return
				}
			}
		}
		priceOK = func(p int64) bool {
			return order.Type == orders.OrderTypeMarket || p >= order.Price
		}
	}

	levelIter(func(level *orderbook.PriceLevel) bool {
		if !priceOK(level.Price) {
			return false
		}
		availableQty := level.TotalQty
		if availableQty >= remainingQty {
			remainingQty = 0
			return false
		}
		remainingQty -= availableQty
		return true
	})

	return remainingQty == 0
}

// CancelOrder removes orderID from symbol's book.
func (e *Engine) CancelOrder(symbol string, orderID uint64) (*orders.Order, error) {
	book := e.orderBooks[symbol]
	if book == nil {
		return nil, fmt.Errorf("unknown symbol: %s", symbol)
	}

	order := book.CancelOrder(orderID)
	if order == nil {
		return nil, fmt.Errorf("order %d not found", orderID)
	}

	order.Status = orders.OrderStatusCancelled
	e.logger.Debug("order cancelled", zap.Uint64("order_id", orderID), zap.String("symbol", symbol))
	return order, nil
}

// GetOrder retrieves an order by symbol and ID, or nil if not resting.
func (e *Engine) GetOrder(symbol string, orderID uint64) *orders.Order {
	book := e.orderBooks[symbol]
	if book == nil {
		return nil
	}
	return book.GetOrder(orderID)
}

// Symbols returns every symbol currently tracked by the engine.
func (e *Engine) Symbols() []string {
	symbols := make([]string, 0, len(e.orderBooks))
	for s := range e.orderBooks {
		symbols = append(symbols, s)
	}
	return symbols
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
