package exchange

import (
	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/internal/events"
	"github.com/rishavpaul/disruptor/internal/marketdata"
	"github.com/rishavpaul/disruptor/internal/matching"
	"github.com/rishavpaul/disruptor/internal/orders"
	"github.com/rishavpaul/disruptor/internal/risk"
	"github.com/rishavpaul/disruptor/internal/settlement"
)

// RiskHandler runs pre-trade risk checks on new orders. A rejected order is
// marked on the event (Reject set, Order.Status flipped to Rejected) and
// left for later stages to observe and skip rather than removed from the
// batch; a processor.EventHandler can't drop a slot, only annotate it.
// Cancellations skip risk checking entirely.
type RiskHandler struct {
	Checker *risk.Checker
	Logger  *zap.Logger
}

func (h *RiskHandler) OnEvent(e *Event, seq int64, endOfBatch bool) {
	if e.Kind != KindNewOrder {
		return
	}
	result := h.Checker.Check(e.Order)
	if !result.Passed {
		e.Order.Status = orders.OrderStatusRejected
		e.Reject = result.Reason
		if h.Logger != nil {
			h.Logger.Debug("order rejected by risk check",
				zap.Uint64("order_id", e.Order.ID),
				zap.String("reason", result.Reason))
		}
	}
}

// MatchingHandler is the single-threaded core: it runs the order through
// the matching engine, or cancels a resting order, whichever the event
// carries. It never runs concurrently with itself (it owns the tail of one
// barrier chain), which is exactly the exclusivity matching.Engine assumes.
type MatchingHandler struct {
	Engine *matching.Engine
}

func (h *MatchingHandler) OnEvent(e *Event, seq int64, endOfBatch bool) {
	switch e.Kind {
	case KindCancelOrder:
		order, err := h.Engine.CancelOrder(e.CancelSymbol, e.CancelOrderID)
		e.CancelledOrder = order
		e.CancelErr = err
	default:
		if e.Reject != "" {
			return
		}
		e.Result = h.Engine.ProcessOrder(e.Order)
	}
}

// EventLogHandler appends each event's outcome to the durable event log
// (an accept or reject record, fill records, or a record for a successful
// cancel), then signals Done, the point at which a synchronous caller may
// stop waiting.
type EventLogHandler struct {
	Log *events.EventLog
}

func (h *EventLogHandler) OnEvent(e *Event, seq int64, endOfBatch bool) {
	defer func() {
		if e.Done != nil {
			close(e.Done)
		}
	}()

	switch e.Kind {
	case KindCancelOrder:
		if e.CancelledOrder != nil {
			h.Log.Append(&events.OrderCancelledEvent{
				OrderID:      e.CancelledOrder.ID,
				Symbol:       e.CancelledOrder.Symbol,
				CancelledQty: e.CancelledOrder.RemainingQty(),
				Reason:       "requested",
			})
		}
		return
	}

	if e.Reject != "" {
		h.Log.Append(&events.OrderRejectedEvent{
			OrderID:      e.Order.ID,
			Symbol:       e.Order.Symbol,
			RejectReason: e.Reject,
		})
		return
	}
	if e.Result == nil {
		return
	}
	if !e.Result.Accepted {
		h.Log.Append(&events.OrderRejectedEvent{
			OrderID:      e.Result.Order.ID,
			Symbol:       e.Result.Order.Symbol,
			RejectReason: e.Result.RejectReason,
		})
		return
	}
	h.Log.Append(&events.OrderAcceptedEvent{
		OrderID:    e.Result.Order.ID,
		Symbol:     e.Result.Order.Symbol,
		RestingQty: e.Result.RestingQty,
	})
	for _, fill := range e.Result.Fills {
		h.Log.Append(&events.FillEvent{
			TradeID:        fill.TradeID,
			Symbol:         fill.Symbol,
			Price:          fill.Price,
			Quantity:       fill.Quantity,
			MakerOrderID:   fill.MakerOrderID,
			TakerOrderID:   fill.TakerOrderID,
			MakerAccountID: fill.MakerAccountID,
			TakerAccountID: fill.TakerAccountID,
			TakerSide:      fill.TakerSide,
		})
	}
}

// MarketDataHandler publishes a trade report for every fill and one
// top-of-book quote for each processed new order.
type MarketDataHandler struct {
	Publisher *marketdata.Publisher
	Engine    *matching.Engine
}

func (h *MarketDataHandler) OnEvent(e *Event, seq int64, endOfBatch bool) {
	if e.Kind != KindNewOrder || e.Result == nil {
		return
	}
	for _, fill := range e.Result.Fills {
		h.Publisher.PublishTrade(marketdata.TradeReport{
			TradeID:       fill.TradeID,
			Symbol:        fill.Symbol,
			Price:         fill.Price,
			Quantity:      fill.Quantity,
			AggressorSide: fill.TakerSide,
			Timestamp:     fill.Timestamp,
		})
	}

	book := h.Engine.GetOrderBook(e.Order.Symbol)
	if book == nil {
		return
	}
	l1 := marketdata.L1Quote{Symbol: e.Order.Symbol, Timestamp: orders.Now()}
	if bid := book.GetBestBid(); bid != nil {
		l1.BidPrice = bid.Price
		l1.BidSize = bid.TotalQty
	}
	if ask := book.GetBestAsk(); ask != nil {
		l1.AskPrice = ask.Price
		l1.AskSize = ask.TotalQty
	}
	if len(e.Result.Fills) > 0 {
		last := e.Result.Fills[len(e.Result.Fills)-1]
		l1.LastPrice = last.Price
		l1.LastSize = last.Quantity
	}
	h.Publisher.PublishL1(l1)
}

// SettlementHandler records every fill with the clearing house for
// downstream netting and settlement, and feeds the risk checker's
// position/reference-price state back for future checks.
type SettlementHandler struct {
	ClearingHouse *settlement.ClearingHouse
	Checker       *risk.Checker
}

func (h *SettlementHandler) OnEvent(e *Event, seq int64, endOfBatch bool) {
	if e.Kind != KindNewOrder || e.Result == nil {
		return
	}
	for _, fill := range e.Result.Fills {
		h.ClearingHouse.RecordTrade(fill)
		h.Checker.UpdatePosition(fill.TakerAccountID, fill.Symbol, fill.TakerSide, fill.Quantity)
		h.Checker.UpdatePosition(fill.MakerAccountID, fill.Symbol, fill.TakerSide.Opposite(), fill.Quantity)
		h.Checker.SetReferencePrice(fill.Symbol, fill.Price)
	}
}
