// Package marketdata fans out L1 quotes and trade reports to subscriber
// channels. Publication is non-blocking: a subscriber slow enough to fill
// its channel buffer loses updates rather than stalling the publisher, so
// the matching pipeline's hot path never waits on a market data consumer.
package marketdata

import (
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/internal/orders"
)

// L1Quote is top-of-book: best bid/ask and the last trade.
type L1Quote struct {
	Symbol    string
	BidPrice  int64
	BidSize   int64
	AskPrice  int64
	AskSize   int64
	LastPrice int64
	LastSize  int64
	Timestamp int64
}

// L2Depth is the aggregated size at each price level on both sides.
type L2Depth struct {
	Symbol    string
	Bids      []PriceLevel
	Asks      []PriceLevel
	Timestamp int64
}

// PriceLevel is one price and its aggregated resting quantity.
type PriceLevel struct {
	Price    int64
	Quantity int64
	Count    int
}

// TradeReport is a single execution, reported once per fill.
type TradeReport struct {
	TradeID       uint64
	Symbol        string
	Price         int64
	Quantity      int64
	AggressorSide orders.Side
	Timestamp     int64
}

// Publisher distributes L1Quote, L2Depth, and TradeReport updates to
// subscriber channels, either per-symbol or across every symbol.
type Publisher struct {
	mu           sync.RWMutex
	l1Subs       map[string][]chan L1Quote
	l2Subs       map[string][]chan L2Depth
	tradeSubs    map[string][]chan TradeReport
	allL1Subs    []chan L1Quote
	allTradeSubs []chan TradeReport
	bufferSize   int
	dropped      uint64
	logger       *zap.Logger
}

// NewPublisher constructs a Publisher whose subscriber channels are
// buffered to bufferSize (100 if not positive). A nil logger disables
// logging.
func NewPublisher(bufferSize int, logger *zap.Logger) *Publisher {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		l1Subs:     make(map[string][]chan L1Quote),
		l2Subs:     make(map[string][]chan L2Depth),
		tradeSubs:  make(map[string][]chan TradeReport),
		bufferSize: bufferSize,
		logger:     logger,
	}
}

// SubscribeL1 returns a channel receiving L1Quote updates for symbol.
func (p *Publisher) SubscribeL1(symbol string) <-chan L1Quote {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan L1Quote, p.bufferSize)
	p.l1Subs[symbol] = append(p.l1Subs[symbol], ch)
	return ch
}

// SubscribeAllL1 returns a channel receiving L1Quote updates for every
// symbol.
func (p *Publisher) SubscribeAllL1() <-chan L1Quote {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan L1Quote, p.bufferSize)
	p.allL1Subs = append(p.allL1Subs, ch)
	return ch
}

// SubscribeL2 returns a channel receiving L2Depth updates for symbol.
func (p *Publisher) SubscribeL2(symbol string) <-chan L2Depth {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan L2Depth, p.bufferSize)
	p.l2Subs[symbol] = append(p.l2Subs[symbol], ch)
	return ch
}

// SubscribeTrades returns a channel receiving TradeReports for symbol.
func (p *Publisher) SubscribeTrades(symbol string) <-chan TradeReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan TradeReport, p.bufferSize)
	p.tradeSubs[symbol] = append(p.tradeSubs[symbol], ch)
	return ch
}

// SubscribeAllTrades returns a channel receiving TradeReports for every
// symbol.
func (p *Publisher) SubscribeAllTrades() <-chan TradeReport {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan TradeReport, p.bufferSize)
	p.allTradeSubs = append(p.allTradeSubs, ch)
	return ch
}

// PublishL1 sends quote to every L1 subscriber for its symbol and every
// all-symbols subscriber. A full subscriber channel is skipped rather than
// blocked on.
func (p *Publisher) PublishL1(quote L1Quote) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.l1Subs[quote.Symbol] {
		p.trySend(ch, quote)
	}
	for _, ch := range p.allL1Subs {
		p.trySend(ch, quote)
	}
}

// PublishL2 sends depth to every L2 subscriber for its symbol.
func (p *Publisher) PublishL2(depth L2Depth) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.l2Subs[depth.Symbol] {
		p.trySend(ch, depth)
	}
}

// PublishTrade sends trade to every trade subscriber for its symbol and
// every all-trades subscriber.
func (p *Publisher) PublishTrade(trade TradeReport) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, ch := range p.tradeSubs[trade.Symbol] {
		p.trySend(ch, trade)
	}
	for _, ch := range p.allTradeSubs {
		p.trySend(ch, trade)
	}
}

func (p *Publisher) trySend(ch interface{}, v interface{}) {
	switch c := ch.(type) {
	case chan L1Quote:
		select {
		case c <- v.(L1Quote):
		default:
			p.recordDrop()
		}
	case chan L2Depth:
		select {
		case c <- v.(L2Depth):
		default:
			p.recordDrop()
		}
	case chan TradeReport:
		select {
		case c <- v.(TradeReport):
		default:
			p.recordDrop()
		}
	}
}

func (p *Publisher) recordDrop() {
	n := atomic.AddUint64(&p.dropped, 1)
	if n%1000 == 0 {
		p.logger.Warn("market data subscriber falling behind, dropping updates", zap.Uint64("total_dropped", n))
	}
}

// DroppedUpdates returns the number of updates discarded so far because a
// subscriber channel was full.
func (p *Publisher) DroppedUpdates() uint64 {
	return atomic.LoadUint64(&p.dropped)
}

// UnsubscribeL1 removes ch from symbol's L1 subscriber list and closes it.
func (p *Publisher) UnsubscribeL1(symbol string, ch <-chan L1Quote) {
	p.mu.Lock()
	defer p.mu.Unlock()

	subs := p.l1Subs[symbol]
	for i, sub := range subs {
		if sub == ch {
			p.l1Subs[symbol] = append(subs[:i], subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes every subscriber channel across every stream.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, subs := range p.l1Subs {
		for _, ch := range subs {
			close(ch)
		}
	}
	for _, subs := range p.l2Subs {
		for _, ch := range subs {
			close(ch)
		}
	}
	for _, subs := range p.tradeSubs {
		for _, ch := range subs {
			close(ch)
		}
	}
	for _, ch := range p.allL1Subs {
		close(ch)
	}
	for _, ch := range p.allTradeSubs {
		close(ch)
	}
}
