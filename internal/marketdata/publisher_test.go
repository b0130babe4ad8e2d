package marketdata

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rishavpaul/disruptor/internal/orders"
)

// TestPublisherFansOutToSubscribers checks that L1 quotes and trade reports
// published for a symbol reach a subscriber listening on both streams.
func TestPublisherFansOutToSubscribers(t *testing.T) {
	publisher := NewPublisher(100, nil)
	defer publisher.Close()

	var receivedL1 int32
	var receivedTrades int32
	var wg sync.WaitGroup

	l1Ch := publisher.SubscribeL1("AAPL")
	tradeCh := publisher.SubscribeTrades("AAPL")
	done := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-l1Ch:
				atomic.AddInt32(&receivedL1, 1)
			case <-tradeCh:
				atomic.AddInt32(&receivedTrades, 1)
			case <-done:
				return
			}
		}
	}()

	publisher.PublishL1(L1Quote{Symbol: "AAPL", AskPrice: 15025, AskSize: 100, Timestamp: orders.Now()})
	publisher.PublishTrade(TradeReport{
		TradeID: 1, Symbol: "AAPL", Price: 15025, Quantity: 50,
		AggressorSide: orders.SideBuy, Timestamp: orders.Now(),
	})
	publisher.PublishL1(L1Quote{
		Symbol: "AAPL", AskPrice: 15025, AskSize: 50,
		LastPrice: 15025, LastSize: 50, Timestamp: orders.Now(),
	})

	time.Sleep(50 * time.Millisecond)
	close(done)
	wg.Wait()

	if atomic.LoadInt32(&receivedL1) < 2 {
		t.Errorf("expected at least 2 L1 quotes delivered, got %d", receivedL1)
	}
	if atomic.LoadInt32(&receivedTrades) < 1 {
		t.Errorf("expected at least 1 trade report delivered, got %d", receivedTrades)
	}
}

// TestPublisherDoesNotDeliverAcrossSymbols checks that a subscriber to one
// symbol never sees another symbol's updates.
func TestPublisherDoesNotDeliverAcrossSymbols(t *testing.T) {
	publisher := NewPublisher(10, nil)
	defer publisher.Close()

	aaplCh := publisher.SubscribeL1("AAPL")
	publisher.PublishL1(L1Quote{Symbol: "MSFT", AskPrice: 30000, AskSize: 10})

	select {
	case q := <-aaplCh:
		t.Fatalf("AAPL subscriber should not receive MSFT updates, got %+v", q)
	case <-time.After(10 * time.Millisecond):
	}
}

// TestPublisherDropsWhenSubscriberBufferIsFull checks that a full subscriber
// channel is skipped rather than blocking the publisher, and that the drop
// is recorded.
func TestPublisherDropsWhenSubscriberBufferIsFull(t *testing.T) {
	publisher := NewPublisher(1, nil)
	defer publisher.Close()

	ch := publisher.SubscribeL1("AAPL")
	publisher.PublishL1(L1Quote{Symbol: "AAPL", AskPrice: 1})
	publisher.PublishL1(L1Quote{Symbol: "AAPL", AskPrice: 2}) // buffer already full: dropped

	done := make(chan struct{})
	go func() {
		publisher.PublishL1(L1Quote{Symbol: "AAPL", AskPrice: 3})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(100 * time.Millisecond):
		t.Fatal("PublishL1 blocked on a full subscriber channel instead of dropping the update")
	}

	if publisher.DroppedUpdates() == 0 {
		t.Error("expected the dropped update to be counted")
	}

	<-ch // drain so Close doesn't race with the goroutine above
}
