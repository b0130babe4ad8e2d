package matching

import (
	"fmt"
	"testing"

	"github.com/rishavpaul/disruptor/internal/orders"
)

func TestEngineDeterministicAcrossRuns(t *testing.T) {
	orderSequence := []struct {
		side     orders.Side
		price    int64
		quantity int64
	}{
		{orders.SideSell, 15100, 100},
		{orders.SideSell, 15050, 50},
		{orders.SideBuy, 15000, 200},
		{orders.SideBuy, 15050, 75},
	}

	runSequence := func() []string {
		engine := NewEngine(nil)
		engine.AddSymbol("AAPL")

		var results []string
		for i, o := range orderSequence {
			order := &orders.Order{
				Symbol:    "AAPL",
				Side:      o.side,
				Type:      orders.OrderTypeLimit,
				Price:     o.price,
				Quantity:  o.quantity,
				AccountID: fmt.Sprintf("TRADER%d", i),
			}
			result := engine.ProcessOrder(order)
			results = append(results, fmt.Sprintf("fills:%d resting:%d", len(result.Fills), result.RestingQty))
		}
		return results
	}

	run1 := runSequence()
	run2 := runSequence()
	for i := range run1 {
		if run1[i] != run2[i] {
			t.Errorf("order %d: run1=%q run2=%q, expected identical output for identical input", i, run1[i], run2[i])
		}
	}
}

func TestEnginePriceTimePriority(t *testing.T) {
	engine := NewEngine(nil)
	engine.AddSymbol("AAPL")

	sellers := []struct {
		id    string
		price int64
		qty   int64
	}{
		{"S1", 15000, 100},
		{"S2", 15000, 100},
		{"S3", 15000, 100},
		{"S4", 15050, 100},
	}
	for _, s := range sellers {
		engine.ProcessOrder(&orders.Order{
			Symbol: "AAPL", Side: orders.SideSell, Type: orders.OrderTypeLimit,
			Price: s.price, Quantity: s.qty, AccountID: s.id,
		})
	}

	result := engine.ProcessOrder(&orders.Order{
		Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeMarket,
		Quantity: 250, AccountID: "BUYER",
	})

	if len(result.Fills) != 3 {
		t.Fatalf("expected 3 fills against S1/S2/S3, got %d", len(result.Fills))
	}
	expectedOrder := []string{"S1", "S2", "S3"}
	for i, fill := range result.Fills {
		if fill.MakerAccountID != expectedOrder[i] {
			t.Errorf("fill %d: expected maker %s, got %s", i, expectedOrder[i], fill.MakerAccountID)
		}
		if fill.Price != 15000 {
			t.Errorf("fill %d: expected price 15000 (S4's 15050 must not be touched), got %d", i, fill.Price)
		}
	}
}

func TestEngineFixedPointPriceMatch(t *testing.T) {
	engine := NewEngine(nil)
	engine.AddSymbol("AAPL")

	price := int64(15025) // $150.25
	engine.ProcessOrder(&orders.Order{
		Symbol: "AAPL", Side: orders.SideSell, Type: orders.OrderTypeLimit,
		Price: price, Quantity: 100, AccountID: "SELLER",
	})
	result := engine.ProcessOrder(&orders.Order{
		Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeLimit,
		Price: price, Quantity: 100, AccountID: "BUYER",
	})

	if len(result.Fills) != 1 || result.Fills[0].Price != 15025 {
		t.Fatalf("expected exact match at 15025 cents, got fills=%v", result.Fills)
	}
}

// TestEngineConservesShares checks that book depth, fill quantities, and
// remaining resting quantity all stay consistent with what was actually
// posted: fills can never exceed posted size, and whatever isn't filled
// must still be resting.
func TestEngineConservesShares(t *testing.T) {
	engine := NewEngine(nil)
	engine.AddSymbol("AAPL")

	sellOrders := []struct {
		price int64
		qty   int64
	}{
		{15000, 100},
		{15000, 50},
		{15000, 75},
		{15050, 200},
	}

	var totalSellQty int64
	var orderIDs []uint64
	for _, so := range sellOrders {
		result := engine.ProcessOrder(&orders.Order{
			Symbol: "AAPL", Side: orders.SideSell, Type: orders.OrderTypeLimit,
			Price: so.price, Quantity: so.qty, AccountID: "SELLER",
		})
		orderIDs = append(orderIDs, result.Order.ID)
		totalSellQty += so.qty
	}

	book := engine.GetOrderBook("AAPL")
	askDepth := book.GetAskDepth(5)
	if askDepth[0].TotalQty != 225 {
		t.Fatalf("expected 225 shares resting at 15000, got %d", askDepth[0].TotalQty)
	}

	result := engine.ProcessOrder(&orders.Order{
		Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeLimit,
		Price: 15000, Quantity: 225, AccountID: "BUYER",
	})

	var filledQty int64
	for _, fill := range result.Fills {
		filledQty += fill.Quantity
	}
	if filledQty != 225 {
		t.Fatalf("expected 225 filled, got %d", filledQty)
	}

	expectedFills := []struct {
		orderID uint64
		qty     int64
	}{
		{orderIDs[0], 100},
		{orderIDs[1], 50},
		{orderIDs[2], 75},
	}
	for i, expected := range expectedFills {
		if i >= len(result.Fills) {
			t.Fatalf("missing fill for order %d", expected.orderID)
		}
		if result.Fills[i].MakerOrderID != expected.orderID || result.Fills[i].Quantity != expected.qty {
			t.Errorf("fill %d: expected order %d for %d shares, got order %d for %d shares",
				i, expected.orderID, expected.qty, result.Fills[i].MakerOrderID, result.Fills[i].Quantity)
		}
	}

	askDepth = book.GetAskDepth(5)
	if len(askDepth) == 0 || askDepth[0].Price != 15050 {
		t.Fatal("expected 15000 level fully consumed, best ask now 15050")
	}
	remainingAsk := totalSellQty - filledQty
	if askDepth[0].TotalQty != 200 {
		t.Errorf("expected 200 shares remaining at 15050, got %d (sold %d, filled %d, derived remainder %d)",
			askDepth[0].TotalQty, totalSellQty, filledQty, remainingAsk)
	}
}

func BenchmarkEngineProcessOrder(b *testing.B) {
	engine := NewEngine(nil)
	engine.AddSymbol("AAPL")

	for i := 0; i < 1000; i++ {
		engine.ProcessOrder(&orders.Order{
			Symbol: "AAPL", Side: orders.SideSell, Type: orders.OrderTypeLimit,
			Price: 15000 + int64(i%100), Quantity: 100, AccountID: "WARMUP",
		})
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		side := orders.SideBuy
		if i%2 == 0 {
			side = orders.SideSell
		}
		engine.ProcessOrder(&orders.Order{
			Symbol:    "AAPL",
			Side:      side,
			Type:      orders.OrderTypeLimit,
			Price:     15000 + int64(i%50),
			Quantity:  10,
			AccountID: fmt.Sprintf("T%d", i%100),
		})
	}
}
