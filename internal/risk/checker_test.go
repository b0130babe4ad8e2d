package risk

import (
	"testing"

	"github.com/rishavpaul/disruptor/internal/orders"
)

func TestCheckerEnforcesLimits(t *testing.T) {
	config := Config{
		MaxOrderSize:     1000,
		MaxOrderValue:    5000000,
		MaxPositionSize:  5000,
		MaxDailyVolume:   100000000,
		PriceBandPercent: 0.10,
	}
	checker := NewChecker(config, nil)
	checker.SetReferencePrice("AAPL", 15000)

	testCases := []struct {
		name     string
		order    *orders.Order
		expected bool
	}{
		{
			name: "normal order within every limit",
			order: &orders.Order{
				Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeLimit,
				Price: 15000, Quantity: 100, AccountID: "T1",
			},
			expected: true,
		},
		{
			name: "size exceeds max order size",
			order: &orders.Order{
				Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeLimit,
				Price: 15000, Quantity: 5000, AccountID: "T1",
			},
			expected: false,
		},
		{
			name: "price outside the reference band",
			order: &orders.Order{
				Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeLimit,
				Price: 20000, Quantity: 100, AccountID: "T1",
			},
			expected: false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := checker.Check(tc.order)
			if result.Passed != tc.expected {
				t.Errorf("expected Passed=%v, got %v (reason: %q)", tc.expected, result.Passed, result.Reason)
			}
		})
	}
}

func TestCheckerPositionLimit(t *testing.T) {
	checker := NewChecker(Config{
		MaxOrderSize:    10000,
		MaxOrderValue:   1000000000,
		MaxPositionSize: 500,
		MaxDailyVolume:  1000000000,
	}, nil)

	checker.UpdatePosition("T1", "AAPL", orders.SideBuy, 400)

	result := checker.Check(&orders.Order{
		Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeMarket,
		Quantity: 200, AccountID: "T1",
	})
	if result.Passed {
		t.Error("expected order pushing position to 600 (> 500 max) to be rejected")
	}

	if pos := checker.GetPosition("T1", "AAPL"); pos != 400 {
		t.Errorf("a rejected order must not have moved the position, got %d", pos)
	}
}

func TestCheckerDailyVolumeAccumulates(t *testing.T) {
	checker := NewChecker(Config{
		MaxOrderSize:    10000,
		MaxOrderValue:   1000000000,
		MaxPositionSize: 1000000,
		MaxDailyVolume:  2000000,
	}, nil)

	checker.UpdateDailyVolume("T1", 1800000)

	result := checker.Check(&orders.Order{
		Symbol: "AAPL", Side: orders.SideBuy, Type: orders.OrderTypeLimit,
		Price: 15000, Quantity: 100, AccountID: "T1",
	})
	if result.Passed {
		t.Error("expected order to push daily volume past the limit and be rejected")
	}

	checker.ResetDailyVolume()
	if vol := checker.GetDailyVolume("T1"); vol != 0 {
		t.Errorf("expected daily volume reset to 0, got %d", vol)
	}
}
