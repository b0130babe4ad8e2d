// Package risk runs pre-trade checks against incoming orders: size, notional
// value, price-band, position, and daily-volume limits. Checks only read
// order fields and per-account state, never the order book, so they can run
// concurrently with the matching engine's own processing of other orders.
package risk

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/internal/orders"
)

// CheckResult reports the outcome of Check.
type CheckResult struct {
	Passed    bool
	Reason    string
	ChecksRun []string
}

// Config bounds what an account may submit in a single order, and what it
// may accumulate across orders for the session.
type Config struct {
	MaxOrderSize     int64
	MaxOrderValue    int64
	MaxPositionSize  int64
	MaxDailyVolume   int64
	PriceBandPercent float64
	SymbolLimits     map[string]int64
}

// DefaultConfig returns conservative limits suitable for a paper-trading
// deployment.
func DefaultConfig() Config {
	return Config{
		MaxOrderSize:     100000,
		MaxOrderValue:    10000000,
		MaxPositionSize:  1000000,
		MaxDailyVolume:   100000000,
		PriceBandPercent: 0.10,
	}
}

// Checker holds the mutable per-account state risk checks are evaluated
// against: open positions, traded volume, and the last known price per
// symbol.
type Checker struct {
	config          Config
	positions       map[string]map[string]int64
	dailyVolume     map[string]int64
	referencePrices map[string]int64
	mu              sync.RWMutex
	logger          *zap.Logger
}

// NewChecker constructs a Checker with empty account state. A nil logger
// disables logging.
func NewChecker(config Config, logger *zap.Logger) *Checker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Checker{
		config:          config,
		positions:       make(map[string]map[string]int64),
		dailyVolume:     make(map[string]int64),
		referencePrices: make(map[string]int64),
		logger:          logger,
	}
}

// Check runs every applicable risk control against order, short-circuiting
// on the first failure and reporting which checks actually ran.
func (c *Checker) Check(order *orders.Order) CheckResult {
	result := CheckResult{
		Passed:    true,
		ChecksRun: make([]string, 0),
	}

	result.ChecksRun = append(result.ChecksRun, "order_size")
	if order.Quantity > c.config.MaxOrderSize {
		return c.reject(result, fmt.Sprintf("order size %d exceeds max %d", order.Quantity, c.config.MaxOrderSize))
	}

	if order.Price > 0 {
		result.ChecksRun = append(result.ChecksRun, "order_value")
		orderValue := order.Price * order.Quantity
		if orderValue > c.config.MaxOrderValue {
			return c.reject(result, fmt.Sprintf("order value %s exceeds max %s", orders.FormatPrice(orderValue), orders.FormatPrice(c.config.MaxOrderValue)))
		}
	}

	if order.Type == orders.OrderTypeLimit && order.Price > 0 {
		result.ChecksRun = append(result.ChecksRun, "price_band")
		if !c.checkPriceBand(order) {
			refPrice := c.GetReferencePrice(order.Symbol)
			return c.reject(result, fmt.Sprintf("price %s outside band (ref: %s, band: %.0f%%)",
				orders.FormatPrice(order.Price), orders.FormatPrice(refPrice), c.config.PriceBandPercent*100))
		}
	}

	result.ChecksRun = append(result.ChecksRun, "position_limit")
	if !c.checkPositionLimit(order) {
		currentPos := c.GetPosition(order.AccountID, order.Symbol)
		return c.reject(result, fmt.Sprintf("would exceed position limit (current: %d, order: %d, max: %d)", currentPos, order.Quantity, c.config.MaxPositionSize))
	}

	if order.Price > 0 {
		result.ChecksRun = append(result.ChecksRun, "daily_volume")
		orderValue := order.Price * order.Quantity
		if !c.checkDailyVolume(order.AccountID, orderValue) {
			currentVol := c.GetDailyVolume(order.AccountID)
			return c.reject(result, fmt.Sprintf("would exceed daily volume limit (current: %s, order: %s, max: %s)",
				orders.FormatPrice(currentVol), orders.FormatPrice(orderValue), orders.FormatPrice(c.config.MaxDailyVolume)))
		}
	}

	return result
}

func (c *Checker) reject(partial CheckResult, reason string) CheckResult {
	c.logger.Debug("risk check failed", zap.Strings("checks_run", partial.ChecksRun), zap.String("reason", reason))
	return CheckResult{Passed: false, Reason: reason, ChecksRun: partial.ChecksRun}
}

func (c *Checker) checkPriceBand(order *orders.Order) bool {
	c.mu.RLock()
	refPrice, exists := c.referencePrices[order.Symbol]
	c.mu.RUnlock()

	if !exists || refPrice == 0 {
		return true
	}

	band := float64(refPrice) * c.config.PriceBandPercent
	lowBound := refPrice - int64(band)
	highBound := refPrice + int64(band)

	return order.Price >= lowBound && order.Price <= highBound
}

func (c *Checker) checkPositionLimit(order *orders.Order) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	currentPos := int64(0)
	if acct, exists := c.positions[order.AccountID]; exists {
		currentPos = acct[order.Symbol]
	}

	var projectedPos int64
	if order.Side == orders.SideBuy {
		projectedPos = currentPos + order.Quantity
	} else {
		projectedPos = currentPos - order.Quantity
	}

	limit := c.config.MaxPositionSize
	if symLimit, exists := c.config.SymbolLimits[order.Symbol]; exists {
		limit = symLimit
	}

	if projectedPos < 0 {
		projectedPos = -projectedPos
	}
	return projectedPos <= limit
}

func (c *Checker) checkDailyVolume(accountID string, orderValue int64) bool {
	c.mu.RLock()
	currentVolume := c.dailyVolume[accountID]
	c.mu.RUnlock()

	return currentVolume+orderValue <= c.config.MaxDailyVolume
}

// UpdatePosition applies a fill's quantity to accountID's position in
// symbol, called once per side after a trade executes.
func (c *Checker) UpdatePosition(accountID, symbol string, side orders.Side, quantity int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.positions[accountID] == nil {
		c.positions[accountID] = make(map[string]int64)
	}

	if side == orders.SideBuy {
		c.positions[accountID][symbol] += quantity
	} else {
		c.positions[accountID][symbol] -= quantity
	}
}

// UpdateDailyVolume adds value to accountID's running daily volume.
func (c *Checker) UpdateDailyVolume(accountID string, value int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyVolume[accountID] += value
}

// SetReferencePrice records price as symbol's last-traded price, the
// basis the price-band check compares future orders against.
func (c *Checker) SetReferencePrice(symbol string, price int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.referencePrices[symbol] = price
}

// GetReferencePrice returns symbol's current reference price.
func (c *Checker) GetReferencePrice(symbol string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.referencePrices[symbol]
}

// GetPosition returns accountID's current position in symbol.
func (c *Checker) GetPosition(accountID, symbol string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if acct, exists := c.positions[accountID]; exists {
		return acct[symbol]
	}
	return 0
}

// GetDailyVolume returns accountID's current daily traded volume.
func (c *Checker) GetDailyVolume(accountID string) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dailyVolume[accountID]
}

// ResetDailyVolume clears every account's daily volume counter.
func (c *Checker) ResetDailyVolume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dailyVolume = make(map[string]int64)
}
