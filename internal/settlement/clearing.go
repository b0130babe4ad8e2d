// Package settlement models T+2 clearing: trades are recorded as they
// execute, netted per account/symbol to cut down the number of actual
// transfers, turned into settlement instructions, and finally settled via
// delivery-versus-payment so shares and cash move atomically.
package settlement

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rishavpaul/disruptor/internal/orders"
)

// TradeStatus tracks a trade's progress from execution to settlement.
type TradeStatus int

const (
	TradeStatusExecuted TradeStatus = iota
	TradeStatusClearing
	TradeStatusReadyToSettle
	TradeStatusSettled
	TradeStatusFailed
)

func (s TradeStatus) String() string {
	switch s {
	case TradeStatusExecuted:
		return "EXECUTED"
	case TradeStatusClearing:
		return "CLEARING"
	case TradeStatusReadyToSettle:
		return "READY_TO_SETTLE"
	case TradeStatusSettled:
		return "SETTLED"
	case TradeStatusFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Trade is a matched trade awaiting settlement.
type Trade struct {
	ID            uint64
	Symbol        string
	Price         int64
	Quantity      int64
	BuyerAccount  string
	SellerAccount string
	TradeTime     time.Time
	SettleDate    time.Time
	Status        TradeStatus
}

// NetPosition is one account's netted exposure in one symbol across every
// trade still pending settlement.
type NetPosition struct {
	AccountID string
	Symbol    string
	NetQty    int64 // positive: net buyer, receives delivery; negative: net seller, owes delivery
	NetValue  int64 // positive: owes cash
}

// SettlementInstruction is a single transfer required to settle netted
// positions: quantity of a symbol and cash moving between two accounts.
type SettlementInstruction struct {
	TradeIDs    []uint64
	FromAccount string
	ToAccount   string
	Symbol      string
	Quantity    int64
	CashAmount  int64
	SettleDate  time.Time
	Status      TradeStatus
}

// Account holds one participant's cash and share balances.
type Account struct {
	ID       string
	Cash     int64
	Holdings map[string]int64
}

// ClearingHouse tracks trades, accounts, and the settlement instructions
// derived from netting, enforcing T+settlementDays delivery-versus-payment.
type ClearingHouse struct {
	trades         map[uint64]*Trade
	accounts       map[string]*Account
	instructions   []SettlementInstruction
	mu             sync.RWMutex
	settlementDays int
	logger         *zap.Logger
}

// NewClearingHouse constructs a ClearingHouse with T+2 settlement and no
// accounts. A nil logger disables logging.
func NewClearingHouse(logger *zap.Logger) *ClearingHouse {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClearingHouse{
		trades:         make(map[uint64]*Trade),
		accounts:       make(map[string]*Account),
		settlementDays: 2,
		logger:         logger,
	}
}

// GetOrCreateAccount returns accountID's account, creating it with
// initialCash if it does not exist yet.
func (ch *ClearingHouse) GetOrCreateAccount(accountID string, initialCash int64) *Account {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if acct, exists := ch.accounts[accountID]; exists {
		return acct
	}

	acct := &Account{
		ID:       accountID,
		Cash:     initialCash,
		Holdings: make(map[string]int64),
	}
	ch.accounts[accountID] = acct
	return acct
}

// GetAccount retrieves an account, or nil if accountID is unknown.
func (ch *ClearingHouse) GetAccount(accountID string) *Account {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.accounts[accountID]
}

// RecordTrade files fill as a trade pending settlement on T+settlementDays.
func (ch *ClearingHouse) RecordTrade(fill orders.Fill) *Trade {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	now := time.Now()
	settleDate := ch.calculateSettleDate(now)

	var buyerAccount, sellerAccount string
	if fill.TakerSide == orders.SideBuy {
		buyerAccount = fill.TakerAccountID
		sellerAccount = fill.MakerAccountID
	} else {
		buyerAccount = fill.MakerAccountID
		sellerAccount = fill.TakerAccountID
	}

	trade := &Trade{
		ID:            fill.TradeID,
		Symbol:        fill.Symbol,
		Price:         fill.Price,
		Quantity:      fill.Quantity,
		BuyerAccount:  buyerAccount,
		SellerAccount: sellerAccount,
		TradeTime:     now,
		SettleDate:    settleDate,
		Status:        TradeStatusExecuted,
	}

	ch.trades[trade.ID] = trade
	return trade
}

// calculateSettleDate advances tradeDate by settlementDays business days,
// skipping weekends.
func (ch *ClearingHouse) calculateSettleDate(tradeDate time.Time) time.Time {
	settleDate := tradeDate
	daysAdded := 0

	for daysAdded < ch.settlementDays {
		settleDate = settleDate.AddDate(0, 0, 1)
		if settleDate.Weekday() != time.Saturday && settleDate.Weekday() != time.Sunday {
			daysAdded++
		}
	}

	return settleDate
}

// CalculateNetting folds every pending trade into one NetPosition per
// account/symbol pair, reducing the transfers settlement needs to make.
func (ch *ClearingHouse) CalculateNetting() map[string]map[string]NetPosition {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.calculateNettingLocked()
}

func (ch *ClearingHouse) calculateNettingLocked() map[string]map[string]NetPosition {
	netPositions := make(map[string]map[string]NetPosition)

	for _, trade := range ch.trades {
		if trade.Status != TradeStatusExecuted && trade.Status != TradeStatusClearing {
			continue
		}

		tradeValue := trade.Price * trade.Quantity

		if netPositions[trade.BuyerAccount] == nil {
			netPositions[trade.BuyerAccount] = make(map[string]NetPosition)
		}
		buyerPos := netPositions[trade.BuyerAccount][trade.Symbol]
		buyerPos.AccountID = trade.BuyerAccount
		buyerPos.Symbol = trade.Symbol
		buyerPos.NetQty += trade.Quantity
		buyerPos.NetValue += tradeValue
		netPositions[trade.BuyerAccount][trade.Symbol] = buyerPos

		if netPositions[trade.SellerAccount] == nil {
			netPositions[trade.SellerAccount] = make(map[string]NetPosition)
		}
		sellerPos := netPositions[trade.SellerAccount][trade.Symbol]
		sellerPos.AccountID = trade.SellerAccount
		sellerPos.Symbol = trade.Symbol
		sellerPos.NetQty -= trade.Quantity
		sellerPos.NetValue -= tradeValue
		netPositions[trade.SellerAccount][trade.Symbol] = sellerPos
	}

	return netPositions
}

// GenerateSettlementInstructions nets every pending trade and matches
// resulting longs against shorts, symbol by symbol, to produce the
// transfer list Settle will execute.
func (ch *ClearingHouse) GenerateSettlementInstructions() []SettlementInstruction {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	netPositions := ch.calculateNettingLocked()
	var instructions []SettlementInstruction

	symbolNets := make(map[string][]NetPosition)
	for _, positions := range netPositions {
		for _, pos := range positions {
			symbolNets[pos.Symbol] = append(symbolNets[pos.Symbol], pos)
		}
	}

	for symbol, positions := range symbolNets {
		var receivers, deliverers []NetPosition
		for _, pos := range positions {
			if pos.NetQty > 0 {
				receivers = append(receivers, pos)
			} else if pos.NetQty < 0 {
				deliverers = append(deliverers, pos)
			}
		}

		for _, deliverer := range deliverers {
			qtyToDeliver := -deliverer.NetQty

			for i := range receivers {
				if qtyToDeliver <= 0 {
					break
				}
				if receivers[i].NetQty <= 0 {
					continue
				}

				matchQty := min64(qtyToDeliver, receivers[i].NetQty)
				avgPrice := deliverer.NetValue / deliverer.NetQty
				cashAmount := matchQty * avgPrice

				instruction := SettlementInstruction{
					FromAccount: deliverer.AccountID,
					ToAccount:   receivers[i].AccountID,
					Symbol:      symbol,
					Quantity:    matchQty,
					CashAmount:  cashAmount, // receiver pays, deliverer receives cash
					SettleDate:  time.Now().AddDate(0, 0, ch.settlementDays),
					Status:      TradeStatusReadyToSettle,
				}
				instructions = append(instructions, instruction)

				qtyToDeliver -= matchQty
				receivers[i].NetQty -= matchQty
			}
		}
	}

	ch.instructions = instructions
	ch.logger.Info("settlement instructions generated", zap.Int("count", len(instructions)))
	return instructions
}

// Settle executes delivery-versus-payment for every instruction still
// TradeStatusReadyToSettle, failing individual instructions whose accounts
// lack sufficient shares or cash rather than aborting the whole batch.
func (ch *ClearingHouse) Settle() ([]SettlementInstruction, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	var settled []SettlementInstruction
	var errors []string

	for i := range ch.instructions {
		instr := &ch.instructions[i]
		if instr.Status != TradeStatusReadyToSettle {
			continue
		}

		fromAcct := ch.accounts[instr.FromAccount]
		toAcct := ch.accounts[instr.ToAccount]

		if fromAcct == nil || toAcct == nil {
			instr.Status = TradeStatusFailed
			errors = append(errors, fmt.Sprintf("account not found for instruction %s->%s",
				instr.FromAccount, instr.ToAccount))
			continue
		}

		if fromAcct.Holdings[instr.Symbol] < instr.Quantity {
			instr.Status = TradeStatusFailed
			errors = append(errors, fmt.Sprintf("insufficient shares: %s has %d, needs %d",
				instr.FromAccount, fromAcct.Holdings[instr.Symbol], instr.Quantity))
			continue
		}

		if toAcct.Cash < instr.CashAmount {
			instr.Status = TradeStatusFailed
			errors = append(errors, fmt.Sprintf("insufficient cash: %s has %s, needs %s",
				instr.ToAccount, orders.FormatPrice(toAcct.Cash), orders.FormatPrice(instr.CashAmount)))
			continue
		}

		fromAcct.Holdings[instr.Symbol] -= instr.Quantity
		toAcct.Holdings[instr.Symbol] += instr.Quantity

		toAcct.Cash -= instr.CashAmount
		fromAcct.Cash += instr.CashAmount

		instr.Status = TradeStatusSettled
		settled = append(settled, *instr)
	}

	for _, trade := range ch.trades {
		if trade.Status == TradeStatusClearing || trade.Status == TradeStatusReadyToSettle {
			trade.Status = TradeStatusSettled
		}
	}

	if len(errors) > 0 {
		ch.logger.Warn("settlement completed with failures", zap.Int("failed", len(errors)), zap.Int("settled", len(settled)))
		return settled, fmt.Errorf("settlement errors: %v", errors)
	}

	return settled, nil
}

// GetPendingTrades returns every trade not yet settled or failed.
func (ch *ClearingHouse) GetPendingTrades() []*Trade {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	var pending []*Trade
	for _, trade := range ch.trades {
		if trade.Status != TradeStatusSettled && trade.Status != TradeStatusFailed {
			pending = append(pending, trade)
		}
	}
	return pending
}

// GetSettlementStats tallies trades by status, plus the instruction count
// from the most recent GenerateSettlementInstructions call.
func (ch *ClearingHouse) GetSettlementStats() map[string]int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	stats := map[string]int{
		"total_trades": len(ch.trades),
		"executed":     0,
		"clearing":     0,
		"ready":        0,
		"settled":      0,
		"failed":       0,
		"instructions": len(ch.instructions),
	}

	for _, trade := range ch.trades {
		switch trade.Status {
		case TradeStatusExecuted:
			stats["executed"]++
		case TradeStatusClearing:
			stats["clearing"]++
		case TradeStatusReadyToSettle:
			stats["ready"]++
		case TradeStatusSettled:
			stats["settled"]++
		case TradeStatusFailed:
			stats["failed"]++
		}
	}

	return stats
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
