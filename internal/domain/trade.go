package domain

import "github.com/shopspring/decimal"

// TradeStatus is the outcome tag of one execution attempt.
type TradeStatus string

const (
	// TradeConfirmed means the swap was mined successfully.
	TradeConfirmed TradeStatus = "confirmed"
	// TradeFailed means the swap was mined but reverted.
	TradeFailed TradeStatus = "failed"
	// TradePending means the swap was broadcast but no receipt arrived
	// within the wait window; funds may or may not have moved.
	TradePending TradeStatus = "pending"
	// TradeNone means no transaction was broadcast; Reason says why.
	TradeNone TradeStatus = "no_trade"
)

// TradeResult describes one execution attempt. It is created once and never
// mutated. CurrencyA and CurrencyB are the symbols of the input and output
// legs of the attempted swap.
type TradeResult struct {
	Status      TradeStatus
	Reason      string
	TxHash      string
	BlockNumber uint64
	GasUsed     uint64
	Direction   Direction
	AmountIn    decimal.Decimal
	AmountOut   decimal.Decimal
	Price       decimal.Decimal
	CurrencyA   string
	CurrencyB   string
	PoolID      string
	Protocol    string
	SlippageBps int64
}

// NoTrade builds a result for an attempt that was aborted before broadcast.
func NoTrade(reason string) *TradeResult {
	return &TradeResult{Status: TradeNone, Reason: reason}
}

// Confirmed reports whether the attempt ended with a mined, successful swap.
func (r *TradeResult) Confirmed() bool {
	return r != nil && r.Status == TradeConfirmed
}
