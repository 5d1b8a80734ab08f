package domain

import "math/big"

// Pool identifies the traded pool and its two assets.
type Pool struct {
	PoolID    string
	CurrencyA CurrencyInfo
	CurrencyB CurrencyInfo
}

// Legs returns the input and output assets for a trade in the given
// direction. The direction must be known.
func (p *Pool) Legs(d Direction) (in, out CurrencyInfo) {
	if d == DirectionBtoA {
		return p.CurrencyB, p.CurrencyA
	}
	return p.CurrencyA, p.CurrencyB
}

// LiquiditySnapshot carries the pool reserves at the moment of the event.
// A nil amount means the feed value was absent or not coercible to a number.
type LiquiditySnapshot struct {
	AmountCurrencyA *big.Int
	AmountCurrencyB *big.Int
}

// BothNonZero reports whether both reserves are present and non-zero.
func (l *LiquiditySnapshot) BothNonZero() bool {
	if l == nil {
		return false
	}
	return l.AmountCurrencyA != nil && l.AmountCurrencyA.Sign() != 0 &&
		l.AmountCurrencyB != nil && l.AmountCurrencyB.Sign() != 0
}

// PoolEvent is one observed on-chain pool state change, immutable once
// decoded. BaseFee is merged in from the enclosing block header so the gas
// policy can fall back to it when the transaction gas price is absent.
type PoolEvent struct {
	Pool       *Pool
	Liquidity  *LiquiditySnapshot
	Prices     *PriceTable
	Protocol   string
	TxGasPrice *big.Int
	BaseFee    *big.Int
}

// FeedGasPrice returns the gas price carried by the event itself: the
// originating transaction's gas price when present, otherwise the block base
// fee, otherwise nil.
func (e *PoolEvent) FeedGasPrice() *big.Int {
	if e == nil {
		return nil
	}
	if e.TxGasPrice != nil {
		return e.TxGasPrice
	}
	return e.BaseFee
}

// BlockMessage is the decoded form of one feed message: the block header
// fields the engine cares about plus the pool events observed in that block.
type BlockMessage struct {
	Number  *big.Int
	BaseFee *big.Int
	Events  []*PoolEvent
}
