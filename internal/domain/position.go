package domain

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// PositionStatus is the lifecycle state of a round-trip position.
type PositionStatus string

const (
	// PositionOpen means the opening leg confirmed and the close is pending.
	PositionOpen PositionStatus = "open"
	// PositionClosed means the closing leg confirmed.
	PositionClosed PositionStatus = "closed"
	// PositionCloseFailed means a close attempt resolved unsuccessfully;
	// the position is kept for operator inspection and never retried.
	PositionCloseFailed PositionStatus = "close_failed"
	// PositionCloseError means a close attempt hit an unexpected error.
	PositionCloseError PositionStatus = "close_error"
)

// Position tracks one round-trip trade: an opening swap that confirmed and
// the timed opposite swap that closes it. Identity is (OpenBlock, PoolID).
type Position struct {
	OpenBlock   uint64
	PoolID      string
	Direction   Direction
	Opposite    Direction
	Event       *PoolEvent
	AmountOut   decimal.Decimal
	SlippageBps int64
	Status      PositionStatus
	CloseTxHash string
	CloseBlock  uint64
}

// NewPosition registers a confirmed opening trade. amountOut is the output
// amount the close will swap back and must already be repaired by the caller
// when the reconciled value was unusable.
func NewPosition(event *PoolEvent, direction Direction, openBlock uint64, amountOut decimal.Decimal, slippageBps int64) (*Position, error) {
	if event == nil || event.Pool == nil {
		return nil, errors.New("position requires the originating pool event")
	}
	if !direction.Known() {
		return nil, errors.Errorf("position requires a resolved direction, got %s", direction)
	}
	if openBlock == 0 {
		return nil, errors.New("position requires a known open block")
	}
	if amountOut.LessThanOrEqual(decimal.Zero) {
		return nil, errors.New("position amount out must be greater than zero")
	}

	return &Position{
		OpenBlock:   openBlock,
		PoolID:      event.Pool.PoolID,
		Direction:   direction,
		Opposite:    direction.Opposite(),
		Event:       event,
		AmountOut:   amountOut,
		SlippageBps: slippageBps,
		Status:      PositionOpen,
	}, nil
}

// DueForClose reports whether the position has been open for at least
// closeBlocks blocks.
func (p *Position) DueForClose(currentBlock, closeBlocks uint64) bool {
	if p.Status != PositionOpen || currentBlock < p.OpenBlock {
		return false
	}
	return currentBlock-p.OpenBlock >= closeBlocks
}

// HeldCurrency returns the asset received by the opening trade, i.e. the one
// the closing swap sells.
func (p *Position) HeldCurrency() CurrencyInfo {
	_, out := p.Event.Pool.Legs(p.Direction)
	return out
}
