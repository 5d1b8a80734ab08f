package strategy

import "github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"

// Ledger holds the positions the engine is responsible for. The engine runs
// on a single goroutine, so access is not synchronized.
//
// A position leaves the ledger only after its closing swap confirms. Failed
// and errored closes stay behind for operator inspection; they are never
// retried and do not count as open.
type Ledger struct {
	positions []*domain.Position
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Add registers a freshly opened position.
func (l *Ledger) Add(p *domain.Position) {
	l.positions = append(l.positions, p)
}

// Len reports how many positions are still tracked, in any state.
func (l *Ledger) Len() int {
	return len(l.positions)
}

// OpenCount reports how many tracked positions are still open.
func (l *Ledger) OpenCount() int {
	count := 0
	for _, p := range l.positions {
		if p.Status == domain.PositionOpen {
			count++
		}
	}
	return count
}

// Due returns the open positions that have aged past closeBlocks at
// currentBlock, in insertion order.
func (l *Ledger) Due(currentBlock, closeBlocks uint64) []*domain.Position {
	var due []*domain.Position
	for _, p := range l.positions {
		if p.DueForClose(currentBlock, closeBlocks) {
			due = append(due, p)
		}
	}
	return due
}

// Sweep drops positions whose closing swap confirmed and reports how many
// were removed.
func (l *Ledger) Sweep() int {
	kept := l.positions[:0]
	for _, p := range l.positions {
		if p.Status != domain.PositionClosed {
			kept = append(kept, p)
		}
	}
	removed := len(l.positions) - len(kept)
	l.positions = kept
	return removed
}

// All returns the tracked positions in insertion order. The slice is shared
// with the ledger and must not be mutated.
func (l *Ledger) All() []*domain.Position {
	return l.positions
}
