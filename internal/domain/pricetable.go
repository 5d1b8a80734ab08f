package domain

import (
	"math/big"
	"sort"

	"github.com/shopspring/decimal"
)

// PriceEntry is one row of a pool's price table: a price quoted for a given
// slippage tolerance together with the trade size bounds the feed computed
// for it. Optional fields are nil when the feed did not supply them.
// Price uses NullDecimal because a row can carry size bounds while its price
// failed numeric coercion.
type PriceEntry struct {
	SlippageBasisPoints *int64
	Price               decimal.NullDecimal
	MaxAmountIn         *big.Int
	MaxAmountOut        *big.Int
	MinAmountIn         *big.Int
	MinAmountOut        *big.Int
}

// PriceTable holds the per-direction price entries of one pool event.
// Entries are in feed order and are NOT sorted by slippage.
type PriceTable struct {
	AtoB []PriceEntry
	BtoA []PriceEntry
}

// Entries returns the bucket for a direction, nil-safe.
func (t *PriceTable) Entries(d Direction) []PriceEntry {
	if t == nil {
		return nil
	}
	switch d {
	case DirectionAtoB:
		return t.AtoB
	case DirectionBtoA:
		return t.BtoA
	default:
		return nil
	}
}

// BestSlippage returns the lowest slippage level that has a defined value in
// the direction's bucket.
func (t *PriceTable) BestSlippage(d Direction) (int64, bool) {
	var best int64
	found := false
	for _, e := range t.Entries(d) {
		if e.SlippageBasisPoints == nil {
			continue
		}
		if !found || *e.SlippageBasisPoints < best {
			best = *e.SlippageBasisPoints
			found = true
		}
	}
	return best, found
}

// MedianSlippage returns the median of the defined slippage levels in the
// direction's bucket: the element at index n/2 of the ascending sort, which
// for even counts is the upper of the two middle values.
func (t *PriceTable) MedianSlippage(d Direction) (int64, bool) {
	var levels []int64
	for _, e := range t.Entries(d) {
		if e.SlippageBasisPoints != nil {
			levels = append(levels, *e.SlippageBasisPoints)
		}
	}
	if len(levels) == 0 {
		return 0, false
	}
	sort.Slice(levels, func(i, j int) bool { return levels[i] < levels[j] })
	return levels[len(levels)/2], true
}

// PriceForSlippage returns the entry matching the exact slippage level. When
// no entry matches, the FIRST entry of the bucket is returned as a fallback;
// callers must not assume it is the closest match. The second return value is
// false only for an empty bucket.
func (t *PriceTable) PriceForSlippage(d Direction, slippageBps int64) (PriceEntry, bool) {
	entries := t.Entries(d)
	for _, e := range entries {
		if e.SlippageBasisPoints != nil && *e.SlippageBasisPoints == slippageBps {
			return e, true
		}
	}
	if len(entries) > 0 {
		return entries[0], true
	}
	return PriceEntry{}, false
}
