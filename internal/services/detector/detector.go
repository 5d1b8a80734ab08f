// Package detector resolves the trade direction for a pool event from the
// liquidity and price-table data the feed supplies. It is pure: no I/O, no
// state.
package detector

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

// Resolve picks the trade direction for the event by comparing pool
// utilization at each direction's median slippage level. It returns
// DirectionUnknown when the event carries too little data to decide.
func Resolve(event *domain.PoolEvent) domain.Direction {
	return resolve(event, nil)
}

// ResolveAtSlippage is Resolve pinned to one slippage level for both
// directions instead of the per-direction medians.
func ResolveAtSlippage(event *domain.PoolEvent, slippageBps int64) domain.Direction {
	return resolve(event, &slippageBps)
}

func resolve(event *domain.PoolEvent, slippageBps *int64) domain.Direction {
	if event == nil || event.Liquidity == nil || event.Prices == nil {
		return domain.DirectionUnknown
	}
	liquidity := event.Liquidity
	prices := event.Prices

	var atobEntry, btoaEntry domain.PriceEntry
	var atobFound, btoaFound bool
	if slippageBps == nil {
		atobMedian, aOK := prices.MedianSlippage(domain.DirectionAtoB)
		btoaMedian, bOK := prices.MedianSlippage(domain.DirectionBtoA)
		if !aOK || !bOK {
			return compareLiquidity(liquidity)
		}
		atobEntry, atobFound = prices.PriceForSlippage(domain.DirectionAtoB, atobMedian)
		btoaEntry, btoaFound = prices.PriceForSlippage(domain.DirectionBtoA, btoaMedian)
	} else {
		atobEntry, atobFound = prices.PriceForSlippage(domain.DirectionAtoB, *slippageBps)
		btoaEntry, btoaFound = prices.PriceForSlippage(domain.DirectionBtoA, *slippageBps)
	}

	var atobMax, btoaMax *big.Int
	if atobFound {
		atobMax = atobEntry.MaxAmountIn
	}
	if btoaFound {
		btoaMax = btoaEntry.MaxAmountIn
	}

	if atobMax != nil && btoaMax != nil {
		amountA := liquidity.AmountCurrencyA
		amountB := liquidity.AmountCurrencyB
		if amountA == nil || amountB == nil {
			// Liquidity is unusable for normalization, compare the raw
			// capacities instead.
			if atobMax.Cmp(btoaMax) >= 0 {
				return domain.DirectionAtoB
			}
			return domain.DirectionBtoA
		}
		if amountA.Sign() > 0 && amountB.Sign() > 0 {
			// MaxAmountIn as a share of the reserve it draws from. A
			// smaller pool side with higher utilization beats a larger,
			// less-utilized one.
			atobRatio := decimal.NewFromBigInt(atobMax, 0).Div(decimal.NewFromBigInt(amountA, 0))
			btoaRatio := decimal.NewFromBigInt(btoaMax, 0).Div(decimal.NewFromBigInt(amountB, 0))
			if atobRatio.GreaterThanOrEqual(btoaRatio) {
				return domain.DirectionAtoB
			}
			return domain.DirectionBtoA
		}
	}

	return compareLiquidity(liquidity)
}

// compareLiquidity picks the side with the larger raw reserve. Ties go to
// AtoB. A missing reserve leaves the direction unknown.
func compareLiquidity(liquidity *domain.LiquiditySnapshot) domain.Direction {
	if liquidity.AmountCurrencyA == nil || liquidity.AmountCurrencyB == nil {
		return domain.DirectionUnknown
	}
	if liquidity.AmountCurrencyA.Cmp(liquidity.AmountCurrencyB) >= 0 {
		return domain.DirectionAtoB
	}
	return domain.DirectionBtoA
}
