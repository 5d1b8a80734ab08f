package detector

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

func bps(v int64) *int64 { return &v }

func liquidity(a, b int64) *domain.LiquiditySnapshot {
	return &domain.LiquiditySnapshot{
		AmountCurrencyA: big.NewInt(a),
		AmountCurrencyB: big.NewInt(b),
	}
}

func entry(slippage int64, maxIn int64) domain.PriceEntry {
	e := domain.PriceEntry{SlippageBasisPoints: bps(slippage)}
	if maxIn >= 0 {
		e.MaxAmountIn = big.NewInt(maxIn)
	}
	return e
}

func TestResolve_MissingData(t *testing.T) {
	assert.Equal(t, domain.DirectionUnknown, Resolve(nil))

	// Liquidity but no price table.
	event := &domain.PoolEvent{Liquidity: liquidity(1000, 500)}
	assert.Equal(t, domain.DirectionUnknown, Resolve(event))

	// Price table but no liquidity.
	event = &domain.PoolEvent{Prices: &domain.PriceTable{}}
	assert.Equal(t, domain.DirectionUnknown, Resolve(event))
}

func TestResolve_RatioComparison(t *testing.T) {
	// CurrencyB side is smaller but far more utilized: 400/500 vs 100/1000.
	event := &domain.PoolEvent{
		Liquidity: liquidity(1000, 500),
		Prices: &domain.PriceTable{
			AtoB: []domain.PriceEntry{entry(50, 100)},
			BtoA: []domain.PriceEntry{entry(50, 400)},
		},
	}
	assert.Equal(t, domain.DirectionBtoA, Resolve(event))

	// Equal ratios tie toward AtoB.
	event.Prices = &domain.PriceTable{
		AtoB: []domain.PriceEntry{entry(50, 100)},
		BtoA: []domain.PriceEntry{entry(50, 50)},
	}
	assert.Equal(t, domain.DirectionAtoB, Resolve(event))
}

func TestResolve_AbsoluteFallbackWhenLiquidityUnusable(t *testing.T) {
	// MaxAmountIn present on both sides but one reserve failed coercion:
	// compare the capacities directly.
	event := &domain.PoolEvent{
		Liquidity: &domain.LiquiditySnapshot{AmountCurrencyA: big.NewInt(1000)},
		Prices: &domain.PriceTable{
			AtoB: []domain.PriceEntry{entry(50, 100)},
			BtoA: []domain.PriceEntry{entry(50, 400)},
		},
	}
	assert.Equal(t, domain.DirectionBtoA, Resolve(event))
}

func TestResolve_RawLiquidityFallback(t *testing.T) {
	// Medians exist but no MaxAmountIn anywhere: raw reserve comparison.
	event := &domain.PoolEvent{
		Liquidity: liquidity(1000, 500),
		Prices: &domain.PriceTable{
			AtoB: []domain.PriceEntry{entry(50, -1)},
			BtoA: []domain.PriceEntry{entry(50, -1)},
		},
	}
	assert.Equal(t, domain.DirectionAtoB, Resolve(event))

	// One median missing skips straight to the raw comparison.
	event.Prices = &domain.PriceTable{
		AtoB: []domain.PriceEntry{entry(50, 100)},
	}
	assert.Equal(t, domain.DirectionAtoB, Resolve(event))

	// Zero reserves fall past the ratio step to the raw comparison too.
	event = &domain.PoolEvent{
		Liquidity: liquidity(0, 0),
		Prices: &domain.PriceTable{
			AtoB: []domain.PriceEntry{entry(50, 100)},
			BtoA: []domain.PriceEntry{entry(50, 400)},
		},
	}
	assert.Equal(t, domain.DirectionAtoB, Resolve(event))

	// Raw comparison with a missing reserve cannot decide.
	event = &domain.PoolEvent{
		Liquidity: &domain.LiquiditySnapshot{AmountCurrencyA: big.NewInt(1000)},
		Prices:    &domain.PriceTable{},
	}
	assert.Equal(t, domain.DirectionUnknown, Resolve(event))
}

func TestResolveAtSlippage(t *testing.T) {
	event := &domain.PoolEvent{
		Liquidity: liquidity(1000, 1000),
		Prices: &domain.PriceTable{
			AtoB: []domain.PriceEntry{entry(10, 50), entry(100, 900)},
			BtoA: []domain.PriceEntry{entry(10, 60), entry(100, 100)},
		},
	}

	// At 10 bps BtoA is deeper, at 100 bps AtoB is.
	assert.Equal(t, domain.DirectionBtoA, ResolveAtSlippage(event, 10))
	assert.Equal(t, domain.DirectionAtoB, ResolveAtSlippage(event, 100))

	// An unmatched level falls back to each bucket's first entry.
	assert.Equal(t, domain.DirectionBtoA, ResolveAtSlippage(event, 999))
}
