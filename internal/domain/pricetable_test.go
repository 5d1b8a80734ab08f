package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bps(v int64) *int64 { return &v }

func price(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func TestPriceTable_BestSlippage(t *testing.T) {
	table := &PriceTable{
		AtoB: []PriceEntry{
			{SlippageBasisPoints: bps(100), Price: price("1.0")},
			{SlippageBasisPoints: bps(10), Price: price("1.1")},
			{Price: price("1.2")}, // no slippage value, skipped
			{SlippageBasisPoints: bps(50), Price: price("1.3")},
		},
	}

	best, ok := table.BestSlippage(DirectionAtoB)
	require.True(t, ok)
	assert.Equal(t, int64(10), best)

	_, ok = table.BestSlippage(DirectionBtoA)
	assert.False(t, ok, "empty bucket has no best slippage")

	var nilTable *PriceTable
	_, ok = nilTable.BestSlippage(DirectionAtoB)
	assert.False(t, ok)
}

func TestPriceTable_MedianSlippage(t *testing.T) {
	tests := []struct {
		name     string
		levels   []int64
		expected int64
	}{
		{name: "odd count returns middle", levels: []int64{100, 10, 50}, expected: 50},
		{name: "even count returns upper of the two middles", levels: []int64{10, 50, 100, 200}, expected: 100},
		{name: "single entry", levels: []int64{30}, expected: 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &PriceTable{}
			for _, l := range tt.levels {
				table.BtoA = append(table.BtoA, PriceEntry{SlippageBasisPoints: bps(l)})
			}

			median, ok := table.MedianSlippage(DirectionBtoA)
			require.True(t, ok)
			assert.Equal(t, tt.expected, median)

			// The median is always a member of the set, within its bounds.
			min, max := tt.levels[0], tt.levels[0]
			found := false
			for _, l := range tt.levels {
				if l < min {
					min = l
				}
				if l > max {
					max = l
				}
				if l == median {
					found = true
				}
			}
			assert.True(t, found, "median %d not in %v", median, tt.levels)
			assert.GreaterOrEqual(t, median, min)
			assert.LessOrEqual(t, median, max)
		})
	}

	_, ok := (&PriceTable{}).MedianSlippage(DirectionAtoB)
	assert.False(t, ok)
}

func TestPriceTable_PriceForSlippage(t *testing.T) {
	table := &PriceTable{
		AtoB: []PriceEntry{
			{SlippageBasisPoints: bps(100), Price: price("1.5")},
			{SlippageBasisPoints: bps(50), Price: price("2.5")},
		},
	}

	entry, ok := table.PriceForSlippage(DirectionAtoB, 50)
	require.True(t, ok)
	require.NotNil(t, entry.SlippageBasisPoints)
	assert.Equal(t, int64(50), *entry.SlippageBasisPoints)
	assert.True(t, entry.Price.Decimal.Equal(decimal.RequireFromString("2.5")))

	// No exact match falls back to the first entry of the bucket, whatever
	// its slippage happens to be.
	entry, ok = table.PriceForSlippage(DirectionAtoB, 999)
	require.True(t, ok)
	require.NotNil(t, entry.SlippageBasisPoints)
	assert.Equal(t, int64(100), *entry.SlippageBasisPoints)

	_, ok = table.PriceForSlippage(DirectionBtoA, 50)
	assert.False(t, ok, "empty bucket has no fallback")
}

func TestDirection(t *testing.T) {
	assert.Equal(t, DirectionBtoA, DirectionAtoB.Opposite())
	assert.Equal(t, DirectionAtoB, DirectionBtoA.Opposite())
	assert.Equal(t, DirectionUnknown, DirectionUnknown.Opposite())
	assert.True(t, DirectionAtoB.Known())
	assert.False(t, DirectionUnknown.Known())
	assert.Equal(t, "Unknown", DirectionUnknown.String())

	d, err := ParseDirection("BtoA")
	require.NoError(t, err)
	assert.Equal(t, DirectionBtoA, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, DirectionUnknown, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}
