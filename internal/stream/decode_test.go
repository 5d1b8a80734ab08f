package stream

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

func TestDecodeFullMessage(t *testing.T) {
	raw := []byte(`{
		"Header": {"Number": "0x112a880", "BaseFee": "0x6fc23ac00"},
		"PoolEvents": [{
			"Pool": {
				"PoolId": "0xpool",
				"CurrencyA": {"SmartContract": "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", "Symbol": "WETH", "Decimals": 18},
				"CurrencyB": {"SmartContract": "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "Symbol": "USDC", "Decimals": "6"}
			},
			"Liquidity": {"AmountCurrencyA": "0x3e8", "AmountCurrencyB": "500"},
			"PoolPriceTable": {
				"AtoBPrices": [
					{"SlippageBasisPoints": "50", "Price": "1850.25", "MaxAmountIn": "0xde0b6b3a7640000"},
					{"SlippageBasisPoints": 100, "Price": 1849.5}
				],
				"BtoAPrices": [
					{"SlippageBasisPoints": "50", "Price": "0.00054"}
				]
			},
			"Dex": {"ProtocolName": "uniswap_v3"},
			"TransactionHeader": {"GasPrice": "0x2540be400"}
		}]
	}`)

	msg, err := Decode(raw)
	require.NoError(t, err)

	require.NotNil(t, msg.Number)
	assert.Equal(t, uint64(0x112a880), msg.Number.Uint64())
	require.NotNil(t, msg.BaseFee)
	assert.Equal(t, big.NewInt(0x6fc23ac00), msg.BaseFee)

	require.Len(t, msg.Events, 1)
	event := msg.Events[0]

	assert.Equal(t, "0xpool", event.Pool.PoolID)
	assert.Equal(t, "WETH", event.Pool.CurrencyA.Symbol)
	assert.Equal(t, int32(18), event.Pool.CurrencyA.Decimals)
	assert.Equal(t, int32(6), event.Pool.CurrencyB.Decimals)
	assert.Equal(t, "uniswap_v3", event.Protocol)

	require.NotNil(t, event.Liquidity)
	assert.Equal(t, big.NewInt(1000), event.Liquidity.AmountCurrencyA)
	assert.Equal(t, big.NewInt(500), event.Liquidity.AmountCurrencyB)

	require.Len(t, event.Prices.AtoB, 2)
	first := event.Prices.AtoB[0]
	require.NotNil(t, first.SlippageBasisPoints)
	assert.Equal(t, int64(50), *first.SlippageBasisPoints)
	require.True(t, first.Price.Valid)
	assert.True(t, first.Price.Decimal.Equal(decimal.RequireFromString("1850.25")))
	require.NotNil(t, first.MaxAmountIn)
	assert.Equal(t, "1000000000000000000", first.MaxAmountIn.String())

	second := event.Prices.AtoB[1]
	require.NotNil(t, second.SlippageBasisPoints)
	assert.Equal(t, int64(100), *second.SlippageBasisPoints)
	require.True(t, second.Price.Valid)

	require.Len(t, event.Prices.BtoA, 1)

	// The transaction gas price takes precedence over the merged base fee.
	assert.Equal(t, big.NewInt(0x2540be400), event.TxGasPrice)
	assert.Equal(t, msg.BaseFee, event.BaseFee)
	assert.Equal(t, big.NewInt(0x2540be400), event.FeedGasPrice())
}

func TestDecodeMergesBaseFeeIntoEvents(t *testing.T) {
	raw := []byte(`{
		"Header": {"Number": "0x64", "BaseFee": "0x77359400"},
		"PoolEvents": [{
			"Pool": {"PoolId": "p1", "CurrencyA": {"Symbol": "A"}, "CurrencyB": {"Symbol": "B"}},
			"PoolPriceTable": {"AtoBPrices": [{"SlippageBasisPoints": "10", "Price": "2"}]}
		}]
	}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, msg.Events, 1)

	event := msg.Events[0]
	assert.Nil(t, event.TxGasPrice)
	assert.Equal(t, big.NewInt(0x77359400), event.BaseFee)
	assert.Equal(t, big.NewInt(0x77359400), event.FeedGasPrice())
}

func TestDecodeSkipsEventsWithoutPoolOrPrices(t *testing.T) {
	raw := []byte(`{
		"Header": {"Number": "0x1"},
		"PoolEvents": [
			{"Pool": {"PoolId": "no-prices", "CurrencyA": {"Symbol": "A"}, "CurrencyB": {"Symbol": "B"}}},
			{"PoolPriceTable": {"AtoBPrices": []}},
			{
				"Pool": {"PoolId": "complete", "CurrencyA": {"Symbol": "A"}, "CurrencyB": {"Symbol": "B"}},
				"PoolPriceTable": {"AtoBPrices": [{"SlippageBasisPoints": "10", "Price": "1"}]}
			}
		]
	}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, msg.Events, 1)
	assert.Equal(t, "complete", msg.Events[0].Pool.PoolID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(nil)
	assert.Error(t, err)

	_, err = Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestDecodeDefaultsMissingDecimals(t *testing.T) {
	raw := []byte(`{
		"PoolEvents": [{
			"Pool": {"PoolId": "p", "CurrencyA": {"Symbol": "A"}, "CurrencyB": {"Symbol": "B", "Decimals": "garbage"}},
			"PoolPriceTable": {"BtoAPrices": [{"SlippageBasisPoints": "10", "Price": "1"}]}
		}]
	}`)

	msg, err := Decode(raw)
	require.NoError(t, err)
	require.Len(t, msg.Events, 1)
	assert.Equal(t, domain.DefaultDecimals, msg.Events[0].Pool.CurrencyA.Decimals)
	assert.Equal(t, domain.DefaultDecimals, msg.Events[0].Pool.CurrencyB.Decimals)
}

func TestNormalizeIntOrdering(t *testing.T) {
	// Hex-first field: 0x-prefixed parses as hex, bare digits as decimal.
	assert.Equal(t, big.NewInt(255), normalizeInt("MaxAmountIn", "0xff"))
	assert.Equal(t, big.NewInt(123), normalizeInt("MaxAmountIn", "123"))

	// Decimal-first field: decimal wins, hex still accepted.
	assert.Equal(t, big.NewInt(123), normalizeInt("SlippageBasisPoints", "123"))
	assert.Equal(t, big.NewInt(255), normalizeInt("SlippageBasisPoints", "0xff"))

	// Uncoercible and absent values are nil, never zero.
	assert.Nil(t, normalizeInt("MaxAmountIn", ""))
	assert.Nil(t, normalizeInt("MaxAmountIn", "bogus"))

	// Fields outside the dictionary are never coerced.
	assert.Nil(t, normalizeInt("SomethingElse", "123"))
}

func TestNormalizeDecimalKeepsFractions(t *testing.T) {
	price := normalizeDecimal("Price", "1850.254321")
	require.True(t, price.Valid)
	assert.True(t, price.Decimal.Equal(decimal.RequireFromString("1850.254321")))

	hexPrice := normalizeDecimal("Price", "0x10")
	require.True(t, hexPrice.Valid)
	assert.True(t, hexPrice.Decimal.Equal(decimal.NewFromInt(16)))

	assert.False(t, normalizeDecimal("Price", "junk").Valid)
}
