package trader

import (
	"context"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

// runReconciled drives a confirmed V2 native-in swap (1 WETH -> USDC at
// price 2000) with the output-token balances scripted per block.
func runReconciled(t *testing.T, backend *fakeBackend) *domain.TradeResult {
	t.Helper()

	backend.native["latest"] = eth("2")
	backend.receipts = []*types.Receipt{successReceipt(1000, 150000)}

	tr := testTrader(t, backend)
	result, err := tr.ExecuteTrade(context.Background(), swapEvent("uniswap_v2"), domain.DirectionAtoB, decimal.NewFromInt(1), 50)
	require.NoError(t, err)
	require.Equal(t, domain.TradeConfirmed, result.Status)
	return result
}

func TestReconcile_ImplausiblyLowDeltaUsesExpected(t *testing.T) {
	usdcToken := common.HexToAddress(usdcAddr).Hex()

	backend := newFakeBackend()
	// Delta of 0.0002 against an expected 2000: far below the 50% floor.
	backend.tokens[usdcToken+"@1000"] = big.NewInt(200)
	backend.tokens[usdcToken+"@999"] = big.NewInt(0)

	result := runReconciled(t, backend)
	assert.True(t, result.AmountOut.Equal(decimal.NewFromInt(2000)), "amount out %s", result.AmountOut)
}

func TestReconcile_ExactlyHalfExpectedIsKept(t *testing.T) {
	usdcToken := common.HexToAddress(usdcAddr).Hex()

	backend := newFakeBackend()
	backend.tokens[usdcToken+"@1000"] = usdc("1000")
	backend.tokens[usdcToken+"@999"] = big.NewInt(0)

	result := runReconciled(t, backend)
	assert.True(t, result.AmountOut.Equal(decimal.NewFromInt(1000)), "amount out %s", result.AmountOut)
}

func TestReconcile_NonPositiveDeltaUsesExpected(t *testing.T) {
	usdcToken := common.HexToAddress(usdcAddr).Hex()

	backend := newFakeBackend()
	backend.tokens[usdcToken+"@1000"] = usdc("100")
	backend.tokens[usdcToken+"@999"] = usdc("100")

	result := runReconciled(t, backend)
	assert.True(t, result.AmountOut.Equal(decimal.NewFromInt(2000)), "amount out %s", result.AmountOut)
}

func TestReconcile_QueryErrorUsesExpected(t *testing.T) {
	backend := newFakeBackend()
	backend.tokenErr = errors.New("historical state pruned")

	result := runReconciled(t, backend)
	assert.True(t, result.AmountOut.Equal(decimal.NewFromInt(2000)), "amount out %s", result.AmountOut)
}

func TestReconcile_NativeOutAddsBackGas(t *testing.T) {
	backend := newFakeBackend()
	backend.native["latest"] = eth("1")
	backend.native["1999"] = eth("1")
	// Raw delta is 0.4937 ETH; 210000 gas at 30 gwei adds back 0.0063.
	backend.native["2000"] = new(big.Int).Add(eth("1"), big.NewInt(493_700_000_000_000_000))
	backend.tokens[common.HexToAddress(usdcAddr).Hex()+"@latest"] = usdc("2000")
	backend.allowance = eth("1000000")
	backend.receipts = []*types.Receipt{successReceipt(2000, 210000)}

	tr := testTrader(t, backend)
	result, err := tr.ExecuteTrade(context.Background(), swapEvent("uniswap_v2"), domain.DirectionBtoA, decimal.NewFromInt(1000), 50)
	require.NoError(t, err)

	require.Equal(t, domain.TradeConfirmed, result.Status)
	assert.True(t, result.AmountOut.Equal(decimal.RequireFromString("0.5")), "amount out %s", result.AmountOut)
}
