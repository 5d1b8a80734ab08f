package trader

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

// plausibilityFloor is the fraction of the predicted output below which a
// reconciled balance delta is treated as untrustworthy.
var plausibilityFloor = decimal.New(5, -1)

// confirm waits for the swap receipt and reconciles the outcome. A receipt
// wait failure leaves the trade pending; a reverted transaction marks it
// failed.
func (t *Trader) confirm(ctx context.Context, tx *types.Transaction, tokenOut common.Address, decimalsOut int32, expectedOut decimal.Decimal) *domain.TradeResult {
	receipt, err := t.backend.WaitMined(ctx, tx, t.cfg.ReceiptTimeout)
	if err != nil {
		t.logger.Warn("receipt wait failed, leaving trade pending",
			zap.String("tx", tx.Hash().Hex()),
			zap.Error(err))
		return &domain.TradeResult{Status: domain.TradePending, TxHash: tx.Hash().Hex()}
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		t.logger.Warn("transaction reverted",
			zap.String("tx", tx.Hash().Hex()),
			zap.Uint64("block", receipt.BlockNumber.Uint64()))
		return &domain.TradeResult{Status: domain.TradeFailed, TxHash: tx.Hash().Hex()}
	}

	return &domain.TradeResult{
		Status:      domain.TradeConfirmed,
		TxHash:      tx.Hash().Hex(),
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
		AmountOut:   t.actualAmountOut(ctx, receipt, tokenOut, decimalsOut, expectedOut),
	}
}

// actualAmountOut reconciles the swap's real output by reading the wallet's
// balance of the output asset at the receipt block against the block before
// it. For a native output the gas cost is added back since it was deducted
// from the same balance. Non-positive or implausibly low deltas are replaced
// with the prediction so position accounting never inherits a wild reading.
func (t *Trader) actualAmountOut(ctx context.Context, receipt *types.Receipt, tokenOut common.Address, decimalsOut int32, expectedOut decimal.Decimal) decimal.Decimal {
	block := receipt.BlockNumber
	prev := new(big.Int).Sub(block, big.NewInt(1))

	var delta *big.Int
	if tokenOut == t.cfg.WrappedNative {
		after, err := t.backend.NativeBalance(ctx, t.wallet.Address(), block)
		if err != nil {
			return t.expectedFallback(expectedOut, err)
		}
		before, err := t.backend.NativeBalance(ctx, t.wallet.Address(), prev)
		if err != nil {
			return t.expectedFallback(expectedOut, err)
		}
		delta = new(big.Int).Sub(after, before)
		gasCost := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), receipt.EffectiveGasPrice)
		delta.Add(delta, gasCost)
	} else {
		after, err := t.backend.TokenBalance(ctx, tokenOut, t.wallet.Address(), block)
		if err != nil {
			return t.expectedFallback(expectedOut, err)
		}
		before, err := t.backend.TokenBalance(ctx, tokenOut, t.wallet.Address(), prev)
		if err != nil {
			return t.expectedFallback(expectedOut, err)
		}
		delta = new(big.Int).Sub(after, before)
	}

	actual := domain.FromSmallestUnit(delta, decimalsOut)
	if actual.LessThanOrEqual(decimal.Zero) {
		t.logger.Warn("balance delta non-positive, using expected amount",
			zap.String("delta", actual.String()),
			zap.String("expected", expectedOut.String()))
		return expectedOut
	}
	if actual.LessThan(expectedOut.Mul(plausibilityFloor)) {
		t.logger.Warn("balance delta implausibly low, using expected amount",
			zap.String("delta", actual.String()),
			zap.String("expected", expectedOut.String()))
		return expectedOut
	}
	return actual
}

func (t *Trader) expectedFallback(expected decimal.Decimal, err error) decimal.Decimal {
	t.logger.Warn("balance reconciliation failed, using expected amount", zap.Error(err))
	return expected
}
