package trader

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// swapV2 submits a swap through the V2-style router. Whether either leg is
// the wrapped native asset picks among the three call shapes; a native input
// is carried as transaction value instead of a token transfer.
func (t *Trader) swapV2(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOutMin, feedGas *big.Int) (*types.Transaction, error) {
	parsed, err := routerV2ABIInstance()
	if err != nil {
		return nil, errors.Wrap(err, "parse v2 router abi")
	}

	nativeIn := tokenIn == t.cfg.WrappedNative
	nativeOut := tokenOut == t.cfg.WrappedNative

	if nativeIn {
		if err := t.ensureNativeFunds(ctx, amountIn, feedGas); err != nil {
			return nil, err
		}
	} else {
		if err := t.ensureTokenFunds(ctx, tokenIn, t.cfg.RouterV2, amountIn, feedGas); err != nil {
			return nil, err
		}
	}

	gasPrice := t.gas.Price(ctx, feedGas)
	deadline := big.NewInt(time.Now().Add(swapDeadline).Unix())
	path := []common.Address{tokenIn, tokenOut}

	var (
		data  []byte
		value *big.Int
	)
	switch {
	case nativeIn:
		data, err = parsed.Pack("swapExactETHForTokens", amountOutMin, path, t.wallet.Address(), deadline)
		value = amountIn
	case nativeOut:
		data, err = parsed.Pack("swapExactTokensForETH", amountIn, amountOutMin, path, t.wallet.Address(), deadline)
	default:
		data, err = parsed.Pack("swapExactTokensForTokens", amountIn, amountOutMin, path, t.wallet.Address(), deadline)
	}
	if err != nil {
		return nil, errors.Wrap(err, "pack v2 swap")
	}

	tx, err := t.submit(ctx, t.cfg.RouterV2, value, swapGasLimit, gasPrice, data)
	if err != nil {
		return nil, errors.Wrap(err, "submit v2 swap")
	}

	t.logger.Info("swap submitted",
		zap.String("tx", tx.Hash().Hex()),
		zap.String("router", "v2"))
	return tx, nil
}
