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

// swapV3 submits a swap through the V3-style router as a single
// exactInputSingle call at the default pool fee tier. A native input leg is
// signaled by attaching value to the call.
func (t *Trader) swapV3(ctx context.Context, tokenIn, tokenOut common.Address, amountIn, amountOutMin, feedGas *big.Int) (*types.Transaction, error) {
	parsed, err := routerV3ABIInstance()
	if err != nil {
		return nil, errors.Wrap(err, "parse v3 router abi")
	}

	nativeIn := tokenIn == t.cfg.WrappedNative
	if nativeIn {
		if err := t.ensureNativeFunds(ctx, amountIn, feedGas); err != nil {
			return nil, err
		}
	} else {
		if err := t.ensureTokenFunds(ctx, tokenIn, t.cfg.RouterV3, amountIn, feedGas); err != nil {
			return nil, err
		}
	}

	gasPrice := t.gas.Price(ctx, feedGas)

	params := exactInputSingleParams{
		TokenIn:           tokenIn,
		TokenOut:          tokenOut,
		Fee:               big.NewInt(v3PoolFee),
		Recipient:         t.wallet.Address(),
		Deadline:          big.NewInt(time.Now().Add(swapDeadline).Unix()),
		AmountIn:          amountIn,
		AmountOutMinimum:  amountOutMin,
		SqrtPriceLimitX96: big.NewInt(0),
	}
	data, err := parsed.Pack("exactInputSingle", params)
	if err != nil {
		return nil, errors.Wrap(err, "pack v3 swap")
	}

	var value *big.Int
	if nativeIn {
		value = amountIn
	}

	tx, err := t.submit(ctx, t.cfg.RouterV3, value, swapGasLimit, gasPrice, data)
	if err != nil {
		return nil, errors.Wrap(err, "submit v3 swap")
	}

	t.logger.Info("swap submitted",
		zap.String("tx", tx.Hash().Hex()),
		zap.String("router", "v3"))
	return tx, nil
}
