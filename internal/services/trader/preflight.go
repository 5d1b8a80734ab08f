package trader

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/chain"
)

var (
	// ErrInsufficientNativeBalance means the wallet cannot cover the swap
	// value plus the estimated gas cost.
	ErrInsufficientNativeBalance = errors.New("insufficient native balance")
	// ErrInsufficientTokenBalance means the wallet holds less of the input
	// token than the swap needs.
	ErrInsufficientTokenBalance = errors.New("insufficient token balance")
	// ErrApprovalFailed means the router allowance transaction reverted or
	// never confirmed.
	ErrApprovalFailed = errors.New("router approval failed")
)

// ensureNativeFunds verifies the wallet covers amountIn plus the estimated
// gas cost for a native-input swap. Nothing is submitted on failure.
func (t *Trader) ensureNativeFunds(ctx context.Context, amountIn, feedGas *big.Int) error {
	gasPrice := t.gas.Price(ctx, feedGas)

	balance, err := t.backend.NativeBalance(ctx, t.wallet.Address(), nil)
	if err != nil {
		return errors.Wrap(err, "query native balance")
	}

	needed := new(big.Int).Add(amountIn, new(big.Int).Mul(gasPrice, big.NewInt(swapGasLimit)))
	if balance.Cmp(needed) < 0 {
		return errors.Wrapf(ErrInsufficientNativeBalance, "need %s wei, have %s wei", needed, balance)
	}
	return nil
}

// ensureTokenFunds verifies the wallet holds the input token amount and
// enough native balance for gas, then tops up the router allowance when it
// is below amountIn. The approval blocks until mined; its failure aborts the
// enclosing swap.
func (t *Trader) ensureTokenFunds(ctx context.Context, token, router common.Address, amountIn, feedGas *big.Int) error {
	balance, err := t.backend.TokenBalance(ctx, token, t.wallet.Address(), nil)
	if err != nil {
		return errors.Wrap(err, "query token balance")
	}
	if balance.Cmp(amountIn) < 0 {
		return errors.Wrapf(ErrInsufficientTokenBalance, "need %s, have %s", amountIn, balance)
	}

	gasPrice := t.gas.Price(ctx, feedGas)
	native, err := t.backend.NativeBalance(ctx, t.wallet.Address(), nil)
	if err != nil {
		return errors.Wrap(err, "query native balance")
	}
	gasCost := new(big.Int).Mul(gasPrice, big.NewInt(swapGasLimit))
	if native.Cmp(gasCost) < 0 {
		return errors.Wrapf(ErrInsufficientNativeBalance, "gas needs %s wei, have %s wei", gasCost, native)
	}

	allowance, err := t.backend.Allowance(ctx, token, t.wallet.Address(), router)
	if err != nil {
		return errors.Wrap(err, "query allowance")
	}
	if allowance.Cmp(amountIn) >= 0 {
		return nil
	}

	return t.approve(ctx, token, router, gasPrice)
}

// approve grants the router an unlimited allowance and blocks until the
// approval is mined.
func (t *Trader) approve(ctx context.Context, token, router common.Address, gasPrice *big.Int) error {
	data, err := chain.PackApprove(router, maxAllowance)
	if err != nil {
		return err
	}

	tx, err := t.submit(ctx, token, nil, approveGasLimit, gasPrice, data)
	if err != nil {
		return errors.Wrap(err, "submit approval")
	}
	t.logger.Info("approval submitted",
		zap.String("tx", tx.Hash().Hex()),
		zap.String("token", token.Hex()))

	receipt, err := t.backend.WaitMined(ctx, tx, t.cfg.ReceiptTimeout)
	if err != nil {
		return errors.Wrapf(ErrApprovalFailed, "wait for approval %s: %v", tx.Hash(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return errors.Wrapf(ErrApprovalFailed, "approval %s reverted", tx.Hash())
	}

	t.logger.Info("approval confirmed", zap.String("tx", tx.Hash().Hex()))
	return nil
}
