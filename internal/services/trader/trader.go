// Package trader executes swaps against the V2- and V3-style routers. It
// runs the preflight funding and allowance checks, submits the swap through
// the protocol executor matching the event, and reconciles the mined
// transaction into a trade result.
package trader

import (
	"context"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/chain"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/services/gas"
)

const (
	swapGasLimit    = 300000
	approveGasLimit = 150000
	swapDeadline    = 20 * time.Minute
	v3PoolFee       = 3000

	defaultReceiptTimeout = 2 * time.Minute
)

// ErrUnsupportedProtocol means the event's protocol name matches no known
// executor.
var ErrUnsupportedProtocol = errors.New("unsupported protocol")

// Backend is the chain surface the trader needs. *chain.Client satisfies it.
type Backend interface {
	ChainID() *big.Int
	NativeBalance(ctx context.Context, account common.Address, block *big.Int) (*big.Int, error)
	TokenBalance(ctx context.Context, token, account common.Address, block *big.Int) (*big.Int, error)
	Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error)
	PendingNonce(ctx context.Context, account common.Address) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	WaitMined(ctx context.Context, tx *types.Transaction, timeout time.Duration) (*types.Receipt, error)
}

// Config carries the router addresses and confirmation settings.
type Config struct {
	RouterV2       common.Address
	RouterV3       common.Address
	WrappedNative  common.Address
	ReceiptTimeout time.Duration
}

// Trader executes swaps on behalf of a single wallet.
type Trader struct {
	backend Backend
	wallet  *chain.Wallet
	gas     *gas.Manager
	cfg     Config
	logger  *zap.Logger
}

// New builds a Trader. ReceiptTimeout defaults when unset.
func New(backend Backend, wallet *chain.Wallet, gasManager *gas.Manager, cfg Config, logger *zap.Logger) (*Trader, error) {
	if backend == nil {
		return nil, errors.New("trader requires a chain backend")
	}
	if wallet == nil {
		return nil, errors.New("trader requires a wallet")
	}
	if gasManager == nil {
		return nil, errors.New("trader requires a gas manager")
	}
	if (cfg.RouterV2 == common.Address{}) || (cfg.RouterV3 == common.Address{}) {
		return nil, errors.New("trader requires both router addresses")
	}
	if (cfg.WrappedNative == common.Address{}) {
		return nil, errors.New("trader requires the wrapped native asset address")
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = defaultReceiptTimeout
	}

	return &Trader{
		backend: backend,
		wallet:  wallet,
		gas:     gasManager,
		cfg:     cfg,
		logger:  logger,
	}, nil
}

// ExecuteTrade swaps amountIn (human-readable units of the input leg) in the
// given direction on the event's pool. Validation and preflight failures
// come back as a no-trade result, never as an error; the error return is
// reserved for caller contract violations.
func (t *Trader) ExecuteTrade(ctx context.Context, event *domain.PoolEvent, direction domain.Direction, amountIn decimal.Decimal, slippageBps int64) (*domain.TradeResult, error) {
	if !direction.Known() {
		return nil, errors.Errorf("direction must be resolved, got %s", direction)
	}
	if !amountIn.IsPositive() {
		return nil, errors.Errorf("amount in must be positive, got %s", amountIn)
	}

	if event == nil || event.Pool == nil {
		return domain.NoTrade("missing pool data"), nil
	}
	pool := event.Pool
	if pool.CurrencyA.Empty() || pool.CurrencyB.Empty() {
		return domain.NoTrade("missing currency data"), nil
	}

	tokenInInfo, tokenOutInfo := pool.Legs(direction)
	tokenIn, okIn := tokenInInfo.Address()
	tokenOut, okOut := tokenOutInfo.Address()
	if !okIn || !okOut {
		t.logger.Warn("unresolvable token address, skipping trade",
			zap.String("token_in", tokenInInfo.SmartContract),
			zap.String("token_out", tokenOutInfo.SmartContract))
		return domain.NoTrade("unresolvable token address"), nil
	}

	entry, ok := event.Prices.PriceForSlippage(direction, slippageBps)
	if !ok {
		t.logger.Warn("no price data for slippage level", zap.Int64("slippage_bps", slippageBps))
		return domain.NoTrade("no price data for slippage level"), nil
	}
	if !entry.Price.Valid {
		t.logger.Warn("price missing at slippage level", zap.Int64("slippage_bps", slippageBps))
		return domain.NoTrade("price missing at slippage level"), nil
	}
	price := entry.Price.Decimal

	amountInSmallest := domain.ToSmallestUnit(amountIn, tokenInInfo.Decimals)
	amountOutMin := domain.AmountOutMin(amountIn, price, tokenOutInfo.Decimals, slippageBps)
	expectedOut := amountIn.Mul(price)
	feedGas := event.FeedGasPrice()

	t.logger.Debug("executing swap",
		zap.String("direction", direction.String()),
		zap.String("token_in", tokenInInfo.Symbol),
		zap.String("token_out", tokenOutInfo.Symbol),
		zap.String("amount_in", amountIn.String()),
		zap.Int64("slippage_bps", slippageBps),
		zap.String("protocol", event.Protocol))

	var (
		tx  *types.Transaction
		err error
	)
	protocol := strings.ToLower(event.Protocol)
	switch {
	case strings.Contains(protocol, "v2"):
		tx, err = t.swapV2(ctx, tokenIn, tokenOut, amountInSmallest, amountOutMin, feedGas)
	case strings.Contains(protocol, "v3"):
		tx, err = t.swapV3(ctx, tokenIn, tokenOut, amountInSmallest, amountOutMin, feedGas)
	default:
		err = errors.Wrapf(ErrUnsupportedProtocol, "protocol %q", event.Protocol)
	}
	if err != nil {
		t.logger.Warn("swap not submitted", zap.Error(err))
		return domain.NoTrade(err.Error()), nil
	}

	result := t.confirm(ctx, tx, tokenOut, tokenOutInfo.Decimals, expectedOut)
	result.Direction = direction
	result.AmountIn = amountIn
	result.Price = price
	result.CurrencyA = tokenInInfo.Symbol
	result.CurrencyB = tokenOutInfo.Symbol
	result.PoolID = pool.PoolID
	result.Protocol = event.Protocol
	result.SlippageBps = slippageBps

	return result, nil
}

// HeldBalance returns the wallet's current balance of the currency in
// human-readable units.
func (t *Trader) HeldBalance(ctx context.Context, currency domain.CurrencyInfo) (decimal.Decimal, error) {
	token, ok := currency.Address()
	if !ok {
		return decimal.Zero, errors.Errorf("currency %s has no usable address", currency.Symbol)
	}

	balance, err := t.backend.TokenBalance(ctx, token, t.wallet.Address(), nil)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.FromSmallestUnit(balance, currency.Decimals), nil
}

// submit builds, signs and broadcasts a legacy transaction with a fresh
// nonce.
func (t *Trader) submit(ctx context.Context, to common.Address, value *big.Int, gasLimit uint64, gasPrice *big.Int, data []byte) (*types.Transaction, error) {
	nonce, err := t.backend.PendingNonce(ctx, t.wallet.Address())
	if err != nil {
		return nil, err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := t.wallet.SignTx(tx, t.backend.ChainID())
	if err != nil {
		return nil, err
	}

	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}
	return signed, nil
}
