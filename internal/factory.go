package internal

import (
	"context"
	"math/big"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/config"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/chain"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/services/gas"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/services/strategy"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/services/trader"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/storage/journal"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/stream"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/pkg/retrier"
)

// BuildBot constructs the full bot from configuration: wallet, chain client
// (dialed with retry), gas policy, trader, journal, strategy and the feed
// consumer. The returned bot owns the chain client and the journal and
// closes them on Close.
func BuildBot(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Bot, error) {
	wallet, err := chain.NewWallet(cfg.PrivateKey)
	if err != nil {
		return nil, errors.Wrap(err, "init wallet")
	}
	logger.Info("wallet loaded", zap.String("address", wallet.Address().Hex()))

	dialRetrier := retrier.New(
		retrier.WithInitialInterval(2*time.Second),
		retrier.WithMaxRetries(4),
	)
	client, err := retrier.DoWithData(dialRetrier, ctx, func(ctx context.Context) (*chain.Client, error) {
		return chain.Dial(ctx, cfg.RPCURL)
	})
	if err != nil {
		return nil, errors.Wrap(err, "dial chain rpc")
	}
	logger.Info("chain client connected",
		zap.String("rpc", cfg.RPCURL),
		zap.String("chainId", client.ChainID().String()))

	probeStartupBalance(ctx, client, wallet, cfg, logger)

	gasManager := gas.NewManager(client, cfg.GasPriceGwei, cfg.MaxGasPriceGwei,
		logger.With(zap.String("component", "gas")))

	tradeExecutor, err := trader.New(client, wallet, gasManager, trader.Config{
		RouterV2:       cfg.RouterV2,
		RouterV3:       cfg.RouterV3,
		WrappedNative:  cfg.WrappedNative,
		ReceiptTimeout: cfg.ReceiptTimeout,
	}, logger.With(zap.String("component", "trader")))
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "init trader")
	}

	tradeJournal, err := journal.New(cfg.JournalDir)
	if err != nil {
		client.Close()
		return nil, errors.Wrap(err, "open trade journal")
	}
	reportLeftoverPositions(tradeJournal, logger)

	engine, err := strategy.NewPoolStrategy(
		logger.With(zap.String("component", "strategy")),
		strategy.Config{
			Enabled:            cfg.Enabled,
			Amount:             cfg.TradeAmount,
			DefaultSlippageBps: cfg.SlippageBps,
			FixedDirection:     cfg.Direction,
			CloseBlocks:        cfg.CloseBlocks,
			MinTradeInterval:   cfg.MinTradeInterval,
		},
		tradeExecutor,
		tradeJournal,
	)
	if err != nil {
		tradeJournal.Close()
		client.Close()
		return nil, errors.Wrap(err, "init strategy")
	}

	consumer, err := stream.NewConsumer(stream.ConsumerConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupPrefix: cfg.GroupPrefix,
		Username:    cfg.KafkaUsername,
		Password:    cfg.KafkaPassword,
		PollTimeout: cfg.PollTimeout,
	}, logger.With(zap.String("component", "stream")))
	if err != nil {
		tradeJournal.Close()
		client.Close()
		return nil, errors.Wrap(err, "init feed consumer")
	}

	return NewBot(consumer, engine, client, BotConfig{
		StatsInterval: cfg.StatsInterval,
		MaxTrades:     cfg.MaxTrades,
	}, logger,
		tradeJournal.Close,
		func() error { client.Close(); return nil },
	)
}

// probeStartupBalance logs the wallet's native balance and warns when it
// cannot cover one configured trade plus gas headroom. Informational only;
// the per-trade preflight is what actually blocks underfunded swaps.
func probeStartupBalance(ctx context.Context, client *chain.Client, wallet *chain.Wallet, cfg *config.Config, logger *zap.Logger) {
	balance, err := client.NativeBalance(ctx, wallet.Address(), nil)
	if err != nil {
		logger.Warn("startup balance probe failed", zap.Error(err))
		return
	}

	human := domain.FromSmallestUnit(balance, domain.DefaultDecimals)
	logger.Info("wallet native balance", zap.String("balance", human.String()))

	gasHeadroom := new(big.Int).Mul(gas.GweiToWei(cfg.MaxGasPriceGwei), big.NewInt(300000))
	needed := new(big.Int).Add(domain.ToSmallestUnit(cfg.TradeAmount, domain.DefaultDecimals), gasHeadroom)
	if balance.Cmp(needed) < 0 {
		logger.Warn("wallet may not cover one native-input trade plus gas",
			zap.String("balance", human.String()),
			zap.String("needed", domain.FromSmallestUnit(needed, domain.DefaultDecimals).String()))
	}
}

// reportLeftoverPositions tells the operator what the previous run left
// open. Those positions are not recovered; their close never happened from
// this process's point of view.
func reportLeftoverPositions(tradeJournal *journal.Journal, logger *zap.Logger) {
	open, err := tradeJournal.OpenPositions()
	if err != nil {
		logger.Warn("could not inspect journal for leftover positions", zap.Error(err))
		return
	}
	for _, p := range open {
		logger.Warn("journal shows a position left open by a previous run",
			zap.String("pool", p.PoolID),
			zap.Uint64("openBlock", p.OpenBlock),
			zap.String("amountOut", p.AmountOut.String()))
	}
}
