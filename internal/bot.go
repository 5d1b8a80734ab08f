// Package internal wires the feed consumer, the chain client and the
// trading engine into the polling loop that runs the bot.
package internal

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/services/strategy"
)

type feedConsumer interface {
	Poll(ctx context.Context) (*domain.BlockMessage, error)
	Ack(ctx context.Context) error
	Close() error
}

type tradingEngine interface {
	HandleEvent(ctx context.Context, event *domain.PoolEvent) *domain.TradeResult
	CheckAndClose(ctx context.Context, currentBlock uint64)
	Stats() strategy.Stats
	LogStats()
}

type blockHeightReader interface {
	BlockNumber(ctx context.Context) (uint64, error)
}

// BotConfig carries the loop settings.
type BotConfig struct {
	// StatsInterval is how many feed messages pass between statistics
	// reports.
	StatsInterval int
	// MaxTrades stops the loop after this many opening attempts; zero means
	// unlimited.
	MaxTrades int
}

// Bot is the polling loop: it pulls feed messages, drives position closes by
// block height and hands every pool event to the engine. Everything runs on
// the calling goroutine; one event is fully processed, including its
// blocking chain calls, before the next is considered.
type Bot struct {
	consumer   feedConsumer
	engine     tradingEngine
	chain      blockHeightReader
	cfg        BotConfig
	logger     *zap.Logger
	closers    []func() error
	eventCount int
}

// NewBot assembles a bot from its collaborators. closers run on Close, in
// order, after the consumer shuts down.
func NewBot(consumer feedConsumer, engine tradingEngine, chain blockHeightReader, cfg BotConfig, logger *zap.Logger, closers ...func() error) (*Bot, error) {
	if consumer == nil || engine == nil || chain == nil {
		return nil, errors.New("bot requires a consumer, an engine and a chain client")
	}
	if cfg.StatsInterval < 1 {
		return nil, errors.Errorf("stats interval must be at least 1, got %d", cfg.StatsInterval)
	}

	return &Bot{
		consumer: consumer,
		engine:   engine,
		chain:    chain,
		cfg:      cfg,
		logger:   logger,
		closers:  closers,
	}, nil
}

// Run polls the feed until the context is cancelled or the trade cap is
// reached. Position closes are checked on every iteration whether or not a
// message arrived, so a silent feed cannot starve them. A failing poll or a
// malformed message never terminates the loop.
func (b *Bot) Run(ctx context.Context) error {
	b.logger.Info("starting trading loop",
		zap.Int("statsInterval", b.cfg.StatsInterval),
		zap.Int("maxTrades", b.cfg.MaxTrades))
	defer b.engine.LogStats()

	for {
		if err := ctx.Err(); err != nil {
			b.logger.Info("trading loop stopped", zap.Error(err))
			return err
		}

		b.checkPositions(ctx)

		msg, err := b.consumer.Poll(ctx)
		if err != nil {
			if ctx.Err() != nil {
				continue
			}
			b.logger.Error("feed poll failed", zap.Error(err))
			continue
		}
		if msg == nil {
			continue
		}

		b.handleMessage(ctx, msg)

		if err := b.consumer.Ack(ctx); err != nil && ctx.Err() == nil {
			b.logger.Warn("failed to commit feed offset", zap.Error(err))
		}

		b.eventCount++
		if b.eventCount%b.cfg.StatsInterval == 0 {
			b.engine.LogStats()
		}

		if b.cfg.MaxTrades > 0 && b.engine.Stats().Total >= b.cfg.MaxTrades {
			b.logger.Info("maximum trade count reached, stopping",
				zap.Int("maxTrades", b.cfg.MaxTrades))
			return nil
		}
	}
}

// checkPositions fetches the chain height and lets the engine close what is
// due. An unavailable height skips the check for this tick only.
func (b *Bot) checkPositions(ctx context.Context) {
	block, err := b.chain.BlockNumber(ctx)
	if err != nil {
		if ctx.Err() == nil {
			b.logger.Debug("block height unavailable, skipping close check", zap.Error(err))
		}
		return
	}
	b.engine.CheckAndClose(ctx, block)
}

func (b *Bot) handleMessage(ctx context.Context, msg *domain.BlockMessage) {
	for _, event := range msg.Events {
		if ctx.Err() != nil {
			return
		}
		if event == nil || event.Pool == nil {
			continue
		}
		b.engine.HandleEvent(ctx, event)
		if b.cfg.MaxTrades > 0 && b.engine.Stats().Total >= b.cfg.MaxTrades {
			return
		}
	}
}

// Close shuts down the consumer and then the registered closers.
func (b *Bot) Close() {
	if err := b.consumer.Close(); err != nil {
		b.logger.Warn("failed to close feed consumer", zap.Error(err))
	}
	for _, close := range b.closers {
		if err := close(); err != nil {
			b.logger.Warn("shutdown step failed", zap.Error(err))
		}
	}
}
