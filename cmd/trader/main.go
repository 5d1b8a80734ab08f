// Command trader runs the pool-event trading bot: it consumes the DEX pool
// feed, opens swaps on qualifying events and closes every position a fixed
// number of blocks later.
//
// Usage:
//
//	trader --config config.yaml
//	trader --setup
//
// Required environment variables:
//
//	PRIVATE_KEY                       wallet signing key (hex)
//	KAFKA_USERNAME, KAFKA_PASSWORD    feed credentials
//	RPC_URL                           optional, overrides rpc_url in the config
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/config"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/setup"
)

func main() {
	cfg, runSetup, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	if runSetup {
		if err := setup.RunWizard(); err != nil {
			log.Fatal(err)
		}
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	bot, err := internal.BuildBot(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build bot", zap.Error(err))
	}
	defer bot.Close()

	if !cfg.Enabled {
		logger.Warn("trading is disabled in the config; the bot will watch the feed but never trade")
	}

	if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Fatal("trading loop failed", zap.Error(err))
	}
}
