// Package gas resolves the gas price for each transaction attempt from a
// three-tier policy: the feed-supplied price capped at a configured maximum,
// an operator-fixed price taken as-is, and finally the network suggestion
// capped at the maximum with a hard fallback when the query fails.
package gas

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultMaxGwei caps feed- and network-supplied prices when the
	// operator does not configure a limit.
	DefaultMaxGwei = 200

	fallbackGwei = 30
)

type suggester interface {
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
}

// Manager resolves gas prices. It holds no per-call state: every Price call
// re-evaluates the policy from scratch.
type Manager struct {
	chain    suggester
	fixedWei *big.Int
	maxWei   *big.Int
	logger   *zap.Logger
}

// NewManager builds a Manager. A non-positive fixedGwei disables the fixed
// tier, a non-positive maxGwei falls back to DefaultMaxGwei.
func NewManager(chain suggester, fixedGwei, maxGwei decimal.Decimal, logger *zap.Logger) *Manager {
	if !maxGwei.IsPositive() {
		maxGwei = decimal.NewFromInt(DefaultMaxGwei)
	}

	m := &Manager{
		chain:  chain,
		maxWei: GweiToWei(maxGwei),
		logger: logger,
	}
	if fixedGwei.IsPositive() {
		m.fixedWei = GweiToWei(fixedGwei)
	}

	return m
}

// Price resolves the gas price in wei for one transaction attempt. feed is
// the event-supplied price, nil when the feed had none. Price never fails:
// a network query error degrades to a fixed fallback instead.
func (m *Manager) Price(ctx context.Context, feed *big.Int) *big.Int {
	if feed != nil {
		if feed.Cmp(m.maxWei) > 0 {
			m.logger.Warn("feed gas price above cap",
				zap.String("feed_gwei", gweiString(feed)),
				zap.String("cap_gwei", gweiString(m.maxWei)))
			return new(big.Int).Set(m.maxWei)
		}
		m.logger.Debug("using feed gas price", zap.String("gwei", gweiString(feed)))
		return new(big.Int).Set(feed)
	}

	if m.fixedWei != nil {
		m.logger.Debug("using fixed gas price", zap.String("gwei", gweiString(m.fixedWei)))
		return new(big.Int).Set(m.fixedWei)
	}

	price, err := m.chain.SuggestGasPrice(ctx)
	if err != nil {
		m.logger.Warn("gas price query failed, using fallback",
			zap.Int("fallback_gwei", fallbackGwei),
			zap.Error(err))
		return GweiToWei(decimal.NewFromInt(fallbackGwei))
	}
	if price.Cmp(m.maxWei) > 0 {
		m.logger.Warn("network gas price above cap",
			zap.String("network_gwei", gweiString(price)),
			zap.String("cap_gwei", gweiString(m.maxWei)))
		return new(big.Int).Set(m.maxWei)
	}
	m.logger.Debug("using network gas price", zap.String("gwei", gweiString(price)))

	return price
}

// GweiToWei converts a gwei-denominated amount to wei, truncating sub-wei
// precision.
func GweiToWei(gwei decimal.Decimal) *big.Int {
	return gwei.Shift(9).BigInt()
}

func gweiString(wei *big.Int) string {
	return decimal.NewFromBigInt(wei, -9).String()
}
