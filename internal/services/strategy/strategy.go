// Package strategy decides when the bot trades and owns the positions that
// result. Every pool event flows through the engine: it gates the event,
// picks a direction and a slippage level, hands execution to the trader and
// books the outcome. Open positions are closed by block age, not by price.
package strategy

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/services/detector"
)

// dustThreshold is the smallest amount treated as a real balance. Reconciled
// outputs at or below it are considered unreliable and get replaced.
var dustThreshold = decimal.New(1, -6)

type tradersvc interface {
	ExecuteTrade(ctx context.Context, event *domain.PoolEvent, direction domain.Direction, amountIn decimal.Decimal, slippageBps int64) (*domain.TradeResult, error)
	HeldBalance(ctx context.Context, currency domain.CurrencyInfo) (decimal.Decimal, error)
}

type journalsvc interface {
	SaveTrade(result *domain.TradeResult) error
	SavePosition(position *domain.Position) error
}

// Config carries the trading knobs of the engine.
type Config struct {
	// Enabled gates all trading. A disabled engine still tracks statistics
	// requested by callers but never opens or closes anything.
	Enabled bool
	// Amount is the input amount of every opening trade, in human units of
	// the chosen input currency.
	Amount decimal.Decimal
	// DefaultSlippageBps is used when the event quotes no slippage levels
	// for the chosen direction.
	DefaultSlippageBps int64
	// FixedDirection, when set, overrides per-event direction detection.
	FixedDirection domain.Direction
	// CloseBlocks is how many blocks a position stays open before the
	// engine swaps it back.
	CloseBlocks uint64
	// MinTradeInterval is the minimum wall-clock gap between two opening
	// attempts.
	MinTradeInterval time.Duration
}

// Stats is a snapshot of the engine's trade counters.
type Stats struct {
	Total      int
	Successful int
	Failed     int
	Open       int
}

// PoolStrategy trades pool events: one open position at a time, direction
// chosen per event, closed a fixed number of blocks later.
type PoolStrategy struct {
	cfg           Config
	trader        tradersvc
	journal       journalsvc
	ledger        *Ledger
	l             *zap.Logger
	lastTradeTime time.Time
	totalTrades   int
	successful    int
	failed        int
}

// NewPoolStrategy creates a new PoolStrategy instance.
func NewPoolStrategy(l *zap.Logger, cfg Config, trader tradersvc, journal journalsvc) (*PoolStrategy, error) {
	if cfg.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, errors.Errorf("trade amount must be positive, got %s", cfg.Amount)
	}
	if cfg.DefaultSlippageBps <= 0 {
		return nil, errors.Errorf("default slippage must be positive, got %d bps", cfg.DefaultSlippageBps)
	}
	if cfg.CloseBlocks < 1 {
		return nil, errors.New("close blocks must be at least 1")
	}
	if cfg.MinTradeInterval < 0 {
		return nil, errors.Errorf("min trade interval must not be negative, got %s", cfg.MinTradeInterval)
	}
	if cfg.FixedDirection != domain.DirectionUnknown && !cfg.FixedDirection.Known() {
		return nil, errors.Errorf("fixed direction must be %s or %s, got %s", domain.DirectionAtoB, domain.DirectionBtoA, cfg.FixedDirection)
	}

	return &PoolStrategy{
		cfg:     cfg,
		trader:  trader,
		journal: journal,
		ledger:  NewLedger(),
		l:       l,
	}, nil
}

// HandleEvent runs one pool event through the engine. It returns nil when the
// event was gated away and the attempt's result otherwise. Execution problems
// are booked into the statistics rather than returned; the stream must keep
// flowing regardless of how individual trades end.
func (s *PoolStrategy) HandleEvent(ctx context.Context, event *domain.PoolEvent) *domain.TradeResult {
	if !s.shouldTrade(event) {
		return nil
	}

	direction := s.pickDirection(event)
	slippageBps := s.pickSlippage(event, direction)

	result, err := s.trader.ExecuteTrade(ctx, event, direction, s.cfg.Amount, slippageBps)

	// Every attempt counts against the interval gate, even one that died
	// before broadcast. Matching the counter semantics: pending attempts
	// are neither successes nor failures until their receipt shows up.
	s.totalTrades++
	s.lastTradeTime = time.Now()

	if err != nil {
		s.failed++
		s.l.Error("trade execution error",
			zap.Error(err),
			zap.String("pool", event.Pool.PoolID),
			zap.String("direction", direction.String()))
		result = domain.NoTrade(err.Error())
		s.saveTrade(result)
		return result
	}

	switch result.Status {
	case domain.TradeConfirmed:
		s.successful++
		s.openPosition(event, direction, result, slippageBps)
	case domain.TradeFailed, domain.TradeNone:
		s.failed++
		s.l.Warn("trade attempt did not confirm",
			zap.String("status", string(result.Status)),
			zap.String("reason", result.Reason),
			zap.String("pool", event.Pool.PoolID))
	case domain.TradePending:
		s.l.Warn("trade still pending after receipt wait, funds may have moved",
			zap.String("txHash", result.TxHash),
			zap.String("pool", event.Pool.PoolID))
	}

	s.saveTrade(result)
	return result
}

// shouldTrade applies the opening gates: engine enabled, no position still
// open, interval elapsed, and the event carries both a price table and live
// liquidity on both sides.
func (s *PoolStrategy) shouldTrade(event *domain.PoolEvent) bool {
	if !s.cfg.Enabled {
		return false
	}
	if event == nil || event.Pool == nil {
		return false
	}
	if s.ledger.OpenCount() > 0 {
		return false
	}
	if time.Since(s.lastTradeTime) < s.cfg.MinTradeInterval {
		return false
	}
	if event.Prices == nil {
		return false
	}
	if event.Liquidity == nil || !event.Liquidity.BothNonZero() {
		return false
	}
	return true
}

func (s *PoolStrategy) pickDirection(event *domain.PoolEvent) domain.Direction {
	if s.cfg.FixedDirection.Known() {
		return s.cfg.FixedDirection
	}
	direction := detector.Resolve(event)
	if !direction.Known() {
		s.l.Warn("direction detection inconclusive, defaulting to AtoB",
			zap.String("pool", event.Pool.PoolID))
		direction = domain.DirectionAtoB
	}
	return direction
}

// pickSlippage selects the slippage level to trade at: the median quoted
// level for the direction, or the configured default when the event quotes
// none.
func (s *PoolStrategy) pickSlippage(event *domain.PoolEvent, direction domain.Direction) int64 {
	slippageBps := s.cfg.DefaultSlippageBps
	if median, ok := event.Prices.MedianSlippage(direction); ok {
		slippageBps = median
	}
	if best, ok := event.Prices.BestSlippage(direction); ok {
		s.l.Debug("slippage levels quoted for direction",
			zap.String("pool", event.Pool.PoolID),
			zap.String("direction", direction.String()),
			zap.Int64("tightestBps", best),
			zap.Int64("chosenBps", slippageBps))
	}
	return slippageBps
}

// openPosition books a confirmed opening trade into the ledger. Trades whose
// receipt carried no block number cannot be aged and are left unbooked.
func (s *PoolStrategy) openPosition(event *domain.PoolEvent, direction domain.Direction, result *domain.TradeResult, slippageBps int64) {
	if result.BlockNumber == 0 {
		s.l.Warn("confirmed trade carries no block number, not tracking a position",
			zap.String("txHash", result.TxHash))
		return
	}

	amountOut := result.AmountOut
	if amountOut.LessThanOrEqual(dustThreshold) {
		if result.Price.IsPositive() {
			amountOut = result.AmountIn.Mul(result.Price)
		} else {
			amountOut = s.cfg.Amount
		}
		s.l.Warn("reconciled output unusable, repairing position size from the quote",
			zap.String("reported", result.AmountOut.String()),
			zap.String("repaired", amountOut.String()))
	}

	position, err := domain.NewPosition(event, direction, result.BlockNumber, amountOut, slippageBps)
	if err != nil {
		s.l.Error("confirmed trade could not be booked as a position", zap.Error(err))
		return
	}

	s.ledger.Add(position)
	s.savePosition(position)
	s.l.Info("position opened",
		zap.String("pool", position.PoolID),
		zap.String("direction", position.Direction.String()),
		zap.Uint64("openBlock", position.OpenBlock),
		zap.String("amountOut", position.AmountOut.String()),
		zap.Uint64("closeAfterBlocks", s.cfg.CloseBlocks))
}

// CheckAndClose walks the ledger at the given block height and closes every
// position that has aged past the configured block count. One position's
// close never blocks another's.
func (s *PoolStrategy) CheckAndClose(ctx context.Context, currentBlock uint64) {
	if !s.cfg.Enabled || currentBlock == 0 {
		return
	}
	for _, position := range s.ledger.Due(currentBlock, s.cfg.CloseBlocks) {
		s.closePosition(ctx, position, currentBlock)
	}
	if removed := s.ledger.Sweep(); removed > 0 {
		s.l.Debug("cleared closed positions from the ledger", zap.Int("count", removed))
	}
}

func (s *PoolStrategy) closePosition(ctx context.Context, position *domain.Position, currentBlock uint64) {
	held := position.HeldCurrency()

	live, err := s.trader.HeldBalance(ctx, held)
	liveOK := err == nil
	if !liveOK {
		s.l.Warn("live balance query failed, falling back to the recorded position size",
			zap.Error(err),
			zap.String("currency", held.Symbol))
	}

	amount, ok := resolveCloseAmount(position.AmountOut, live, liveOK)
	if !ok {
		position.Status = domain.PositionCloseFailed
		s.savePosition(position)
		s.l.Warn("no balance available to close position",
			zap.String("pool", position.PoolID),
			zap.String("recorded", position.AmountOut.String()),
			zap.String("currency", held.Symbol))
		return
	}

	s.l.Info("closing position",
		zap.String("pool", position.PoolID),
		zap.String("direction", position.Opposite.String()),
		zap.String("amount", amount.String()),
		zap.Uint64("openBlock", position.OpenBlock),
		zap.Uint64("currentBlock", currentBlock))

	result, err := s.trader.ExecuteTrade(ctx, position.Event, position.Opposite, amount, position.SlippageBps)
	if err != nil {
		position.Status = domain.PositionCloseError
		s.savePosition(position)
		s.l.Error("close attempt errored",
			zap.Error(err),
			zap.String("pool", position.PoolID))
		return
	}

	s.saveTrade(result)

	switch result.Status {
	case domain.TradeConfirmed:
		position.Status = domain.PositionClosed
		position.CloseTxHash = result.TxHash
		position.CloseBlock = result.BlockNumber
		s.savePosition(position)
		s.l.Info("position closed",
			zap.String("pool", position.PoolID),
			zap.String("txHash", position.CloseTxHash),
			zap.Uint64("closeBlock", position.CloseBlock))
	case domain.TradePending:
		// Receipt still outstanding. The position stays open and the next
		// block triggers another attempt.
		s.l.Warn("close transaction pending, position stays open",
			zap.String("pool", position.PoolID),
			zap.String("txHash", result.TxHash))
	default:
		position.Status = domain.PositionCloseFailed
		s.savePosition(position)
		s.l.Warn("close attempt failed",
			zap.String("pool", position.PoolID),
			zap.String("status", string(result.Status)),
			zap.String("reason", result.Reason))
	}
}

// resolveCloseAmount picks the amount a close sells. The recorded size may be
// a reconciliation estimate, so the live on-chain balance replaces it when it
// is dust and caps it otherwise. The second return is false when nothing
// sellable remains.
func resolveCloseAmount(recorded, live decimal.Decimal, liveOK bool) (decimal.Decimal, bool) {
	amount := recorded
	if recorded.LessThanOrEqual(dustThreshold) {
		if !liveOK || live.LessThanOrEqual(decimal.Zero) {
			return decimal.Zero, false
		}
		amount = live
	} else if liveOK && live.LessThan(amount) {
		amount = live
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, false
	}
	return amount, true
}

// Stats returns a snapshot of the engine's counters. Open counts only
// positions still waiting for their close; stuck closes are visible through
// Positions.
func (s *PoolStrategy) Stats() Stats {
	return Stats{
		Total:      s.totalTrades,
		Successful: s.successful,
		Failed:     s.failed,
		Open:       s.ledger.OpenCount(),
	}
}

// LogStats writes the current counters to the log.
func (s *PoolStrategy) LogStats() {
	stats := s.Stats()
	successRate := 0.0
	if stats.Total > 0 {
		successRate = float64(stats.Successful) / float64(stats.Total) * 100
	}
	s.l.Info("trading statistics",
		zap.Int("totalTrades", stats.Total),
		zap.Int("successfulTrades", stats.Successful),
		zap.Int("failedTrades", stats.Failed),
		zap.Float64("successRatePct", successRate),
		zap.Int("openPositions", stats.Open))
}

// Positions exposes the tracked positions for reporting.
func (s *PoolStrategy) Positions() []*domain.Position {
	return s.ledger.All()
}

func (s *PoolStrategy) saveTrade(result *domain.TradeResult) {
	if err := s.journal.SaveTrade(result); err != nil {
		s.l.Warn("failed to journal trade result", zap.Error(err))
	}
}

func (s *PoolStrategy) savePosition(position *domain.Position) {
	if err := s.journal.SavePosition(position); err != nil {
		s.l.Warn("failed to journal position", zap.Error(err))
	}
}
