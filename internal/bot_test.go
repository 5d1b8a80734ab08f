package internal

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/services/strategy"
)

type polled struct {
	msg *domain.BlockMessage
	err error
}

// fakeConsumer serves a script of poll results and cancels the run context
// once the script runs out, so Run terminates deterministically.
type fakeConsumer struct {
	script []polled
	cancel context.CancelFunc
	acks   int
	closed bool
}

func (f *fakeConsumer) Poll(ctx context.Context) (*domain.BlockMessage, error) {
	if len(f.script) == 0 {
		f.cancel()
		return nil, ctx.Err()
	}
	next := f.script[0]
	f.script = f.script[1:]
	return next.msg, next.err
}

func (f *fakeConsumer) Ack(context.Context) error {
	f.acks++
	return nil
}

func (f *fakeConsumer) Close() error {
	f.closed = true
	return nil
}

type fakeEngine struct {
	handled     []string
	closeChecks []uint64
	statsCalls  int
	total       int
}

func (f *fakeEngine) HandleEvent(_ context.Context, event *domain.PoolEvent) *domain.TradeResult {
	f.handled = append(f.handled, event.Pool.PoolID)
	f.total++
	return nil
}

func (f *fakeEngine) CheckAndClose(_ context.Context, currentBlock uint64) {
	f.closeChecks = append(f.closeChecks, currentBlock)
}

func (f *fakeEngine) Stats() strategy.Stats {
	return strategy.Stats{Total: f.total}
}

func (f *fakeEngine) LogStats() {
	f.statsCalls++
}

type fakeChain struct {
	block uint64
	err   error
}

func (f *fakeChain) BlockNumber(context.Context) (uint64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.block++
	return f.block, nil
}

func blockMsg(poolIDs ...string) *domain.BlockMessage {
	msg := &domain.BlockMessage{}
	for _, id := range poolIDs {
		msg.Events = append(msg.Events, &domain.PoolEvent{
			Pool: &domain.Pool{PoolID: id},
		})
	}
	return msg
}

func newTestBot(t *testing.T, consumer *fakeConsumer, engine *fakeEngine, chain *fakeChain, cfg BotConfig) *Bot {
	t.Helper()
	bot, err := NewBot(consumer, engine, chain, cfg, zap.NewNop())
	require.NoError(t, err)
	return bot
}

func TestNewBotValidation(t *testing.T) {
	_, err := NewBot(nil, &fakeEngine{}, &fakeChain{}, BotConfig{StatsInterval: 1}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewBot(&fakeConsumer{}, &fakeEngine{}, &fakeChain{}, BotConfig{StatsInterval: 0}, zap.NewNop())
	assert.Error(t, err)
}

func TestRunHandsEventsToEngineAndAcks(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &fakeConsumer{
		cancel: cancel,
		script: []polled{
			{msg: blockMsg("pool-1", "pool-2")},
			{msg: nil}, // empty poll tick
			{msg: blockMsg("pool-3")},
		},
	}
	engine := &fakeEngine{}
	bot := newTestBot(t, consumer, engine, &fakeChain{}, BotConfig{StatsInterval: 100})

	err := bot.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{"pool-1", "pool-2", "pool-3"}, engine.handled)
	assert.Equal(t, 2, consumer.acks)
}

func TestRunChecksClosesOnEveryTick(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &fakeConsumer{
		cancel: cancel,
		script: []polled{
			{msg: nil},
			{msg: nil},
			{msg: blockMsg("pool-1")},
		},
	}
	engine := &fakeEngine{}
	bot := newTestBot(t, consumer, engine, &fakeChain{}, BotConfig{StatsInterval: 100})

	_ = bot.Run(ctx)

	// One close check per loop iteration, with or without a message, at
	// successive block heights.
	assert.Equal(t, []uint64{1, 2, 3, 4}, engine.closeChecks)
}

func TestRunSurvivesPollErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &fakeConsumer{
		cancel: cancel,
		script: []polled{
			{err: errors.New("broker unreachable")},
			{msg: blockMsg("pool-1")},
		},
	}
	engine := &fakeEngine{}
	bot := newTestBot(t, consumer, engine, &fakeChain{}, BotConfig{StatsInterval: 100})

	_ = bot.Run(ctx)

	assert.Equal(t, []string{"pool-1"}, engine.handled)
}

func TestRunSkipsCloseCheckWhenHeightUnavailable(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &fakeConsumer{
		cancel: cancel,
		script: []polled{{msg: blockMsg("pool-1")}},
	}
	engine := &fakeEngine{}
	bot := newTestBot(t, consumer, engine, &fakeChain{err: errors.New("rpc down")}, BotConfig{StatsInterval: 100})

	_ = bot.Run(ctx)

	assert.Empty(t, engine.closeChecks)
	assert.Equal(t, []string{"pool-1"}, engine.handled)
}

func TestRunStopsAtMaxTrades(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	consumer := &fakeConsumer{
		cancel: cancel,
		script: []polled{
			{msg: blockMsg("pool-1", "pool-2", "pool-3")},
			{msg: blockMsg("pool-4")},
		},
	}
	engine := &fakeEngine{}
	bot := newTestBot(t, consumer, engine, &fakeChain{}, BotConfig{StatsInterval: 100, MaxTrades: 2})

	err := bot.Run(ctx)
	require.NoError(t, err)

	// The cap is hit mid-message: the third event of the first message is
	// never handled and the second message is never polled.
	assert.Equal(t, []string{"pool-1", "pool-2"}, engine.handled)
	assert.Len(t, consumer.script, 1)
}

func TestRunReportsStatsAtInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	consumer := &fakeConsumer{
		cancel: cancel,
		script: []polled{
			{msg: blockMsg("a")},
			{msg: blockMsg("b")},
			{msg: blockMsg("c")},
		},
	}
	engine := &fakeEngine{}
	bot := newTestBot(t, consumer, engine, &fakeChain{}, BotConfig{StatsInterval: 2})

	_ = bot.Run(ctx)

	// One periodic report after the second message plus the final report on
	// shutdown.
	assert.Equal(t, 2, engine.statsCalls)
}

func TestCloseRunsClosersAfterConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	consumer := &fakeConsumer{cancel: func() {}}
	var closerRan bool
	bot, err := NewBot(consumer, &fakeEngine{}, &fakeChain{}, BotConfig{StatsInterval: 1}, zap.NewNop(),
		func() error { closerRan = true; return nil })
	require.NoError(t, err)

	_ = bot.Run(ctx)
	bot.Close()

	assert.True(t, consumer.closed)
	assert.True(t, closerRan)
}
