package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func setSecrets(t *testing.T) {
	t.Helper()
	t.Setenv("PRIVATE_KEY", "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	t.Setenv("KAFKA_USERNAME", "user")
	t.Setenv("KAFKA_PASSWORD", "pass")
	t.Setenv("RPC_URL", "")
}

func TestLoadAppliesDefaults(t *testing.T) {
	setSecrets(t)
	path := writeConfig(t, `
rpc_url: https://rpc.example.org
enabled: true
trade_amount: "0.0001"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultBrokers, cfg.Brokers)
	assert.Equal(t, DefaultTopic, cfg.Topic)
	assert.True(t, cfg.Enabled)
	assert.True(t, cfg.TradeAmount.Equal(decimal.RequireFromString("0.0001")))
	assert.Equal(t, int64(DefaultSlippageBps), cfg.SlippageBps)
	assert.Equal(t, domain.DirectionUnknown, cfg.Direction)
	assert.Equal(t, uint64(DefaultCloseBlocks), cfg.CloseBlocks)
	assert.Equal(t, DefaultMinTradeGap, cfg.MinTradeInterval)
	assert.Equal(t, 0, cfg.MaxTrades)
	assert.True(t, cfg.GasPriceGwei.IsZero())
	assert.True(t, cfg.MaxGasPriceGwei.Equal(decimal.NewFromInt(DefaultMaxGasGwei)))
	assert.Equal(t, common.HexToAddress(DefaultRouterV2), cfg.RouterV2)
	assert.Equal(t, common.HexToAddress(DefaultRouterV3), cfg.RouterV3)
	assert.Equal(t, common.HexToAddress(DefaultWrappedNative), cfg.WrappedNative)
	assert.Equal(t, DefaultReceiptTimeout, cfg.ReceiptTimeout)
	assert.Equal(t, DefaultPollTimeout, cfg.PollTimeout)
	assert.Equal(t, DefaultStatsInterval, cfg.StatsInterval)
	assert.Equal(t, "user", cfg.KafkaUsername)
	assert.Equal(t, "pass", cfg.KafkaPassword)
}

func TestLoadParsesExplicitValues(t *testing.T) {
	setSecrets(t)
	path := writeConfig(t, `
brokers: ["broker1:9092", "broker2:9092"]
topic: matic.dexpools.proto
rpc_url: https://rpc.example.org
enabled: false
trade_amount: "1.5"
slippage_bps: "75"
direction: BtoA
close_blocks: "2"
min_trade_interval: 10s
max_trades: "3"
gas_price_gwei: "12.5"
max_gas_price_gwei: "150"
stats_interval: "20"
journal_dir: /tmp/wal
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.Brokers)
	assert.Equal(t, "matic.dexpools.proto", cfg.Topic)
	assert.False(t, cfg.Enabled)
	assert.Equal(t, int64(75), cfg.SlippageBps)
	assert.Equal(t, domain.DirectionBtoA, cfg.Direction)
	assert.Equal(t, uint64(2), cfg.CloseBlocks)
	assert.Equal(t, 10*time.Second, cfg.MinTradeInterval)
	assert.Equal(t, 3, cfg.MaxTrades)
	assert.True(t, cfg.GasPriceGwei.Equal(decimal.RequireFromString("12.5")))
	assert.True(t, cfg.MaxGasPriceGwei.Equal(decimal.NewFromInt(150)))
	assert.Equal(t, 20, cfg.StatsInterval)
	assert.Equal(t, "/tmp/wal", cfg.JournalDir)
}

func TestLoadEnvOverridesRPCURL(t *testing.T) {
	setSecrets(t)
	t.Setenv("RPC_URL", "https://override.example.org")
	path := writeConfig(t, `
rpc_url: https://file.example.org
trade_amount: "1"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://override.example.org", cfg.RPCURL)
}

func TestLoadRejectsBadValues(t *testing.T) {
	setSecrets(t)

	cases := map[string]string{
		"trade amount missing":  "rpc_url: x\n",
		"trade amount negative": "rpc_url: x\ntrade_amount: \"-1\"\n",
		"bad slippage":          "rpc_url: x\ntrade_amount: \"1\"\nslippage_bps: \"abc\"\n",
		"zero close blocks":     "rpc_url: x\ntrade_amount: \"1\"\nclose_blocks: \"0\"\n",
		"bad direction":         "rpc_url: x\ntrade_amount: \"1\"\ndirection: sideways\n",
		"bad router":            "rpc_url: x\ntrade_amount: \"1\"\nrouter_v2: nothex\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	setSecrets(t)
	t.Setenv("PRIVATE_KEY", "")

	path := writeConfig(t, "rpc_url: x\ntrade_amount: \"1\"\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRIVATE_KEY")
}
