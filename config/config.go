// Package config loads the bot configuration from a YAML file with
// defaults for everything except the feed credentials and the wallet key,
// which come from the environment only and are never written to disk.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

// Defaults for everything the operator does not set. Router and token
// addresses are the canonical Ethereum mainnet deployments.
const (
	DefaultTopic          = "eth.dexpools.proto"
	DefaultGroupPrefix    = "pool-trader"
	DefaultSlippageBps    = 50
	DefaultCloseBlocks    = 3
	DefaultMaxGasGwei     = 200
	DefaultStatsInterval  = 100
	DefaultJournalDir     = "journal"
	DefaultMinTradeGap    = 5 * time.Second
	DefaultReceiptTimeout = 2 * time.Minute
	DefaultPollTimeout    = time.Second
	DefaultRouterV2       = "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D"
	DefaultRouterV3       = "0xE592427A0AEce92De3Edee1F18E0157C05861564"
	DefaultWrappedNative  = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"
)

// DefaultBrokers are the feed's Kafka endpoints.
var DefaultBrokers = []string{
	"rpk0.bitquery.io:9092",
	"rpk1.bitquery.io:9092",
	"rpk2.bitquery.io:9092",
}

// Config is the validated runtime configuration.
type Config struct {
	Brokers     []string
	Topic       string
	GroupPrefix string

	RPCURL     string
	PrivateKey string

	KafkaUsername string
	KafkaPassword string

	Enabled          bool
	TradeAmount      decimal.Decimal
	SlippageBps      int64
	Direction        domain.Direction
	CloseBlocks      uint64
	MinTradeInterval time.Duration
	MaxTrades        int

	GasPriceGwei    decimal.Decimal
	MaxGasPriceGwei decimal.Decimal

	RouterV2      common.Address
	RouterV3      common.Address
	WrappedNative common.Address

	ReceiptTimeout time.Duration
	PollTimeout    time.Duration
	StatsInterval  int
	JournalDir     string
}

// ConfigTmp mirrors the YAML layout. Money-like values are strings so the
// file can carry exact decimals; they are parsed into typed fields in Load.
type ConfigTmp struct {
	Brokers     []string `yaml:"brokers,omitempty"`
	Topic       string   `yaml:"topic,omitempty"`
	GroupPrefix string   `yaml:"group_prefix,omitempty"`

	RPCURL string `yaml:"rpc_url,omitempty"`

	Enabled          bool          `yaml:"enabled"`
	TradeAmount      string        `yaml:"trade_amount"`
	SlippageBpsStr   string        `yaml:"slippage_bps,omitempty"`
	Direction        string        `yaml:"direction,omitempty"`
	CloseBlocksStr   string        `yaml:"close_blocks,omitempty"`
	MinTradeInterval time.Duration `yaml:"min_trade_interval,omitempty"`
	MaxTradesStr     string        `yaml:"max_trades,omitempty"`

	GasPriceGwei    string `yaml:"gas_price_gwei,omitempty"`
	MaxGasPriceGwei string `yaml:"max_gas_price_gwei,omitempty"`

	RouterV2      string `yaml:"router_v2,omitempty"`
	RouterV3      string `yaml:"router_v3,omitempty"`
	WrappedNative string `yaml:"wrapped_native,omitempty"`

	ReceiptTimeout   time.Duration `yaml:"receipt_timeout,omitempty"`
	PollTimeout      time.Duration `yaml:"poll_timeout,omitempty"`
	StatsIntervalStr string        `yaml:"stats_interval,omitempty"`
	JournalDir       string        `yaml:"journal_dir,omitempty"`
}

// Get parses flags, loads the YAML config and merges environment secrets.
// The second return is true when the operator asked for the setup wizard;
// no config is loaded in that case.
func Get() (*Config, bool, error) {
	path := flag.String("config", "config.yaml", "path to yaml config")
	setup := flag.Bool("setup", false, "run the interactive setup wizard")
	flag.Parse()

	if *setup {
		return nil, true, nil
	}

	cfg, err := Load(*path)
	if err != nil {
		return nil, false, err
	}
	return cfg, false, nil
}

// Load reads and validates the config file at path.
func Load(path string) (*Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	return fromTmp(tmp)
}

func fromTmp(tmp ConfigTmp) (*Config, error) {
	cfg := &Config{
		Brokers:          tmp.Brokers,
		Topic:            tmp.Topic,
		GroupPrefix:      tmp.GroupPrefix,
		RPCURL:           tmp.RPCURL,
		Enabled:          tmp.Enabled,
		MinTradeInterval: tmp.MinTradeInterval,
		ReceiptTimeout:   tmp.ReceiptTimeout,
		PollTimeout:      tmp.PollTimeout,
		JournalDir:       tmp.JournalDir,
	}

	if len(cfg.Brokers) == 0 {
		cfg.Brokers = DefaultBrokers
	}
	if cfg.Topic == "" {
		cfg.Topic = DefaultTopic
	}
	if cfg.GroupPrefix == "" {
		cfg.GroupPrefix = DefaultGroupPrefix
	}
	if cfg.MinTradeInterval <= 0 {
		cfg.MinTradeInterval = DefaultMinTradeGap
	}
	if cfg.ReceiptTimeout <= 0 {
		cfg.ReceiptTimeout = DefaultReceiptTimeout
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.JournalDir == "" {
		cfg.JournalDir = DefaultJournalDir
	}

	var err error
	cfg.TradeAmount, err = decimal.NewFromString(tmp.TradeAmount)
	if err != nil {
		return nil, fmt.Errorf("incorrect 'trade_amount' param in yaml config: %w", err)
	}
	if cfg.TradeAmount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("'trade_amount' must be positive, got %s", cfg.TradeAmount)
	}

	cfg.SlippageBps, err = parseInt64(tmp.SlippageBpsStr, "slippage_bps", DefaultSlippageBps)
	if err != nil {
		return nil, err
	}
	if cfg.SlippageBps <= 0 {
		return nil, fmt.Errorf("'slippage_bps' must be positive, got %d", cfg.SlippageBps)
	}

	cfg.Direction, err = domain.ParseDirection(tmp.Direction)
	if err != nil {
		return nil, fmt.Errorf("incorrect 'direction' param in yaml config: %w", err)
	}

	closeBlocks, err := parseInt64(tmp.CloseBlocksStr, "close_blocks", DefaultCloseBlocks)
	if err != nil {
		return nil, err
	}
	if closeBlocks < 1 {
		return nil, fmt.Errorf("'close_blocks' must be at least 1, got %d", closeBlocks)
	}
	cfg.CloseBlocks = uint64(closeBlocks)

	maxTrades, err := parseInt64(tmp.MaxTradesStr, "max_trades", 0)
	if err != nil {
		return nil, err
	}
	if maxTrades < 0 {
		return nil, fmt.Errorf("'max_trades' must not be negative, got %d", maxTrades)
	}
	cfg.MaxTrades = int(maxTrades)

	cfg.GasPriceGwei, err = parseDecimal(tmp.GasPriceGwei, "gas_price_gwei", decimal.Zero)
	if err != nil {
		return nil, err
	}
	cfg.MaxGasPriceGwei, err = parseDecimal(tmp.MaxGasPriceGwei, "max_gas_price_gwei", decimal.NewFromInt(DefaultMaxGasGwei))
	if err != nil {
		return nil, err
	}
	if !cfg.MaxGasPriceGwei.IsPositive() {
		return nil, fmt.Errorf("'max_gas_price_gwei' must be positive, got %s", cfg.MaxGasPriceGwei)
	}

	cfg.RouterV2, err = parseAddress(tmp.RouterV2, "router_v2", DefaultRouterV2)
	if err != nil {
		return nil, err
	}
	cfg.RouterV3, err = parseAddress(tmp.RouterV3, "router_v3", DefaultRouterV3)
	if err != nil {
		return nil, err
	}
	cfg.WrappedNative, err = parseAddress(tmp.WrappedNative, "wrapped_native", DefaultWrappedNative)
	if err != nil {
		return nil, err
	}

	statsInterval, err := parseInt64(tmp.StatsIntervalStr, "stats_interval", DefaultStatsInterval)
	if err != nil {
		return nil, err
	}
	if statsInterval < 1 {
		return nil, fmt.Errorf("'stats_interval' must be at least 1, got %d", statsInterval)
	}
	cfg.StatsInterval = int(statsInterval)

	cfg.mergeEnv()

	if cfg.RPCURL == "" {
		return nil, fmt.Errorf("no RPC endpoint: set 'rpc_url' in the config or the RPC_URL environment variable")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("PRIVATE_KEY environment variable must be set")
	}
	if cfg.KafkaUsername == "" || cfg.KafkaPassword == "" {
		return nil, fmt.Errorf("KAFKA_USERNAME and KAFKA_PASSWORD environment variables must be set")
	}

	return cfg, nil
}

// mergeEnv pulls the secrets from the environment. RPC_URL overrides the
// file so one config can be pointed at different endpoints.
func (c *Config) mergeEnv() {
	if url := strings.TrimSpace(os.Getenv("RPC_URL")); url != "" {
		c.RPCURL = url
	}
	c.PrivateKey = strings.TrimSpace(os.Getenv("PRIVATE_KEY"))
	c.KafkaUsername = strings.TrimSpace(os.Getenv("KAFKA_USERNAME"))
	c.KafkaPassword = strings.TrimSpace(os.Getenv("KAFKA_PASSWORD"))
}

func parseInt64(s, name string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("incorrect '%s' param in yaml config (must be an integer): %w", name, err)
	}
	return v, nil
}

func parseDecimal(s, name string, def decimal.Decimal) (decimal.Decimal, error) {
	if s == "" {
		return def, nil
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("incorrect '%s' param in yaml config (must be a decimal): %w", name, err)
	}
	return v, nil
}

func parseAddress(s, name, def string) (common.Address, error) {
	if s == "" {
		s = def
	}
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("incorrect '%s' param in yaml config: %s is not a hex address", name, s)
	}
	return common.HexToAddress(s), nil
}
