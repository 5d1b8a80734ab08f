// Package setup is the interactive configuration wizard behind --setup. It
// writes config.yaml; secrets are never written, the wizard only prints
// which environment variables to export.
package setup

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/config"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

func banner(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("POOL TRADER CONFIG WIZARD"))
	if step != "" {
		fmt.Println(stepStyle.Render(step))
	}
}

// RunWizard walks the operator through a new config.yaml.
func RunWizard() error {
	var (
		brokersStr      = strings.Join(config.DefaultBrokers, ",")
		topic           = config.DefaultTopic
		rpcURL          string
		amountStr       = "0.0001"
		slippageStr     = strconv.Itoa(config.DefaultSlippageBps)
		direction       string
		closeBlocksStr  = strconv.Itoa(config.DefaultCloseBlocks)
		minIntervalStr  = config.DefaultMinTradeGap.String()
		maxTradesStr    = "0"
		gasGweiStr      string
		maxGasGweiStr   = strconv.Itoa(config.DefaultMaxGasGwei)
		enabled         bool
		confirm         bool
	)

	banner("")
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Let's wire your wallet to the pool feed.\n"))

	banner("STEP 1: FEED")
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Kafka Brokers").
				Description("Comma-separated host:port list").
				Value(&brokersStr).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("at least one broker is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Topic").
				Value(&topic).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("topic cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	banner("STEP 2: CHAIN")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Ethereum RPC URL").
				Description("Can be left empty if you export RPC_URL instead").
				Value(&rpcURL),
		),
	).Run()
	if err != nil {
		return err
	}

	banner("STEP 3: TRADING")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Trade Amount").
				Description("Input amount per opening trade, in human units (e.g. 0.0001)").
				Value(&amountStr).
				Validate(validatePositiveDecimal),
			huh.NewInput().
				Title("Default Slippage (bps)").
				Description("Used when the feed quotes no slippage levels").
				Value(&slippageStr).
				Validate(validatePositiveInt),
			huh.NewSelect[string]().
				Title("Direction").
				Options(
					huh.NewOption("Dynamic (pick per event by liquidity)", ""),
					huh.NewOption("Always AtoB", "AtoB"),
					huh.NewOption("Always BtoA", "BtoA"),
				).
				Value(&direction),
			huh.NewInput().
				Title("Close After (blocks)").
				Description("Blocks to wait before swapping a position back (2 or 3)").
				Value(&closeBlocksStr).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Min Trade Interval").
				Description("Duration string (e.g. 5s)").
				Value(&minIntervalStr).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewInput().
				Title("Max Trades").
				Description("Stop after this many attempts; 0 for unlimited").
				Value(&maxTradesStr),
		),
	).Run()
	if err != nil {
		return err
	}

	banner("STEP 4: GAS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Fixed Gas Price (gwei)").
				Description("Leave empty to follow the feed and the network").
				Value(&gasGweiStr),
			huh.NewInput().
				Title("Max Gas Price (gwei)").
				Description("Hard cap on feed- and network-supplied prices").
				Value(&maxGasGweiStr).
				Validate(validatePositiveDecimal),
		),
	).Run()
	if err != nil {
		return err
	}

	banner("STEP 5: SAFETY")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Enable live trading?").
				Description("When off, the bot watches the feed but never submits a transaction").
				Affirmative("Enable").
				Negative("Watch only").
				Value(&enabled),
		),
	).Run()
	if err != nil {
		return err
	}

	banner("FINAL CONFIRMATION")
	summary := fmt.Sprintf(
		"Topic: %s\nAmount: %s\nSlippage: %s bps\nDirection: %s\nClose after: %s blocks\nTrading: %s\n",
		topic, amountStr, slippageStr, directionLabel(direction), closeBlocksStr, enabledLabel(enabled),
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	minInterval, _ := time.ParseDuration(minIntervalStr)
	cfgTmp := config.ConfigTmp{
		Brokers:          splitBrokers(brokersStr),
		Topic:            topic,
		RPCURL:           rpcURL,
		Enabled:          enabled,
		TradeAmount:      amountStr,
		SlippageBpsStr:   slippageStr,
		Direction:        direction,
		CloseBlocksStr:   closeBlocksStr,
		MinTradeInterval: minInterval,
		MaxTradesStr:     maxTradesStr,
		GasPriceGwei:     gasGweiStr,
		MaxGasPriceGwei:  maxGasGweiStr,
	}

	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}

	filename := "config.yaml"
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(
		fmt.Sprintf("\nConfiguration saved to %s", filename)))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render(
		"\nBefore starting, export the secrets:\n" +
			"  export PRIVATE_KEY=<wallet key hex>\n" +
			"  export KAFKA_USERNAME=<feed username>\n" +
			"  export KAFKA_PASSWORD=<feed password>\n" +
			"  export RPC_URL=<rpc endpoint>   # unless set in the config"))
	return nil
}

func splitBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func directionLabel(d string) string {
	if d == "" {
		return "dynamic"
	}
	return d
}

func enabledLabel(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "watch only"
}

func validatePositiveDecimal(s string) error {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be positive")
	}
	return nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("must be an integer")
	}
	if n < 1 {
		return fmt.Errorf("must be at least 1")
	}
	return nil
}
