package stream

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/divyasshree-BQ/realtime-slippage-pool-trader/internal/domain"
)

// The feed encodes numeric fields as strings, mixing 0x-prefixed hex and
// plain decimal. Normalization happens exactly once, here, per a fixed
// dictionary of field names; downstream code never re-interprets strings as
// numbers. Both name sets are part of the feed contract and must stay as-is.
var (
	// hexFirstFields are coerced trying 0x-hex before decimal.
	hexFirstFields = map[string]bool{
		"Number": true, "BaseFee": true, "ParentNumber": true,
		"PreBalance": true, "PostBalance": true,
		"MaxAmountIn": true, "MaxAmountOut": true,
		"MinAmountOut": true, "MinAmountIn": true,
		"AmountCurrencyA": true, "AmountCurrencyB": true,
		"GasPrice": true, "GasFeeCap": true, "GasTipCap": true,
	}

	// decimalFirstFields are coerced trying decimal before 0x-hex. These can
	// be fractional.
	decimalFirstFields = map[string]bool{
		"SlippageBasisPoints": true, "Price": true,
		"AtoBPrice": true, "BtoAPrice": true,
	}
)

// feedValue holds a field the feed emits as either a JSON string or a bare
// JSON number. The raw literal is kept; coercion happens in the normalize
// helpers.
type feedValue string

func (v *feedValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = feedValue(s)
		return nil
	}
	*v = feedValue(data)
	return nil
}

type blockDTO struct {
	Header     *headerDTO `json:"Header"`
	PoolEvents []eventDTO `json:"PoolEvents"`
}

type headerDTO struct {
	Number       feedValue `json:"Number"`
	ParentNumber feedValue `json:"ParentNumber"`
	BaseFee      feedValue `json:"BaseFee"`
}

type currencyDTO struct {
	SmartContract string    `json:"SmartContract"`
	Symbol        string    `json:"Symbol"`
	Decimals      feedValue `json:"Decimals"`
}

type poolDTO struct {
	PoolID    string      `json:"PoolId"`
	CurrencyA currencyDTO `json:"CurrencyA"`
	CurrencyB currencyDTO `json:"CurrencyB"`
}

type liquidityDTO struct {
	AmountCurrencyA feedValue `json:"AmountCurrencyA"`
	AmountCurrencyB feedValue `json:"AmountCurrencyB"`
}

type priceEntryDTO struct {
	SlippageBasisPoints feedValue `json:"SlippageBasisPoints"`
	Price               feedValue `json:"Price"`
	MaxAmountIn         feedValue `json:"MaxAmountIn"`
	MaxAmountOut        feedValue `json:"MaxAmountOut"`
	MinAmountIn         feedValue `json:"MinAmountIn"`
	MinAmountOut        feedValue `json:"MinAmountOut"`
}

type priceTableDTO struct {
	AtoBPrices []priceEntryDTO `json:"AtoBPrices"`
	BtoAPrices []priceEntryDTO `json:"BtoAPrices"`
}

type dexDTO struct {
	ProtocolName string `json:"ProtocolName"`
}

type txHeaderDTO struct {
	GasPrice  feedValue `json:"GasPrice"`
	GasFeeCap feedValue `json:"GasFeeCap"`
	GasTipCap feedValue `json:"GasTipCap"`
}

type eventDTO struct {
	Pool        *poolDTO       `json:"Pool"`
	Liquidity   *liquidityDTO  `json:"Liquidity"`
	PriceTable  *priceTableDTO `json:"PoolPriceTable"`
	Dex         *dexDTO        `json:"Dex"`
	Transaction *txHeaderDTO   `json:"TransactionHeader"`
}

// Decode turns one raw feed message into a BlockMessage. Events without a
// pool or a price table are dropped; the strategy has nothing to do with
// them. An error means the message as a whole was not decodable and should
// be skipped.
func Decode(data []byte) (*domain.BlockMessage, error) {
	if len(data) == 0 {
		return nil, errors.New("empty message")
	}

	var dto blockDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return nil, errors.Wrap(err, "unmarshal feed message")
	}

	msg := &domain.BlockMessage{}
	if dto.Header != nil {
		msg.Number = normalizeInt("Number", dto.Header.Number)
		msg.BaseFee = normalizeInt("BaseFee", dto.Header.BaseFee)
	}

	for _, raw := range dto.PoolEvents {
		if raw.Pool == nil || raw.PriceTable == nil {
			continue
		}
		event := &domain.PoolEvent{
			Pool: &domain.Pool{
				PoolID:    raw.Pool.PoolID,
				CurrencyA: mapCurrency(raw.Pool.CurrencyA),
				CurrencyB: mapCurrency(raw.Pool.CurrencyB),
			},
			Prices:  mapPriceTable(raw.PriceTable),
			BaseFee: msg.BaseFee,
		}
		if raw.Liquidity != nil {
			event.Liquidity = &domain.LiquiditySnapshot{
				AmountCurrencyA: normalizeInt("AmountCurrencyA", raw.Liquidity.AmountCurrencyA),
				AmountCurrencyB: normalizeInt("AmountCurrencyB", raw.Liquidity.AmountCurrencyB),
			}
		}
		if raw.Dex != nil {
			event.Protocol = raw.Dex.ProtocolName
		}
		if raw.Transaction != nil {
			event.TxGasPrice = normalizeInt("GasPrice", raw.Transaction.GasPrice)
		}
		msg.Events = append(msg.Events, event)
	}

	return msg, nil
}

func mapCurrency(dto currencyDTO) domain.CurrencyInfo {
	decimals := domain.DefaultDecimals
	if s := strings.TrimSpace(string(dto.Decimals)); s != "" {
		if parsed, err := strconv.ParseInt(s, 10, 32); err == nil && parsed > 0 {
			decimals = int32(parsed)
		}
	}
	return domain.CurrencyInfo{
		SmartContract: dto.SmartContract,
		Symbol:        dto.Symbol,
		Decimals:      decimals,
	}
}

func mapPriceTable(dto *priceTableDTO) *domain.PriceTable {
	table := &domain.PriceTable{}
	for _, e := range dto.AtoBPrices {
		table.AtoB = append(table.AtoB, mapPriceEntry(e))
	}
	for _, e := range dto.BtoAPrices {
		table.BtoA = append(table.BtoA, mapPriceEntry(e))
	}
	return table
}

func mapPriceEntry(dto priceEntryDTO) domain.PriceEntry {
	return domain.PriceEntry{
		SlippageBasisPoints: normalizeInt64("SlippageBasisPoints", dto.SlippageBasisPoints),
		Price:               normalizeDecimal("Price", dto.Price),
		MaxAmountIn:         normalizeInt("MaxAmountIn", dto.MaxAmountIn),
		MaxAmountOut:        normalizeInt("MaxAmountOut", dto.MaxAmountOut),
		MinAmountIn:         normalizeInt("MinAmountIn", dto.MinAmountIn),
		MinAmountOut:        normalizeInt("MinAmountOut", dto.MinAmountOut),
	}
}

// normalizeInt coerces a dictionary field into an integer, trying hex and
// decimal in the order the dictionary prescribes for the field. Uncoercible
// or absent values come back nil, never zero.
func normalizeInt(field string, v feedValue) *big.Int {
	s := strings.TrimSpace(string(v))
	if s == "" {
		return nil
	}

	switch {
	case hexFirstFields[field]:
		if n, ok := parseHexInt(s); ok {
			return n
		}
		if n, ok := parseDecimalInt(s); ok {
			return n
		}
	case decimalFirstFields[field]:
		if n, ok := parseDecimalInt(s); ok {
			return n
		}
		if n, ok := parseHexInt(s); ok {
			return n
		}
	}
	return nil
}

func normalizeInt64(field string, v feedValue) *int64 {
	n := normalizeInt(field, v)
	if n == nil || !n.IsInt64() {
		return nil
	}
	value := n.Int64()
	return &value
}

// normalizeDecimal coerces a decimal-first dictionary field, keeping
// fractional precision. Hex is the fallback for feeds that encode the field
// as a raw integer.
func normalizeDecimal(field string, v feedValue) decimal.NullDecimal {
	s := strings.TrimSpace(string(v))
	if s == "" || !decimalFirstFields[field] {
		return decimal.NullDecimal{}
	}

	if d, err := decimal.NewFromString(s); err == nil {
		return decimal.NullDecimal{Decimal: d, Valid: true}
	}
	if n, ok := parseHexInt(s); ok {
		return decimal.NullDecimal{Decimal: decimal.NewFromBigInt(n, 0), Valid: true}
	}
	return decimal.NullDecimal{}
}

func parseHexInt(s string) (*big.Int, bool) {
	if !strings.HasPrefix(s, "0x") && !strings.HasPrefix(s, "0X") {
		return nil, false
	}
	n, ok := new(big.Int).SetString(s[2:], 16)
	return n, ok
}

// parseDecimalInt accepts plain integers and fractional decimals; fractions
// truncate, matching the smallest-unit conversion rule.
func parseDecimalInt(s string) (*big.Int, bool) {
	if n, ok := new(big.Int).SetString(s, 10); ok {
		return n, true
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, false
	}
	return d.BigInt(), true
}
