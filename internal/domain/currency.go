package domain

import (
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// DefaultDecimals is assumed for currencies the feed reports without a
// decimals value.
const DefaultDecimals int32 = 18

// CurrencyInfo is an immutable snapshot of one pool asset as reported by the
// feed. SmartContract may be empty for assets without a contract address.
type CurrencyInfo struct {
	SmartContract string
	Symbol        string
	Decimals      int32
}

// Address resolves the currency's contract address. It returns false when the
// feed supplied no usable address (empty, bare "0x" or malformed hex).
func (c CurrencyInfo) Address() (common.Address, bool) {
	addr := c.SmartContract
	if addr == "" || addr == "0x" {
		return common.Address{}, false
	}
	if !strings.HasPrefix(addr, "0x") || !common.IsHexAddress(addr) {
		return common.Address{}, false
	}
	return common.HexToAddress(addr), true
}

// Empty reports whether the feed carried no data for this asset.
func (c CurrencyInfo) Empty() bool {
	return c == CurrencyInfo{}
}
