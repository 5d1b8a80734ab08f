package domain

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// ToSmallestUnit converts a human-readable amount into the token's integer
// smallest unit, truncating any remainder. The math is exact decimal
// arithmetic; binary floating point would lose funds here.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}

// FromSmallestUnit converts an integer smallest-unit amount back into
// human-readable units. Display and accounting only, never for on-chain
// amounts.
func FromSmallestUnit(amount *big.Int, decimals int32) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -decimals)
}

// AmountOutMin computes the minimum acceptable output for a swap of amountIn
// at the quoted price with the given slippage tolerance, in the output
// token's smallest unit: amountIn * price * (1 - slippageBps/10000),
// truncated.
func AmountOutMin(amountIn, price decimal.Decimal, decimalsOut int32, slippageBps int64) *big.Int {
	expected := amountIn.Mul(price)
	tolerance := decimal.NewFromInt(1).Sub(decimal.NewFromInt(slippageBps).Div(decimal.NewFromInt(10000)))
	return expected.Mul(tolerance).Shift(decimalsOut).BigInt()
}
