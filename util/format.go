package util

import (
	"fmt"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

// ParseTokenAmountByDecimals converts a human-readable amount string to a
// smallest-unit integer string. Truncates below the smallest unit, no rounding.
func ParseTokenAmountByDecimals(amount string, decimals int32) (string, error) {
	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		return "", fmt.Errorf("invalid amount: %v", err)
	}

	exp := decimal.New(1, decimals)
	result := amountDecimal.Mul(exp)

	return result.BigInt().String(), nil
}

// ToSmallestUnit converts a human-readable decimal amount to a raw integer
// amount using the token's precision. Fractions of the smallest unit are
// truncated.
func ToSmallestUnit(amount decimal.Decimal, decimals int32) *big.Int {
	return amount.Shift(decimals).BigInt()
}

// FromSmallestUnit converts a raw integer amount back to human-readable form.
func FromSmallestUnit(amount *big.Int, decimals int32) decimal.Decimal {
	return decimal.NewFromBigInt(amount, 0).Shift(-decimals)
}

// PercentToBps converts a percent tolerance to basis points, rounding to the
// nearest bp so float flag artifacts (0.29 -> 28.999...) don't truncate.
func PercentToBps(percent float64) int {
	return int(math.Round(percent * 100))
}

// WeiToGwei converts a wei quantity to gwei.
func WeiToGwei(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Shift(-9)
}

// WeiToEther converts a wei quantity to the chain's native unit.
func WeiToEther(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Shift(-18)
}
