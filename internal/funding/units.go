package funding

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const weiDecimals = 18

// ParseEther converts a decimal ETH string such as "0.01" into wei.
// Fractions below one wei are rejected rather than rounded.
func ParseEther(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse ether amount %q: %w", s, err)
	}
	if d.IsNegative() {
		return nil, fmt.Errorf("ether amount %q is negative", s)
	}
	wei := d.Shift(weiDecimals)
	if !wei.IsInteger() {
		return nil, fmt.Errorf("ether amount %q has more than %d decimals", s, weiDecimals)
	}
	return wei.BigInt(), nil
}

// FormatEther renders wei as a trimmed decimal ETH string ("0.022").
func FormatEther(wei *big.Int) string {
	return decimal.NewFromBigInt(orZero(wei), -weiDecimals).String()
}
