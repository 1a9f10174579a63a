// Package amount converts between human decimal strings and smallest-unit
// integers without float precision loss.
package amount

import (
	"fmt"
	"math/big"
	"strings"
)

// GweiDecimals is the precision of gas prices (1 gwei = 10^9 wei)
const GweiDecimals = 9

// EtherDecimals is the precision of the native asset
const EtherDecimals = 18

// Parse converts a decimal string to smallest units at the given precision
// Example: Parse("0.0002", 18) = 200000000000000
func Parse(s string, decimals int) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("negative amount %q", s)
	}

	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return nil, fmt.Errorf("invalid amount %q", s)
	}

	whole := parts[0]
	frac := ""
	if len(parts) == 2 {
		frac = parts[1]
	}
	if whole == "" && frac == "" {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > decimals {
		return nil, fmt.Errorf("amount %q exceeds %d decimal places", s, decimals)
	}

	// Pad the fractional part to full precision and concatenate
	frac += strings.Repeat("0", decimals-len(frac))
	digits := whole + frac
	if digits == "" {
		digits = "0"
	}

	v, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", s)
	}
	return v, nil
}

// Format converts smallest units to a decimal string at the given precision
// Example: Format(200000000000000, 18) = "0.0002"
func Format(v *big.Int, decimals int) string {
	if v == nil {
		return "0"
	}
	s := v.String()

	// Pad with leading zeros if needed
	for len(s) <= decimals {
		s = "0" + s
	}

	pos := len(s) - decimals
	whole, frac := s[:pos], s[pos:]
	frac = strings.TrimRight(frac, "0")
	if frac == "" {
		return whole
	}
	return whole + "." + frac
}

// ParseGwei converts a gas price in gwei (decimal string) to wei
func ParseGwei(s string) (*big.Int, error) {
	wei, err := Parse(s, GweiDecimals)
	if err != nil {
		return nil, fmt.Errorf("invalid gas price: %w", err)
	}
	if wei.Sign() <= 0 {
		return nil, fmt.Errorf("gas price must be positive")
	}
	return wei, nil
}
