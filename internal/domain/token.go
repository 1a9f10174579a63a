package domain

import "strings"

// NativeTokenAddress is the sentinel address of the chain's base currency
const NativeTokenAddress = "native"

// Token Model
type Token struct {
	ID       uint   `gorm:"primaryKey" json:"id"`               // Primary key
	Symbol   string `gorm:"not null" json:"symbol"`             // Ticker symbol
	Name     string `gorm:"not null" json:"name"`               // Display name
	Address  string `gorm:"uniqueIndex;size:64" json:"address"` // Lowercased contract address or "native"
	Decimals uint8  `gorm:"not null" json:"decimals"`           // Decimal precision
	Logo     string `json:"logo"`                               // Icon reference
	BuiltIn  bool   `gorm:"default:false" json:"builtIn"`       // Seeded default tokens cannot be removed
}

// IsNative reports whether the token is the chain's base currency
func (t Token) IsNative() bool {
	return t.Address == NativeTokenAddress
}

// Is reports whether the token matches the given address (case-insensitive)
func (t Token) Is(address string) bool {
	return strings.EqualFold(t.Address, address)
}
