// Package fee implements the service-fee policy: deciding when a send must be
// preceded by a fee payment and estimating the network fee shown to the user.
package fee

import (
	"fmt"
	"math/big"

	"github.com/JJJH27/bleswallet/internal/amount"
	"github.com/JJJH27/bleswallet/internal/chain"
)

// Config is the device-wide fee policy, set through the admin surface and
// passed by value into every evaluation.
type Config struct {
	FeeFrequency int    `json:"feeFrequency"` // Charge a service fee every N settled sends
	DefaultFee   string `json:"defaultFee"`   // Fee amount, decimal string in main-token units
}

// Validate rejects configurations the evaluator cannot operate on.
// A frequency below 1 is refused outright: frequency 0 would divide by zero
// inside the cycle arithmetic, so it must never reach storage.
func (c Config) Validate() error {
	if c.FeeFrequency < 1 {
		return fmt.Errorf("fee frequency must be at least 1, got %d", c.FeeFrequency)
	}
	v, err := amount.Parse(c.DefaultFee, amount.EtherDecimals)
	if err != nil {
		return fmt.Errorf("invalid fee amount: %w", err)
	}
	if v.Sign() < 0 {
		return fmt.Errorf("fee amount must not be negative")
	}
	return nil
}

// Evaluation is the fee-policy decision for one upcoming send
type Evaluation struct {
	TxUntilFee    int  `json:"txUntilFee"`    // Sends remaining until a fee is due, counting this one
	WillPayAppFee bool `json:"willPayAppFee"` // True when this send must be preceded by a fee payment
}

// Evaluate applies the cycle arithmetic for an account with txCount settled
// sends. The fee is charged immediately before the send that completes the
// Nth cycle, so a frequency of 1 charges on every send.
// cfg must have been validated; frequency below 1 will panic on the modulo.
func Evaluate(txCount int, cfg Config) Evaluation {
	until := cfg.FeeFrequency - (txCount % cfg.FeeFrequency)
	return Evaluation{
		TxUntilFee:    until,
		WillPayAppFee: until == 1,
	}
}

// EstimateNetworkFee returns the projected network fee in wei for display:
// the fixed gas limit of the asset kind times the user-selected gas price,
// doubled when a service-fee transfer will also run. Advisory only; actual
// gas consumption is not enforced against it.
func EstimateNetworkFee(native bool, gasPriceWei *big.Int, willPayAppFee bool) *big.Int {
	limit := chain.TokenTransferGas
	if native {
		limit = chain.NativeTransferGas
	}
	est := new(big.Int).Mul(gasPriceWei, new(big.Int).SetUint64(limit))
	if willPayAppFee {
		est.Mul(est, big.NewInt(2))
	}
	return est
}
