package fee

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRejectsZeroFrequency(t *testing.T) {
	cfg := Config{FeeFrequency: 0, DefaultFee: "0.0002"}
	assert.Error(t, cfg.Validate())

	cfg.FeeFrequency = -3
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsMalformedFee(t *testing.T) {
	assert.Error(t, Config{FeeFrequency: 1, DefaultFee: ""}.Validate())
	assert.Error(t, Config{FeeFrequency: 1, DefaultFee: "abc"}.Validate())
	assert.Error(t, Config{FeeFrequency: 1, DefaultFee: "-0.1"}.Validate())
}

func TestValidateAcceptsUsablePolicies(t *testing.T) {
	assert.NoError(t, Config{FeeFrequency: 1, DefaultFee: "0.0002"}.Validate())
	assert.NoError(t, Config{FeeFrequency: 10, DefaultFee: "0"}.Validate())
}

func TestEvaluateFrequencyThree(t *testing.T) {
	cfg := Config{FeeFrequency: 3, DefaultFee: "0.0002"}

	// With a cycle of three the fee lands on every third send
	wantFee := []bool{false, false, true, false, false, true}
	wantUntil := []int{3, 2, 1, 3, 2, 1}
	for txCount := 0; txCount < len(wantFee); txCount++ {
		eval := Evaluate(txCount, cfg)
		assert.Equal(t, wantUntil[txCount], eval.TxUntilFee, "txCount=%d", txCount)
		assert.Equal(t, wantFee[txCount], eval.WillPayAppFee, "txCount=%d", txCount)
	}
}

func TestEvaluateFrequencyOneChargesEverySend(t *testing.T) {
	cfg := Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	for txCount := 0; txCount < 5; txCount++ {
		eval := Evaluate(txCount, cfg)
		assert.Equal(t, 1, eval.TxUntilFee)
		assert.True(t, eval.WillPayAppFee)
	}
}

func TestEstimateNetworkFee(t *testing.T) {
	gasPrice := big.NewInt(500_000_000) // 0.5 gwei

	// Native transfer without an app fee: 21000 * gasPrice
	est := EstimateNetworkFee(true, gasPrice, false)
	require.Equal(t, new(big.Int).Mul(gasPrice, big.NewInt(21000)), est)

	// Token transfer without an app fee: 65000 * gasPrice
	est = EstimateNetworkFee(false, gasPrice, false)
	require.Equal(t, new(big.Int).Mul(gasPrice, big.NewInt(65000)), est)

	// A pending app fee doubles the projection
	withFee := EstimateNetworkFee(true, gasPrice, true)
	require.Equal(t, new(big.Int).Mul(gasPrice, big.NewInt(2*21000)), withFee)
}
