package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	v, err := Parse("0.0002", 18)
	require.NoError(t, err)
	assert.Equal(t, "200000000000000", v.String())

	v, err = Parse("10", 18)
	require.NoError(t, err)
	assert.Equal(t, "10000000000000000000", v.String())

	v, err = Parse("1.5", 9)
	require.NoError(t, err)
	assert.Equal(t, "1500000000", v.String())

	// Fraction-only and zero inputs
	v, err = Parse(".5", 2)
	require.NoError(t, err)
	assert.Equal(t, "50", v.String())

	v, err = Parse("0", 18)
	require.NoError(t, err)
	assert.Equal(t, "0", v.String())
}

func TestParseRejectsBadInput(t *testing.T) {
	cases := []string{"", "  ", "-1", "1.2.3", "abc", "."}
	for _, c := range cases {
		_, err := Parse(c, 18)
		assert.Error(t, err, "input %q", c)
	}

	// More fractional digits than the token carries
	_, err := Parse("0.123", 2)
	assert.Error(t, err)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "0.0002", Format(big.NewInt(200000000000000), 18))
	assert.Equal(t, "1", Format(big.NewInt(1000000000), 9))
	assert.Equal(t, "1.5", Format(big.NewInt(1500000000), 9))
	assert.Equal(t, "0", Format(big.NewInt(0), 18))
	assert.Equal(t, "0", Format(nil, 18))
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, s := range []string{"0.0002", "10", "1.5", "0.000000000000000001"} {
		v, err := Parse(s, 18)
		require.NoError(t, err)
		assert.Equal(t, s, Format(v, 18))
	}
}

func TestParseGwei(t *testing.T) {
	v, err := ParseGwei("0.5")
	require.NoError(t, err)
	assert.Equal(t, "500000000", v.String())

	v, err = ParseGwei("2")
	require.NoError(t, err)
	assert.Equal(t, "2000000000", v.String())

	_, err = ParseGwei("0")
	assert.Error(t, err)

	_, err = ParseGwei("-1")
	assert.Error(t, err)
}
