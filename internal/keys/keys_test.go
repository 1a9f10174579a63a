package keys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	hexKey, _, err := Generate()
	require.NoError(t, err)

	decoded, err := Decode(Encode(hexKey))
	require.NoError(t, err)
	assert.Equal(t, hexKey, decoded)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode("not base64 !!!")
	assert.Error(t, err)
}

func TestNormalizeHex(t *testing.T) {
	cases := map[string]string{
		"0xabc123":      "abc123",
		"  0xabc123  ":  "abc123",
		"abc123":        "abc123",
		"ab c1-23":      "abc123",
		"ABCdef":        "ABCdef",
		"zzz0xdeadbeef": "deadbeef",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeHex(in), "input %q", in)
	}
}

func TestParseDerivesStableAddress(t *testing.T) {
	hexKey, address, err := Generate()
	require.NoError(t, err)

	key, err := Parse(hexKey)
	require.NoError(t, err)
	assert.Equal(t, address, AddressOf(key))

	// A 0x prefix parses to the same key
	key2, err := Parse("0x" + hexKey)
	require.NoError(t, err)
	assert.Equal(t, address, AddressOf(key2))
}

func TestParseRejectsInvalidKeys(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)

	_, err = Parse("abc")
	assert.Error(t, err)

	_, err = Parse(strings.Repeat("0", 64))
	assert.Error(t, err)
}

func TestKeystoreRoundTrip(t *testing.T) {
	hexKey, address, err := Generate()
	require.NoError(t, err)

	ks, err := Export(address, hexKey, []byte("correct horse battery"))
	require.NoError(t, err)
	assert.Equal(t, address, ks.Address)
	assert.NotContains(t, ks.CipherText, hexKey)

	got, err := Import(ks, []byte("correct horse battery"))
	require.NoError(t, err)
	assert.Equal(t, hexKey, got)
}

func TestKeystoreWrongPassword(t *testing.T) {
	hexKey, address, err := Generate()
	require.NoError(t, err)

	ks, err := Export(address, hexKey, []byte("right"))
	require.NoError(t, err)

	_, err = Import(ks, []byte("wrong"))
	assert.Error(t, err)
}

func TestExportRequiresPassword(t *testing.T) {
	hexKey, address, err := Generate()
	require.NoError(t, err)

	_, err = Export(address, hexKey, nil)
	assert.Error(t, err)
}
