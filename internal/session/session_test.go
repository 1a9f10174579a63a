package session

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryPutGetDrop(t *testing.T) {
	r := NewRegistry()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	_, ok := r.Get("0xAbC")
	assert.False(t, ok)

	r.Put("0xAbC", key)

	// Lookup is case-insensitive
	got, ok := r.Get("0xABC")
	require.True(t, ok)
	assert.Same(t, key, got)

	r.Drop("0xabc")
	_, ok = r.Get("0xAbC")
	assert.False(t, ok)
}

func TestRegistryDropAll(t *testing.T) {
	r := NewRegistry()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	r.Put("0x1", key)
	r.Put("0x2", key)

	r.DropAll()

	_, ok := r.Get("0x1")
	assert.False(t, ok)
	_, ok = r.Get("0x2")
	assert.False(t, ok)
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("0xAbC123", "secret")
	require.NoError(t, err)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "0xAbC123", claims.Address)
}

func TestParseTokenRejectsWrongSecret(t *testing.T) {
	token, err := GenerateToken("0xAbC123", "secret")
	require.NoError(t, err)

	_, err = ParseToken(token, "other")
	assert.Error(t, err)
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	_, err := ParseToken("not.a.token", "secret")
	assert.Error(t, err)
}
