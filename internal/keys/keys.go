// Package keys handles signing-key material: the reversible base64 storage
// encoding inherited from the legacy wallet format, key parsing and address
// derivation, and the password-encrypted backup keystore.
package keys

import (
	"crypto/ecdsa"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
)

// Encode converts a hex signing key to its stored form.
// This is base64, not encryption: the legacy format stored keys reversibly
// encoded and the store keeps that behavior. Real encryption exists only on
// the explicit backup-export path.
func Encode(hexKey string) string {
	return base64.StdEncoding.EncodeToString([]byte(hexKey))
}

// Decode converts a stored key back to its hex form
func Decode(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to decode stored key: %w", err)
	}
	return string(raw), nil
}

// NormalizeHex cleans a user-supplied private key. Keys pasted with a 0x
// prefix keep everything after it; keys without one are stripped of any
// non-hex characters (whitespace, separators) before use.
func NormalizeHex(pk string) string {
	pk = strings.TrimSpace(pk)
	if i := strings.Index(pk, "0x"); i >= 0 {
		return pk[i+2:]
	}
	var b strings.Builder
	for _, r := range pk {
		if (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F') {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Parse converts a user-supplied private key into a signing key
func Parse(pk string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(NormalizeHex(pk))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return key, nil
}

// Generate creates a fresh signing key, returning its hex form and address
func Generate() (hexKey, address string, err error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return "", "", fmt.Errorf("failed to generate key: %w", err)
	}
	return hex.EncodeToString(crypto.FromECDSA(key)), AddressOf(key), nil
}

// AddressOf derives the checksummed address of a signing key
func AddressOf(key *ecdsa.PrivateKey) string {
	return crypto.PubkeyToAddress(key.PublicKey).Hex()
}
