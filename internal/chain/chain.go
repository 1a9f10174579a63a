// Package chain provides the JSON-RPC chain client used for balance reads and
// signed transfer submission.
package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Fixed gas limits per asset kind. A token contract call costs more gas than a
// plain value transfer. Used both for submission and for the advisory fee
// estimate shown before sending.
const (
	NativeTransferGas uint64 = 21000
	TokenTransferGas  uint64 = 65000
)

// ErrConfirmationTimeout is returned when a submitted transaction was not
// confirmed within the configured wait bound. The transaction may still be
// included later; the wallet does not track it further.
var ErrConfirmationTimeout = errors.New("transaction confirmation timed out")

// Receipt is the confirmed result of a submitted transfer
type Receipt struct {
	Hash     string   // Transaction hash
	GasUsed  uint64   // Gas consumed by the transaction
	GasPrice *big.Int // Effective gas price in wei
}

// Client is the chain access surface consumed by the wallet. Transfer calls
// block until the network confirms inclusion or the wait bound elapses.
type Client interface {
	// GetBalance returns the native-asset balance of an address in wei
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)

	// GetTokenBalance returns the ERC20 balance of an address in smallest units
	GetTokenBalance(ctx context.Context, contract, address common.Address) (*big.Int, error)

	// TokenMetadata reads name, symbol and decimals from a token contract
	TokenMetadata(ctx context.Context, contract common.Address) (name, symbol string, decimals uint8, err error)

	// TransferNative submits a signed value transfer and waits for confirmation
	TransferNative(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount, gasPrice *big.Int) (*Receipt, error)

	// TransferToken submits a signed ERC20 transfer and waits for confirmation
	TransferToken(ctx context.Context, key *ecdsa.PrivateKey, contract, to common.Address, amount, gasPrice *big.Int) (*Receipt, error)
}
