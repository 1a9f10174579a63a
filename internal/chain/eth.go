package chain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// erc20ABI covers the subset of the ERC20 interface the wallet needs
const erc20ABI = `[
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"stateMutability":"view","type":"function"},
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"stateMutability":"nonpayable","type":"function"}
]`

// EthClient is a chain client backed by an Ethereum-compatible JSON-RPC node
type EthClient struct {
	rpc            *ethclient.Client
	chainID        *big.Int
	erc20          abi.ABI
	confirmTimeout time.Duration
}

// NewEthClient dials the given JSON-RPC endpoint.
// confirmTimeout bounds every confirmation wait; zero means one minute.
func NewEthClient(rpcURL string, chainID int64, confirmTimeout time.Duration) (*EthClient, error) {
	rpc, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial chain rpc: %w", err)
	}
	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse erc20 abi: %w", err)
	}
	if confirmTimeout <= 0 {
		confirmTimeout = time.Minute
	}
	return &EthClient{
		rpc:            rpc,
		chainID:        big.NewInt(chainID),
		erc20:          parsed,
		confirmTimeout: confirmTimeout,
	}, nil
}

// GetBalance returns the native-asset balance in wei
func (c *EthClient) GetBalance(ctx context.Context, address common.Address) (*big.Int, error) {
	bal, err := c.rpc.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get native balance: %w", err)
	}
	return bal, nil
}

// GetTokenBalance returns the ERC20 balance in smallest units
func (c *EthClient) GetTokenBalance(ctx context.Context, contract, address common.Address) (*big.Int, error) {
	data, err := c.erc20.Pack("balanceOf", address)
	if err != nil {
		return nil, fmt.Errorf("failed to pack balanceOf call: %w", err)
	}
	raw, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	out, err := c.erc20.Unpack("balanceOf", raw)
	if err != nil {
		return nil, fmt.Errorf("failed to unpack token balance: %w", err)
	}
	bal, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.New("unexpected balanceOf return type")
	}
	return bal, nil
}

// TokenMetadata reads name, symbol and decimals from a token contract
func (c *EthClient) TokenMetadata(ctx context.Context, contract common.Address) (string, string, uint8, error) {
	name, err := c.callString(ctx, contract, "name")
	if err != nil {
		return "", "", 0, err
	}
	symbol, err := c.callString(ctx, contract, "symbol")
	if err != nil {
		return "", "", 0, err
	}

	data, err := c.erc20.Pack("decimals")
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to pack decimals call: %w", err)
	}
	raw, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to read token decimals: %w", err)
	}
	out, err := c.erc20.Unpack("decimals", raw)
	if err != nil {
		return "", "", 0, fmt.Errorf("failed to unpack token decimals: %w", err)
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return "", "", 0, errors.New("unexpected decimals return type")
	}
	return name, symbol, decimals, nil
}

func (c *EthClient) callString(ctx context.Context, contract common.Address, method string) (string, error) {
	data, err := c.erc20.Pack(method)
	if err != nil {
		return "", fmt.Errorf("failed to pack %s call: %w", method, err)
	}
	raw, err := c.rpc.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return "", fmt.Errorf("failed to read token %s: %w", method, err)
	}
	out, err := c.erc20.Unpack(method, raw)
	if err != nil {
		return "", fmt.Errorf("failed to unpack token %s: %w", method, err)
	}
	s, ok := out[0].(string)
	if !ok {
		return "", fmt.Errorf("unexpected %s return type", method)
	}
	return s, nil
}

// TransferNative submits a value transfer and waits for confirmation
func (c *EthClient) TransferNative(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount, gasPrice *big.Int) (*Receipt, error) {
	return c.submit(ctx, key, to, amount, gasPrice, NativeTransferGas, nil)
}

// TransferToken submits an ERC20 transfer call and waits for confirmation
func (c *EthClient) TransferToken(ctx context.Context, key *ecdsa.PrivateKey, contract, to common.Address, amount, gasPrice *big.Int) (*Receipt, error) {
	data, err := c.erc20.Pack("transfer", to, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer call: %w", err)
	}
	return c.submit(ctx, key, contract, big.NewInt(0), gasPrice, TokenTransferGas, data)
}

// submit signs, sends and waits for one transaction
func (c *EthClient) submit(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, value, gasPrice *big.Int, gasLimit uint64, data []byte) (*Receipt, error) {
	from := crypto.PubkeyToAddress(key.PublicKey)

	nonce, err := c.rpc.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("failed to get nonce: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gasPrice,
		Gas:      gasLimit,
		To:       &to,
		Value:    value,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := c.rpc.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	// Bounded wait for inclusion
	waitCtx, cancel := context.WithTimeout(ctx, c.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, c.rpc, signed)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s (tx %s)", ErrConfirmationTimeout, c.confirmTimeout, signed.Hash().Hex())
		}
		return nil, fmt.Errorf("failed waiting for confirmation: %w", err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("transaction %s reverted", receipt.TxHash.Hex())
	}

	out := &Receipt{Hash: receipt.TxHash.Hex(), GasUsed: receipt.GasUsed, GasPrice: gasPrice}
	if receipt.EffectiveGasPrice != nil {
		out.GasPrice = receipt.EffectiveGasPrice
	}
	return out, nil
}
