package settlement

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"testing"

	"github.com/JJJH27/bleswallet/internal/amount"
	"github.com/JJJH27/bleswallet/internal/chain"
	"github.com/JJJH27/bleswallet/internal/domain"
	"github.com/JJJH27/bleswallet/internal/fee"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMainTokenAddr = "0x2830b5a25e70abb6f82b3333f3df4a88379cc91a"
	testAdminAddr     = "0x1dE4c3F241B5f44Bbebbd47946E9e21F3b5e962f"
	testRecipient     = "0x1111111111111111111111111111111111111111"
)

var (
	mainToken   = domain.Token{Symbol: "BLES", Name: "BLES Token", Address: testMainTokenAddr, Decimals: 18}
	nativeToken = domain.Token{Symbol: "WNEAR", Name: "Wrapped NEAR", Address: domain.NativeTokenAddress, Decimals: 18}
)

// chainCall records one submitted transfer for order assertions
type chainCall struct {
	kind string // "native" or "token"
	to   string
}

type fakeChain struct {
	calls        []chainCall
	failFee      error // Returned by token transfers to the admin address
	failTransfer error // Returned by every principal transfer
}

func (f *fakeChain) TransferNative(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amt, gasPrice *big.Int) (*chain.Receipt, error) {
	f.calls = append(f.calls, chainCall{kind: "native", to: to.Hex()})
	if f.failTransfer != nil {
		return nil, f.failTransfer
	}
	return &chain.Receipt{Hash: "0xnative", GasUsed: 21000, GasPrice: gasPrice}, nil
}

func (f *fakeChain) TransferToken(ctx context.Context, key *ecdsa.PrivateKey, contract, to common.Address, amt, gasPrice *big.Int) (*chain.Receipt, error) {
	f.calls = append(f.calls, chainCall{kind: "token", to: to.Hex()})
	if strings.EqualFold(to.Hex(), testAdminAddr) {
		if f.failFee != nil {
			return nil, f.failFee
		}
		return &chain.Receipt{Hash: "0xfee", GasUsed: 65000, GasPrice: gasPrice}, nil
	}
	if f.failTransfer != nil {
		return nil, f.failTransfer
	}
	return &chain.Receipt{Hash: "0xtoken", GasUsed: 65000, GasPrice: gasPrice}, nil
}

type fakeBalances struct {
	main *big.Int // Main-token balance reported for every account
}

func (f *fakeBalances) Balance(ctx context.Context, address string, token domain.Token) (*big.Int, error) {
	if token.Is(testMainTokenAddr) {
		return new(big.Int).Set(f.main), nil
	}
	return big.NewInt(0), nil
}

type fakeLedger struct {
	appended   []domain.Transaction
	increments int
	appendErr  error
	incrErr    error
}

func (f *fakeLedger) AppendTransaction(address string, tx domain.Transaction) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, tx)
	return nil
}

func (f *fakeLedger) IncrementTxCount(address string) error {
	if f.incrErr != nil {
		return f.incrErr
	}
	f.increments++
	return nil
}

type fakeAdvisor struct {
	advice string
	calls  int
}

func (f *fakeAdvisor) Assess(ctx context.Context, toAddress, amt string) string {
	f.calls++
	if f.advice == "" {
		return "Looks fine"
	}
	return f.advice
}

type fakeRefresher struct{ calls int }

func (f *fakeRefresher) Refresh(ctx context.Context, address string) (map[string]string, error) {
	f.calls++
	return map[string]string{}, nil
}

func accept(advice string) bool  { return true }
func decline(advice string) bool { return false }

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return key
}

func mustParse(t *testing.T, s string) *big.Int {
	t.Helper()
	v, err := amount.Parse(s, 18)
	require.NoError(t, err)
	return v
}

// fixture wires a pipeline over fakes with a funded main-token balance
type fixture struct {
	chain    *fakeChain
	balances *fakeBalances
	ledger   *fakeLedger
	advisor  *fakeAdvisor
	refresh  *fakeRefresher
	pipeline *Pipeline
}

func newFixture(mainBalance string) *fixture {
	f := &fixture{
		chain:    &fakeChain{},
		balances: &fakeBalances{main: mustParseBalance(mainBalance)},
		ledger:   &fakeLedger{},
		advisor:  &fakeAdvisor{},
		refresh:  &fakeRefresher{},
	}
	f.pipeline = New(f.chain, f.balances, f.ledger, f.advisor, f.refresh, mainToken, testAdminAddr)
	return f
}

func mustParseBalance(s string) *big.Int {
	v, err := amount.Parse(s, 18)
	if err != nil {
		panic(err)
	}
	return v
}

func baseRequest(t *testing.T, token domain.Token, amountText string, txCount int, cfg fee.Config) Request {
	return Request{
		From:         "0x2222222222222222222222222222222222222222",
		Key:          mustKey(t),
		To:           testRecipient,
		Token:        token,
		Amount:       mustParse(t, amountText),
		AmountText:   amountText,
		GasPrice:     big.NewInt(500_000_000),
		GasPriceText: "0.5",
		Config:       cfg,
		TxCount:      txCount,
	}
}

func TestRunSettlesNativeSendWithFee(t *testing.T) {
	f := newFixture("1") // Plenty of BLES for the fee
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "10", 0, cfg)

	var states []State
	req.OnState = func(s State) { states = append(states, s) }

	result, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.FeePaid)

	// Fee transfer to the admin strictly precedes the principal
	require.Len(t, f.chain.calls, 2)
	assert.Equal(t, "token", f.chain.calls[0].kind)
	assert.Equal(t, common.HexToAddress(testAdminAddr).Hex(), f.chain.calls[0].to)
	assert.Equal(t, "native", f.chain.calls[1].kind)
	assert.Equal(t, common.HexToAddress(testRecipient).Hex(), f.chain.calls[1].to)

	// Exactly one history append and one counter advance
	require.Len(t, f.ledger.appended, 1)
	assert.Equal(t, 1, f.ledger.increments)
	assert.Equal(t, 1, f.refresh.calls)

	record := f.ledger.appended[0]
	assert.Equal(t, "0xnative", record.Hash)
	assert.Equal(t, "10", record.Value)
	assert.Equal(t, "WNEAR", record.Symbol)
	assert.Equal(t, domain.TxStatusConfirmed, record.Status)
	// 2 * 21000 * 0.5 gwei = 0.000021 in native units
	assert.Equal(t, "0.000021", record.Fee)

	assert.Equal(t, []State{StateAwaitingRiskAck, StateFeeInFlight, StatePrincipalInFlight, StateSettled}, states)
}

func TestRunSkipsFeeWhenNotDue(t *testing.T) {
	f := newFixture("1")
	cfg := fee.Config{FeeFrequency: 3, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "1", 0, cfg) // txCount 0, fee lands on the third send

	result, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.NoError(t, err)
	assert.False(t, result.FeePaid)

	require.Len(t, f.chain.calls, 1)
	assert.Equal(t, "native", f.chain.calls[0].kind)
	assert.Equal(t, 1, f.ledger.increments)
}

func TestRunRejectsWhenFeeBalanceTooLow(t *testing.T) {
	f := newFixture("0.0001") // Below the 0.0002 fee
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "10", 0, cfg)

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.ErrorIs(t, err, ErrInsufficientFeeBalance)

	// Detected locally: nothing reached the chain, nothing was recorded
	assert.Empty(t, f.chain.calls)
	assert.Empty(t, f.ledger.appended)
	assert.Zero(t, f.ledger.increments)
	assert.Zero(t, f.advisor.calls)
}

func TestRunRequiresAmountPlusFeeForMainToken(t *testing.T) {
	f := newFixture("0.0005")
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	// 0.0004 + 0.0002 fee exceeds the 0.0005 balance
	req := baseRequest(t, mainToken, "0.0004", 0, cfg)

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.ErrorIs(t, err, ErrInsufficientCombinedBalance)
	assert.Empty(t, f.chain.calls)
}

func TestRunDeclinedAdvisoryTouchesNothing(t *testing.T) {
	f := newFixture("1")
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "10", 0, cfg)

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(decline))
	require.ErrorIs(t, err, ErrAdvisoryDeclined)

	// The advisory ran, but declining means zero chain calls and zero writes
	assert.Equal(t, 1, f.advisor.calls)
	assert.Empty(t, f.chain.calls)
	assert.Empty(t, f.ledger.appended)
	assert.Zero(t, f.ledger.increments)
}

func TestRunFeeFailureStopsBeforePrincipal(t *testing.T) {
	f := newFixture("1")
	f.chain.failFee = fmt.Errorf("reverted")
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "10", 0, cfg)

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.ErrorIs(t, err, ErrFeeTransferFailed)

	// Only the failed fee transfer was attempted
	require.Len(t, f.chain.calls, 1)
	assert.Equal(t, "token", f.chain.calls[0].kind)
	assert.Empty(t, f.ledger.appended)
	assert.Zero(t, f.ledger.increments)
}

func TestRunPrincipalFailureAfterFeeLeavesStateUntouched(t *testing.T) {
	f := newFixture("1")
	f.chain.failTransfer = fmt.Errorf("nonce too low")
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "10", 0, cfg)

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.ErrorIs(t, err, ErrPrincipalTransferFailed)

	// The fee was paid and is gone; the counter and history stay untouched
	require.Len(t, f.chain.calls, 2)
	assert.Empty(t, f.ledger.appended)
	assert.Zero(t, f.ledger.increments)
}

func TestRunMapsConfirmationTimeout(t *testing.T) {
	f := newFixture("1")
	f.chain.failTransfer = fmt.Errorf("wait: %w", chain.ErrConfirmationTimeout)
	cfg := fee.Config{FeeFrequency: 3, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "1", 0, cfg)

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.ErrorIs(t, err, ErrConfirmationTimeout)
	assert.NotErrorIs(t, err, ErrPrincipalTransferFailed)
}

func TestRunWithoutKeyIsNoOp(t *testing.T) {
	f := newFixture("1")
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "1", 0, cfg)
	req.Key = nil

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.ErrorIs(t, err, ErrWalletUnavailable)
	assert.Empty(t, f.chain.calls)
}

func TestRunRefusesConcurrentInvocations(t *testing.T) {
	f := newFixture("1")
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "1", 0, cfg)

	// Simulate an in-flight settlement holding the account
	require.True(t, f.pipeline.acquire(req.From))
	defer f.pipeline.release(req.From)

	_, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.ErrorIs(t, err, ErrTransferInFlight)
	assert.Empty(t, f.chain.calls)

	// The lock is case-insensitive over the address
	assert.False(t, f.pipeline.acquire(strings.ToUpper(req.From)))
}

func TestRunTokenPrincipalUsesContract(t *testing.T) {
	customToken := domain.Token{Symbol: "USDT", Address: "0x3333333333333333333333333333333333333333", Decimals: 6}
	f := newFixture("1")
	cfg := fee.Config{FeeFrequency: 3, DefaultFee: "0.0002"}
	req := baseRequest(t, customToken, "1", 0, cfg)
	req.Amount = big.NewInt(1_000_000) // 1 USDT at 6 decimals

	result, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.NoError(t, err)

	require.Len(t, f.chain.calls, 1)
	assert.Equal(t, "token", f.chain.calls[0].kind)
	assert.Equal(t, common.HexToAddress(testRecipient).Hex(), f.chain.calls[0].to)
	assert.Equal(t, "0xtoken", result.Record.Hash)
	assert.Equal(t, "USDT", result.Record.Symbol)
}

func TestRunSettledButBookkeepingFailed(t *testing.T) {
	f := newFixture("1")
	f.ledger.appendErr = errors.New("disk full")
	cfg := fee.Config{FeeFrequency: 3, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "1", 0, cfg)

	result, err := f.pipeline.Run(context.Background(), req, AckFunc(accept))
	require.Error(t, err)
	// The transfer settled on chain; the caller gets the record despite the
	// failed local write, and the counter was never advanced
	require.NotNil(t, result)
	assert.Equal(t, "0xnative", result.Record.Hash)
	assert.Zero(t, f.ledger.increments)
}

func TestRunCancelledBeforeAckPointAborts(t *testing.T) {
	f := newFixture("1")
	cfg := fee.Config{FeeFrequency: 1, DefaultFee: "0.0002"}
	req := baseRequest(t, nativeToken, "10", 0, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.Run(ctx, req, AckFunc(accept))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.chain.calls)
}

func TestStateCancellable(t *testing.T) {
	assert.True(t, StateIdle.Cancellable())
	assert.True(t, StateAwaitingRiskAck.Cancellable())
	assert.False(t, StateFeeInFlight.Cancellable())
	assert.False(t, StatePrincipalInFlight.Cancellable())
	assert.False(t, StateSettled.Cancellable())
	assert.False(t, StateFailed.Cancellable())
}
