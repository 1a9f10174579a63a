// Package settlement executes one user-confirmed asset transfer, optionally
// preceded by a service-fee transfer, with fixed ordering: risk check, fee
// transfer, principal transfer, record and counter update, balance refresh.
//
// Each step blocks on network confirmation before the next begins. A fee
// confirmed before a failing principal transfer is not refunded: that loss is
// the documented cost of proceeding, and no compensating rollback exists.
// Invocations are never deduplicated; re-running a settled send submits a
// fresh on-chain transaction.
package settlement

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/JJJH27/bleswallet/internal/amount"
	"github.com/JJJH27/bleswallet/internal/chain"
	"github.com/JJJH27/bleswallet/internal/domain"
	"github.com/JJJH27/bleswallet/internal/fee"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Transferer submits signed transfers and blocks until confirmation
type Transferer interface {
	TransferNative(ctx context.Context, key *ecdsa.PrivateKey, to common.Address, amount, gasPrice *big.Int) (*chain.Receipt, error)
	TransferToken(ctx context.Context, key *ecdsa.PrivateKey, contract, to common.Address, amount, gasPrice *big.Int) (*chain.Receipt, error)
}

// BalanceSource answers read-only balance queries for the precondition checks
type BalanceSource interface {
	Balance(ctx context.Context, address string, token domain.Token) (*big.Int, error)
}

// Ledger owns the per-account counter and history for the duration of one
// invocation. The two writes are independent; the rare process-death window
// between them can leave the counter one behind the history, which is
// accepted.
type Ledger interface {
	AppendTransaction(address string, tx domain.Transaction) error
	IncrementTxCount(address string) error
}

// Advisor assesses transfer risk; failures degrade to neutral advice
type Advisor interface {
	Assess(ctx context.Context, toAddress, amount string) string
}

// Refresher re-fetches tracked balances after settlement
type Refresher interface {
	Refresh(ctx context.Context, address string) (map[string]string, error)
}

// Acknowledger is the explicit user checkpoint shown the risk advice before
// anything irreversible happens
type Acknowledger interface {
	Confirm(advice string) bool
}

// AckFunc adapts a function to the Acknowledger interface
type AckFunc func(advice string) bool

// Confirm implements Acknowledger
func (f AckFunc) Confirm(advice string) bool { return f(advice) }

// Request describes one user-initiated send. Config is passed by value so
// the evaluation sees one consistent policy snapshot.
type Request struct {
	From         string            // Sender address
	Key          *ecdsa.PrivateKey // Unlocked signing key (in-memory only)
	To           string            // Destination address
	Token        domain.Token      // Asset being sent
	Amount       *big.Int          // Send amount in smallest units
	AmountText   string            // Amount as the user entered it
	GasPrice     *big.Int          // User-selected gas price in wei
	GasPriceText string            // Gas price as the user entered it, in gwei
	Config       fee.Config        // Fee policy snapshot
	TxCount      int               // Settled sends so far, drives the fee cycle
	OnState      func(State)       // Optional state-transition observer
}

// Result is the outcome of a settled invocation
type Result struct {
	Record  domain.Transaction // The history record that was appended
	FeePaid bool               // Whether a service-fee transfer preceded the send
	Advice  string             // The risk advisory shown at the checkpoint
}

// Pipeline executes settlements. One instance serves all accounts; at most
// one invocation runs per account at a time.
type Pipeline struct {
	chain        Transferer
	balances     BalanceSource
	ledger       Ledger
	advisor      Advisor
	refresher    Refresher
	mainToken    domain.Token
	adminAddress common.Address

	mu       sync.Mutex
	inFlight map[string]bool
}

// New creates a Pipeline. mainToken is the asset service fees are paid in;
// adminAddress receives them.
func New(transferer Transferer, balances BalanceSource, ledger Ledger, advisor Advisor, refresher Refresher, mainToken domain.Token, adminAddress string) *Pipeline {
	return &Pipeline{
		chain:        transferer,
		balances:     balances,
		ledger:       ledger,
		advisor:      advisor,
		refresher:    refresher,
		mainToken:    mainToken,
		adminAddress: common.HexToAddress(adminAddress),
		inFlight:     make(map[string]bool),
	}
}

// acquire reserves the account for one invocation
func (p *Pipeline) acquire(address string) bool {
	key := strings.ToLower(address)
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inFlight[key] {
		return false
	}
	p.inFlight[key] = true
	return true
}

// release frees the account after an invocation
func (p *Pipeline) release(address string) {
	key := strings.ToLower(address)
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.inFlight, key)
}

// Run executes one settlement end to end. Local state (counter, history) is
// written only after the principal transfer confirms; every earlier failure
// leaves it untouched.
func (p *Pipeline) Run(ctx context.Context, req Request, ack Acknowledger) (*Result, error) {
	if req.Key == nil || p.chain == nil {
		return nil, ErrWalletUnavailable
	}
	if !p.acquire(req.From) {
		return nil, ErrTransferInFlight
	}
	defer p.release(req.From)

	inv := &invocation{req: req, log: logrus.WithFields(logrus.Fields{
		"from":   req.From,
		"to":     req.To,
		"amount": req.AmountText,
		"symbol": req.Token.Symbol,
	})}

	eval := fee.Evaluate(req.TxCount, req.Config)

	// Preconditions: no network mutation happens before these pass
	feeAmount, err := p.checkBalances(ctx, req, eval)
	if err != nil {
		inv.transition(StateFailed)
		return nil, err
	}

	// Step 1: risk annotation and the explicit confirmation checkpoint.
	// Declining here aborts with zero on-chain effect.
	inv.transition(StateAwaitingRiskAck)
	advice := p.advisor.Assess(ctx, req.To, req.AmountText)
	if !ack.Confirm(advice) {
		inv.transition(StateIdle)
		return nil, ErrAdvisoryDeclined
	}
	if err := ctx.Err(); err != nil {
		inv.transition(StateIdle)
		return nil, err
	}

	// Past this point the flow is non-cancellable; confirmation waits are
	// bounded by the chain client, not by the caller's context.
	runCtx := context.WithoutCancel(ctx)

	// Step 2: service-fee transfer, confirmed before the principal moves
	if eval.WillPayAppFee {
		inv.transition(StateFeeInFlight)
		_, err := p.chain.TransferToken(runCtx, req.Key, common.HexToAddress(p.mainToken.Address), p.adminAddress, feeAmount, req.GasPrice)
		if err != nil {
			inv.transition(StateFailed)
			return nil, stepError(ErrFeeTransferFailed, err)
		}
		inv.log.WithField("fee", req.Config.DefaultFee).Info("Service fee confirmed")
	}

	// Step 3: principal transfer
	inv.transition(StatePrincipalInFlight)
	var receipt *chain.Receipt
	if req.Token.IsNative() {
		receipt, err = p.chain.TransferNative(runCtx, req.Key, common.HexToAddress(req.To), req.Amount, req.GasPrice)
	} else {
		receipt, err = p.chain.TransferToken(runCtx, req.Key, common.HexToAddress(req.Token.Address), common.HexToAddress(req.To), req.Amount, req.GasPrice)
	}
	if err != nil {
		inv.transition(StateFailed)
		// A fee confirmed in step 2 is not refunded or recorded
		return nil, stepError(ErrPrincipalTransferFailed, err)
	}

	// Step 4: record the receipt, then advance the fee cycle by exactly one
	record := p.buildRecord(req, eval, receipt)
	result := &Result{Record: record, FeePaid: eval.WillPayAppFee, Advice: advice}
	if err := p.ledger.AppendTransaction(req.From, record); err != nil {
		inv.transition(StateSettled)
		return result, fmt.Errorf("transfer settled but recording history failed: %w", err)
	}
	if err := p.ledger.IncrementTxCount(req.From); err != nil {
		inv.transition(StateSettled)
		return result, fmt.Errorf("transfer settled but advancing the fee cycle failed: %w", err)
	}

	// Step 5: refresh tracked balances
	if p.refresher != nil {
		if _, err := p.refresher.Refresh(runCtx, req.From); err != nil {
			inv.log.WithError(err).Warn("Post-settlement balance refresh failed")
		}
	}

	inv.transition(StateSettled)
	inv.log.WithField("hash", record.Hash).Info("Transfer settled")
	return result, nil
}

// checkBalances enforces the fee preconditions and returns the fee amount in
// smallest units when one is due
func (p *Pipeline) checkBalances(ctx context.Context, req Request, eval fee.Evaluation) (*big.Int, error) {
	if !eval.WillPayAppFee {
		return nil, nil
	}

	feeAmount, err := amount.Parse(req.Config.DefaultFee, int(p.mainToken.Decimals))
	if err != nil {
		return nil, fmt.Errorf("invalid configured fee: %w", err)
	}

	mainBalance, err := p.balances.Balance(ctx, req.From, p.mainToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read main-token balance: %w", err)
	}
	if mainBalance.Cmp(feeAmount) < 0 {
		return nil, fmt.Errorf("%w: need %s %s", ErrInsufficientFeeBalance, req.Config.DefaultFee, p.mainToken.Symbol)
	}

	// Sending the main token itself: the balance must cover amount + fee
	if req.Token.Is(p.mainToken.Address) {
		needed := new(big.Int).Add(req.Amount, feeAmount)
		if mainBalance.Cmp(needed) < 0 {
			return nil, fmt.Errorf("%w: need %s %s", ErrInsufficientCombinedBalance,
				amount.Format(needed, int(p.mainToken.Decimals)), p.mainToken.Symbol)
		}
	}
	return feeAmount, nil
}

// buildRecord assembles the immutable history entry for a confirmed send
func (p *Pipeline) buildRecord(req Request, eval fee.Evaluation, receipt *chain.Receipt) domain.Transaction {
	estimate := fee.EstimateNetworkFee(req.Token.IsNative(), req.GasPrice, eval.WillPayAppFee)

	gasUsed := receipt.GasUsed
	if gasUsed == 0 {
		gasUsed = chain.TokenTransferGas
		if req.Token.IsNative() {
			gasUsed = chain.NativeTransferGas
		}
	}

	return domain.Transaction{
		Hash:        receipt.Hash,
		FromAddress: req.From,
		ToAddress:   req.To,
		Value:       req.AmountText,
		Symbol:      req.Token.Symbol,
		Timestamp:   time.Now().UnixMilli(),
		Status:      domain.TxStatusConfirmed,
		Fee:         amount.Format(estimate, amount.EtherDecimals),
		GasUsed:     strconv.FormatUint(gasUsed, 10),
		GasPrice:    req.GasPriceText,
	}
}

// stepError classifies a transfer failure, preserving the provider reason
func stepError(step error, cause error) error {
	if errors.Is(cause, chain.ErrConfirmationTimeout) {
		return fmt.Errorf("%w: %s", ErrConfirmationTimeout, cause)
	}
	return fmt.Errorf("%w: %s", step, cause)
}

// invocation tracks the state machine of one Run
type invocation struct {
	req   Request
	state State
	log   *logrus.Entry
}

func (inv *invocation) transition(next State) {
	inv.state = next
	inv.log.WithField("state", next.String()).Debug("Settlement state")
	if inv.req.OnState != nil {
		inv.req.OnState(next)
	}
}
