package settlement

import "errors"

// Failure taxonomy for one pipeline invocation. Balance errors are detected
// locally before any network mutation; transfer errors wrap the provider's
// reason and are terminal for the invocation, so the user must re-initiate.
var (
	// ErrWalletUnavailable means no signing key or chain connection was
	// available; the invocation is a no-op.
	ErrWalletUnavailable = errors.New("wallet is locked or chain is unavailable")

	// ErrTransferInFlight means another settlement is already running for
	// the same account.
	ErrTransferInFlight = errors.New("a transfer is already in flight for this account")

	// ErrInsufficientFeeBalance means the main-token balance does not cover
	// the service fee that is due.
	ErrInsufficientFeeBalance = errors.New("insufficient main-token balance for the service fee")

	// ErrInsufficientCombinedBalance means the main-token balance does not
	// cover the send amount plus the service fee.
	ErrInsufficientCombinedBalance = errors.New("insufficient balance for amount plus service fee")

	// ErrAdvisoryDeclined means the user rejected the transfer at the risk
	// checkpoint; nothing was submitted and no state changed.
	ErrAdvisoryDeclined = errors.New("transfer declined at risk confirmation")

	// ErrFeeTransferFailed means the service-fee transfer failed or was
	// rejected; the principal transfer was never attempted.
	ErrFeeTransferFailed = errors.New("service fee transfer failed")

	// ErrPrincipalTransferFailed means the principal transfer failed. A fee
	// confirmed earlier in the same invocation is not refunded.
	ErrPrincipalTransferFailed = errors.New("principal transfer failed")

	// ErrConfirmationTimeout means a confirmation wait exceeded its bound;
	// local state is left exactly as for any other step failure.
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)
