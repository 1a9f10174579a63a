package api

import (
	"errors"   // Error matching
	"fmt"      // String formatting
	"math/big" // Big integer math
	"net/http" // HTTP status codes
	"strings"  // String normalization

	"github.com/JJJH27/bleswallet/internal/amount"     // Decimal amount conversion
	"github.com/JJJH27/bleswallet/internal/cache"      // Redis cache helpers
	"github.com/JJJH27/bleswallet/internal/domain"     // Importing domain models
	"github.com/JJJH27/bleswallet/internal/fee"        // Fee policy evaluator
	"github.com/JJJH27/bleswallet/internal/middleware" // Context keys
	"github.com/JJJH27/bleswallet/internal/risk"       // Risk advisory client
	"github.com/JJJH27/bleswallet/internal/session"    // In-memory key registry
	"github.com/JJJH27/bleswallet/internal/settlement" // Settlement pipeline
	"github.com/JJJH27/bleswallet/internal/store"      // Persistence store

	"github.com/ethereum/go-ethereum/common" // Address validation
	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/sirupsen/logrus"             // Logging library
)

// Gas price presets in gwei, selected by name in the send form
const (
	GasStandardGwei = "0.5" // Default preset
	GasFastGwei     = "2"   // Priority preset
)

// resolveGasPrice turns a preset name or a literal gwei value into wei
func resolveGasPrice(input string) (*big.Int, string, error) {
	switch input {
	case "", "standard":
		wei, err := amount.ParseGwei(GasStandardGwei)
		return wei, GasStandardGwei, err
	case "fast":
		wei, err := amount.ParseGwei(GasFastGwei)
		return wei, GasFastGwei, err
	default:
		wei, err := amount.ParseGwei(input)
		return wei, input, err
	}
}

// QuoteRequest asks what a send would cost before committing to it
type QuoteRequest struct {
	To       string `json:"to" binding:"required"`     // Destination address
	Symbol   string `json:"symbol" binding:"required"` // Asset to send
	Amount   string `json:"amount" binding:"required"` // Decimal amount in token units
	GasPrice string `json:"gasPrice"`                  // Preset name or gwei value
}

// QuoteResponse previews the fee cycle, the network fee estimate and the
// risk advisory for a prospective send
type QuoteResponse struct {
	Symbol        string `json:"symbol"`        // Asset being quoted
	Amount        string `json:"amount"`        // Echoed amount
	GasPriceGwei  string `json:"gasPriceGwei"`  // Resolved gas price
	NetworkFee    string `json:"networkFee"`    // Estimated network fee in native units
	WillPayAppFee bool   `json:"willPayAppFee"` // Whether a service fee precedes this send
	AppFee        string `json:"appFee"`        // Service fee amount when due, else "0"
	TxUntilFee    int    `json:"txUntilFee"`    // Sends remaining until a fee is due
	Advice        string `json:"advice"`        // Risk advisory text
}

// QuoteHandler previews a send without touching the chain. The advisory
// returned here is what the user accepts when they submit the send.
func QuoteHandler(st *store.Store, advisor risk.Advisor) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		var req QuoteRequest                          // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !common.IsHexAddress(req.To) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination address"})
			return
		}
		token, err := st.TokenBySymbol(req.Symbol) // Resolve the asset
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown token"})
			return
		}
		if _, err := amount.Parse(req.Amount, int(token.Decimals)); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		gasPrice, gasGwei, err := resolveGasPrice(req.GasPrice) // Resolve preset or literal
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gas price"})
			return
		}
		txCount, err := st.TxCount(address) // Settled send counter
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read transaction counter"})
			return
		}
		cfg, err := st.AdminConfig() // Current fee policy
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read fee policy"})
			return
		}
		eval := fee.Evaluate(txCount, cfg)                                          // Fee-cycle decision
		estimate := fee.EstimateNetworkFee(token.IsNative(), gasPrice, eval.WillPayAppFee) // Network fee in wei
		appFee := "0"
		if eval.WillPayAppFee {
			appFee = cfg.DefaultFee
		}
		advice := advisor.Assess(c.Request.Context(), req.To, req.Amount) // Best-effort advisory
		c.JSON(http.StatusOK, QuoteResponse{
			Symbol:        token.Symbol,
			Amount:        req.Amount,
			GasPriceGwei:  gasGwei,
			NetworkFee:    amount.Format(estimate, amount.EtherDecimals),
			WillPayAppFee: eval.WillPayAppFee,
			AppFee:        appFee,
			TxUntilFee:    eval.TxUntilFee,
			Advice:        advice,
		})
	}
}

// SendRequest submits a transfer. AcceptAdvisory is the user's answer to the
// risk checkpoint; without it the pipeline aborts before any chain call.
type SendRequest struct {
	To             string `json:"to" binding:"required"`     // Destination address
	Symbol         string `json:"symbol" binding:"required"` // Asset to send
	Amount         string `json:"amount" binding:"required"` // Decimal amount in token units
	GasPrice       string `json:"gasPrice"`                  // Preset name or gwei value
	AcceptAdvisory bool   `json:"acceptAdvisory"`            // Explicit risk acknowledgement
}

// SendResponse reports a settled send
type SendResponse struct {
	Transaction domain.Transaction `json:"transaction"` // Appended history record
	FeePaid     bool               `json:"feePaid"`     // Whether a service fee was charged
	Advice      string             `json:"advice"`      // Advisory shown at the checkpoint
}

// SendHandler runs the settlement pipeline for one transfer
func SendHandler(st *store.Store, registry *session.Registry, pipeline *settlement.Pipeline, c2 *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		var req SendRequest                           // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if !common.IsHexAddress(req.To) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid destination address"})
			return
		}
		key, ok := registry.Get(address) // Unlocked signing key
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Account is locked"})
			return
		}
		token, err := st.TokenBySymbol(req.Symbol) // Resolve the asset
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown token"})
			return
		}
		value, err := amount.Parse(req.Amount, int(token.Decimals)) // Amount in smallest units
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid amount"})
			return
		}
		if value.Sign() <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
			return
		}
		gasPrice, gasGwei, err := resolveGasPrice(req.GasPrice) // Resolve preset or literal
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gas price"})
			return
		}
		txCount, err := st.TxCount(address) // Settled send counter
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read transaction counter"})
			return
		}
		cfg, err := st.AdminConfig() // Fee policy snapshot for this invocation
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read fee policy"})
			return
		}

		result, err := pipeline.Run(c.Request.Context(), settlement.Request{
			From:         address,
			Key:          key,
			To:           req.To,
			Token:        *token,
			Amount:       value,
			AmountText:   req.Amount,
			GasPrice:     gasPrice,
			GasPriceText: gasGwei,
			Config:       cfg,
			TxCount:      txCount,
		}, settlement.AckFunc(func(advice string) bool {
			// The checkpoint answer was collected on the quote screen
			return req.AcceptAdvisory
		}))
		if err != nil {
			if result != nil {
				// The transfer settled on chain but a local write failed.
				// Report success with a warning rather than a false failure.
				logrus.WithError(err).Warn("Settlement bookkeeping incomplete")
				invalidateHistoryCache(c, c2, address)
				c.JSON(http.StatusOK, SendResponse{Transaction: result.Record, FeePaid: result.FeePaid, Advice: result.Advice})
				return
			}
			status, msg := sendErrorStatus(err)
			c.JSON(status, gin.H{"error": msg})
			return
		}

		invalidateHistoryCache(c, c2, address) // Drop stale history pages
		c.JSON(http.StatusOK, SendResponse{Transaction: result.Record, FeePaid: result.FeePaid, Advice: result.Advice})
	}
}

// sendErrorStatus maps settlement failures to HTTP statuses
func sendErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, settlement.ErrWalletUnavailable):
		return http.StatusServiceUnavailable, "Wallet or network is unavailable"
	case errors.Is(err, settlement.ErrTransferInFlight):
		return http.StatusConflict, "A transfer is already in progress for this account"
	case errors.Is(err, settlement.ErrInsufficientFeeBalance),
		errors.Is(err, settlement.ErrInsufficientCombinedBalance):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, settlement.ErrAdvisoryDeclined):
		return http.StatusBadRequest, "Send cancelled: risk advisory was not accepted"
	case errors.Is(err, settlement.ErrConfirmationTimeout):
		return http.StatusGatewayTimeout, "Transaction confirmation timed out; check the explorer before retrying"
	case errors.Is(err, settlement.ErrFeeTransferFailed),
		errors.Is(err, settlement.ErrPrincipalTransferFailed):
		return http.StatusBadGateway, err.Error()
	default:
		return http.StatusInternalServerError, "Transfer failed"
	}
}

// invalidateHistoryCache removes the first cached history pages after a send
func invalidateHistoryCache(c *gin.Context, c2 *cache.Cache, address string) {
	keys := make([]string, 0, historyCachePage)
	for page := 1; page <= historyCachePage; page++ { // Only the first pages are ever cached
		keys = append(keys, fmt.Sprintf("txhistory:%s:page:%d", strings.ToLower(address), page))
	}
	if err := c2.Delete(c.Request.Context(), keys...); err != nil {
		logrus.WithError(err).Warn("Failed to invalidate history cache")
	}
}
