package api

import (
	"net/http" // HTTP status codes
	"strings"  // String comparison

	"github.com/JJJH27/bleswallet/internal/balance"    // Balance service
	"github.com/JJJH27/bleswallet/internal/fee"        // Fee policy evaluator
	"github.com/JJJH27/bleswallet/internal/middleware" // Context keys
	"github.com/JJJH27/bleswallet/internal/store"      // Persistence store

	"github.com/gin-gonic/gin"      // Gin web framework
	qrcode "github.com/skip2/go-qrcode" // QR code generation
)

// WalletResponse is the active wallet state with a fee-cycle preview
type WalletResponse struct {
	Address       string `json:"address"`       // Active account address
	Name          string `json:"name"`          // Display name
	IsAdmin       bool   `json:"isAdmin"`       // Whether this is the administrative address
	TxCount       int    `json:"txCount"`       // Settled sends so far
	TxUntilFee    int    `json:"txUntilFee"`    // Sends remaining until a service fee is due
	WillPayAppFee bool   `json:"willPayAppFee"` // Whether the next send pays the fee
}

// GetWalletHandler returns the unlocked account's state
func GetWalletHandler(st *store.Store, adminAddress string) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		account, err := st.AccountByAddress(address)  // Load the stored account
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
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
		eval := fee.Evaluate(txCount, cfg) // Fee-cycle preview for the next send
		c.JSON(http.StatusOK, WalletResponse{
			Address:       account.Address,                              // Active address
			Name:          account.Name,                                 // Display name
			IsAdmin:       strings.EqualFold(address, adminAddress),     // Admin identity check
			TxCount:       txCount,                                      // Settled sends
			TxUntilFee:    eval.TxUntilFee,                              // Cycle position
			WillPayAppFee: eval.WillPayAppFee,                           // Fee due next send
		})
	}
}

// BalancesHandler returns cached balances for all tracked tokens.
// Pass ?refresh=1 to force a chain re-fetch.
func BalancesHandler(balances *balance.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		var (
			result map[string]string
			err    error
		)
		if c.Query("refresh") == "1" {
			result, err = balances.Refresh(c.Request.Context(), address) // Forced chain read
		} else {
			result, err = balances.Balances(c.Request.Context(), address) // Cache-first read
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch balances"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"balances": result})
	}
}

// ReceiveQRHandler renders the active address as a QR code PNG
func ReceiveQRHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		png, err := qrcode.Encode(address, qrcode.Medium, 256) // Encode address as QR
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render QR code"})
			return
		}
		c.Data(http.StatusOK, "image/png", png) // Serve the PNG directly
	}
}
