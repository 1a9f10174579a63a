package api

import (
	"net/http" // HTTP status codes

	"github.com/JJJH27/bleswallet/internal/keys"       // Signing key helpers
	"github.com/JJJH27/bleswallet/internal/middleware" // Context keys
	"github.com/JJJH27/bleswallet/internal/session"    // In-memory key registry
	"github.com/JJJH27/bleswallet/internal/store"      // Persistence store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// UnlockRequest identifies the account to unlock and its PIN when one is set
type UnlockRequest struct {
	Address string `json:"address" binding:"required"` // Account to unlock
	Pin     string `json:"pin"`                        // PIN, required only when the gate is enabled
}

// UnlockResponse carries the session token for the unlocked account
type UnlockResponse struct {
	Token   string `json:"token"`   // Session JWT
	Address string `json:"address"` // Unlocked address
	Name    string `json:"name"`    // Display name
}

// UnlockHandler verifies the PIN gate, decodes the stored key into memory
// and issues a session token
func UnlockHandler(st *store.Store, registry *session.Registry, jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UnlockRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		account, err := st.AccountByAddress(req.Address) // Find the stored account
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		// PIN gate: plaintext comparison against the stored code. Absence of
		// a settings row means the gate is disabled.
		security, err := st.SecuritySettings(account.Address)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read security settings"})
			return
		}
		if security.PinEnabled && req.Pin != security.PinCode {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Incorrect PIN"})
			return
		}
		// Decode the stored key and keep it in memory for the session
		hexKey, err := keys.Decode(account.EncryptedPK)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored key is unreadable"})
			return
		}
		key, err := keys.Parse(hexKey)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored key is invalid"})
			return
		}
		registry.Put(account.Address, key) // Unlock: key lives in memory only
		// Issue the session token
		token, err := session.GenerateToken(account.Address, jwtSecret)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		// Log the unlock
		logrus.WithFields(logrus.Fields{
			"address": account.Address, // Unlocked address
		}).Info("Account unlocked")
		c.JSON(http.StatusOK, UnlockResponse{Token: token, Address: account.Address, Name: account.Name})
	}
}

// LogoutHandler drops the in-memory signing key, locking the account
func LogoutHandler(registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		registry.Drop(address)                        // Remove the key from memory
		c.JSON(http.StatusOK, gin.H{"message": "Locked"})
	}
}
