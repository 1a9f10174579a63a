package api

import (
	"net/http" // HTTP status codes

	"github.com/JJJH27/bleswallet/internal/keys"       // Signing key helpers
	"github.com/JJJH27/bleswallet/internal/middleware" // Context keys
	"github.com/JJJH27/bleswallet/internal/store"      // Persistence store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// SecurityResponse reports whether the PIN gate is on. The code itself is
// never returned.
type SecurityResponse struct {
	PinEnabled bool `json:"pinEnabled"` // Whether unlock requires a PIN
}

// GetSecurityHandler returns the PIN gate state for the unlocked account
func GetSecurityHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		setting, err := st.SecuritySettings(address)  // Load stored settings
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read security settings"})
			return
		}
		c.JSON(http.StatusOK, SecurityResponse{PinEnabled: setting.PinEnabled})
	}
}

// UpdateSecurityRequest toggles the PIN gate. Enabling requires a code of at
// least 4 digits.
type UpdateSecurityRequest struct {
	PinEnabled bool   `json:"pinEnabled"` // Desired gate state
	PinCode    string `json:"pinCode"`    // New code, required when enabling
}

// UpdateSecurityHandler sets the PIN gate for the unlocked account
func UpdateSecurityHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		var req UpdateSecurityRequest                 // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if req.PinEnabled && len(req.PinCode) < 4 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "PIN must be at least 4 characters"})
			return
		}
		if !req.PinEnabled {
			req.PinCode = "" // Disabling clears the stored code
		}
		if err := st.SetSecuritySettings(address, req.PinEnabled, req.PinCode); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update security settings"})
			return
		}
		// Log the gate change, never the code
		logrus.WithFields(logrus.Fields{
			"address": address,        // Account address
			"enabled": req.PinEnabled, // New gate state
		}).Info("PIN gate updated")
		c.JSON(http.StatusOK, SecurityResponse{PinEnabled: req.PinEnabled})
	}
}

// ExportAccountRequest asks for a password-sealed backup of the signing key
type ExportAccountRequest struct {
	Password string `json:"password" binding:"required"` // Encrypts the backup; not stored
}

// ExportAccountHandler returns the unlocked account's key sealed in a
// password-encrypted keystore, suitable for offline backup
func ExportAccountHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		var req ExportAccountRequest                  // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
			return
		}
		account, err := st.AccountByAddress(address) // Load the stored account
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		hexKey, err := keys.Decode(account.EncryptedPK) // Decode the stored key
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Stored key is unreadable"})
			return
		}
		password := []byte(req.Password)
		ks, err := keys.Export(account.Address, hexKey, password) // Seal under the password
		clear(password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export keystore"})
			return
		}
		logrus.WithField("address", address).Info("Keystore exported")
		c.JSON(http.StatusOK, gin.H{"keystore": ks})
	}
}
