package api

import (
	"net/http" // HTTP status codes

	"github.com/JJJH27/bleswallet/internal/fee"   // Fee policy types
	"github.com/JJJH27/bleswallet/internal/store" // Persistence store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// GetConfigHandler returns the device-wide fee policy
func GetConfigHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg, err := st.AdminConfig() // Load the current policy
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read fee policy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"config": cfg})
	}
}

// UpdateConfigRequest replaces the fee policy
type UpdateConfigRequest struct {
	FeeFrequency int    `json:"feeFrequency" binding:"required"` // Charge a fee every N sends, minimum 1
	DefaultFee   string `json:"defaultFee" binding:"required"`   // Fee amount in main-token units
}

// UpdateConfigHandler validates and stores a new fee policy. A frequency of
// zero is rejected before it can reach storage.
func UpdateConfigHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateConfigRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		cfg := fee.Config{FeeFrequency: req.FeeFrequency, DefaultFee: req.DefaultFee}
		if err := st.SaveAdminConfig(cfg); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// Log the policy change
		logrus.WithFields(logrus.Fields{
			"feeFrequency": cfg.FeeFrequency, // New cycle length
			"defaultFee":   cfg.DefaultFee,   // New fee amount
		}).Info("Fee policy updated")
		c.JSON(http.StatusOK, gin.H{"config": cfg})
	}
}

// ResetPinRequest names the account whose PIN gate is cleared
type ResetPinRequest struct {
	Address string `json:"address" binding:"required"` // Target account address
}

// ResetPinHandler disables the PIN gate for any account (admin recovery path)
func ResetPinHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPinRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if _, err := st.AccountByAddress(req.Address); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
			return
		}
		if err := st.ResetPin(req.Address); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset PIN"})
			return
		}
		logrus.WithField("address", req.Address).Warn("PIN reset by admin")
		c.JSON(http.StatusOK, gin.H{"message": "PIN disabled"})
	}
}
