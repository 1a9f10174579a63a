package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"github.com/JJJH27/bleswallet/internal/domain"  // Importing domain models
	"github.com/JJJH27/bleswallet/internal/keys"    // Signing key helpers
	"github.com/JJJH27/bleswallet/internal/session" // In-memory key registry
	"github.com/JJJH27/bleswallet/internal/store"   // Persistence store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// AccountResponse is the public view of a stored account
type AccountResponse struct {
	Address string `json:"address"` // Account address
	Name    string `json:"name"`    // Display name
}

// CreateAccountResponse returns the fresh account together with its key.
// The key is shown exactly once so the user can back it up; it is stored
// only in the reversible legacy encoding.
type CreateAccountResponse struct {
	Address    string `json:"address"`    // Account address
	Name       string `json:"name"`       // Display name
	PrivateKey string `json:"privateKey"` // Hex signing key, shown once for backup
}

// CreateAccountHandler generates a new account (up to the device limit)
func CreateAccountHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		hexKey, address, err := keys.Generate() // Generate a fresh signing key
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate account"})
			return
		}
		name, err := st.NextAccountName(false) // Pick the next display name
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		account := domain.Account{
			Address:     address,             // Derived address
			EncryptedPK: keys.Encode(hexKey), // Reversible legacy encoding
			Name:        name,                // Display name
		}
		// Persist, enforcing the 5-account limit
		if err := st.CreateAccount(&account); err != nil {
			if errors.Is(err, store.ErrAccountLimit) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum of 5 accounts allowed"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
			return
		}
		// Log account creation
		logrus.WithFields(logrus.Fields{
			"address": account.Address, // New account address
			"name":    account.Name,    // Display name
		}).Info("Account created")
		// Return the address and the one-time key backup
		c.JSON(http.StatusCreated, CreateAccountResponse{
			Address:    account.Address,
			Name:       account.Name,
			PrivateKey: hexKey,
		})
	}
}

// ImportAccountRequest carries a user-supplied private key
type ImportAccountRequest struct {
	PrivateKey string `json:"privateKey" binding:"required"` // Hex private key, 0x prefix optional
}

// ImportAccountHandler registers an existing key as a stored account
func ImportAccountHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ImportAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		key, err := keys.Parse(req.PrivateKey) // Parse and normalize the key
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid private key"})
			return
		}
		name, err := st.NextAccountName(true) // Pick the next display name
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import account"})
			return
		}
		account := domain.Account{
			Address:     keys.AddressOf(key),                          // Derived address
			EncryptedPK: keys.Encode(keys.NormalizeHex(req.PrivateKey)), // Reversible legacy encoding
			Name:        name,                                         // Display name
		}
		// Persist, enforcing limit and uniqueness
		if err := st.CreateAccount(&account); err != nil {
			switch {
			case errors.Is(err, store.ErrAccountLimit):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Maximum of 5 accounts allowed"})
			case errors.Is(err, store.ErrAccountExists):
				c.JSON(http.StatusBadRequest, gin.H{"error": "Account already exists"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to import account"})
			}
			return
		}
		// Log account import
		logrus.WithFields(logrus.Fields{
			"address": account.Address, // Imported account address
			"name":    account.Name,    // Display name
		}).Info("Account imported")
		c.JSON(http.StatusCreated, AccountResponse{Address: account.Address, Name: account.Name})
	}
}

// ListAccountsHandler returns all stored accounts (addresses and names only)
func ListAccountsHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := st.Accounts() // Fetch stored accounts
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list accounts"})
			return
		}
		resp := make([]AccountResponse, len(accounts)) // Map to public view
		for i, a := range accounts {
			resp[i] = AccountResponse{Address: a.Address, Name: a.Name}
		}
		c.JSON(http.StatusOK, gin.H{"accounts": resp})
	}
}

// WipeAccountsRequest requires an explicit confirmation flag
type WipeAccountsRequest struct {
	Confirm bool `json:"confirm"` // Must be true; wiping is irreversible
}

// WipeAccountsHandler removes every stored account and security setting.
// Without a backed-up key the funds are unrecoverable afterwards.
func WipeAccountsHandler(st *store.Store, registry *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WipeAccountsRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || !req.Confirm {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Wipe requires explicit confirmation"})
			return
		}
		if err := st.WipeAccounts(); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to wipe accounts"})
			return
		}
		registry.DropAll()                     // Lock everything that was unlocked
		logrus.Warn("All accounts wiped")      // Log the wipe
		c.JSON(http.StatusOK, gin.H{"message": "All accounts removed"})
	}
}
