package api

import (
	"errors"   // Error matching
	"net/http" // HTTP status codes

	"github.com/JJJH27/bleswallet/internal/chain"  // Chain client for metadata lookup
	"github.com/JJJH27/bleswallet/internal/domain" // Importing domain models
	"github.com/JJJH27/bleswallet/internal/store"  // Persistence store

	"github.com/ethereum/go-ethereum/common" // Address validation
	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/sirupsen/logrus"             // Logging library
)

// ListTokensHandler returns the active token set
func ListTokensHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokens, err := st.Tokens() // Fetch tracked tokens
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list tokens"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tokens": tokens})
	}
}

// AddTokenRequest registers a custom token; metadata fields are optional and
// read from the contract when omitted
type AddTokenRequest struct {
	Address  string `json:"address" binding:"required"` // Token contract address
	Symbol   string `json:"symbol"`                     // Optional ticker override
	Name     string `json:"name"`                       // Optional name override
	Decimals *uint8 `json:"decimals"`                   // Optional precision override
	Logo     string `json:"logo"`                       // Optional icon reference
}

// AddTokenHandler adds a custom token to the tracked set
func AddTokenHandler(st *store.Store, chainClient chain.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AddTokenRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		// Validate the contract address format
		if !common.IsHexAddress(req.Address) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token address"})
			return
		}
		token := domain.Token{
			Address:  req.Address, // Lowercased by the store
			Symbol:   req.Symbol,  // May be filled from chain below
			Name:     req.Name,    // May be filled from chain below
			Logo:     req.Logo,    // Icon reference
			Decimals: 18,          // Default precision
		}
		if req.Decimals != nil {
			token.Decimals = *req.Decimals
		}
		// Fill missing metadata from the contract
		if token.Symbol == "" || token.Name == "" || req.Decimals == nil {
			name, symbol, decimals, err := chainClient.TokenMetadata(c.Request.Context(), common.HexToAddress(req.Address))
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Token contract is unreadable: " + err.Error()})
				return
			}
			if token.Name == "" {
				token.Name = name
			}
			if token.Symbol == "" {
				token.Symbol = symbol
			}
			if req.Decimals == nil {
				token.Decimals = decimals
			}
		}
		// Persist with case-insensitive dedupe
		if err := st.AddToken(&token); err != nil {
			if errors.Is(err, store.ErrTokenExists) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Token already added"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add token"})
			return
		}
		// Log the addition
		logrus.WithFields(logrus.Fields{
			"symbol":  token.Symbol,  // Token symbol
			"address": token.Address, // Contract address
		}).Info("Custom token added")
		c.JSON(http.StatusCreated, gin.H{"token": token})
	}
}

// RemoveTokenHandler removes a custom token from the tracked set.
// The native asset and the main application token are refused.
func RemoveTokenHandler(st *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.Param("address") // Token address from the path
		if err := st.RemoveToken(address); err != nil {
			switch {
			case errors.Is(err, store.ErrTokenNotRemovable):
				c.JSON(http.StatusBadRequest, gin.H{"error": "This token cannot be removed"})
			case errors.Is(err, store.ErrTokenNotFound):
				c.JSON(http.StatusNotFound, gin.H{"error": "Token not found"})
			default:
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove token"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Token removed"})
	}
}
