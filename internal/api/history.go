package api

import (
	"fmt"      // String formatting
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String normalization
	"time"     // Cache TTL

	"github.com/JJJH27/bleswallet/internal/cache"      // Redis cache helpers
	"github.com/JJJH27/bleswallet/internal/domain"     // Importing domain models
	"github.com/JJJH27/bleswallet/internal/middleware" // Context keys
	"github.com/JJJH27/bleswallet/internal/store"      // Persistence store

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

const (
	historyPageSize  = 10              // Records per page
	historyCacheTTL  = 5 * time.Minute // How long cached pages live
	historyCachePage = 5               // Only the first N pages are cached
)

// HistoryPage is one page of an account's settled sends
type HistoryPage struct {
	Transactions []domain.Transaction `json:"transactions"` // Records, newest first
	Total        int64                `json:"total"`        // Total records for the account
	Page         int                  `json:"page"`         // Current page number
	PageSize     int                  `json:"pageSize"`     // Records per page
}

// GetTransactionsHandler returns paginated history, caching the first pages
func GetTransactionsHandler(st *store.Store, c2 *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey)        // Unlocked address from context
		page, _ := strconv.Atoi(c.DefaultQuery("page", "1")) // Page number from query
		if page < 1 {
			page = 1
		}

		cacheKey := fmt.Sprintf("txhistory:%s:page:%d", strings.ToLower(address), page)
		if page <= historyCachePage {
			var cached HistoryPage
			found, err := c2.Get(c.Request.Context(), cacheKey, &cached) // Try cache first
			if err != nil {
				logrus.WithError(err).Warn("History cache read failed")
			} else if found {
				c.JSON(http.StatusOK, cached) // Serve from cache
				return
			}
		}

		txs, total, err := st.History(address, page, historyPageSize) // Fetch from database
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
			return
		}
		result := HistoryPage{
			Transactions: txs,             // Records for this page
			Total:        total,           // Total record count
			Page:         page,            // Echoed page number
			PageSize:     historyPageSize, // Page size
		}

		// Cache the first pages only; deeper pages are rarely revisited
		if page <= historyCachePage {
			if err := c2.Set(c.Request.Context(), cacheKey, result, historyCacheTTL); err != nil {
				logrus.WithError(err).Warn("History cache write failed")
			}
		}
		c.JSON(http.StatusOK, result)
	}
}

// ClearHistoryHandler drops the local history for the unlocked account.
// On-chain records are unaffected; only the device copy is removed.
func ClearHistoryHandler(st *store.Store, c2 *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(middleware.AddressKey) // Unlocked address from context
		if err := st.ClearHistory(address); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear history"})
			return
		}
		invalidateHistoryCache(c, c2, address) // Drop cached pages too
		logrus.WithField("address", address).Info("Transaction history cleared")
		c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
	}
}
