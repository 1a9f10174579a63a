package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String comparison

	"github.com/gin-gonic/gin" // Gin web framework
)

// AdminOnlyMiddleware restricts a route group to the administrative address.
// Admin status is not a role: it is identity with the configured fee
// collector address, checked on every request.
func AdminOnlyMiddleware(adminAddress string) gin.HandlerFunc {
	return func(c *gin.Context) {
		address := c.GetString(AddressKey) // Get unlocked address from context
		if address == "" {
			// No unlocked session, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		// Only the admin address may proceed
		if !strings.EqualFold(address, adminAddress) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next() // Proceed to the next handler
	}
}
