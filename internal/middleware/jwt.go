package middleware

import (
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"github.com/JJJH27/bleswallet/internal/session" // Session token helpers

	"github.com/gin-gonic/gin" // Gin web framework
)

// AddressKey is the context key under which the unlocked address is stored
const AddressKey = "address"

// JWTAuthMiddleware validates session tokens and extracts the account address
func JWTAuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string
		claims, err := session.ParseToken(tokenStr, secret)   // Parse the session token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}
		c.Set(AddressKey, claims.Address) // Store the account address in context
		c.Next()                          // Proceed to the next handler
	}
}
