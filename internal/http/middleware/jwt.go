package middleware

import (
	"net/http"
	"strings"

	"pyramid_empire/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextWallet = "wallet"
)

// JWT requires "Authorization: Bearer <token>" and stores the caller's
// user id (int64) and wallet in the gin context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token", "code": "unauthorized"})
			return
		}

		claims, err := service.ParseJWT(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "code": "unauthorized"})
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextWallet, claims.Wallet)
		c.Next()
	}
}

// AdminOnly lets through callers whose wallet is in the allow-list.
// Wallets are compared lowercased. Requires JWT to run first.
func AdminOnly(wallets []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		allowed[strings.ToLower(w)] = true
	}
	return func(c *gin.Context) {
		wallet := strings.ToLower(c.GetString(ContextWallet))
		if wallet == "" || !allowed[wallet] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required", "code": "forbidden"})
			return
		}
		c.Next()
	}
}
