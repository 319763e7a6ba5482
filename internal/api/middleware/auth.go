package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// APIKeyHeader carries the companion API key
const APIKeyHeader = "X-API-Key"

// AuthMiddleware checks the API key against a bcrypt hash.
// An empty hash disables the check; config refuses that in production.
func AuthMiddleware(keyHash string, logger *zap.Logger) gin.HandlerFunc {
	if keyHash == "" {
		logger.Warn("API key check disabled, API_KEY_HASH is not set")
		return func(c *gin.Context) {
			c.Next()
		}
	}

	hash := []byte(keyHash)
	return func(c *gin.Context) {
		apiKey := c.GetHeader(APIKeyHeader)
		if apiKey == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		if err := bcrypt.CompareHashAndPassword(hash, []byte(apiKey)); err != nil {
			logger.Warn("Rejected API key",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", GetRequestID(c)),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
			return
		}

		c.Next()
	}
}
