// internal/middleware/helpers.go
package middleware

import (
	"marketplace-service/internal/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func getString(c *gin.Context, key string) string {
	v, exists := c.Get(key)
	if !exists {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetAccountID returns the caller's CRM account id, "" when unauthenticated
func GetAccountID(c *gin.Context) string {
	return getString(c, ctxAccountID)
}

// GetUserID returns the caller's platform user id
func GetUserID(c *gin.Context) string {
	return getString(c, ctxUserID)
}

// GetRole returns buyer or seller
func GetRole(c *gin.Context) string {
	return getString(c, ctxRole)
}

// GetRequestID returns the id assigned by RequestID()
func GetRequestID(c *gin.Context) string {
	return getString(c, ctxRequestID)
}

// IsAuthenticated checks if request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get(ctxAccountID)
	return exists
}

// Logger returns the request-scoped logger, or fallback when none was stored.
func Logger(c *gin.Context, fallback *zap.Logger) *zap.Logger {
	return logger.FromContext(c.Request.Context(), fallback)
}
