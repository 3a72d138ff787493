// internal/app/health.go
package app

import (
	"context"
	"net/http"
	"time"

	"marketplace-service/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthCheck pings one optional dependency.
type HealthCheck func(ctx context.Context) error

func healthHandler(checks map[string]HealthCheck, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		body := gin.H{
			"status": "healthy",
			"time":   time.Now().UTC().Format(time.RFC3339),
		}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				middleware.Logger(c, logger).Warn("health check failed", zap.String("dependency", name), zap.Error(err))
				body[name] = "error"
				body["status"] = "unhealthy"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}
		c.JSON(status, body)
	}
}
