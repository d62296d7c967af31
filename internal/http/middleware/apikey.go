package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	APIKeyParam = "api_key"

	errAPIKeyMissing = "API key is required"
	errAPIKeyInvalid = "API key is invalid"
	errInternal      = "Internal server error"
)

// apiKeyMeter is the subset of APIKeyUsecase the gate needs.
type apiKeyMeter interface {
	Check(ctx context.Context, key string) (bool, error)
	Record(ctx context.Context, key string, call domain.APICall) error
}

// APIKeyGate rejects requests without a known api_key query parameter and
// records one call per admitted request. A missing key is 401, an unknown
// key 403. Recording failures are logged and never change the response.
func APIKeyGate(meter apiKeyMeter, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "api_key_gate")

	return func(c *gin.Context) {
		key := c.Query(APIKeyParam)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errAPIKeyMissing})
			return
		}

		ctx := c.Request.Context()
		ok, err := meter.Check(ctx, key)
		if err != nil {
			logger.ErrorContext(ctx, "check api key", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errInternal})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errAPIKeyInvalid})
			return
		}

		start := time.Now()
		c.Next()
		elapsed := time.Since(start)

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		call := domain.APICall{
			Path:      path,
			Method:    c.Request.Method,
			Status:    c.Writer.Status(),
			Elapsed:   elapsed.Seconds(),
			Timestamp: start,
		}
		if err := meter.Record(ctx, key, call); err != nil {
			logger.ErrorContext(ctx, "record api call", "path", path, "error", err)
		}
	}
}
