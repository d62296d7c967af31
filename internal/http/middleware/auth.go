package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	applog "github.com/ErlanBelekov/auth-server/internal/log"
	"github.com/gin-gonic/gin"
)

const (
	callerKey = "caller"

	errUnauthorized      = "Unauthorized"
	errInvalidLoginToken = "Login token is invalid or expired"
)

type loginResolver interface {
	ResolveLogin(ctx context.Context, loginToken string) (*domain.User, error)
}

// Auth resolves the Bearer login token to a user and stores it for
// Caller. An absent token is 401, one that does not resolve is 403.
func Auth(resolver loginResolver, logger *slog.Logger) gin.HandlerFunc {
	logger = logger.With("component", "auth")

	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
			return
		}

		ctx := c.Request.Context()
		user, err := resolver.ResolveLogin(ctx, strings.TrimSpace(raw))
		if err != nil {
			if errors.Is(err, domain.ErrInvalidLoginToken) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errInvalidLoginToken})
				return
			}
			logger.ErrorContext(ctx, "resolve login token", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": errInternal})
			return
		}

		c.Set(callerKey, user)
		c.Request = c.Request.WithContext(applog.WithCaller(ctx, user.Email))
		c.Next()
	}
}

// Caller returns the user resolved by Auth. It panics when Auth did not run,
// which gin.Recovery turns into a 500.
func Caller(c *gin.Context) *domain.User {
	return c.MustGet(callerKey).(*domain.User)
}
