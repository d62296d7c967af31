package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/gin-gonic/gin"
)

const (
	errInternalServer = "Internal server error"
	errMissingEmail   = "Query parameter email is required"
)

// domainErrors maps the per-request error kinds to their status. Anything
// not listed is a 500.
var domainErrors = []struct {
	err    error
	status int
}{
	{domain.ErrUserNotFound, http.StatusNotFound},
	{domain.ErrRecoveryTokenNotFound, http.StatusNotFound},
	{domain.ErrUserAlreadyExists, http.StatusBadRequest},
	{domain.ErrInvalidEmail, http.StatusBadRequest},
	{domain.ErrInvalidPhoneNumber, http.StatusBadRequest},
	{domain.ErrInvalidRecoveryToken, http.StatusBadRequest},
	{domain.ErrNoMoreUsers, http.StatusBadRequest},
	{domain.ErrWrongPassword, http.StatusForbidden},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrInvalidLoginToken, http.StatusForbidden},
	{domain.ErrInvalidAPISecret, http.StatusForbidden},
}

func respondError(ctx context.Context, c *gin.Context, logger *slog.Logger, op string, err error) {
	for _, e := range domainErrors {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": e.err.Error()})
			return
		}
	}
	logger.ErrorContext(ctx, op, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
