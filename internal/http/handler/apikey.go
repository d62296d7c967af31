package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ErlanBelekov/auth-server/internal/domain"
	"github.com/gin-gonic/gin"
)

type apiKeyUsecaser interface {
	Issue(ctx context.Context, alias, secret string, healthEndpoint *string) (*domain.APIKey, error)
	Statistics(ctx context.Context) (*domain.CallStatistics, error)
}

type APIKeyHandler struct {
	keys   apiKeyUsecaser
	logger *slog.Logger
}

func NewAPIKeyHandler(keys apiKeyUsecaser, logger *slog.Logger) *APIKeyHandler {
	return &APIKeyHandler{
		keys:   keys,
		logger: logger.With("component", "api_key_handler"),
	}
}

type issueAPIKeyRequest struct {
	Alias          string  `json:"alias"           binding:"required"`
	Secret         string  `json:"secret"          binding:"required"`
	HealthEndpoint *string `json:"health_endpoint" binding:"omitempty,url"`
}

// POST /api_key
// Returns {"api_key": "<hash>"}. Not gated: this is how callers obtain a key.
func (h *APIKeyHandler) Issue(c *gin.Context) {
	var req issueAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	key, err := h.keys.Issue(ctx, req.Alias, req.Secret, req.HealthEndpoint)
	if err != nil {
		respondError(ctx, c, h.logger, "issue api key", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"api_key": key.Hash})
}

// GET /api_key/statistics
func (h *APIKeyHandler) Statistics(c *gin.Context) {
	ctx := c.Request.Context()
	stats, err := h.keys.Statistics(ctx)
	if err != nil {
		respondError(ctx, c, h.logger, "call statistics", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
