package httptransport

import (
	"log/slog"

	"github.com/ErlanBelekov/auth-server/internal/http/handler"
	"github.com/ErlanBelekov/auth-server/internal/http/middleware"
	"github.com/ErlanBelekov/auth-server/internal/metrics"
	"github.com/ErlanBelekov/auth-server/internal/usecase"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type RouterConfig struct {
	// APIKeyGate requires a known api_key query parameter on every route
	// except key issuance.
	APIKeyGate bool
}

func NewRouter(
	cfg RouterConfig,
	logger *slog.Logger,
	m *metrics.Metrics,
	users *usecase.UserUsecase,
	keys *usecase.APIKeyUsecase,
) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics(m))

	userHandler := handler.NewUserHandler(users, logger)
	keyHandler := handler.NewAPIKeyHandler(keys, logger)

	r.POST("/api_key", keyHandler.Issue)

	api := r.Group("")
	if cfg.APIKeyGate {
		api.Use(middleware.APIKeyGate(keys, logger))
	}
	authMW := middleware.Auth(users, logger)

	api.GET("/health", handler.Health)
	api.GET("/api_key/statistics", keyHandler.Statistics)

	api.POST("/user", userHandler.Register)
	api.POST("/user/login", userHandler.Login)
	api.POST("/user/recover_password", userHandler.RecoverPassword)
	api.POST("/user/new_password", userHandler.NewPassword)

	// Protected user routes
	protected := api.Group("", authMW)
	protected.GET("/user/login", userHandler.Me)
	protected.GET("/user", userHandler.Query)
	protected.PUT("/user", userHandler.Update)
	protected.DELETE("/user", userHandler.Delete)
	protected.GET("/registered_users", userHandler.List)

	return r
}
