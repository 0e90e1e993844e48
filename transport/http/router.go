package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/DCMX-Protocol/walletgate/internal/observability"
	"github.com/DCMX-Protocol/walletgate/service"
)

// SetupRouter builds the gin engine with the auth routes, the
// protected API group, and the operational endpoints.
func SetupRouter(authService *service.AuthService, log *zap.Logger, metrics *observability.Metrics) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if metrics != nil {
		router.Use(metrics.Instrument())
	}

	handlers := NewAuthHandlers(authService, log)

	auth := router.Group("/auth")
	{
		auth.POST("/nonce", handlers.Nonce)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
		auth.GET("/profile", AuthMiddleware(authService, log), handlers.Profile)
	}

	api := router.Group("/api")
	api.Use(AuthMiddleware(authService, log))
	{
		api.GET("/me", handlers.Me)
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	return router
}
