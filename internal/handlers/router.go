package handlers

import (
	"github.com/AtoyanMikhail/accounts/internal/logger"
	"github.com/gin-gonic/gin"
)

// NewRouter wires all endpoints. Everything under the authorized group
// requires a valid Bearer access token.
func NewRouter(
	authHandler *AuthHandler,
	userHandler *UserHandler,
	healthHandler *HealthHandler,
	authService AuthService,
	l logger.Logger,
	debugMode bool,
) *gin.Engine {
	if !debugMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID())

	router.GET("/health", healthHandler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/users/register", userHandler.Register)
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)
		v1.POST("/auth/validate", authHandler.Validate)
		v1.POST("/auth/password-reset", authHandler.RequestPasswordReset)
		v1.POST("/auth/password-reset/confirm", authHandler.ConfirmPasswordReset)

		authorized := v1.Group("")
		authorized.Use(RequireAuth(authService, l))
		{
			authorized.POST("/auth/logout", authHandler.Logout)
			authorized.GET("/users/me", userHandler.Me)
			authorized.PATCH("/users/me", userHandler.UpdateProfile)
			authorized.PUT("/users/me/password", userHandler.ChangePassword)
			authorized.DELETE("/users/me", userHandler.DeleteMe)
		}
	}

	return router
}
