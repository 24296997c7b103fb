package http

import (
	"github.com/gin-gonic/gin"

	"github.com/garmlabs/garm/service"
)

// SetupRouter sets up the gin router with the auth and protected routes.
func SetupRouter(authService *service.AuthService) *gin.Engine {
	router := gin.Default()
	router.Use(RequestID())

	handlers := NewAuthHandlers(authService)

	auth := router.Group("/auth")
	{
		auth.POST("/signup", handlers.SignUp)
		auth.POST("/login", handlers.Login)
		auth.POST("/refresh", handlers.Refresh)
		auth.POST("/logout", handlers.Logout)
	}

	api := router.Group("/api")
	api.Use(AuthMiddleware(authService))
	{
		api.GET("/profile", handlers.Profile)
	}

	return router
}
