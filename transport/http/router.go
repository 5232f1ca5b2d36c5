package http

import (
	"github.com/gin-gonic/gin"
	"github.com/kakao/partnersso/ports"
	"github.com/rs/zerolog"
)

// SetupRouter sets up the Gin router
func SetupRouter(provider AccountProvider, login Authenticator, tokenizer ports.Tokenizer, logger zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(logger))

	handlers := NewSSOHandlers(provider, login)

	sso := router.Group("/sso")
	sso.Use(AuthMiddleware(tokenizer))
	{
		sso.GET("/available", handlers.Available)
		sso.GET("/accounts", handlers.Accounts)
		sso.POST("/select", handlers.Select)
		sso.POST("/invalid", handlers.Invalid)
		sso.POST("/login", handlers.Login)
	}

	return router
}
