package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/opsboard/operator-auth/internal/application"
	"github.com/opsboard/operator-auth/internal/container"
	handlers "github.com/opsboard/operator-auth/internal/interface/http"
	"github.com/opsboard/operator-auth/internal/interface/middleware"
)

type AuthModule struct {
	Handler  *handlers.AuthHandler
	Sessions *application.SessionAuthority
}

func NewAuthModule(h *handlers.AuthHandler, sessions *application.SessionAuthority) *AuthModule {
	return &AuthModule{Handler: h, Sessions: sessions}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()

	// Public endpoints; the token endpoints get IP-based limits on top
	// of the storage-enforced reset window.
	forgotLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath())
	tokenLimiter := middleware.RateLimit(rdb, 30, time.Minute, middleware.KeyByIPAndPath())

	rg.POST("/auth/login", m.Handler.Login)
	rg.POST("/auth/forgot", forgotLimiter, m.Handler.Forgot)
	rg.POST("/auth/password", tokenLimiter, m.Handler.ResetPassword)
	rg.POST("/auth/welcome", tokenLimiter, m.Handler.Welcome)
	rg.POST("/auth/init", tokenLimiter, m.Handler.Initialize)

	auth := rg.Group("/")
	auth.Use(middleware.SessionAuth(m.Sessions))
	{
		auth.GET("/auth/logout", m.Handler.Logout)
		auth.POST("/auth/operator", m.Handler.Rename)
		auth.POST("/auth/probe", m.Handler.ProbeName)
		auth.POST("/auth/invite",
			middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByOperator()),
			m.Handler.Invite)
	}
}
