package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"poovi/internal/api/middleware"
	"poovi/internal/auth"
	"poovi/internal/billing"
	"poovi/internal/config"
	"poovi/internal/portfolio"
	"poovi/internal/storage"
)

// Deps 汇总路由所需的全部依赖。db 与 storageClient 在纯文件后端
// 部署下可以为 nil，此时账号与头像相关路由不会注册。
type Deps struct {
	Config        *config.Config
	DB            *gorm.DB
	Store         portfolio.Store
	Renderer      *portfolio.Renderer
	AsynqClient   *asynq.Client
	AuthService   *auth.AuthService
	RedisClient   *redis.Client
	StorageClient *storage.Client
	Billing       *billing.Client
	Logger        *slog.Logger
}

// RegisterRoutes 注册全部 API 路由。
func RegisterRoutes(router *gin.Engine, deps Deps) {
	portfolioHandler := NewPortfolioHandler(deps.Store, deps.AsynqClient, deps.Logger)
	templateHandler := NewTemplateHandler()
	publicHandler := NewPublicHandler(deps.Store, deps.Renderer, deps.Logger)
	billingHandler := NewBillingHandler(deps.Billing, deps.Logger)

	// 公开页面走分享链接，不要求登录。
	router.GET("/portfolio/:link", publicHandler.ViewPortfolio)

	v1 := router.Group("/v1")

	billingGroup := v1.Group("/billing")
	{
		billingGroup.OPTIONS("/order", billingHandler.CreateOrderPreflight)
		billingGroup.POST("/order", billingHandler.CreateOrder)
	}

	templateGroup := v1.Group("/templates")
	{
		templateGroup.GET("", templateHandler.ListTemplates)
		templateGroup.GET("/categories", templateHandler.ListCategories)
		templateGroup.GET("/:id", templateHandler.GetTemplate)
	}

	if deps.DB == nil || deps.AuthService == nil {
		// 文件后端：单机使用，没有账号体系，作品集路由直接开放。
		// 处理器仍从上下文取 userID，这里固定为 0（无账号）。
		portfolioGroup := v1.Group("/portfolios")
		portfolioGroup.Use(func(c *gin.Context) {
			c.Set("userID", uint(0))
			c.Next()
		})
		{
			portfolioGroup.POST("", portfolioHandler.CreatePortfolio)
			portfolioGroup.GET("", portfolioHandler.ListPortfolios)
			portfolioGroup.GET("/:id", portfolioHandler.GetPortfolio)
			portfolioGroup.PATCH("/:id", portfolioHandler.UpdatePortfolio)
			portfolioGroup.DELETE("/:id", portfolioHandler.DeletePortfolio)
		}
		return
	}

	authHandler := NewAuthHandler(
		deps.DB,
		deps.AuthService,
		deps.RedisClient,
		deps.Logger,
		deps.Config.Auth.LoginRateLimitPerHour,
		deps.Config.Auth.LoginLockThreshold,
		time.Duration(deps.Config.Auth.LoginLockTTLMinutes)*time.Minute,
		deps.Config.Auth.CookieDomain,
	)
	profileHandler := NewProfileHandler(deps.DB, deps.StorageClient, deps.Logger, deps.Config.MinIO.ClamdAddr)
	wsHandler := NewWsHandler(deps.RedisClient, deps.AuthService, deps.Logger, nil)
	authMiddleware := middleware.AuthMiddleware(deps.AuthService)

	v1.GET("/ws", wsHandler.HandleConnection)

	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/logout", authMiddleware, authHandler.Logout)
	}

	portfolioGroup := v1.Group("/portfolios")
	portfolioGroup.Use(authMiddleware)
	{
		portfolioGroup.POST("", portfolioHandler.CreatePortfolio)
		portfolioGroup.GET("", portfolioHandler.ListPortfolios)
		portfolioGroup.GET("/:id", portfolioHandler.GetPortfolio)
		portfolioGroup.PATCH("/:id", portfolioHandler.UpdatePortfolio)
		portfolioGroup.DELETE("/:id", portfolioHandler.DeletePortfolio)
	}

	profileGroup := v1.Group("/profile")
	profileGroup.Use(authMiddleware)
	{
		profileGroup.GET("", profileHandler.GetProfile)
		profileGroup.PATCH("", profileHandler.UpdateProfile)
		profileGroup.POST("/photo", profileHandler.UploadPhoto)
	}
}
