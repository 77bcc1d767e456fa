package httptransport

import (
	"net/http"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"zohovault/backend/internal/config"
	"zohovault/backend/internal/health"
	"zohovault/backend/internal/middleware"
	"zohovault/backend/internal/monitoring"
	"zohovault/backend/internal/service"
	"zohovault/backend/internal/session"
)

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config         *config.Config
	AuthService    *service.AuthService
	MailService    *service.MailService
	SessionManager *session.Manager
	Metrics        *monitoring.Metrics
	HealthChecker  *health.HealthChecker
	Logger         *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	router := gin.New()

	// 使用自定义中间件替代默认中间件
	router.Use(middleware.RecoveryHandler(deps.Logger, deps.Metrics))
	router.Use(middleware.RequestLogger(deps.Logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestSizeLimit(1 * 1024 * 1024))
	if deps.Metrics != nil {
		router.Use(middleware.Monitoring(deps.Metrics))
	}

	// CORS 配置
	corsConfig := gincors.Config{
		AllowOrigins:     deps.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Cookie"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	// 如果允许所有来源，则需清空凭证支持。
	for _, origin := range corsConfig.AllowOrigins {
		if origin == "*" {
			corsConfig.AllowCredentials = false
			break
		}
	}
	router.Use(gincors.New(corsConfig))

	// 创建处理器
	authHandler := NewAuthHandler(deps.AuthService, &deps.Config.Session, deps.Logger)
	mailHandler := NewMailHandler(deps.MailService, deps.Logger)

	// 创建中间件
	sessionAuth := middleware.NewSessionAuth(deps.SessionManager, deps.Config.Session.CookieName)
	loginRateLimit := middleware.NewIPRateLimiter(1, 5, deps.Logger)

	// 公开页面
	router.GET("/", authHandler.Landing)
	router.GET("/failed", authHandler.Failed)
	router.GET("/logout", authHandler.Logout)

	// OAuth 登录流程（限流防止授权码爆破）
	authGroup := router.Group("/auth/zoho", loginRateLimit.Middleware())
	{
		authGroup.GET("/login", authHandler.Login)
		authGroup.GET("/callback", authHandler.Callback)
	}

	// 登录成功页需要有效会话
	router.GET("/success", sessionAuth.RequireSession(), authHandler.Success)

	// 受保护的邮件数据端点
	zohoGroup := router.Group("/zoho", sessionAuth.RequireSession())
	{
		zohoGroup.GET("/account", mailHandler.Account)
		zohoGroup.GET("/mails", mailHandler.Mails)
		zohoGroup.GET("/folder", mailHandler.Folders)
		zohoGroup.GET("/attachments", mailHandler.Attachments)
		zohoGroup.GET("/attachment/download", mailHandler.Download)
	}

	// 健康检查
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if deps.HealthChecker != nil {
		router.GET("/health/live", gin.WrapF(deps.HealthChecker.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(deps.HealthChecker.ReadyEndpoint))
	}

	// Prometheus 指标
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	return router
}
