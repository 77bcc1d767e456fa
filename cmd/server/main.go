package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"zohovault/backend/internal/config"
	"zohovault/backend/internal/health"
	"zohovault/backend/internal/logger"
	"zohovault/backend/internal/monitoring"
	"zohovault/backend/internal/service"
	"zohovault/backend/internal/session"
	"zohovault/backend/internal/storage"
	"zohovault/backend/internal/storage/filesystem"
	"zohovault/backend/internal/storage/hybrid"
	"zohovault/backend/internal/storage/memory"
	"zohovault/backend/internal/storage/redis"
	sqlstore "zohovault/backend/internal/storage/sql"
	httptransport "zohovault/backend/internal/transport/http"
	"zohovault/backend/internal/zoho"
)

// main 启动 Zoho 邮件附件归集服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 设置 Gin 模式（基于开发环境标志）
	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// 初始化日志系统
	log, err := logger.NewLogger(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
	})
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync() //nolint:errcheck

	log.Info("starting zohovault server",
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 初始化存储层：用户档案与会话可以落在不同后端
	memStore := memory.NewStore()
	var users storage.UserRepository = memStore
	var sessionRepo storage.SessionRepository = memStore

	if cfg.Database.Type != "" && cfg.Database.DSN != "" {
		sqlStore, err := sqlstore.NewStore(
			cfg.Database.Type,
			cfg.Database.DSN,
			cfg.Database.MaxOpenConns,
			cfg.Database.MaxIdleConns,
			cfg.Database.ConnMaxLifetime,
		)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize database storage: %v", err))
		}
		users = sqlStore
		log.Info("using database user store", zap.String("type", cfg.Database.Type))
	} else {
		log.Info("using memory user store (development mode)")
	}

	if cfg.Redis.Enabled {
		redisStore, err := redis.NewSessionStore(&cfg.Redis)
		if err != nil {
			panic(fmt.Sprintf("failed to initialize Redis session store: %v", err))
		}
		sessionRepo = redisStore
		log.Info("using Redis session store", zap.String("address", cfg.Redis.Address))
	} else {
		log.Info("using memory session store")
	}

	store := hybrid.NewStore(users, sessionRepo)
	defer store.Close() //nolint:errcheck

	// 附件落盘存储
	fsStore, err := filesystem.NewStore(cfg.Storage.AttachmentsDir)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize attachment storage: %v", err))
	}
	log.Info("attachment storage initialized", zap.String("path", fsStore.BasePath()))

	// 初始化监控与健康检查
	metrics := monitoring.NewMetrics()
	healthChecker := health.NewHealthChecker(store, fsStore, log)

	// 初始化提供方客户端与服务层
	zohoClient := zoho.New(&cfg.Zoho, metrics, log)
	sessionManager := session.NewManager(cfg.Session.Secret, cfg.Session.TTL, store)
	authService := service.NewAuthService(zohoClient, store, sessionManager, metrics, log)
	mailService := service.NewMailService(zohoClient, sessionManager, fsStore, metrics, log, cfg.Download.Concurrency)

	// 创建 HTTP 服务器
	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:         cfg,
		AuthService:    authService,
		MailService:    mailService,
		SessionManager: sessionManager,
		Metrics:        metrics,
		HealthChecker:  healthChecker,
		Logger:         log,
	})

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// 信号处理
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	// HTTP 服务器 goroutine
	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	// 定时清理过期会话 goroutine
	group.Go(func() error {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()

		log.Info("starting expired session cleanup task", zap.Duration("interval", 10*time.Minute))

		for {
			select {
			case <-groupCtx.Done():
				log.Info("session cleanup task stopped")
				return nil
			case <-ticker.C:
				count, err := sessionManager.Sweep()
				if err != nil {
					log.Error("failed to cleanup expired sessions", zap.Error(err))
				} else if count > 0 {
					metrics.SessionsSwept.Add(float64(count))
					log.Info("expired sessions cleaned up", zap.Int("count", count))
				}
			}
		}
	})

	// 优雅关闭 goroutine
	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		log.Info("shutting down HTTP server")
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited with error", zap.Error(err))
		return
	}
	log.Info("server stopped")
}
