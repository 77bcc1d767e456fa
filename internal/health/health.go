package health

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"

	"zohovault/backend/internal/storage"
)

// HealthChecker 健康检查器
type HealthChecker struct {
	health healthcheck.Handler
	store  storage.Store
	files  interface{ Health() error }
	logger *zap.Logger
}

// NewHealthChecker 创建健康检查器
//
// files 为附件落盘存储，可传 nil（例如纯 API 测试场景）
func NewHealthChecker(store storage.Store, files interface{ Health() error }, logger *zap.Logger) *HealthChecker {
	hc := &HealthChecker{
		health: healthcheck.NewHandler(),
		store:  store,
		files:  files,
		logger: logger,
	}

	hc.addChecks()

	return hc
}

// addChecks 添加健康检查
func (hc *HealthChecker) addChecks() {
	// 存储后端检查（内存/SQL/Redis 组合）
	hc.health.AddReadinessCheck("storage", func() error {
		return hc.store.Health()
	})

	// 附件目录可写性检查
	if hc.files != nil {
		hc.health.AddReadinessCheck("attachments", func() error {
			return hc.files.Health()
		})
	}

	hc.health.AddLivenessCheck("goroutine-count", healthcheck.GoroutineCountCheck(200))
}

// Handler 返回健康检查处理器
func (hc *HealthChecker) Handler() http.Handler {
	return hc.health
}

// LiveEndpoint 存活探针
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪探针
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// DatabaseHealthCheck 数据库健康检查
func DatabaseHealthCheck(db *sql.DB) healthcheck.Check {
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return db.PingContext(ctx)
	}
}
