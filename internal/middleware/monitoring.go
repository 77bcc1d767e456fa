package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"zohovault/backend/internal/monitoring"
)

// Monitoring HTTP 请求指标中间件
//
// endpoint 维度用路由模板而不是原始路径，避免高基数标签
func Monitoring(metrics *monitoring.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
		).Inc()

		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			endpoint,
		).Observe(time.Since(start).Seconds())
	}
}
