package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// OAuth 指标
	OAuthLoginsTotal   prometheus.Counter
	OAuthFailuresTotal prometheus.Counter
	TokenRefreshTotal  prometheus.Counter

	// 提供方调用指标
	ProviderCallsTotal *prometheus.CounterVec

	// 附件指标
	AttachmentsDownloaded prometheus.Counter
	AttachmentBytesTotal  prometheus.Counter
	AttachmentSize        prometheus.Histogram

	// 会话指标
	SessionsCreated prometheus.Counter
	SessionsSwept   prometheus.Counter

	// 错误指标
	PanicsTotal prometheus.Counter

	registry *prometheus.Registry
}

// NewMetrics 创建监控指标并注册到默认 Registry
func NewMetrics() *Metrics {
	return newMetrics(prometheus.DefaultRegisterer, nil)
}

// NewTestMetrics 创建注册到独立 Registry 的指标（测试用，避免重复注册冲突）
func NewTestMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	return newMetrics(registry, registry)
}

func newMetrics(reg prometheus.Registerer, registry *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zohovault_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "zohovault_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		OAuthLoginsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_oauth_logins_total",
				Help: "Total number of successful OAuth logins",
			},
		),

		OAuthFailuresTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_oauth_failures_total",
				Help: "Total number of failed OAuth code exchanges",
			},
		),

		TokenRefreshTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_token_refresh_total",
				Help: "Total number of access token refreshes",
			},
		),

		ProviderCallsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zohovault_provider_calls_total",
				Help: "Total number of calls to the mail provider API",
			},
			[]string{"operation", "outcome"},
		),

		AttachmentsDownloaded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_attachments_downloaded_total",
				Help: "Total number of attachments written to disk",
			},
		),

		AttachmentBytesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_attachment_bytes_total",
				Help: "Total attachment bytes written to disk",
			},
		),

		AttachmentSize: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zohovault_attachment_size_bytes",
				Help:    "Attachment size in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 20),
			},
		),

		SessionsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_sessions_created_total",
				Help: "Total number of sessions created",
			},
		),

		SessionsSwept: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_sessions_swept_total",
				Help: "Total number of expired sessions removed by the sweeper",
			},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "zohovault_panics_total",
				Help: "Total number of recovered panics",
			},
		),

		registry: registry,
	}
}

// ObserveProviderCall 记录一次提供方调用结果
func (m *Metrics) ObserveProviderCall(operation, outcome string) {
	if m == nil {
		return
	}
	m.ProviderCallsTotal.WithLabelValues(operation, outcome).Inc()
}

// HTTPHandler 返回 Prometheus 指标暴露端点
func (m *Metrics) HTTPHandler() http.Handler {
	if m.registry != nil {
		return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
