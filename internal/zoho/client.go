package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"zohovault/backend/internal/config"
	"zohovault/backend/internal/monitoring"
)

var (
	// ErrUnauthorized 提供方返回 401，访问令牌失效或过期
	ErrUnauthorized = errors.New("zoho: access token rejected")
)

// Client Zoho 账户与邮件 API 客户端
//
// 基地址可配置，测试时指向 httptest 服务
type Client struct {
	httpClient   *http.Client
	oauth        *oauth2.Config
	accountsBase string
	mailBase     string
	metrics      *monitoring.Metrics
	log          *zap.Logger
}

// New 创建 Zoho API 客户端
//
// metrics 可为 nil，此时不记录提供方调用指标
func New(cfg *config.ZohoConfig, metrics *monitoring.Metrics, log *zap.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AccountsBase + "/oauth/v2/auth",
				TokenURL: cfg.AccountsBase + "/oauth/v2/token",
			},
		},
		accountsBase: cfg.AccountsBase,
		mailBase:     cfg.MailBase,
		metrics:      metrics,
		log:          log,
	}
}

// doJSON 执行带访问令牌的 GET 请求并解码 JSON 响应
//
// 401 统一映射为 ErrUnauthorized，其余非 2xx 返回带状态码的错误
func (c *Client) doJSON(ctx context.Context, operation, url, accessToken string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProviderCall(operation, "transport_error")
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.metrics.ObserveProviderCall(operation, "unauthorized")
		c.log.Debug("provider rejected access token", zap.String("operation", operation))
		return ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.metrics.ObserveProviderCall(operation, "error")
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	c.metrics.ObserveProviderCall(operation, "ok")

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
