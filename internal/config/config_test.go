package config

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testEnvKeys = []string{
	"ZOHOVAULT_SESSION_SECRET",
	"ZOHOVAULT_SESSION_TTL",
	"ZOHOVAULT_SESSION_COOKIE_NAME",
	"ZOHOVAULT_SERVER_HOST",
	"ZOHOVAULT_SERVER_PORT",
	"ZOHOVAULT_ZOHO_CLIENT_ID",
	"ZOHOVAULT_ZOHO_CLIENT_SECRET",
	"ZOHOVAULT_ZOHO_REDIRECT_URL",
	"ZOHOVAULT_ZOHO_SCOPES",
	"ZOHOVAULT_ZOHO_ACCOUNTS_BASE",
	"ZOHOVAULT_ZOHO_MAIL_BASE",
	"ZOHOVAULT_STORAGE_ATTACHMENTS_DIR",
	"ZOHOVAULT_DOWNLOAD_CONCURRENCY",
	"ZOHOVAULT_LOG_LEVEL",
	"ZOHOVAULT_LOG_DEVELOPMENT",
	"ZOHOVAULT_DATABASE_TYPE",
	"ZOHOVAULT_DATABASE_DSN",
	"ZOHOVAULT_REDIS_ENABLED",
	"ZOHOVAULT_REDIS_ADDRESS",
}

func withCleanEnv(t *testing.T) {
	t.Helper()

	original := make(map[string]string)
	for _, key := range testEnvKeys {
		original[key] = os.Getenv(key)
		os.Unsetenv(key)
	}

	t.Cleanup(func() {
		for key, value := range original {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	})
}

func TestLoad(t *testing.T) {
	t.Run("加载默认配置成功", func(t *testing.T) {
		withCleanEnv(t)

		// 设置必需的会话密钥并启用开发模式（免去 OAuth 凭证）
		os.Setenv("ZOHOVAULT_SESSION_SECRET", strings.Repeat("s", 32))
		os.Setenv("ZOHOVAULT_LOG_DEVELOPMENT", "true")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		// 验证默认值
		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, "https://accounts.zoho.com", cfg.Zoho.AccountsBase)
		assert.Equal(t, "https://mail.zoho.com", cfg.Zoho.MailBase)
		assert.Equal(t, "http://localhost:8080/auth/zoho/callback", cfg.Zoho.RedirectURL)
		assert.Contains(t, cfg.Zoho.Scopes, "ZohoMail.messages.ALL")
		assert.Equal(t, "zv_session", cfg.Session.CookieName)
		assert.Equal(t, time.Hour, cfg.Session.TTL)
		assert.Equal(t, "./data/attachments", cfg.Storage.AttachmentsDir)
		assert.Equal(t, 4, cfg.Download.Concurrency)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Redis.Enabled)
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		withCleanEnv(t)

		os.Setenv("ZOHOVAULT_SESSION_SECRET", strings.Repeat("x", 40))
		os.Setenv("ZOHOVAULT_SERVER_HOST", "127.0.0.1")
		os.Setenv("ZOHOVAULT_SERVER_PORT", "9090")
		os.Setenv("ZOHOVAULT_ZOHO_CLIENT_ID", "client-id-1")
		os.Setenv("ZOHOVAULT_ZOHO_CLIENT_SECRET", "client-secret-1")
		os.Setenv("ZOHOVAULT_ZOHO_SCOPES", "ZohoMail.messages.ALL, aaaserver.profile.READ")
		os.Setenv("ZOHOVAULT_ZOHO_ACCOUNTS_BASE", "https://accounts.zoho.eu/")
		os.Setenv("ZOHOVAULT_SESSION_TTL", "2h")
		os.Setenv("ZOHOVAULT_STORAGE_ATTACHMENTS_DIR", "/var/lib/zohovault/attachments")
		os.Setenv("ZOHOVAULT_DOWNLOAD_CONCURRENCY", "8")
		os.Setenv("ZOHOVAULT_LOG_LEVEL", "debug")
		os.Setenv("ZOHOVAULT_LOG_DEVELOPMENT", "true")

		cfg, err := Load()

		assert.NoError(t, err)
		assert.NotNil(t, cfg)

		assert.Equal(t, "127.0.0.1", cfg.Server.Host)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, "client-id-1", cfg.Zoho.ClientID)
		assert.Equal(t, []string{"ZohoMail.messages.ALL", "aaaserver.profile.READ"}, cfg.Zoho.Scopes)
		// 基地址末尾斜杠被剥除
		assert.Equal(t, "https://accounts.zoho.eu", cfg.Zoho.AccountsBase)
		assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
		assert.Equal(t, "/var/lib/zohovault/attachments", cfg.Storage.AttachmentsDir)
		assert.Equal(t, 8, cfg.Download.Concurrency)
		assert.Equal(t, "debug", cfg.Log.Level)
	})

	t.Run("会话密钥太短失败", func(t *testing.T) {
		withCleanEnv(t)

		os.Setenv("ZOHOVAULT_SESSION_SECRET", "short-key")
		os.Setenv("ZOHOVAULT_LOG_DEVELOPMENT", "true")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "session secret must be at least 32 characters long")
	})

	t.Run("使用默认会话密钥失败", func(t *testing.T) {
		withCleanEnv(t)

		os.Setenv("ZOHOVAULT_SESSION_SECRET", "change-me-in-production")
		os.Setenv("ZOHOVAULT_LOG_DEVELOPMENT", "true")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "session secret cannot be the default value")
	})

	t.Run("无效的TTL格式失败", func(t *testing.T) {
		withCleanEnv(t)

		os.Setenv("ZOHOVAULT_SESSION_SECRET", strings.Repeat("s", 32))
		os.Setenv("ZOHOVAULT_SESSION_TTL", "invalid-duration")
		os.Setenv("ZOHOVAULT_LOG_DEVELOPMENT", "true")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "invalid session.ttl")
	})

	t.Run("生产模式缺少OAuth凭证失败", func(t *testing.T) {
		withCleanEnv(t)

		os.Setenv("ZOHOVAULT_SESSION_SECRET", strings.Repeat("s", 32))

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "zoho.client_id and zoho.client_secret are required")
	})

	t.Run("空的权限范围失败", func(t *testing.T) {
		withCleanEnv(t)

		os.Setenv("ZOHOVAULT_SESSION_SECRET", strings.Repeat("s", 32))
		os.Setenv("ZOHOVAULT_LOG_DEVELOPMENT", "true")
		os.Setenv("ZOHOVAULT_ZOHO_SCOPES", " , , ")

		cfg, err := Load()

		assert.Error(t, err)
		assert.Nil(t, cfg)
		assert.Contains(t, err.Error(), "zoho.scopes must not be empty")
	})
}

func TestParseList(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "单个项目",
			input:    "item1",
			expected: []string{"item1"},
		},
		{
			name:     "多个项目",
			input:    "item1,item2,item3",
			expected: []string{"item1", "item2", "item3"},
		},
		{
			name:     "带空格的项目",
			input:    " item1 , item2 , item3 ",
			expected: []string{"item1", "item2", "item3"},
		},
		{
			name:     "空字符串",
			input:    "",
			expected: []string{},
		},
		{
			name:     "混合空值",
			input:    "item1,,item2,",
			expected: []string{"item1", "item2"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := parseList(tc.input)
			assert.Equal(t, tc.expected, result)
		})
	}
}
