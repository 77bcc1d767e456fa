package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// defaultScopes 默认申请的 Zoho 权限范围
//
// 覆盖邮件读取、文件夹/账户枚举与身份档案获取
var defaultScopes = []string{
	"ZohoMail.messages.ALL",
	"ZohoMail.folders.ALL",
	"ZohoMail.accounts.READ",
	"aaaserver.profile.READ",
}

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// ZohoConfig 定义 Zoho OAuth 与邮件 API 的接入配置
type ZohoConfig struct {
	ClientID     string   // OAuth 客户端 ID
	ClientSecret string   // OAuth 客户端密钥
	RedirectURL  string   // 授权回调地址，需与提供方控制台登记一致
	Scopes       []string // 申请的权限范围列表
	AccountsBase string   // 账户/认证服务基地址，默认 https://accounts.zoho.com
	MailBase     string   // 邮件 API 基地址，默认 https://mail.zoho.com
}

// SessionConfig 定义会话管理配置
type SessionConfig struct {
	Secret       string        // 会话 Cookie 的签名密钥，必须至少 32 字符
	CookieName   string        // 会话 Cookie 名称，默认 "zv_session"
	TTL          time.Duration // 会话生存时间，默认 1 小时
	CookieSecure bool          // 是否仅通过 HTTPS 下发 Cookie
}

// StorageConfig 定义附件落盘配置
type StorageConfig struct {
	AttachmentsDir string // 附件下载根目录，默认 "./data/attachments"
}

// DownloadConfig 定义附件聚合/下载的并发配置
type DownloadConfig struct {
	Concurrency int // 对提供方的最大并发请求数，默认 4
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
}

// DatabaseConfig 定义用户档案库的数据库连接配置（支持 MySQL 和 PostgreSQL）
type DatabaseConfig struct {
	Type            string        // 数据库类型: "mysql" 或 "postgres"，留空使用内存存储
	DSN             string        // 数据库连接字符串
	MaxOpenConns    int           // 最大打开连接数，默认 25
	MaxIdleConns    int           // 最大空闲连接数，默认 5
	ConnMaxLifetime time.Duration // 连接最大生命周期，默认 5 分钟
}

// RedisConfig 定义 Redis 会话后端配置
type RedisConfig struct {
	Enabled  bool   // 是否启用 Redis 会话存储，默认 false（使用内存）
	Address  string // Redis 服务地址，格式 "host:port"，默认 "localhost:6379"
	Password string // Redis 认证密码，留空表示无密码
	DB       int    // Redis 数据库编号，默认 0
}

// Config 是系统核心配置的根结构体，包含所有子系统的配置
type Config struct {
	Server   ServerConfig
	Zoho     ZohoConfig
	Session  SessionConfig
	Storage  StorageConfig
	Download DownloadConfig
	CORS     CORSConfig
	Log      LogConfig
	Database DatabaseConfig
	Redis    RedisConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量（最高优先级）
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: ZOHOVAULT_
// 例如: ZOHOVAULT_ZOHO_CLIENT_ID, ZOHOVAULT_SESSION_SECRET
func Load() (*Config, error) {
	// 尝试加载 .env 文件（静默失败，因为 .env 文件是可选的）
	loadEnvFile()

	viper.SetEnvPrefix("zohovault")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("zoho.client_id", "")
	viper.SetDefault("zoho.client_secret", "")
	viper.SetDefault("zoho.redirect_url", "http://localhost:8080/auth/zoho/callback")
	viper.SetDefault("zoho.scopes", strings.Join(defaultScopes, ","))
	viper.SetDefault("zoho.accounts_base", "https://accounts.zoho.com")
	viper.SetDefault("zoho.mail_base", "https://mail.zoho.com")
	viper.SetDefault("session.secret", "change-me-in-production")
	viper.SetDefault("session.cookie_name", "zv_session")
	viper.SetDefault("session.ttl", "1h")
	viper.SetDefault("session.cookie_secure", false)
	viper.SetDefault("storage.attachments_dir", "./data/attachments")
	viper.SetDefault("download.concurrency", 4)
	viper.SetDefault("cors.allowed_origins", "*")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.development", false)
	viper.SetDefault("database.type", "") // 默认为空，使用内存存储
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", "5m")
	viper.SetDefault("redis.enabled", false)
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	sessionTTL, err := time.ParseDuration(viper.GetString("session.ttl"))
	if err != nil {
		return nil, fmt.Errorf("invalid session.ttl: %w", err)
	}

	sessionSecret := viper.GetString("session.secret")

	// 安全检查：禁止使用默认的会话密钥
	if sessionSecret == "change-me-in-production" {
		return nil, fmt.Errorf("SECURITY ERROR: session secret cannot be the default value. Please set ZOHOVAULT_SESSION_SECRET environment variable")
	}

	// 会话密钥必须至少 32 字符
	if len(sessionSecret) < 32 {
		return nil, fmt.Errorf("SECURITY ERROR: session secret must be at least 32 characters long")
	}

	scopes := parseList(viper.GetString("zoho.scopes"))
	if len(scopes) == 0 {
		return nil, fmt.Errorf("zoho.scopes must not be empty")
	}

	corsOrigins := parseList(viper.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	concurrency := viper.GetInt("download.concurrency")
	if concurrency <= 0 {
		concurrency = 4
	}

	connMaxLifetime, err := time.ParseDuration(viper.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: viper.GetString("server.host"),
			Port: viper.GetInt("server.port"),
		},
		Zoho: ZohoConfig{
			ClientID:     viper.GetString("zoho.client_id"),
			ClientSecret: viper.GetString("zoho.client_secret"),
			RedirectURL:  viper.GetString("zoho.redirect_url"),
			Scopes:       scopes,
			AccountsBase: strings.TrimRight(viper.GetString("zoho.accounts_base"), "/"),
			MailBase:     strings.TrimRight(viper.GetString("zoho.mail_base"), "/"),
		},
		Session: SessionConfig{
			Secret:       sessionSecret,
			CookieName:   viper.GetString("session.cookie_name"),
			TTL:          sessionTTL,
			CookieSecure: viper.GetBool("session.cookie_secure"),
		},
		Storage: StorageConfig{
			AttachmentsDir: viper.GetString("storage.attachments_dir"),
		},
		Download: DownloadConfig{
			Concurrency: concurrency,
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
		},
		Log: LogConfig{
			Level:       viper.GetString("log.level"),
			Development: viper.GetBool("log.development"),
		},
		Database: DatabaseConfig{
			Type:            viper.GetString("database.type"),
			DSN:             viper.GetString("database.dsn"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("redis.enabled"),
			Address:  viper.GetString("redis.address"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}

	// OAuth 凭证缺失时仅在开发模式下放行（便于跑本地路由和测试）
	if !cfg.Log.Development && (cfg.Zoho.ClientID == "" || cfg.Zoho.ClientSecret == "") {
		return nil, fmt.Errorf("zoho.client_id and zoho.client_secret are required outside development mode")
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 先尝试当前目录，再尝试父目录（从 backend/ 子目录运行的情况）。
// 文件不存在时静默失败，已存在的环境变量不会被覆盖
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
