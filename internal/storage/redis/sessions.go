package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"zohovault/backend/internal/config"
	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/storage"
)

const sessionKeyPrefix = "zohovault:session:"

// storedSession 会话的 Redis 持久化形态
//
// domain.Session 对外序列化时隐藏令牌（json:"-"），
// 落 Redis 时必须带上令牌，因此用独立结构体承载
type storedSession struct {
	ID           string               `json:"id"`
	Profile      domain.ProfileClaims `json:"profile"`
	AccessToken  string               `json:"accessToken"`
	RefreshToken string               `json:"refreshToken"`
	CreatedAt    time.Time            `json:"createdAt"`
	ExpiresAt    time.Time            `json:"expiresAt"`
}

// SessionStore 基于 Redis 的会话存储
//
// 会话以 JSON 存储，过期依赖 Redis 原生 TTL，无需后台清扫
type SessionStore struct {
	rdb *goredis.Client
}

// NewSessionStore 创建 Redis 会话存储
func NewSessionStore(cfg *config.RedisConfig) (*SessionStore, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 测试连接
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &SessionStore{rdb: rdb}, nil
}

// SaveSession 保存会话（同 ID 覆盖写入，TTL 对齐会话过期时间）
func (s *SessionStore) SaveSession(session *domain.Session) error {
	data, err := json.Marshal(storedSession{
		ID:           session.ID,
		Profile:      session.Profile,
		AccessToken:  session.AccessToken,
		RefreshToken: session.RefreshToken,
		CreatedAt:    session.CreatedAt,
		ExpiresAt:    session.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return s.DeleteSession(session.ID)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return s.rdb.Set(ctx, sessionKeyPrefix+session.ID, data, ttl).Err()
}

// GetSession 根据 ID 获取会话
func (s *SessionStore) GetSession(id string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	data, err := s.rdb.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, storage.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	session := domain.Session{
		ID:           stored.ID,
		Profile:      stored.Profile,
		AccessToken:  stored.AccessToken,
		RefreshToken: stored.RefreshToken,
		CreatedAt:    stored.CreatedAt,
		ExpiresAt:    stored.ExpiresAt,
	}

	if session.Expired() {
		_ = s.DeleteSession(id)
		return nil, storage.ErrSessionNotFound
	}

	return &session, nil
}

// DeleteSession 删除会话
func (s *SessionStore) DeleteSession(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	deleted, err := s.rdb.Del(ctx, sessionKeyPrefix+id).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return storage.ErrSessionNotFound
	}
	return nil
}

// DeleteExpiredSessions 删除过期会话
//
// Redis 通过键 TTL 自动过期，这里恒返回 0
func (s *SessionStore) DeleteExpiredSessions() (int, error) {
	return 0, nil
}

// Close 关闭 Redis 连接
func (s *SessionStore) Close() error {
	return s.rdb.Close()
}

// Health 检查 Redis 健康状态
func (s *SessionStore) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.rdb.Ping(ctx).Err()
}
