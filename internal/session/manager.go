package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/storage"
)

var (
	// ErrInvalidToken 无效的会话令牌
	ErrInvalidToken = errors.New("invalid session token")
	// ErrExpiredToken 会话令牌已过期
	ErrExpiredToken = errors.New("session token expired")
	// ErrNoSession 令牌有效但会话已不存在（登出或被清理）
	ErrNoSession = errors.New("session no longer exists")
)

const issuer = "zohovault"

// cookieClaims 会话 Cookie 中携带的 JWT 声明
//
// Cookie 只携带会话 ID，令牌对始终留在服务端会话表里
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Manager 会话管理器
//
// 每次登录创建一个独立寻址的会话，并签发绑定该会话 ID 的
// 签名令牌下发给浏览器。并行登录互不覆盖
type Manager struct {
	secret []byte
	ttl    time.Duration
	repo   storage.SessionRepository
}

// NewManager 创建会话管理器
func NewManager(secret string, ttl time.Duration, repo storage.SessionRepository) *Manager {
	return &Manager{
		secret: []byte(secret),
		ttl:    ttl,
		repo:   repo,
	}
}

// TTL 返回会话生存时间
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create 创建新会话并签发会话令牌
//
// 会话先落库再签发令牌，任一步失败都不会留下半个会话
func (m *Manager) Create(profile domain.ProfileClaims, accessToken, refreshToken string) (*domain.Session, string, error) {
	now := time.Now()
	session := &domain.Session{
		ID:           uuid.New().String(),
		Profile:      profile,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		CreatedAt:    now,
		ExpiresAt:    now.Add(m.ttl),
	}

	if err := m.repo.SaveSession(session); err != nil {
		return nil, "", fmt.Errorf("failed to save session: %w", err)
	}

	claims := cookieClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   session.Profile.Email,
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		_ = m.repo.DeleteSession(session.ID)
		return nil, "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return session, signed, nil
}

// Resolve 根据会话令牌取回服务端会话
func (m *Manager) Resolve(tokenString string) (*domain.Session, error) {
	sessionID, err := m.parse(tokenString)
	if err != nil {
		return nil, err
	}

	session, err := m.repo.GetSession(sessionID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return session, nil
}

// Update 回写会话（令牌刷新后轮换令牌对）
func (m *Manager) Update(session *domain.Session) error {
	return m.repo.SaveSession(session)
}

// Destroy 销毁令牌对应的会话
//
// 令牌无效或会话已不存在视为登出成功
func (m *Manager) Destroy(tokenString string) error {
	sessionID, err := m.parse(tokenString)
	if err != nil {
		return nil
	}

	err = m.repo.DeleteSession(sessionID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return nil
	}
	return err
}

// Sweep 清理过期会话，返回清理数量
func (m *Manager) Sweep() (int, error) {
	return m.repo.DeleteExpiredSessions()
}

// parse 验证令牌签名并取出会话 ID
func (m *Manager) parse(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &cookieClaims{}, func(token *jwt.Token) (interface{}, error) {
		// 验证签名算法
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*cookieClaims)
	if !ok || !token.Valid || claims.SessionID == "" {
		return "", ErrInvalidToken
	}

	return claims.SessionID, nil
}
