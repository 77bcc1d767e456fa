package storage

import (
	"errors"

	"zohovault/backend/internal/domain"
)

var (
	// ErrUserNotFound 用户档案未找到错误
	ErrUserNotFound = errors.New("user profile not found")
	// ErrUserExists 用户档案已存在错误
	ErrUserExists = errors.New("user profile already exists")
	// ErrSessionNotFound 会话未找到错误
	ErrSessionNotFound = errors.New("session not found")
)

// UserRepository 定义用户档案数据存取操作。
type UserRepository interface {
	CreateUser(user *domain.UserProfile) error
	GetUserByID(id string) (*domain.UserProfile, error)
	GetUserByEmail(email string) (*domain.UserProfile, error)
}

// SessionRepository 定义会话数据存取操作。
type SessionRepository interface {
	SaveSession(session *domain.Session) error
	GetSession(id string) (*domain.Session, error)
	DeleteSession(id string) error
	DeleteExpiredSessions() (int, error) // 删除过期会话，返回删除数量
}

// Store 定义完整的存储接口。
type Store interface {
	UserRepository
	SessionRepository

	// 工具方法
	Close() error
	Health() error
}
