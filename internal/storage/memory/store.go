package memory

import (
	"strings"
	"sync"
	"time"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/storage"
)

// Store 内存存储实现
//
// 开发环境与测试使用；进程重启后数据全部丢失
type Store struct {
	mu           sync.RWMutex
	usersByID    map[string]*domain.UserProfile
	usersByEmail map[string]*domain.UserProfile
	sessions     map[string]*domain.Session
}

// NewStore 创建内存存储实例
func NewStore() *Store {
	return &Store{
		usersByID:    make(map[string]*domain.UserProfile),
		usersByEmail: make(map[string]*domain.UserProfile),
		sessions:     make(map[string]*domain.Session),
	}
}

// ========== 用户档案 ==========

// CreateUser 创建新用户档案
//
// 邮箱为唯一键，重复创建返回 storage.ErrUserExists
func (s *Store) CreateUser(user *domain.UserProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, ok := s.usersByEmail[email]; ok {
		return storage.ErrUserExists
	}

	stored := *user
	s.usersByID[user.ID] = &stored
	s.usersByEmail[email] = &stored
	return nil
}

// GetUserByID 根据 ID 获取用户档案
func (s *Store) GetUserByID(id string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByID[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

// GetUserByEmail 根据邮箱获取用户档案
func (s *Store) GetUserByEmail(email string) (*domain.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.usersByEmail[strings.ToLower(email)]
	if !ok {
		return nil, storage.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

// ========== 会话 ==========

// SaveSession 保存会话（同 ID 覆盖写入）
func (s *Store) SaveSession(session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

// GetSession 根据 ID 获取会话
//
// 已过期的会话视同不存在并顺手删除
func (s *Store) GetSession(id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[id]
	if !ok {
		return nil, storage.ErrSessionNotFound
	}

	if session.Expired() {
		delete(s.sessions, id)
		return nil, storage.ErrSessionNotFound
	}

	copied := *session
	return &copied, nil
}

// DeleteSession 删除会话
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return storage.ErrSessionNotFound
	}

	delete(s.sessions, id)
	return nil
}

// DeleteExpiredSessions 删除所有过期会话，返回删除数量
func (s *Store) DeleteExpiredSessions() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	count := 0
	for id, session := range s.sessions {
		if !session.ExpiresAt.IsZero() && now.After(session.ExpiresAt) {
			delete(s.sessions, id)
			count++
		}
	}
	return count, nil
}

// Close 关闭存储（内存实现为空操作）
func (s *Store) Close() error {
	return nil
}

// Health 健康检查（内存实现恒为健康）
func (s *Store) Health() error {
	return nil
}
