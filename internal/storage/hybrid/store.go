package hybrid

import (
	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/storage"
)

// Store 组合存储
//
// 用户档案和会话可以落在不同后端，例如档案进 SQL、会话进 Redis。
// 实现完整的 storage.Store 接口
type Store struct {
	users    storage.UserRepository
	sessions storage.SessionRepository
	closers  []interface{ Close() error }
	checkers []interface{ Health() error }
}

// NewStore 创建组合存储
//
// users 和 sessions 若实现了 Close/Health 则自动纳入生命周期管理；
// 两者指向同一后端实例时只登记一次
func NewStore(users storage.UserRepository, sessions storage.SessionRepository) *Store {
	s := &Store{
		users:    users,
		sessions: sessions,
	}

	backends := []interface{}{users}
	if any(sessions) != any(users) {
		backends = append(backends, sessions)
	}

	for _, backend := range backends {
		if c, ok := backend.(interface{ Close() error }); ok {
			s.closers = append(s.closers, c)
		}
		if h, ok := backend.(interface{ Health() error }); ok {
			s.checkers = append(s.checkers, h)
		}
	}

	return s
}

// ========== 用户档案 ==========

// CreateUser 创建新用户档案
func (s *Store) CreateUser(user *domain.UserProfile) error {
	return s.users.CreateUser(user)
}

// GetUserByID 根据 ID 获取用户档案
func (s *Store) GetUserByID(id string) (*domain.UserProfile, error) {
	return s.users.GetUserByID(id)
}

// GetUserByEmail 根据邮箱获取用户档案
func (s *Store) GetUserByEmail(email string) (*domain.UserProfile, error) {
	return s.users.GetUserByEmail(email)
}

// ========== 会话 ==========

// SaveSession 保存会话
func (s *Store) SaveSession(session *domain.Session) error {
	return s.sessions.SaveSession(session)
}

// GetSession 根据 ID 获取会话
func (s *Store) GetSession(id string) (*domain.Session, error) {
	return s.sessions.GetSession(id)
}

// DeleteSession 删除会话
func (s *Store) DeleteSession(id string) error {
	return s.sessions.DeleteSession(id)
}

// DeleteExpiredSessions 删除过期会话
func (s *Store) DeleteExpiredSessions() (int, error) {
	return s.sessions.DeleteExpiredSessions()
}

// Close 关闭所有后端
func (s *Store) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Health 检查所有后端健康状态
func (s *Store) Health() error {
	for _, h := range s.checkers {
		if err := h.Health(); err != nil {
			return err
		}
	}
	return nil
}
