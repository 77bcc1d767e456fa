package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/storage"
)

func newTestUser(email string) *domain.UserProfile {
	return &domain.UserProfile{
		ID:          uuid.New().String(),
		FirstName:   "Test",
		LastName:    "User",
		Email:       email,
		DisplayName: "Test User",
		AccountID:   "800000001",
		CreatedAt:   time.Now(),
	}
}

func newTestSession(ttl time.Duration) *domain.Session {
	now := time.Now()
	return &domain.Session{
		ID: uuid.New().String(),
		Profile: domain.ProfileClaims{
			Email:       "user@example.com",
			DisplayName: "Test User",
			ZUID:        "800000001",
		},
		AccessToken:  "access-token-1",
		RefreshToken: "refresh-token-1",
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
	}
}

func TestUserRepository(t *testing.T) {
	t.Run("创建并按邮箱查询用户", func(t *testing.T) {
		store := NewStore()
		user := newTestUser("alice@example.com")

		err := store.CreateUser(user)
		require.NoError(t, err)

		found, err := store.GetUserByEmail("alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, found.ID)
		assert.Equal(t, user.Email, found.Email)

		found, err = store.GetUserByID(user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.Email, found.Email)
	})

	t.Run("邮箱查询不区分大小写", func(t *testing.T) {
		store := NewStore()
		require.NoError(t, store.CreateUser(newTestUser("Bob@Example.com")))

		found, err := store.GetUserByEmail("bob@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Bob@Example.com", found.Email)
	})

	t.Run("重复邮箱创建失败", func(t *testing.T) {
		store := NewStore()
		require.NoError(t, store.CreateUser(newTestUser("carol@example.com")))

		err := store.CreateUser(newTestUser("carol@example.com"))
		assert.ErrorIs(t, err, storage.ErrUserExists)
	})

	t.Run("查询不存在的用户失败", func(t *testing.T) {
		store := NewStore()

		_, err := store.GetUserByEmail("ghost@example.com")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)

		_, err = store.GetUserByID("no-such-id")
		assert.ErrorIs(t, err, storage.ErrUserNotFound)
	})

	t.Run("返回副本不共享内部状态", func(t *testing.T) {
		store := NewStore()
		user := newTestUser("dave@example.com")
		require.NoError(t, store.CreateUser(user))

		found, err := store.GetUserByEmail("dave@example.com")
		require.NoError(t, err)
		found.DisplayName = "mutated"

		again, err := store.GetUserByEmail("dave@example.com")
		require.NoError(t, err)
		assert.Equal(t, "Test User", again.DisplayName)
	})
}

func TestSessionRepository(t *testing.T) {
	t.Run("保存并获取会话", func(t *testing.T) {
		store := NewStore()
		session := newTestSession(time.Hour)

		require.NoError(t, store.SaveSession(session))

		found, err := store.GetSession(session.ID)
		require.NoError(t, err)
		assert.Equal(t, session.AccessToken, found.AccessToken)
		assert.Equal(t, session.Profile.Email, found.Profile.Email)
	})

	t.Run("同ID覆盖写入", func(t *testing.T) {
		store := NewStore()
		session := newTestSession(time.Hour)
		require.NoError(t, store.SaveSession(session))

		session.AccessToken = "rotated-access-token"
		require.NoError(t, store.SaveSession(session))

		found, err := store.GetSession(session.ID)
		require.NoError(t, err)
		assert.Equal(t, "rotated-access-token", found.AccessToken)
	})

	t.Run("过期会话视同不存在", func(t *testing.T) {
		store := NewStore()
		session := newTestSession(-time.Minute)
		require.NoError(t, store.SaveSession(session))

		_, err := store.GetSession(session.ID)
		assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	})

	t.Run("删除会话", func(t *testing.T) {
		store := NewStore()
		session := newTestSession(time.Hour)
		require.NoError(t, store.SaveSession(session))

		require.NoError(t, store.DeleteSession(session.ID))

		_, err := store.GetSession(session.ID)
		assert.ErrorIs(t, err, storage.ErrSessionNotFound)

		err = store.DeleteSession(session.ID)
		assert.ErrorIs(t, err, storage.ErrSessionNotFound)
	})

	t.Run("清理过期会话", func(t *testing.T) {
		store := NewStore()
		live := newTestSession(time.Hour)
		expired1 := newTestSession(-time.Minute)
		expired2 := newTestSession(-time.Hour)

		require.NoError(t, store.SaveSession(live))
		require.NoError(t, store.SaveSession(expired1))
		require.NoError(t, store.SaveSession(expired2))

		count, err := store.DeleteExpiredSessions()
		require.NoError(t, err)
		assert.Equal(t, 2, count)

		_, err = store.GetSession(live.ID)
		assert.NoError(t, err)
	})
}
