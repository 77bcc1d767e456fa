package session

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/storage/memory"
)

const testSecret = "test-secret-key-with-32-characters!!"

func newTestManager(ttl time.Duration) *Manager {
	return NewManager(testSecret, ttl, memory.NewStore())
}

func testProfile() domain.ProfileClaims {
	return domain.ProfileClaims{
		FirstName:   "Alice",
		LastName:    "Liddell",
		Email:       "alice@example.com",
		DisplayName: "Alice L",
		ZUID:        "800000001",
	}
}

func TestCreateAndResolve(t *testing.T) {
	t.Run("create then resolve returns same session", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		created, token, err := manager.Create(testProfile(), "access-1", "refresh-1")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		resolved, err := manager.Resolve(token)
		require.NoError(t, err)
		assert.Equal(t, created.ID, resolved.ID)
		assert.Equal(t, "access-1", resolved.AccessToken)
		assert.Equal(t, "refresh-1", resolved.RefreshToken)
		assert.Equal(t, "alice@example.com", resolved.Profile.Email)
	})

	t.Run("parallel logins get independent sessions", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		first, tokenA, err := manager.Create(testProfile(), "access-a", "refresh-a")
		require.NoError(t, err)
		second, tokenB, err := manager.Create(testProfile(), "access-b", "refresh-b")
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)

		// second login must not clobber the first
		resolvedA, err := manager.Resolve(tokenA)
		require.NoError(t, err)
		assert.Equal(t, "access-a", resolvedA.AccessToken)

		resolvedB, err := manager.Resolve(tokenB)
		require.NoError(t, err)
		assert.Equal(t, "access-b", resolvedB.AccessToken)
	})

	t.Run("tampered token rejected", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		_, token, err := manager.Create(testProfile(), "access-1", "refresh-1")
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		tampered := parts[0] + "." + parts[1] + ".AAAA" + parts[2][4:]

		_, err = manager.Resolve(tampered)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("token signed with other secret rejected", func(t *testing.T) {
		manager := newTestManager(time.Hour)
		other := NewManager("another-secret-key-32-characters!!!!", time.Hour, memory.NewStore())

		_, token, err := other.Create(testProfile(), "access-1", "refresh-1")
		require.NoError(t, err)

		_, err = manager.Resolve(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		_, err := manager.Resolve("not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token rejected", func(t *testing.T) {
		manager := newTestManager(-time.Minute)

		_, token, err := manager.Create(testProfile(), "access-1", "refresh-1")
		require.NoError(t, err)

		_, err = manager.Resolve(token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})
}

func TestUpdate(t *testing.T) {
	t.Run("refresh rotates token pair in place", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		created, token, err := manager.Create(testProfile(), "access-1", "refresh-1")
		require.NoError(t, err)

		created.AccessToken = "access-2"
		require.NoError(t, manager.Update(created))

		resolved, err := manager.Resolve(token)
		require.NoError(t, err)
		assert.Equal(t, "access-2", resolved.AccessToken)
		assert.Equal(t, "refresh-1", resolved.RefreshToken)
	})
}

func TestDestroy(t *testing.T) {
	t.Run("destroy removes session", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		_, token, err := manager.Create(testProfile(), "access-1", "refresh-1")
		require.NoError(t, err)

		require.NoError(t, manager.Destroy(token))

		_, err = manager.Resolve(token)
		assert.ErrorIs(t, err, ErrNoSession)
	})

	t.Run("destroy is idempotent", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		_, token, err := manager.Create(testProfile(), "access-1", "refresh-1")
		require.NoError(t, err)

		require.NoError(t, manager.Destroy(token))
		assert.NoError(t, manager.Destroy(token))
		assert.NoError(t, manager.Destroy("garbage"))
	})

	t.Run("destroying one session leaves others intact", func(t *testing.T) {
		manager := newTestManager(time.Hour)

		_, tokenA, err := manager.Create(testProfile(), "access-a", "refresh-a")
		require.NoError(t, err)
		_, tokenB, err := manager.Create(testProfile(), "access-b", "refresh-b")
		require.NoError(t, err)

		require.NoError(t, manager.Destroy(tokenA))

		_, err = manager.Resolve(tokenB)
		assert.NoError(t, err)
	})
}

func TestSweep(t *testing.T) {
	manager := newTestManager(-time.Minute)

	_, _, err := manager.Create(testProfile(), "access-1", "refresh-1")
	require.NoError(t, err)
	_, _, err = manager.Create(testProfile(), "access-2", "refresh-2")
	require.NoError(t, err)

	count, err := manager.Sweep()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
