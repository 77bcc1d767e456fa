package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/session"
)

const (
	// ContextSessionKey 会话在 gin 上下文中的键
	ContextSessionKey = "session"
	// ContextSessionIDKey 会话 ID 在 gin 上下文中的键
	ContextSessionIDKey = "session_id"
)

// SessionAuth 会话认证中间件
type SessionAuth struct {
	manager    *session.Manager
	cookieName string
}

// NewSessionAuth 创建会话认证中间件
func NewSessionAuth(manager *session.Manager, cookieName string) *SessionAuth {
	return &SessionAuth{
		manager:    manager,
		cookieName: cookieName,
	}
}

// RequireSession 要求请求携带有效会话
//
// 无 Cookie、令牌无效、令牌过期、会话已销毁，一律返回统一的 401 JSON，
// 不做重定向，受保护数据端点的未登录语义只有这一种
func (a *SessionAuth) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		cookieToken, err := c.Cookie(a.cookieName)
		if err != nil || cookieToken == "" {
			unauthorized(c)
			return
		}

		sess, err := a.manager.Resolve(cookieToken)
		if err != nil {
			switch {
			case errors.Is(err, session.ErrExpiredToken),
				errors.Is(err, session.ErrInvalidToken),
				errors.Is(err, session.ErrNoSession):
				unauthorized(c)
			default:
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"code": http.StatusInternalServerError,
					"msg":  "会话加载失败",
				})
			}
			return
		}

		c.Set(ContextSessionKey, sess)
		c.Set(ContextSessionIDKey, sess.ID)
		c.Next()
	}
}

// SessionFromContext 从 gin 上下文取出已认证会话
func SessionFromContext(c *gin.Context) (*domain.Session, bool) {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil, false
	}
	sess, ok := value.(*domain.Session)
	return sess, ok
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"code": http.StatusUnauthorized,
		"msg":  "未登录或会话已失效",
	})
}
