package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"zohovault/backend/internal/config"
	"zohovault/backend/internal/middleware"
	"zohovault/backend/internal/service"
)

const stateCookieName = "zv_state"
const stateCookieMaxAge = 600 // 秒

// AuthHandler OAuth 登录流程处理器
type AuthHandler struct {
	auth *service.AuthService
	cfg  *config.SessionConfig
	log  *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(auth *service.AuthService, cfg *config.SessionConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		cfg:  cfg,
		log:  log,
	}
}

// Login 发起 OAuth 登录
//
// 生成随机 state 写入短期 Cookie 后跳转授权页，回调时校验防 CSRF
func (h *AuthHandler) Login(c *gin.Context) {
	state := uuid.New().String()
	c.SetCookie(stateCookieName, state, stateCookieMaxAge, "/", "", h.cfg.CookieSecure, true)
	c.Redirect(http.StatusFound, h.auth.AuthURL(state))
}

// Callback 处理授权回调
//
// 授权被拒、缺授权码、state 不匹配、交换失败都跳转 /failed，
// 成功则下发会话 Cookie 并跳转 /success
func (h *AuthHandler) Callback(c *gin.Context) {
	if c.Query("error") != "" {
		h.log.Warn("authorization denied by user", zap.String("error", c.Query("error")))
		h.failLogin(c)
		return
	}

	code := c.Query("code")
	if code == "" {
		h.failLogin(c)
		return
	}

	expectedState, err := c.Cookie(stateCookieName)
	if err != nil || expectedState == "" || c.Query("state") != expectedState {
		h.log.Warn("oauth state mismatch", zap.String("ip", c.ClientIP()))
		h.failLogin(c)
		return
	}

	_, cookieToken, err := h.auth.HandleCallback(c.Request.Context(), code)
	if err != nil {
		if !errors.Is(err, service.ErrExchangeFailed) {
			h.log.Error("oauth callback failed", zap.Error(err))
		}
		h.failLogin(c)
		return
	}

	c.SetCookie(stateCookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.SetCookie(h.cfg.CookieName, cookieToken, int(h.cfg.TTL.Seconds()), "/", "", h.cfg.CookieSecure, true)
	c.Redirect(http.StatusFound, "/success")
}

// failLogin 清理 state Cookie 并跳转失败页
func (h *AuthHandler) failLogin(c *gin.Context) {
	c.SetCookie(stateCookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.Redirect(http.StatusFound, "/failed")
}

// Success 登录成功页，返回当前会话的身份档案
func (h *AuthHandler) Success(c *gin.Context) {
	sess, ok := middleware.SessionFromContext(c)
	if !ok {
		Unauthorized(c, MsgAuthRequired)
		return
	}

	SuccessWithMsg(c, "登录成功", gin.H{
		"profile":   sess.Profile,
		"expiresAt": sess.ExpiresAt,
	})
}

// Failed 登录失败页
func (h *AuthHandler) Failed(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Code: CodeUnauthorized,
		Msg:  MsgLoginFailed,
	})
}

// Landing 首页，给出可用入口
func (h *AuthHandler) Landing(c *gin.Context) {
	Success(c, gin.H{
		"login":       "/auth/zoho/login",
		"mails":       "/zoho/mails",
		"attachments": "/zoho/attachments",
	})
}

// Logout 登出并清理会话 Cookie
//
// 无论会话是否存在都清 Cookie 并回首页，重复登出安全
func (h *AuthHandler) Logout(c *gin.Context) {
	if cookieToken, err := c.Cookie(h.cfg.CookieName); err == nil && cookieToken != "" {
		if err := h.auth.Logout(cookieToken); err != nil {
			h.log.Warn("logout failed", zap.Error(err))
		}
	}

	c.SetCookie(h.cfg.CookieName, "", -1, "/", "", h.cfg.CookieSecure, true)
	c.Redirect(http.StatusFound, "/")
}
