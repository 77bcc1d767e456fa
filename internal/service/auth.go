package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"zohovault/backend/internal/domain"
	"zohovault/backend/internal/monitoring"
	"zohovault/backend/internal/session"
	"zohovault/backend/internal/storage"
)

var (
	// ErrExchangeFailed 授权码交换失败（授权码无效、过期或被拒绝）
	ErrExchangeFailed = errors.New("authorization code exchange failed")
)

// OAuthProvider 定义认证流程依赖的身份提供方操作。
type OAuthProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	UserInfo(ctx context.Context, accessToken string) (*domain.ProfileClaims, error)
}

// AuthService 封装 OAuth 登录回调相关业务操作。
type AuthService struct {
	provider OAuthProvider
	users    storage.UserRepository
	sessions *session.Manager
	metrics  *monitoring.Metrics
	log      *zap.Logger
}

// NewAuthService 创建认证业务服务。
func NewAuthService(
	provider OAuthProvider,
	users storage.UserRepository,
	sessions *session.Manager,
	metrics *monitoring.Metrics,
	log *zap.Logger,
) *AuthService {
	return &AuthService{
		provider: provider,
		users:    users,
		sessions: sessions,
		metrics:  metrics,
		log:      log,
	}
}

// AuthURL 生成带 state 的授权页跳转地址
func (s *AuthService) AuthURL(state string) string {
	return s.provider.AuthCodeURL(state)
}

// HandleCallback 处理授权回调
//
// 授权码换令牌、拉取身份档案、按邮箱找到或创建用户、创建会话。
// 任何一步失败都不会留下会话，返回 ErrExchangeFailed
func (s *AuthService) HandleCallback(ctx context.Context, code string) (*domain.Session, string, error) {
	token, err := s.provider.Exchange(ctx, code)
	if err != nil {
		if s.metrics != nil {
			s.metrics.OAuthFailuresTotal.Inc()
		}
		return nil, "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	profile, err := s.provider.UserInfo(ctx, token.AccessToken)
	if err != nil {
		if s.metrics != nil {
			s.metrics.OAuthFailuresTotal.Inc()
		}
		return nil, "", fmt.Errorf("%w: %v", ErrExchangeFailed, err)
	}

	if err := s.ensureProfile(profile); err != nil {
		return nil, "", err
	}

	sess, cookieToken, err := s.sessions.Create(*profile, token.AccessToken, token.RefreshToken)
	if err != nil {
		return nil, "", err
	}

	if s.metrics != nil {
		s.metrics.OAuthLoginsTotal.Inc()
		s.metrics.SessionsCreated.Inc()
	}
	s.log.Info("oauth login completed",
		zap.String("email", profile.Email),
		zap.String("session_id", sess.ID),
	)

	return sess, cookieToken, nil
}

// Logout 销毁令牌对应的会话
func (s *AuthService) Logout(cookieToken string) error {
	return s.sessions.Destroy(cookieToken)
}

// ensureProfile 按邮箱找到或创建用户档案
//
// 已存在的档案保持原样，重复登录不覆盖任何字段。
// 并发创建撞上唯一键时按已存在处理
func (s *AuthService) ensureProfile(profile *domain.ProfileClaims) error {
	_, err := s.users.GetUserByEmail(profile.Email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrUserNotFound) {
		return fmt.Errorf("failed to look up user profile: %w", err)
	}

	user := &domain.UserProfile{
		ID:          uuid.New().String(),
		FirstName:   profile.FirstName,
		LastName:    profile.LastName,
		Email:       profile.Email,
		DisplayName: profile.DisplayName,
		AccountID:   profile.ZUID,
		CreatedAt:   time.Now(),
	}

	err = s.users.CreateUser(user)
	if errors.Is(err, storage.ErrUserExists) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to create user profile: %w", err)
	}

	s.log.Info("user profile created", zap.String("email", user.Email))
	return nil
}
