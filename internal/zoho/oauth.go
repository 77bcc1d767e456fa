package zoho

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"zohovault/backend/internal/domain"
)

// AuthCodeURL 生成授权页跳转地址
//
// access_type=offline 换取刷新令牌，prompt=consent 保证重复授权也下发
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

// Exchange 用授权码换取访问令牌和刷新令牌
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}
	return token, nil
}

// Refresh 用刷新令牌换取新的访问令牌
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	source := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}
	return token, nil
}

// UserInfo 获取已授权用户的身份档案
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*domain.ProfileClaims, error) {
	var profile domain.ProfileClaims
	url := c.accountsBase + "/oauth/user/info"
	if err := c.doJSON(ctx, "user_info", url, accessToken, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
