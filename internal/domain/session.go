package domain

import "time"

// ProfileClaims 身份提供方 user-info 端点返回的原始身份声明
//
// 字段名与 Zoho 返回的 JSON 键保持一致（First_Name 等），
// 不做本地化改写，落库时才映射为 UserProfile
type ProfileClaims struct {
	FirstName   string `json:"First_Name"`
	LastName    string `json:"Last_Name"`
	Email       string `json:"Email"`
	DisplayName string `json:"Display_Name"`
	ZUID        string `json:"ZUID"`
}

// Session 表示一次已登录的浏览器会话
//
// 每个会话由独立的 ID 寻址，持有本次 OAuth 交换得到的令牌对。
// 会话过期后由后台清理任务回收
type Session struct {
	ID           string        `json:"id"`
	Profile      ProfileClaims `json:"profile"`
	AccessToken  string        `json:"-"`
	RefreshToken string        `json:"-"`
	CreatedAt    time.Time     `json:"createdAt"`
	ExpiresAt    time.Time     `json:"expiresAt"`
}

// Expired 判断会话是否已过期
func (s *Session) Expired() bool {
	return !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt)
}
