package domain

import "time"

// UserProfile 表示通过 Zoho OAuth 登录后落库的用户档案
//
// 以邮箱作为唯一标识：同一邮箱首次登录时创建，之后的重复登录
// 直接复用已有记录，不做任何字段更新
type UserProfile struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FirstName   string    `json:"firstName" gorm:"type:varchar(100)"`
	LastName    string    `json:"lastName" gorm:"type:varchar(100)"`
	Email       string    `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	DisplayName string    `json:"displayName" gorm:"type:varchar(255)"`
	AccountID   string    `json:"accountId" gorm:"type:varchar(64)"` // 提供方侧的 ZUID
	CreatedAt   time.Time `json:"createdAt"`
}

// TableName 指定 GORM 表名
func (UserProfile) TableName() string {
	return "user_profiles"
}
