package models

import (
	"time"

	"gorm.io/gorm"
)

// UserAuth 登录凭证表
// 本地账号以邮箱为唯一用户名；第三方账号以 (login_type, provider_uid)
// 唯一索引约束防止并发首登时重复建号。
type UserAuth struct {
	ID            uint           `gorm:"primarykey" json:"id"`                                                           // 主键
	UserInfoID    uint           `gorm:"index;not null" json:"user_info_id"`                                             // 站内用户ID
	Username      string         `gorm:"uniqueIndex;not null" json:"username"`                                           // 用户名（邮箱或第三方占位标识）
	PasswordHash  string         `gorm:"default:''" json:"-"`                                                            // 密码哈希（仅本地账号，不返回给前端）
	LoginType     string         `gorm:"type:varchar(32);index:idx_login_provider,unique;not null" json:"login_type"`    // 登录方式
	ProviderUID   string         `gorm:"type:varchar(128);index:idx_login_provider,unique;not null" json:"provider_uid"` // 提供方用户ID（本地账号复用邮箱）
	Status        string         `gorm:"type:varchar(16);default:'active'" json:"status"`                                // 账号状态
	LastLoginTime *time.Time     `gorm:"index" json:"last_login_time"`                                                   // 最后登录时间
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                                                        // 创建时间
	UpdatedAt     time.Time      `gorm:"index" json:"updated_at"`                                                        // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                                                 // 软删除时间
}

// TableName 指定表名
func (UserAuth) TableName() string {
	return "user_auths"
}
