package models

import (
	"time"

	"gorm.io/gorm"
)

// UserInfo 用户资料表，ID 即站内唯一用户标识
type UserInfo struct {
	ID        uint           `gorm:"primarykey" json:"id"`            // 主键，站内用户ID
	Email     string         `gorm:"index" json:"email"`              // 邮箱
	Nickname  string         `gorm:"not null" json:"nickname"`        // 昵称
	Avatar    string         `gorm:"default:''" json:"avatar"`        // 头像地址
	Age       *int           `json:"age"`                             // 年龄
	Gender    *int           `json:"gender"`                          // 性别
	CreatedAt time.Time      `gorm:"index" json:"created_at"`         // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`         // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                  // 软删除时间
}

// TableName 指定表名
func (UserInfo) TableName() string {
	return "user_infos"
}
