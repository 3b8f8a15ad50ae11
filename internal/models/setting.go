package models

import "time"

// 站点配置 key 常量
const (
	SettingKeyDefaultAvatar = "site.default_avatar"
)

// Setting 站点配置表，key/value 存储
type Setting struct {
	ID        uint      `gorm:"primarykey" json:"id"`            // 主键
	Key       string    `gorm:"uniqueIndex;not null" json:"key"` // 配置项
	Value     string    `gorm:"type:text" json:"value"`          // 配置值
	UpdatedAt time.Time `json:"updated_at"`                      // 更新时间
}

// TableName 指定表名
func (Setting) TableName() string {
	return "settings"
}
