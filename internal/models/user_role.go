package models

import "time"

// UserRole 用户角色绑定，注册时写入默认角色
type UserRole struct {
	ID        uint      `gorm:"primarykey" json:"id"`                                            // 主键
	UserID    uint      `gorm:"index:idx_user_role,unique;not null" json:"user_id"`              // 站内用户ID
	RoleID    uint      `gorm:"index:idx_user_role,unique;not null" json:"role_id"`              // 角色ID
	CreatedAt time.Time `json:"created_at"`                                                      // 创建时间
}

// TableName 指定表名
func (UserRole) TableName() string {
	return "user_roles"
}
