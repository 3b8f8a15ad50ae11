package repository

import (
	"github.com/Keep-Fight/LightBlogSystem/internal/models"

	"gorm.io/gorm"
)

// UserRoleRepository 用户角色绑定数据访问接口
type UserRoleRepository interface {
	Create(role *models.UserRole) error
	ListByUserID(userID uint) ([]models.UserRole, error)
}

// GormUserRoleRepository GORM 实现
type GormUserRoleRepository struct {
	db *gorm.DB
}

// NewUserRoleRepository 创建用户角色仓库
func NewUserRoleRepository(db *gorm.DB) *GormUserRoleRepository {
	return &GormUserRoleRepository{db: db}
}

// Create 创建角色绑定
func (r *GormUserRoleRepository) Create(role *models.UserRole) error {
	return r.db.Create(role).Error
}

// ListByUserID 获取用户的角色绑定
func (r *GormUserRoleRepository) ListByUserID(userID uint) ([]models.UserRole, error) {
	var roles []models.UserRole
	if err := r.db.Where("user_id = ?", userID).Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
