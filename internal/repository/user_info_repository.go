package repository

import (
	"errors"

	"github.com/Keep-Fight/LightBlogSystem/internal/models"

	"gorm.io/gorm"
)

// UserInfoRepository 用户资料数据访问接口
type UserInfoRepository interface {
	GetByID(id uint) (*models.UserInfo, error)
	Create(info *models.UserInfo) error
	Update(info *models.UserInfo) error
}

// GormUserInfoRepository GORM 实现
type GormUserInfoRepository struct {
	db *gorm.DB
}

// NewUserInfoRepository 创建用户资料仓库
func NewUserInfoRepository(db *gorm.DB) *GormUserInfoRepository {
	return &GormUserInfoRepository{db: db}
}

// GetByID 根据 ID 获取用户资料
func (r *GormUserInfoRepository) GetByID(id uint) (*models.UserInfo, error) {
	var info models.UserInfo
	if err := r.db.First(&info, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &info, nil
}

// Create 创建用户资料
func (r *GormUserInfoRepository) Create(info *models.UserInfo) error {
	return r.db.Create(info).Error
}

// Update 更新用户资料
func (r *GormUserInfoRepository) Update(info *models.UserInfo) error {
	return r.db.Save(info).Error
}
