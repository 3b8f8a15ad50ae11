package repository

import (
	"errors"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/models"

	"gorm.io/gorm"
)

// UserAuthRepository 登录凭证数据访问接口
type UserAuthRepository interface {
	GetByUsername(username string) (*models.UserAuth, error)
	GetByID(id uint) (*models.UserAuth, error)
	GetByUserInfoID(userInfoID uint) (*models.UserAuth, error)
	GetByProvider(loginType, providerUID string) (*models.UserAuth, error)
	Create(auth *models.UserAuth) error
	UpdatePassword(id uint, passwordHash string) error
	UpdateLastLogin(id uint, at time.Time) error
	List(filter UserListFilter) ([]AdminUserRow, int64, error)
	CountLastLoginBetween(from, to *time.Time) (int64, error)
}

// GormUserAuthRepository GORM 实现
type GormUserAuthRepository struct {
	db *gorm.DB
}

// NewUserAuthRepository 创建登录凭证仓库
func NewUserAuthRepository(db *gorm.DB) *GormUserAuthRepository {
	return &GormUserAuthRepository{db: db}
}

// GetByUsername 根据用户名（邮箱）获取凭证
func (r *GormUserAuthRepository) GetByUsername(username string) (*models.UserAuth, error) {
	var auth models.UserAuth
	if err := r.db.Where("username = ?", username).First(&auth).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth, nil
}

// GetByID 根据 ID 获取凭证
func (r *GormUserAuthRepository) GetByID(id uint) (*models.UserAuth, error) {
	var auth models.UserAuth
	if err := r.db.First(&auth, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth, nil
}

// GetByUserInfoID 根据站内用户 ID 获取凭证
func (r *GormUserAuthRepository) GetByUserInfoID(userInfoID uint) (*models.UserAuth, error) {
	var auth models.UserAuth
	if err := r.db.Where("user_info_id = ?", userInfoID).First(&auth).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth, nil
}

// GetByProvider 根据登录方式与提供方用户 ID 获取凭证
func (r *GormUserAuthRepository) GetByProvider(loginType, providerUID string) (*models.UserAuth, error) {
	var auth models.UserAuth
	if err := r.db.Where("login_type = ? AND provider_uid = ?", loginType, providerUID).
		First(&auth).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &auth, nil
}

// Create 创建凭证
func (r *GormUserAuthRepository) Create(auth *models.UserAuth) error {
	return r.db.Create(auth).Error
}

// UpdatePassword 更新密码哈希
func (r *GormUserAuthRepository) UpdatePassword(id uint, passwordHash string) error {
	return r.db.Model(&models.UserAuth{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"password_hash": passwordHash,
			"updated_at":    time.Now(),
		}).Error
}

// UpdateLastLogin 更新最后登录时间
func (r *GormUserAuthRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.db.Model(&models.UserAuth{}).
		Where("id = ?", id).
		Update("last_login_time", at).Error
}

// List 后台用户列表，凭证联查资料
func (r *GormUserAuthRepository) List(filter UserListFilter) ([]AdminUserRow, int64, error) {
	query := r.db.Model(&models.UserAuth{}).
		Joins("LEFT JOIN user_infos ON user_infos.id = user_auths.user_info_id").
		Where("user_infos.deleted_at IS NULL")

	if filter.Keyword != "" {
		like := "%" + filter.Keyword + "%"
		query = query.Where("user_auths.username LIKE ? OR user_infos.nickname LIKE ?", like, like)
	}
	if filter.LoginType != "" {
		query = query.Where("user_auths.login_type = ?", filter.LoginType)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("user_auths.created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("user_auths.created_at <= ?", *filter.CreatedTo)
	}
	if filter.LastLoginFrom != nil {
		query = query.Where("user_auths.last_login_time >= ?", *filter.LastLoginFrom)
	}
	if filter.LastLoginTo != nil {
		query = query.Where("user_auths.last_login_time <= ?", *filter.LastLoginTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var rows []AdminUserRow
	if err := query.
		Select("user_auths.id, user_auths.user_info_id, user_auths.username, user_infos.nickname, user_infos.avatar, user_auths.login_type, user_auths.last_login_time, user_auths.created_at").
		Order("user_auths.id DESC").
		Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// CountLastLoginBetween 统计最后登录时间落在区间内的用户数
// from 为 nil 表示不设下界，to 为 nil 表示不设上界。
func (r *GormUserAuthRepository) CountLastLoginBetween(from, to *time.Time) (int64, error) {
	query := r.db.Model(&models.UserAuth{})
	if from != nil {
		query = query.Where("last_login_time > ?", *from)
	}
	if to != nil {
		query = query.Where("last_login_time <= ?", *to)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
