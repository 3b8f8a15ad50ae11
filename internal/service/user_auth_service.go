package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/cache"
	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	"github.com/Keep-Fight/LightBlogSystem/internal/constants"
	"github.com/Keep-Fight/LightBlogSystem/internal/models"
	"github.com/Keep-Fight/LightBlogSystem/internal/queue"
	"github.com/Keep-Fight/LightBlogSystem/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserAuthService 用户认证服务
// 串联验证码、凭证、会话与邮件队列，覆盖注册、登录与密码管理全流程。
type UserAuthService struct {
	cfg         *config.Config
	authRepo    repository.UserAuthRepository
	infoRepo    repository.UserInfoRepository
	roleRepo    repository.UserRoleRepository
	settingRepo repository.SettingRepository
	codes       *cache.VerifyCodeStore
	areaStats   *cache.AreaStatsStore
	queueClient *queue.Client
	tokens      *TokenService
	credentials *CredentialService
}

// NewUserAuthService 创建用户认证服务
func NewUserAuthService(
	cfg *config.Config,
	authRepo repository.UserAuthRepository,
	infoRepo repository.UserInfoRepository,
	roleRepo repository.UserRoleRepository,
	settingRepo repository.SettingRepository,
	codes *cache.VerifyCodeStore,
	areaStats *cache.AreaStatsStore,
	queueClient *queue.Client,
	tokens *TokenService,
	credentials *CredentialService,
) *UserAuthService {
	return &UserAuthService{
		cfg:         cfg,
		authRepo:    authRepo,
		infoRepo:    infoRepo,
		roleRepo:    roleRepo,
		settingRepo: settingRepo,
		codes:       codes,
		areaStats:   areaStats,
		queueClient: queueClient,
		tokens:      tokens,
		credentials: credentials,
	}
}

// LoginResult 登录结果
type LoginResult struct {
	User      *models.UserInfo `json:"user"`
	Auth      *models.UserAuth `json:"auth"`
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
}

// UserProfile 登录态用户信息
type UserProfile struct {
	User  *models.UserInfo `json:"user"`
	Auth  *models.UserAuth `json:"auth"`
	Roles []uint           `json:"roles"`
}

// ActiveBucket 用户活跃度分桶
type ActiveBucket struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// SendVerifyCode 签发验证码并投递邮件任务
// 先写缓存再入队：入队失败时码已生效，用户重发会覆盖旧码。
func (s *UserAuthService) SendVerifyCode(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if s.codes == nil {
		return ErrCacheUnavailable
	}

	code, err := s.codes.Issue(ctx, normalized)
	if errors.Is(err, cache.ErrCodeSendTooOften) {
		return ErrCodeSendTooOften
	}
	if err != nil {
		return err
	}

	minutes := int(s.codes.TTL().Minutes())
	payload := queue.VerifyCodeEmailPayload{
		Email:    normalized,
		Subject:  constants.EmailSubjectVerifyCode,
		Template: constants.EmailTemplateCommon,
		CommentMap: map[string]string{
			"content": fmt.Sprintf("您的验证码是：%s\n\n有效期 %d 分钟，请勿泄露给他人。", code, minutes),
		},
	}
	return s.queueClient.EnqueueVerifyCodeEmail(payload)
}

// Register 邮箱注册
// 资料、凭证、角色三条记录在同一事务内创建，任一失败整体回滚。
func (s *UserAuthService) Register(ctx context.Context, email, password, code string) (*LoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	if err := s.credentials.ValidatePassword(password); err != nil {
		return nil, err
	}

	if err := s.validateCode(ctx, normalized, code); err != nil {
		return nil, err
	}

	exist, err := s.authRepo.GetByUsername(normalized)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrEmailExists
	}

	passwordHash, err := s.credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}

	auth, info, err := s.createAccount(normalized, accountSeed{
		Nickname:     randomNickname(),
		Avatar:       s.defaultAvatar(),
		LoginType:    constants.LoginTypeEmail,
		ProviderUID:  normalized,
		PasswordHash: passwordHash,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return s.finishLogin(ctx, auth, info)
}

// Login 邮箱密码登录
func (s *UserAuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, err
	}
	auth, err := s.authRepo.GetByUsername(normalized)
	if err != nil {
		return nil, err
	}
	if auth == nil || auth.LoginType != constants.LoginTypeEmail {
		return nil, ErrInvalidCredentials
	}
	if strings.EqualFold(auth.Status, constants.UserStatusDisabled) {
		return nil, ErrUserDisabled
	}
	if err := s.credentials.VerifyPassword(auth.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.finishLogin(ctx, auth, nil)
}

// Logout 注销登录，会话不存在时同样成功
func (s *UserAuthService) Logout(ctx context.Context, userID uint) error {
	return s.tokens.Revoke(ctx, userID)
}

// UpdatePassword 忘记密码重置，验证码通过后才允许改写哈希
func (s *UserAuthService) UpdatePassword(ctx context.Context, email, code, newPassword string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return err
	}
	if err := s.credentials.ValidatePassword(newPassword); err != nil {
		return err
	}
	if err := s.validateCode(ctx, normalized, code); err != nil {
		return err
	}

	auth, err := s.authRepo.GetByUsername(normalized)
	if err != nil {
		return err
	}
	if auth == nil || auth.LoginType != constants.LoginTypeEmail {
		return ErrEmailNotRegistered
	}

	passwordHash, err := s.credentials.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.authRepo.UpdatePassword(auth.ID, passwordHash); err != nil {
		return err
	}

	// 改密后强制重新登录
	return s.tokens.Revoke(ctx, auth.UserInfoID)
}

// ChangePassword 登录态修改密码，旧密码校验失败时原哈希不变
func (s *UserAuthService) ChangePassword(ctx context.Context, userID uint, oldPassword, newPassword string) error {
	if userID == 0 {
		return ErrNotFound
	}
	auth, err := s.authRepo.GetByUserInfoID(userID)
	if err != nil {
		return err
	}
	if auth == nil {
		return ErrNotFound
	}

	passwordHash, err := s.credentials.RotatePassword(auth.PasswordHash, oldPassword, newPassword)
	if err != nil {
		return err
	}
	if err := s.authRepo.UpdatePassword(auth.ID, passwordHash); err != nil {
		return err
	}

	return s.tokens.Revoke(ctx, auth.UserInfoID)
}

// GetProfile 获取登录态用户信息
func (s *UserAuthService) GetProfile(userID uint) (*UserProfile, error) {
	if userID == 0 {
		return nil, ErrNotFound
	}
	info, err := s.infoRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, ErrNotFound
	}
	auth, err := s.authRepo.GetByUserInfoID(userID)
	if err != nil {
		return nil, err
	}
	roles, err := s.roleRepo.ListByUserID(userID)
	if err != nil {
		return nil, err
	}
	roleIDs := make([]uint, 0, len(roles))
	for _, role := range roles {
		roleIDs = append(roleIDs, role.RoleID)
	}
	return &UserProfile{User: info, Auth: auth, Roles: roleIDs}, nil
}

// ListUserAreas 按类型读取地域统计
func (s *UserAuthService) ListUserAreas(ctx context.Context, areaType int) ([]cache.UserArea, error) {
	if s.areaStats == nil {
		return []cache.UserArea{}, nil
	}
	switch areaType {
	case constants.UserAreaTypeVisitor:
		return s.areaStats.GetVisitorAreas(ctx)
	default:
		return s.areaStats.GetUserAreas(ctx)
	}
}

// UserActiveBuckets 按最后登录时间统计活跃度分布
func (s *UserAuthService) UserActiveBuckets() ([]ActiveBucket, error) {
	now := time.Now()
	edges := []struct {
		name string
		from *time.Time
		to   *time.Time
	}{
		{name: "1天内", from: timePtr(now.AddDate(0, 0, -1)), to: nil},
		{name: "1-3天", from: timePtr(now.AddDate(0, 0, -3)), to: timePtr(now.AddDate(0, 0, -1))},
		{name: "3-7天", from: timePtr(now.AddDate(0, 0, -7)), to: timePtr(now.AddDate(0, 0, -3))},
		{name: "7-15天", from: timePtr(now.AddDate(0, 0, -15)), to: timePtr(now.AddDate(0, 0, -7))},
		{name: "15-30天", from: timePtr(now.AddDate(0, 0, -30)), to: timePtr(now.AddDate(0, 0, -15))},
		{name: "30天以上", from: nil, to: timePtr(now.AddDate(0, 0, -30))},
	}

	buckets := make([]ActiveBucket, 0, len(edges))
	for _, edge := range edges {
		count, err := s.authRepo.CountLastLoginBetween(edge.from, edge.to)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, ActiveBucket{Name: edge.name, Value: count})
	}
	return buckets, nil
}

// UserThreeDayActive 统计近三天内每天的活跃用户数
func (s *UserAuthService) UserThreeDayActive() ([]ActiveBucket, error) {
	now := time.Now()
	edges := []struct {
		name string
		from time.Time
		to   time.Time
	}{
		{name: "0-1天", from: now.AddDate(0, 0, -1), to: now},
		{name: "1-2天", from: now.AddDate(0, 0, -2), to: now.AddDate(0, 0, -1)},
		{name: "2-3天", from: now.AddDate(0, 0, -3), to: now.AddDate(0, 0, -2)},
	}

	buckets := make([]ActiveBucket, 0, len(edges))
	for _, edge := range edges {
		count, err := s.authRepo.CountLastLoginBetween(timePtr(edge.from), timePtr(edge.to))
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, ActiveBucket{Name: edge.name, Value: count})
	}
	return buckets, nil
}

// ListUsers 后台用户列表
func (s *UserAuthService) ListUsers(filter repository.UserListFilter) ([]repository.AdminUserRow, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 10
	}
	filter.Keyword = strings.TrimSpace(filter.Keyword)
	return s.authRepo.List(filter)
}

type accountSeed struct {
	Nickname     string
	Avatar       string
	LoginType    string
	ProviderUID  string
	PasswordHash string
}

// createAccount 在同一事务内创建资料、凭证与默认角色
func (s *UserAuthService) createAccount(username string, seed accountSeed) (*models.UserAuth, *models.UserInfo, error) {
	var auth *models.UserAuth
	var info *models.UserInfo
	err := models.DB.Transaction(func(tx *gorm.DB) error {
		info = &models.UserInfo{
			Email:    emailForLoginType(seed.LoginType, username),
			Nickname: seed.Nickname,
			Avatar:   seed.Avatar,
		}
		if err := tx.Create(info).Error; err != nil {
			return err
		}

		auth = &models.UserAuth{
			UserInfoID:   info.ID,
			Username:     username,
			PasswordHash: seed.PasswordHash,
			LoginType:    seed.LoginType,
			ProviderUID:  seed.ProviderUID,
			Status:       constants.UserStatusActive,
		}
		if err := tx.Create(auth).Error; err != nil {
			return err
		}

		role := &models.UserRole{
			UserID: info.ID,
			RoleID: constants.RoleUser,
		}
		return tx.Create(role).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return auth, info, nil
}

// finishLogin 签发 token 并更新最后登录时间
func (s *UserAuthService) finishLogin(ctx context.Context, auth *models.UserAuth, info *models.UserInfo) (*LoginResult, error) {
	token, expiresAt, err := s.tokens.Issue(ctx, auth)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.authRepo.UpdateLastLogin(auth.ID, now); err != nil {
		return nil, err
	}
	auth.LastLoginTime = &now

	if info == nil {
		info, err = s.infoRepo.GetByID(auth.UserInfoID)
		if err != nil {
			return nil, err
		}
	}

	return &LoginResult{
		User:      info,
		Auth:      auth,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

func (s *UserAuthService) validateCode(ctx context.Context, email, code string) error {
	if s.codes == nil {
		return ErrCacheUnavailable
	}
	ok, err := s.codes.Validate(ctx, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return ErrVerifyCodeIncorrect
	}
	return nil
}

func (s *UserAuthService) defaultAvatar() string {
	if s.settingRepo == nil {
		return ""
	}
	setting, err := s.settingRepo.GetByKey(models.SettingKeyDefaultAvatar)
	if err != nil || setting == nil {
		return ""
	}
	return setting.Value
}

func normalizeEmail(email string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(normalized); err != nil {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// randomNickname 生成默认昵称，前缀加随机后缀
func randomNickname() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	return constants.DefaultNicknamePrefix + suffix
}

// emailForLoginType 本地账号资料表冗余一份邮箱，第三方账号留空
func emailForLoginType(loginType, username string) string {
	if loginType == constants.LoginTypeEmail {
		return username
	}
	return ""
}

func timePtr(t time.Time) *time.Time {
	return &t
}
