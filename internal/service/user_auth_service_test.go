package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/cache"
	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	"github.com/Keep-Fight/LightBlogSystem/internal/constants"
	"github.com/Keep-Fight/LightBlogSystem/internal/models"
	"github.com/Keep-Fight/LightBlogSystem/internal/queue"
	"github.com/Keep-Fight/LightBlogSystem/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type userAuthServiceFixture struct {
	svc   *UserAuthService
	db    *gorm.DB
	codes *cache.VerifyCodeStore
	redis *miniredis.Miniredis
}

func setupUserAuthServiceTest(t *testing.T) *userAuthServiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:user_auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.UserInfo{},
		&models.UserAuth{},
		&models.UserRole{},
		&models.Setting{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis failed: %v", err)
	}
	t.Cleanup(s.Close)
	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})

	cfg := &config.Config{}
	cfg.JWT = config.JWTConfig{SecretKey: "user-auth-service-test-secret", ExpireHours: 24}
	cfg.Email.VerifyCode = config.VerifyCodeConfig{Length: 6, ExpireMinutes: 15, SingleUse: true}
	cfg.Security.PasswordPolicy = config.PasswordPolicyConfig{MinLength: 8, RequireLower: true, RequireNumber: true}

	codes := cache.NewVerifyCodeStore(client, "blog", cfg.Email.VerifyCode)
	sessions := cache.NewSessionStore(client, "blog")
	areaStats := cache.NewAreaStatsStore(client, "blog")
	queueClient, err := queue.NewClient(nil)
	if err != nil {
		t.Fatalf("new queue client failed: %v", err)
	}

	svc := NewUserAuthService(
		cfg,
		repository.NewUserAuthRepository(db),
		repository.NewUserInfoRepository(db),
		repository.NewUserRoleRepository(db),
		repository.NewSettingRepository(db),
		codes,
		areaStats,
		queueClient,
		NewTokenService(cfg.JWT, sessions),
		NewCredentialService(cfg.Security.PasswordPolicy),
	)
	return &userAuthServiceFixture{svc: svc, db: db, codes: codes, redis: s}
}

func (f *userAuthServiceFixture) issueCode(t *testing.T, email string) string {
	t.Helper()
	code, err := f.codes.Issue(context.Background(), email)
	if err != nil {
		t.Fatalf("issue code failed: %v", err)
	}
	return code
}

func (f *userAuthServiceFixture) register(t *testing.T, email, password string) *LoginResult {
	t.Helper()
	code := f.issueCode(t, email)
	result, err := f.svc.Register(context.Background(), email, password, code)
	if err != nil {
		t.Fatalf("register %s failed: %v", email, err)
	}
	return result
}

func TestUserAuthServiceRegister(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	result := f.register(t, "Alice@Example.com", "abcd1234")
	if result.Token == "" {
		t.Fatalf("expected token after register")
	}
	if result.User == nil || result.Auth == nil {
		t.Fatalf("expected user and auth in result")
	}
	// 邮箱归一为小写
	if result.Auth.Username != "alice@example.com" {
		t.Fatalf("username want alice@example.com got %s", result.Auth.Username)
	}
	if result.Auth.LoginType != constants.LoginTypeEmail {
		t.Fatalf("login_type want email got %s", result.Auth.LoginType)
	}
	if result.User.Email != "alice@example.com" {
		t.Fatalf("profile email want alice@example.com got %s", result.User.Email)
	}
	if !strings.HasPrefix(result.User.Nickname, constants.DefaultNicknamePrefix) {
		t.Fatalf("nickname should carry default prefix, got %s", result.User.Nickname)
	}
	if result.Auth.LastLoginTime == nil {
		t.Fatalf("last_login_time should be set on register")
	}

	// 注册即登录，token 立即可用
	claims, err := f.svc.tokens.Verify(ctx, result.Token)
	if err != nil {
		t.Fatalf("verify token failed: %v", err)
	}
	if claims.UserID != result.User.ID {
		t.Fatalf("claims user_id want %d got %d", result.User.ID, claims.UserID)
	}

	// 默认角色为普通用户
	var roles []models.UserRole
	if err := f.db.Where("user_id = ?", result.User.ID).Find(&roles).Error; err != nil {
		t.Fatalf("load roles failed: %v", err)
	}
	if len(roles) != 1 || roles[0].RoleID != constants.RoleUser {
		t.Fatalf("expected single user role, got %+v", roles)
	}
}

func TestUserAuthServiceRegisterDuplicateEmail(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	f.register(t, "alice@example.com", "abcd1234")

	code := f.issueCode(t, "alice@example.com")
	if _, err := f.svc.Register(context.Background(), "alice@example.com", "abcd1234", code); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("want ErrEmailExists got %v", err)
	}

	var count int64
	if err := f.db.Model(&models.UserAuth{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("user_auth count want 1 got %d", count)
	}
}

func TestUserAuthServiceRegisterInvalidEmail(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	if _, err := f.svc.Register(context.Background(), "not-an-email", "abcd1234", "123456"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail got %v", err)
	}
}

func TestUserAuthServiceRegisterWeakPassword(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	if _, err := f.svc.Register(context.Background(), "alice@example.com", "short", "123456"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("want ErrWeakPassword got %v", err)
	}
}

func TestUserAuthServiceRegisterWrongCode(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	code := f.issueCode(t, "alice@example.com")
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if _, err := f.svc.Register(context.Background(), "alice@example.com", "abcd1234", wrong); !errors.Is(err, ErrVerifyCodeIncorrect) {
		t.Fatalf("want ErrVerifyCodeIncorrect got %v", err)
	}

	var count int64
	if err := f.db.Model(&models.UserAuth{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("no account should be created, got %d", count)
	}
}

func TestUserAuthServiceLogin(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	f.register(t, "alice@example.com", "abcd1234")

	result, err := f.svc.Login(ctx, "Alice@Example.com", "abcd1234")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.Token == "" {
		t.Fatalf("expected token after login")
	}

	if _, err := f.svc.Login(ctx, "alice@example.com", "wrong-pass1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, err := f.svc.Login(ctx, "nobody@example.com", "abcd1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email want ErrInvalidCredentials got %v", err)
	}
}

func TestUserAuthServiceLoginDisabledAccount(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	result := f.register(t, "alice@example.com", "abcd1234")
	if err := f.db.Model(&models.UserAuth{}).Where("id = ?", result.Auth.ID).
		Update("status", constants.UserStatusDisabled).Error; err != nil {
		t.Fatalf("disable account failed: %v", err)
	}

	if _, err := f.svc.Login(context.Background(), "alice@example.com", "abcd1234"); !errors.Is(err, ErrUserDisabled) {
		t.Fatalf("want ErrUserDisabled got %v", err)
	}
}

func TestUserAuthServiceLogout(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	result := f.register(t, "alice@example.com", "abcd1234")

	if err := f.svc.Logout(ctx, result.User.ID); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if _, err := f.svc.tokens.Verify(ctx, result.Token); err == nil {
		t.Fatalf("token should be invalid after logout")
	}
	// 重复注销同样成功
	if err := f.svc.Logout(ctx, result.User.ID); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
}

func TestUserAuthServiceUpdatePassword(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	result := f.register(t, "alice@example.com", "abcd1234")

	code := f.issueCode(t, "alice@example.com")
	if err := f.svc.UpdatePassword(ctx, "alice@example.com", code, "efgh5678"); err != nil {
		t.Fatalf("update password failed: %v", err)
	}

	// 改密后旧会话失效
	if _, err := f.svc.tokens.Verify(ctx, result.Token); err == nil {
		t.Fatalf("session should be revoked after password reset")
	}

	if _, err := f.svc.Login(ctx, "alice@example.com", "abcd1234"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password should stop working, got %v", err)
	}
	if _, err := f.svc.Login(ctx, "alice@example.com", "efgh5678"); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
}

func TestUserAuthServiceUpdatePasswordUnregistered(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	code := f.issueCode(t, "nobody@example.com")
	err := f.svc.UpdatePassword(context.Background(), "nobody@example.com", code, "efgh5678")
	if !errors.Is(err, ErrEmailNotRegistered) {
		t.Fatalf("want ErrEmailNotRegistered got %v", err)
	}
}

func TestUserAuthServiceUpdatePasswordWrongCode(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	f.register(t, "alice@example.com", "abcd1234")

	code := f.issueCode(t, "alice@example.com")
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if err := f.svc.UpdatePassword(ctx, "alice@example.com", wrong, "efgh5678"); !errors.Is(err, ErrVerifyCodeIncorrect) {
		t.Fatalf("want ErrVerifyCodeIncorrect got %v", err)
	}
	// 原密码不受影响
	if _, err := f.svc.Login(ctx, "alice@example.com", "abcd1234"); err != nil {
		t.Fatalf("original password should keep working: %v", err)
	}
}

func TestUserAuthServiceChangePassword(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	result := f.register(t, "alice@example.com", "abcd1234")

	if err := f.svc.ChangePassword(ctx, result.User.ID, "abcd1234", "efgh5678"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, err := f.svc.tokens.Verify(ctx, result.Token); err == nil {
		t.Fatalf("session should be revoked after password change")
	}
	if _, err := f.svc.Login(ctx, "alice@example.com", "efgh5678"); err != nil {
		t.Fatalf("new password login failed: %v", err)
	}
}

func TestUserAuthServiceChangePasswordWrongOld(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	result := f.register(t, "alice@example.com", "abcd1234")

	err := f.svc.ChangePassword(ctx, result.User.ID, "wrong-old1", "efgh5678")
	if !errors.Is(err, ErrOldPasswordIncorrect) {
		t.Fatalf("want ErrOldPasswordIncorrect got %v", err)
	}
	// 原密码不受影响
	if _, err := f.svc.Login(ctx, "alice@example.com", "abcd1234"); err != nil {
		t.Fatalf("original password should keep working: %v", err)
	}
}

func TestUserAuthServiceGetProfile(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	result := f.register(t, "alice@example.com", "abcd1234")

	profile, err := f.svc.GetProfile(result.User.ID)
	if err != nil {
		t.Fatalf("get profile failed: %v", err)
	}
	if profile.User == nil || profile.User.ID != result.User.ID {
		t.Fatalf("profile user mismatch: %+v", profile.User)
	}
	if profile.Auth == nil || profile.Auth.Username != "alice@example.com" {
		t.Fatalf("profile auth mismatch: %+v", profile.Auth)
	}
	if len(profile.Roles) != 1 || profile.Roles[0] != constants.RoleUser {
		t.Fatalf("roles want [%d] got %v", constants.RoleUser, profile.Roles)
	}

	if _, err := f.svc.GetProfile(9999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown user want ErrNotFound got %v", err)
	}
}

func TestUserAuthServiceSendVerifyCode(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	// 队列未启用时入队静默跳过，验证码照常写入缓存
	if err := f.svc.SendVerifyCode(ctx, "Alice@Example.com"); err != nil {
		t.Fatalf("send verify code failed: %v", err)
	}
	if !f.redis.Exists("blog:code:user:alice@example.com") {
		t.Fatalf("expected verify code key in redis")
	}

	if err := f.svc.SendVerifyCode(ctx, "bad address"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want ErrInvalidEmail got %v", err)
	}
}

func TestUserAuthServiceSendVerifyCodeThrottled(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	client := redis.NewClient(&redis.Options{Addr: f.redis.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
	})
	f.svc.codes = cache.NewVerifyCodeStore(client, "blog", config.VerifyCodeConfig{
		Length:              6,
		ExpireMinutes:       15,
		SendIntervalSeconds: 60,
		SingleUse:           true,
	})

	if err := f.svc.SendVerifyCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("first send failed: %v", err)
	}
	if err := f.svc.SendVerifyCode(ctx, "alice@example.com"); !errors.Is(err, ErrCodeSendTooOften) {
		t.Fatalf("second send want ErrCodeSendTooOften got %v", err)
	}

	f.redis.FastForward(61 * time.Second)
	if err := f.svc.SendVerifyCode(ctx, "alice@example.com"); err != nil {
		t.Fatalf("send after interval failed: %v", err)
	}
}

func TestUserAuthServiceListUsers(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	f.register(t, "alice@example.com", "abcd1234")
	f.register(t, "bob@example.com", "abcd1234")

	rows, total, err := f.svc.ListUsers(repository.UserListFilter{Page: 0, PageSize: 0})
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("total want 2 got %d", total)
	}
	if len(rows) != 2 {
		t.Fatalf("rows want 2 got %d", len(rows))
	}

	rows, total, err = f.svc.ListUsers(repository.UserListFilter{Keyword: "alice"})
	if err != nil {
		t.Fatalf("list users with keyword failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("keyword filter want 1 row got total=%d rows=%d", total, len(rows))
	}
	if rows[0].Username != "alice@example.com" {
		t.Fatalf("row username want alice@example.com got %s", rows[0].Username)
	}
}

func TestUserAuthServiceUserActiveBuckets(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	f.register(t, "alice@example.com", "abcd1234")

	buckets, err := f.svc.UserActiveBuckets()
	if err != nil {
		t.Fatalf("active buckets failed: %v", err)
	}
	if len(buckets) != 6 {
		t.Fatalf("buckets length want 6 got %d", len(buckets))
	}
	if buckets[0].Name != "1天内" || buckets[0].Value != 1 {
		t.Fatalf("first bucket want 1天内=1 got %+v", buckets[0])
	}
	var total int64
	for _, bucket := range buckets {
		total += bucket.Value
	}
	if total != 1 {
		t.Fatalf("bucket total want 1 got %d", total)
	}
}

func TestUserAuthServiceUserThreeDayActive(t *testing.T) {
	f := setupUserAuthServiceTest(t)

	f.register(t, "alice@example.com", "abcd1234")
	f.register(t, "bob@example.com", "abcd1234")
	if err := f.db.Model(&models.UserAuth{}).
		Where("username = ?", "bob@example.com").
		Update("last_login_time", time.Now().Add(-36*time.Hour)).Error; err != nil {
		t.Fatalf("update last login failed: %v", err)
	}

	buckets, err := f.svc.UserThreeDayActive()
	if err != nil {
		t.Fatalf("three day active failed: %v", err)
	}
	if len(buckets) != 3 {
		t.Fatalf("buckets length want 3 got %d", len(buckets))
	}
	wantNames := []string{"0-1天", "1-2天", "2-3天"}
	wantValues := []int64{1, 1, 0}
	for i, bucket := range buckets {
		if bucket.Name != wantNames[i] || bucket.Value != wantValues[i] {
			t.Fatalf("bucket %d want %s=%d got %+v", i, wantNames[i], wantValues[i], bucket)
		}
	}
}

func TestUserAuthServiceListUserAreas(t *testing.T) {
	f := setupUserAuthServiceTest(t)
	ctx := context.Background()

	f.redis.Set("blog:area:user", `[{"name":"广东","value":9}]`)
	f.redis.HSet("blog:area:visitor", "上海", "3")

	areas, err := f.svc.ListUserAreas(ctx, constants.UserAreaTypeUser)
	if err != nil {
		t.Fatalf("list user areas failed: %v", err)
	}
	if len(areas) != 1 || areas[0].Name != "广东" {
		t.Fatalf("user areas mismatch: %+v", areas)
	}

	areas, err = f.svc.ListUserAreas(ctx, constants.UserAreaTypeVisitor)
	if err != nil {
		t.Fatalf("list visitor areas failed: %v", err)
	}
	if len(areas) != 1 || areas[0].Name != "上海" || areas[0].Value != 3 {
		t.Fatalf("visitor areas mismatch: %+v", areas)
	}
}
