package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Keep-Fight/LightBlogSystem/internal/constants"
	"github.com/Keep-Fight/LightBlogSystem/internal/logger"
	"github.com/Keep-Fight/LightBlogSystem/internal/social"

	"gorm.io/gorm"
)

// SocialStrategy 第三方登录策略
// 负责校验平台方载荷并换取经过验证的身份信息。
type SocialStrategy interface {
	Exchange(ctx context.Context, raw []byte) (*social.Identity, error)
}

// SocialLoginService 第三方登录调度
// 按登录方式路由到对应策略，首次登录自动建号。
type SocialLoginService struct {
	userAuth   *UserAuthService
	strategies map[string]SocialStrategy
}

// NewSocialLoginService 创建第三方登录服务
func NewSocialLoginService(userAuth *UserAuthService) *SocialLoginService {
	return &SocialLoginService{
		userAuth:   userAuth,
		strategies: make(map[string]SocialStrategy),
	}
}

// Register 注册登录策略，重复注册覆盖旧策略
func (s *SocialLoginService) Register(loginType string, strategy SocialStrategy) {
	if s == nil || strategy == nil {
		return
	}
	s.strategies[normalizeLoginType(loginType)] = strategy
}

// SupportedTypes 已注册的登录方式
func (s *SocialLoginService) SupportedTypes() []string {
	types := make([]string, 0, len(s.strategies))
	for loginType := range s.strategies {
		types = append(types, loginType)
	}
	return types
}

// Login 第三方登录
// 同一 (login_type, provider_uid) 永远命中同一账号；并发首登由唯一索引
// 兜底，落败一方读取已存在的记录继续登录。
func (s *SocialLoginService) Login(ctx context.Context, loginType string, raw []byte) (*LoginResult, error) {
	strategy, ok := s.strategies[normalizeLoginType(loginType)]
	if !ok {
		return nil, ErrUnsupportedLoginType
	}

	identity, err := strategy.Exchange(ctx, raw)
	if err != nil {
		if errors.Is(err, social.ErrProviderDisabled) {
			return nil, ErrUnsupportedLoginType
		}
		logger.Warnw("social_exchange_failed",
			"login_type", loginType,
			"error", err,
		)
		return nil, fmt.Errorf("%w: %v", ErrSocialLoginFailed, err)
	}
	if identity == nil || strings.TrimSpace(identity.ProviderUID) == "" {
		return nil, ErrSocialLoginFailed
	}

	normalized := normalizeLoginType(loginType)
	providerUID := strings.TrimSpace(identity.ProviderUID)

	auth, err := s.userAuth.authRepo.GetByProvider(normalized, providerUID)
	if err != nil {
		return nil, err
	}
	if auth == nil {
		auth, _, err = s.userAuth.createAccount(socialUsername(normalized, providerUID), accountSeed{
			Nickname:    resolveSocialNickname(identity),
			Avatar:      resolveSocialAvatar(identity, s.userAuth.defaultAvatar()),
			LoginType:   normalized,
			ProviderUID: providerUID,
		})
		if err != nil {
			if !errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, err
			}
			// 并发首登落败，读取先到者创建的账号
			auth, err = s.userAuth.authRepo.GetByProvider(normalized, providerUID)
			if err != nil {
				return nil, err
			}
			if auth == nil {
				return nil, ErrSocialLoginFailed
			}
		}
	}

	if strings.EqualFold(auth.Status, constants.UserStatusDisabled) {
		return nil, ErrUserDisabled
	}

	return s.userAuth.finishLogin(ctx, auth, nil)
}

func normalizeLoginType(loginType string) string {
	return strings.ToLower(strings.TrimSpace(loginType))
}

// socialUsername 第三方账号的占位用户名，与邮箱账号共用唯一索引
func socialUsername(loginType, providerUID string) string {
	return fmt.Sprintf("%s:%s", loginType, providerUID)
}

func resolveSocialNickname(identity *social.Identity) string {
	if nickname := strings.TrimSpace(identity.Nickname); nickname != "" {
		return nickname
	}
	return randomNickname()
}

func resolveSocialAvatar(identity *social.Identity, fallback string) string {
	if avatar := strings.TrimSpace(identity.Avatar); avatar != "" {
		return avatar
	}
	return fallback
}
