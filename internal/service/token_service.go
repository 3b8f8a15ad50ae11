package service

import (
	"context"
	"errors"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/cache"
	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	"github.com/Keep-Fight/LightBlogSystem/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// UserJWTClaims 用户 JWT 声明
type UserJWTClaims struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	LoginType string `json:"login_type"`
	jwt.RegisteredClaims
}

// TokenService 会话令牌服务
// 签发 JWT 的同时在缓存写入会话记录，注销时删除会话即可使 token 失效，
// 无需等到 JWT 自身过期。
type TokenService struct {
	cfg      config.JWTConfig
	sessions *cache.SessionStore
}

// NewTokenService 创建令牌服务
func NewTokenService(cfg config.JWTConfig, sessions *cache.SessionStore) *TokenService {
	return &TokenService{cfg: cfg, sessions: sessions}
}

// ExpireDuration token 有效期
func (s *TokenService) ExpireDuration() time.Duration {
	hours := s.cfg.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Issue 为凭证签发 token 并写入会话
// 同一用户重复登录覆盖旧会话，始终只保留最新一份。
func (s *TokenService) Issue(ctx context.Context, auth *models.UserAuth) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.ExpireDuration())

	claims := UserJWTClaims{
		UserID:    auth.UserInfoID,
		Username:  auth.Username,
		LoginType: auth.LoginType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}

	if s.sessions != nil {
		session := &cache.UserSession{
			UserID:    auth.UserInfoID,
			Username:  auth.Username,
			LoginType: auth.LoginType,
			IssuedAt:  now.Unix(),
			ExpiresAt: expiresAt.Unix(),
		}
		if err := s.sessions.Save(ctx, session, s.ExpireDuration()); err != nil {
			return "", time.Time{}, err
		}
	}

	return tokenString, expiresAt, nil
}

// Parse 解析 JWT Token
func (s *TokenService) Parse(tokenString string) (*UserJWTClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	claims := &UserJWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*UserJWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// Verify 解析 token 并确认会话仍然在线
// 会话已被注销或过期时 token 即视为无效。
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*UserJWTClaims, error) {
	claims, err := s.Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if s.sessions != nil {
		session, err := s.sessions.Get(ctx, claims.UserID)
		if err != nil {
			return nil, err
		}
		if session == nil {
			return nil, errors.New("会话已失效")
		}
	}
	return claims, nil
}

// Revoke 注销用户会话，重复注销与注销不存在的会话同样成功
func (s *TokenService) Revoke(ctx context.Context, userID uint) error {
	if s.sessions == nil {
		return nil
	}
	return s.sessions.Delete(ctx, userID)
}
