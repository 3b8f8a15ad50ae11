package service

import (
	"github.com/Keep-Fight/LightBlogSystem/internal/config"

	"golang.org/x/crypto/bcrypt"
)

// CredentialService 密码凭证服务
// 哈希内嵌盐值，同一明文两次哈希结果不同，校验只认 bcrypt 比对结果。
type CredentialService struct {
	policy config.PasswordPolicyConfig
}

// NewCredentialService 创建密码凭证服务
func NewCredentialService(policy config.PasswordPolicyConfig) *CredentialService {
	return &CredentialService{policy: policy}
}

// HashPassword 使用 bcrypt 加密密码
func (s *CredentialService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证明文密码与哈希是否匹配
func (s *CredentialService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// ValidatePassword 校验密码是否符合策略
func (s *CredentialService) ValidatePassword(password string) error {
	if s == nil {
		return nil
	}
	return validatePassword(s.policy, password)
}

// RotatePassword 校验旧密码后生成新哈希
// 旧密码不匹配返回 ErrOldPasswordIncorrect，原哈希保持不变。
func (s *CredentialService) RotatePassword(currentHash, oldPassword, newPassword string) (string, error) {
	if err := s.VerifyPassword(currentHash, oldPassword); err != nil {
		return "", ErrOldPasswordIncorrect
	}
	if err := s.ValidatePassword(newPassword); err != nil {
		return "", err
	}
	return s.HashPassword(newPassword)
}
