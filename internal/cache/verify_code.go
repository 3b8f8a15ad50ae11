package cache

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/config"
	"github.com/Keep-Fight/LightBlogSystem/internal/constants"

	"github.com/redis/go-redis/v9"
)

// ErrCodeSendTooOften 距离上次签发未满发送间隔
var ErrCodeSendTooOften = errors.New("verify code send interval not elapsed")

// VerifyCodeStore 邮箱验证码存储
// 每个邮箱同一时刻只有一个有效验证码，重新签发直接覆盖旧值；
// 过期由 Redis TTL 保证，调用方无法区分"已过期"与"从未签发"。
type VerifyCodeStore struct {
	client       *redis.Client
	prefix       string
	length       int
	ttl          time.Duration
	sendInterval time.Duration
	singleUse    bool

	// 测试中替换为固定值生成器
	generate func(length int) (string, error)
}

// NewVerifyCodeStore 创建验证码存储
func NewVerifyCodeStore(client *redis.Client, prefix string, cfg config.VerifyCodeConfig) *VerifyCodeStore {
	length := cfg.Length
	if length < 4 || length > 10 {
		length = constants.DefaultVerifyCodeLength
	}
	expireMinutes := cfg.ExpireMinutes
	if expireMinutes <= 0 {
		expireMinutes = constants.DefaultVerifyCodeExpireMinutes
	}
	// 发送间隔为零表示关闭限制，负值视为未配置
	intervalSeconds := cfg.SendIntervalSeconds
	if intervalSeconds < 0 {
		intervalSeconds = constants.DefaultSendIntervalSeconds
	}
	if strings.TrimSpace(prefix) == "" {
		prefix = "blog"
	}
	return &VerifyCodeStore{
		client:       client,
		prefix:       prefix,
		length:       length,
		ttl:          time.Duration(expireMinutes) * time.Minute,
		sendInterval: time.Duration(intervalSeconds) * time.Second,
		singleUse:    cfg.SingleUse,
		generate:     randomNumericCode,
	}
}

// TTL 验证码有效期
func (s *VerifyCodeStore) TTL() time.Duration {
	return s.ttl
}

// Issue 为邮箱签发新验证码并写入缓存，覆盖旧码
// 发送间隔大于零时，间隔内的重复签发返回 ErrCodeSendTooOften。
func (s *VerifyCodeStore) Issue(ctx context.Context, email string) (string, error) {
	if s == nil || s.client == nil {
		return "", redis.ErrClosed
	}
	if s.sendInterval > 0 {
		ok, err := s.client.SetNX(ctx, s.intervalKey(email), 1, s.sendInterval).Result()
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrCodeSendTooOften
		}
	}
	code, err := s.generate(s.length)
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, s.key(email), code, s.ttl).Err(); err != nil {
		return "", err
	}
	return code, nil
}

// Validate 校验邮箱验证码
// 返回 false 覆盖三种情况：码不匹配、已过期、从未签发；
// 单次使用策略开启时，校验通过立即删除。
// error 仅表示缓存本身不可用。
func (s *VerifyCodeStore) Validate(ctx context.Context, email, supplied string) (bool, error) {
	if s == nil || s.client == nil {
		return false, redis.ErrClosed
	}
	stored, err := s.client.Get(ctx, s.key(email)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if stored == "" || stored != strings.TrimSpace(supplied) {
		return false, nil
	}
	if s.singleUse {
		if err := s.client.Del(ctx, s.key(email)).Err(); err != nil {
			return false, err
		}
	}
	return true, nil
}

func (s *VerifyCodeStore) key(email string) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, constants.RedisKeyVerifyCode, strings.ToLower(strings.TrimSpace(email)))
}

func (s *VerifyCodeStore) intervalKey(email string) string {
	return s.key(email) + ":interval"
}

func randomNumericCode(length int) (string, error) {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String(), nil
}
