package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Keep-Fight/LightBlogSystem/internal/constants"

	"github.com/redis/go-redis/v9"
)

// UserSession 登录会话快照，按站内用户 ID 存储
type UserSession struct {
	UserID    uint   `json:"user_id"`
	Username  string `json:"username"`
	LoginType string `json:"login_type"`
	IssuedAt  int64  `json:"issued_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// SessionStore 会话存储
type SessionStore struct {
	client *redis.Client
	prefix string
}

// NewSessionStore 创建会话存储
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = "blog"
	}
	return &SessionStore{client: client, prefix: prefix}
}

// Save 写入会话，TTL 与 token 有效期一致
func (s *SessionStore) Save(ctx context.Context, session *UserSession, ttl time.Duration) error {
	if s == nil || s.client == nil {
		return redis.ErrClosed
	}
	if session == nil || session.UserID == 0 {
		return nil
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(session.UserID), payload, ttl).Err()
}

// Get 读取会话，不存在时返回 nil
func (s *SessionStore) Get(ctx context.Context, userID uint) (*UserSession, error) {
	if s == nil || s.client == nil {
		return nil, redis.ErrClosed
	}
	val, err := s.client.Get(ctx, s.key(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var session UserSession
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Delete 删除会话，会话不存在时同样成功
func (s *SessionStore) Delete(ctx context.Context, userID uint) error {
	if s == nil || s.client == nil {
		return redis.ErrClosed
	}
	return s.client.Del(ctx, s.key(userID)).Err()
}

func (s *SessionStore) key(userID uint) string {
	return fmt.Sprintf("%s:%s:%d", s.prefix, constants.RedisKeySession, userID)
}
