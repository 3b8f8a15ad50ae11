package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/Keep-Fight/LightBlogSystem/internal/constants"

	"github.com/redis/go-redis/v9"
)

// UserArea 地域统计项
type UserArea struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

// AreaStatsStore 地域统计只读缓存
// 数据由站外的统计任务写入，这里只负责读取：
// 注册用户地域为整块 JSON 列表，游客地域为 hash 计数。
type AreaStatsStore struct {
	client *redis.Client
	prefix string
}

// NewAreaStatsStore 创建地域统计存储
func NewAreaStatsStore(client *redis.Client, prefix string) *AreaStatsStore {
	if strings.TrimSpace(prefix) == "" {
		prefix = "blog"
	}
	return &AreaStatsStore{client: client, prefix: prefix}
}

// GetUserAreas 读取注册用户地域统计
func (s *AreaStatsStore) GetUserAreas(ctx context.Context) ([]UserArea, error) {
	if s == nil || s.client == nil {
		return nil, redis.ErrClosed
	}
	key := fmt.Sprintf("%s:%s", s.prefix, constants.RedisKeyUserArea)
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return []UserArea{}, nil
	}
	if err != nil {
		return nil, err
	}
	var areas []UserArea
	if err := json.Unmarshal([]byte(val), &areas); err != nil {
		return nil, err
	}
	return areas, nil
}

// GetVisitorAreas 读取游客地域统计
func (s *AreaStatsStore) GetVisitorAreas(ctx context.Context) ([]UserArea, error) {
	if s == nil || s.client == nil {
		return nil, redis.ErrClosed
	}
	key := fmt.Sprintf("%s:%s", s.prefix, constants.RedisKeyVisitorArea)
	entries, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	areas := make([]UserArea, 0, len(entries))
	for name, raw := range entries {
		count, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		areas = append(areas, UserArea{Name: name, Value: count})
	}
	return areas, nil
}
