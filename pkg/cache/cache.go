// Package cache 键值缓存抽象
// 配置了 Redis 时使用 Redis，否则退化为进程内缓存（单实例部署/测试）
package cache

import (
	"context"
	"time"

	"social-graph/config"
	"social-graph/pkg/cache/local"
	cacheredis "social-graph/pkg/cache/redis"
)

// Cache 令牌吊销列表与登录失败计数所需的操作
type Cache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	// Incr 原子递增，key 首次创建时设置 ttl
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// NewCache 根据配置创建缓存
func NewCache(cfg config.RedisConfig) (Cache, error) {
	if cfg.Host == "" {
		return local.New(time.Minute), nil
	}
	return cacheredis.New(cfg)
}
