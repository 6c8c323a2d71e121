package cache

import (
	"context"
	"testing"

	"social-graph/config"
	"social-graph/pkg/cache/local"
	cacheredis "social-graph/pkg/cache/redis"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Cache = (*local.Cache)(nil)
	_ Cache = (*cacheredis.Cache)(nil)
)

func TestNewCache_LocalWhenNoRedisHost(t *testing.T) {
	c, err := NewCache(config.RedisConfig{})
	require.NoError(t, err)
	defer c.Close()

	_, ok := c.(*local.Cache)
	assert.True(t, ok)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestNewCache_UnreachableRedis(t *testing.T) {
	_, err := NewCache(config.RedisConfig{Host: "127.0.0.1", Port: 1})
	assert.Error(t, err)
}
