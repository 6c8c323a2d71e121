// Package testutil 测试辅助：独立的 sqlite 数据库与已装配的服务
package testutil

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"social-graph/config"
	"social-graph/internal/model"
	"social-graph/pkg/db"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var seq atomic.Int64

// DatabaseConfig 每个测试一个 sqlite 文件
func DatabaseConfig(t *testing.T) config.DatabaseConfig {
	t.Helper()
	return config.DatabaseConfig{
		Driver:       db.DriverSQLite,
		SQLitePath:   filepath.Join(t.TempDir(), "social-graph.db"),
		QueryTimeout: 5 * time.Second,
	}
}

// Config 测试用完整配置：sqlite、进程内缓存、最低 bcrypt 成本
func Config(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Database = DatabaseConfig(t)
	cfg.Redis.Host = ""
	cfg.JWT.Secret = "test-jwt-secret-32bytes-padded!!"
	cfg.JWT.Issuer = "social-graph-test"
	cfg.JWT.ExpireTime = time.Hour
	cfg.Security.BcryptCost = bcrypt.MinCost
	cfg.Security.LoginMaxAttempts = 3
	cfg.Security.LoginLockout = time.Minute
	cfg.Security.RateLimitRPS = 1000
	cfg.Security.RateLimitBurst = 1000
	return cfg
}

// OpenDB 打开并迁移测试数据库，测试结束时关闭
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()
	orm, err := db.InitDB(DatabaseConfig(t))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(orm, model.AutoMigrateModels()...))
	t.Cleanup(func() { _ = db.CloseDB(orm) })
	return orm
}

// CreateUser 直接写入一个用户（不经过注册流程）
func CreateUser(t *testing.T, orm *gorm.DB, username string) *model.User {
	t.Helper()
	if username == "" {
		username = fmt.Sprintf("user%d", seq.Add(1))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	require.NoError(t, orm.WithContext(context.Background()).Create(u).Error)
	return u
}
