package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromYAML_MissingFileUsesDefaults(t *testing.T) {
	cfg := loadFromYAML(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromYAML_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("jwt:\n  issuer: test-issuer\ndatabase:\n  driver: sqlite\n  queryTimeout: 2s\nfeatureFlags:\n  beta: true\n")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	cfg := loadFromYAML(path)
	assert.Equal(t, "test-issuer", cfg.JWT.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.FeatureFlags["beta"])
}

func TestOverrideWithEnvVars(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("JWT_EXPIRE_TIME", "1h")
	t.Setenv("LOGIN_MAX_ATTEMPTS", "3")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("REDIS_DB", "0")
	t.Setenv("FEATURE_FLAGS", "alpha=true, beta=false,gamma")

	cfg := Default()
	cfg.Redis.DB = 4
	overrideWithEnvVars(cfg)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, time.Hour, cfg.JWT.ExpireTime)
	assert.Equal(t, 3, cfg.Security.LoginMaxAttempts)
	assert.Equal(t, 2.5, cfg.Security.RateLimitRPS)
	assert.Equal(t, 0, cfg.Redis.DB)
	assert.Equal(t, map[string]bool{"alpha": true, "beta": false, "gamma": true}, cfg.FeatureFlags)
}

func TestOverrideWithEnvVars_IgnoresMalformed(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("JWT_EXPIRE_TIME", "forever")

	cfg := Default()
	overrideWithEnvVars(cfg)

	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, 24*time.Hour, cfg.JWT.ExpireTime)
}
