package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"social-graph/config"
	"social-graph/pkg/apperr"
	"social-graph/pkg/cache"
	"social-graph/pkg/cache/local"
	"social-graph/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newJWT(ttl time.Duration) *jwt.JWTService {
	return jwt.NewJWTService(config.JWTConfig{
		Secret:     "test-jwt-secret-32bytes-padded!!",
		ExpireTime: ttl,
		Issuer:     "social-graph-test",
	})
}

func newAuthService(t *testing.T, c cache.Cache, ttl time.Duration) (*AuthService, *UserService) {
	t.Helper()
	users, _ := newUserService(t)
	if c == nil {
		lc := local.New(0)
		t.Cleanup(func() { _ = lc.Close() })
		c = lc
	}
	return NewAuthService(users, newJWT(ttl), c, 3, time.Minute, zaptest.NewLogger(t)), users
}

func TestLogin_IssuesUsableToken(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()

	u, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	cred, err := auth.Login(ctx, "alice", "pw", "127.0.0.1")
	require.NoError(t, err)
	assert.NotEmpty(t, cred.AccessToken)
	assert.True(t, cred.ExpiresAt.After(time.Now()))
	assert.Equal(t, u.ID, cred.User.ID)

	claims, err := auth.Authenticate(ctx, cred.AccessToken)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, u.ID, id)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = auth.Login(ctx, "alice", "nope", "127.0.0.1")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)

	_, err = auth.Login(ctx, "ghost", "pw", "127.0.0.1")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err = auth.Login(ctx, "alice", "wrong", "127.0.0.1")
		require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	}

	// 锁定期内正确密码也被拒绝
	_, err = auth.Login(ctx, "Alice", "pw", "127.0.0.1")
	assert.ErrorIs(t, err, apperr.ErrTooManyAttempts)
}

func TestLogin_LockoutSharedAcrossUsernameCase(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice", "a@example.com", "pw1")
	require.NoError(t, err)

	// 大小写不同的用户名指向同一账号，不能另建一个
	_, err = users.Register(ctx, "ALICE", "b@example.com", "pw2")
	require.ErrorIs(t, err, apperr.ErrDuplicateUsername)

	for i := 0; i < 3; i++ {
		_, err = auth.Login(ctx, "ALICE", "pw2", "127.0.0.1")
		require.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	}
	_, err = auth.Login(ctx, "alice", "pw1", "127.0.0.1")
	assert.ErrorIs(t, err, apperr.ErrTooManyAttempts)
}

func TestLogin_AcceptsAnyUsernameCase(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()
	u, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	cred, err := auth.Login(ctx, "Alice", "pw", "127.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, cred.User.ID)
}

func TestLogin_SuccessResetsFailures(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _ = auth.Login(ctx, "alice", "wrong", "127.0.0.1")
	}
	_, err = auth.Login(ctx, "alice", "pw", "127.0.0.1")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, _ = auth.Login(ctx, "alice", "wrong", "127.0.0.1")
	}
	_, err = auth.Login(ctx, "alice", "pw", "127.0.0.1")
	assert.NoError(t, err)
}

func TestAuthenticate_Rejects(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()
	u, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = auth.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	expired, _, err := newJWT(-time.Minute).GenerateToken(u.ID, u.Username)
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)
}

func TestLogout_RevokesToken(t *testing.T) {
	auth, users := newAuthService(t, nil, time.Hour)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	cred, err := auth.Login(ctx, "alice", "pw", "127.0.0.1")
	require.NoError(t, err)
	claims, err := auth.Authenticate(ctx, cred.AccessToken)
	require.NoError(t, err)

	require.NoError(t, auth.Logout(ctx, claims))

	_, err = auth.Authenticate(ctx, cred.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	// 新登录的令牌不受影响
	fresh, err := auth.Login(ctx, "alice", "pw", "127.0.0.1")
	require.NoError(t, err)
	_, err = auth.Authenticate(ctx, fresh.AccessToken)
	assert.NoError(t, err)
}

type brokenCache struct{ cache.Cache }

func (brokenCache) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("cache down")
}

func (brokenCache) Exists(context.Context, string) (bool, error) {
	return false, errors.New("cache down")
}

func (brokenCache) Incr(context.Context, string, time.Duration) (int64, error) {
	return 0, errors.New("cache down")
}

func (brokenCache) Del(context.Context, ...string) error {
	return errors.New("cache down")
}

func TestCacheFailure_LoginOpenAuthenticateClosed(t *testing.T) {
	auth, users := newAuthService(t, brokenCache{}, time.Hour)
	ctx := context.Background()
	_, err := users.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	cred, err := auth.Login(ctx, "alice", "pw", "127.0.0.1")
	require.NoError(t, err)

	_, err = auth.Authenticate(ctx, cred.AccessToken)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}
