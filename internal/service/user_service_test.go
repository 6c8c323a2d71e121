package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"social-graph/internal/repository"
	"social-graph/internal/testutil"
	"social-graph/pkg/apperr"
	"social-graph/pkg/password"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newUserService(t *testing.T) (*UserService, *gorm.DB) {
	t.Helper()
	orm := testutil.OpenDB(t)
	svc := NewUserService(orm, repository.NewUserRepository(orm), password.NewHasher(bcrypt.MinCost), 5*time.Second, zaptest.NewLogger(t))
	return svc, orm
}

func TestRegister_Success(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", " Alice@Example.com ", "s3cret")
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "alice@example.com", u.Email)
	assert.NotEqual(t, "s3cret", u.PasswordHash)
	assert.NotEmpty(t, u.PasswordHash)

	got, err := svc.VerifyCredentials(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "other@example.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)
}

func TestRegister_UsernameIgnoresCase(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, " Alice ", "a@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)

	_, err = svc.Register(ctx, "ALICE", "other@example.com", "pw2")
	assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)

	got, err := svc.VerifyCredentials(ctx, "aLiCe", "pw1")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "bob", "A@example.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrDuplicateEmail)
}

func TestRegister_UsernameCheckedBeforeEmail(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "alice", "a@example.com", "pw")
	assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	cases := []struct {
		name, username, email, password string
	}{
		{"empty username", "", "a@example.com", "pw"},
		{"bad username chars", "al ice", "a@example.com", "pw"},
		{"long username", strings.Repeat("a", 65), "a@example.com", "pw"},
		{"empty email", "alice", "", "pw"},
		{"bad email", "alice", "not-an-email", "pw"},
		{"empty password", "alice", "a@example.com", ""},
		{"long password", "alice", "a@example.com", strings.Repeat("x", 73)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			assert.ErrorIs(t, err, apperr.ErrValidation)
		})
	}
}

func TestRegister_ConcurrentSameUsername(t *testing.T) {
	svc, orm := newUserService(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Register(ctx, "racer", strings.Repeat("r", i+1)+"@example.com", "pw")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperr.ErrDuplicateUsername)
	}
	assert.Equal(t, 1, ok)

	var count int64
	require.NoError(t, orm.Table("user").Where("username = ?", "racer").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestVerifyCredentials_SameErrorForUnknownUserAndWrongPassword(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice", "a@example.com", "right")
	require.NoError(t, err)

	_, errWrong := svc.VerifyCredentials(ctx, "alice", "wrong")
	_, errUnknown := svc.VerifyCredentials(ctx, "nobody", "right")
	require.Error(t, errWrong)
	require.Error(t, errUnknown)
	assert.ErrorIs(t, errWrong, apperr.ErrInvalidCredentials)
	assert.ErrorIs(t, errUnknown, apperr.ErrInvalidCredentials)
	assert.Equal(t, apperr.MessageOf(errWrong), apperr.MessageOf(errUnknown))
}

func TestUpdatePassword(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "a@example.com", "old")
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePassword(ctx, u.ID, "new"))

	_, err = svc.VerifyCredentials(ctx, "alice", "old")
	assert.ErrorIs(t, err, apperr.ErrInvalidCredentials)
	_, err = svc.VerifyCredentials(ctx, "alice", "new")
	assert.NoError(t, err)

	assert.NoError(t, svc.CheckPassword(ctx, u.ID, "new"))
	assert.ErrorIs(t, svc.CheckPassword(ctx, u.ID, "old"), apperr.ErrInvalidCredentials)
}

func TestUpdatePassword_Errors(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	assert.ErrorIs(t, svc.UpdatePassword(ctx, 999, "new"), apperr.ErrNotFound)
	assert.ErrorIs(t, svc.UpdatePassword(ctx, 1, ""), apperr.ErrValidation)
}

func TestUpdateEmail(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	alice, err := svc.Register(ctx, "alice", "a@example.com", "pw")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "b@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, svc.UpdateEmail(ctx, alice.ID, "New@Example.com"))
	got, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", got.Email)

	// 改成自己当前的邮箱不算冲突
	assert.NoError(t, svc.UpdateEmail(ctx, alice.ID, "new@example.com"))

	assert.ErrorIs(t, svc.UpdateEmail(ctx, alice.ID, "b@example.com"), apperr.ErrDuplicateEmail)
	assert.ErrorIs(t, svc.UpdateEmail(ctx, alice.ID, "bad"), apperr.ErrValidation)
	assert.ErrorIs(t, svc.UpdateEmail(ctx, 999, "x@example.com"), apperr.ErrNotFound)
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newUserService(t)
	_, err := svc.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorageUnavailable_WhenDatabaseClosed(t *testing.T) {
	svc, orm := newUserService(t)
	sqlDB, err := orm.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = svc.GetByID(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
}
