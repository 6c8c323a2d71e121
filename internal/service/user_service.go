package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"social-graph/internal/model"
	"social-graph/internal/repository"
	"social-graph/pkg/apperr"
	"social-graph/pkg/db"
	"social-graph/pkg/metrics"
	"social-graph/pkg/password"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UserService 用户身份存储：注册、凭证校验、资料修改
type UserService struct {
	db      *gorm.DB
	repo    *repository.UserRepository
	hasher  *password.Hasher
	timeout time.Duration
	log     *zap.Logger
}

func NewUserService(orm *gorm.DB, repo *repository.UserRepository, hasher *password.Hasher, timeout time.Duration, log *zap.Logger) *UserService {
	return &UserService{db: orm, repo: repo, hasher: hasher, timeout: timeout, log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeUsername 用户名不区分大小写，注册、登录与失败计数统一使用
func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func duplicateUsername(username string) error {
	return apperr.New(apperr.KindDuplicateUsername, fmt.Sprintf("username %s already exists", username))
}

func duplicateEmail(email string) error {
	return apperr.New(apperr.KindDuplicateEmail, fmt.Sprintf("email %s already exists", email))
}

// Register 注册
// 用户名优先于邮箱判重；并发注册被唯一索引拦下时重新归类为对应的重复错误
func (s *UserService) Register(ctx context.Context, username, email, plainPassword string) (*model.User, error) {
	username = normalizeUsername(username)
	email = normalizeEmail(email)
	if err := validateStruct(registration{Username: username, Email: email, Password: plainPassword}); err != nil {
		metrics.ObserveRegistration("invalid")
		return nil, err
	}

	// 密码哈希（事务外计算，避免占用连接）
	hash, err := s.hasher.Hash(plainPassword)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, "password is invalid", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		taken, err := repo.UsernameTaken(ctx, username)
		if err != nil {
			return err
		}
		if taken {
			return duplicateUsername(username)
		}
		taken, err = repo.EmailTaken(ctx, email, 0)
		if err != nil {
			return err
		}
		if taken {
			return duplicateEmail(email)
		}
		return repo.Create(ctx, user)
	})
	if apperr.KindOf(err) == "" && db.IsDuplicateKey(err) {
		err = s.classifyDuplicate(ctx, username, email)
	}
	if err != nil {
		err = storageErr(err)
		metrics.ObserveRegistration(string(apperr.KindOf(err)))
		return nil, err
	}

	metrics.ObserveRegistration("success")
	s.log.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("username", user.Username))
	return user, nil
}

// classifyDuplicate 唯一索引冲突后判断是哪个字段重复
func (s *UserService) classifyDuplicate(ctx context.Context, username, email string) error {
	taken, err := s.repo.UsernameTaken(ctx, username)
	if err != nil {
		return err
	}
	if taken {
		return duplicateUsername(username)
	}
	return duplicateEmail(email)
}

// VerifyCredentials 校验用户名与密码
// 用户不存在与密码错误返回同一个错误，用户不存在时也做一次哈希比对
func (s *UserService) VerifyCredentials(ctx context.Context, username, plainPassword string) (*model.User, error) {
	username = normalizeUsername(username)
	if username == "" || plainPassword == "" {
		return nil, apperr.ErrInvalidCredentials
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.hasher.VerifyDummy(plainPassword)
		return nil, apperr.ErrInvalidCredentials
	}
	if err != nil {
		return nil, storageErr(err)
	}
	if !s.hasher.Verify(plainPassword, u.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}
	return u, nil
}

// CheckPassword 校验指定用户的当前密码
func (s *UserService) CheckPassword(ctx context.Context, userID uint, plainPassword string) error {
	u, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.hasher.Verify(plainPassword, u.PasswordHash) {
		return apperr.ErrInvalidCredentials
	}
	return nil
}

// GetByID 按ID获取用户
func (s *UserService) GetByID(ctx context.Context, userID uint) (*model.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound(fmt.Sprintf("user %d not found", userID))
	}
	if err != nil {
		return nil, storageErr(err)
	}
	return u, nil
}

// UpdatePassword 重新计算并保存密码哈希
func (s *UserService) UpdatePassword(ctx context.Context, userID uint, newPlainPassword string) error {
	if err := validateField("password", newPlainPassword, passwordRules); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPlainPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindValidation, "password is invalid", err)
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(fmt.Sprintf("user %d not found", userID))
			}
			return err
		}
		_, err := repo.UpdatePasswordHash(ctx, userID, hash)
		return err
	})
	if err != nil {
		return storageErr(err)
	}

	s.log.Info("用户密码已更新", zap.Uint("user_id", userID))
	return nil
}

// UpdateEmail 修改邮箱，新邮箱需全局唯一
func (s *UserService) UpdateEmail(ctx context.Context, userID uint, newEmail string) error {
	newEmail = normalizeEmail(newEmail)
	if err := validateField("email", newEmail, emailRules); err != nil {
		return err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetByID(ctx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound(fmt.Sprintf("user %d not found", userID))
			}
			return err
		}
		taken, err := repo.EmailTaken(ctx, newEmail, userID)
		if err != nil {
			return err
		}
		if taken {
			return duplicateEmail(newEmail)
		}
		_, err = repo.UpdateEmail(ctx, userID, newEmail)
		return err
	})
	if apperr.KindOf(err) == "" && db.IsDuplicateKey(err) {
		err = duplicateEmail(newEmail)
	}
	if err != nil {
		return storageErr(err)
	}

	s.log.Info("用户邮箱已更新", zap.Uint("user_id", userID))
	return nil
}
