package repository

import (
	"context"

	"social-graph/internal/model"

	"gorm.io/gorm"
)

type UserRepository struct {
	orm *gorm.DB
}

func NewUserRepository(orm *gorm.DB) *UserRepository {
	return &UserRepository{orm: orm}
}

// WithTx 返回绑定到事务的仓储
func (r *UserRepository) WithTx(tx *gorm.DB) *UserRepository {
	return &UserRepository{orm: tx}
}

func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	return r.orm.WithContext(ctx).Create(user).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var u model.User
	if err := r.orm.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var u model.User
	if err := r.orm.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

// UsernameTaken 用户名是否已被占用
func (r *UserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	err := r.orm.WithContext(ctx).Model(&model.User{}).
		Where("username = ?", username).
		Count(&count).Error
	return count > 0, err
}

// EmailTaken 邮箱是否已被其他用户占用，excludeID 为 0 表示不排除
func (r *UserRepository) EmailTaken(ctx context.Context, email string, excludeID uint) (bool, error) {
	var count int64
	q := r.orm.WithContext(ctx).Model(&model.User{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&count).Error
	return count > 0, err
}

// CountExisting 统计给定ID中存在的用户数量
func (r *UserRepository) CountExisting(ctx context.Context, ids ...uint) (int64, error) {
	var count int64
	err := r.orm.WithContext(ctx).Model(&model.User{}).
		Where("id IN ?", ids).
		Count(&count).Error
	return count, err
}

// UpdatePasswordHash 更新密码哈希，返回受影响行数
func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id uint, hash string) (int64, error) {
	res := r.orm.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("password_hash", hash)
	return res.RowsAffected, res.Error
}

// UpdateEmail 更新邮箱，返回受影响行数
func (r *UserRepository) UpdateEmail(ctx context.Context, id uint, email string) (int64, error) {
	res := r.orm.WithContext(ctx).Model(&model.User{}).
		Where("id = ?", id).
		Update("email", email)
	return res.RowsAffected, res.Error
}
