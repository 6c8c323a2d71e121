package repository

import (
	"context"
	"errors"

	"social-graph/internal/model"
	"social-graph/pkg/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationshipRepository 有向关系边仓储
// 好友与拉黑共用同一套方法，按类型过滤
type RelationshipRepository struct {
	orm *gorm.DB
}

func NewRelationshipRepository(orm *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{orm: orm}
}

// WithTx 返回绑定到事务的仓储
func (r *RelationshipRepository) WithTx(tx *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{orm: tx}
}

func edgeQuery(q *gorm.DB, userID, relatedUserID uint, relType model.RelationshipType) *gorm.DB {
	return q.Where("user_id = ? AND related_user_id = ? AND relationship_type = ?", userID, relatedUserID, relType)
}

// Find 查询一条边，不存在时返回 nil, nil
func (r *RelationshipRepository) Find(ctx context.Context, userID, relatedUserID uint, relType model.RelationshipType) (*model.Relationship, error) {
	var edge model.Relationship
	err := edgeQuery(r.orm.WithContext(ctx), userID, relatedUserID, relType).First(&edge).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &edge, nil
}

// Exists 边是否存在
func (r *RelationshipRepository) Exists(ctx context.Context, userID, relatedUserID uint, relType model.RelationshipType) (bool, error) {
	var count int64
	err := edgeQuery(r.orm.WithContext(ctx).Model(&model.Relationship{}), userID, relatedUserID, relType).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

// Insert 插入边，唯一索引冲突时不报错
// 返回 created=false 表示边已存在（包括并发插入被唯一约束拦下的情况）
func (r *RelationshipRepository) Insert(ctx context.Context, edge *model.Relationship) (bool, error) {
	res := r.orm.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(edge)
	if res.Error != nil {
		if db.IsDuplicateKey(res.Error) {
			return false, nil
		}
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Delete 删除边，返回删除行数（0 或 1）
func (r *RelationshipRepository) Delete(ctx context.Context, userID, relatedUserID uint, relType model.RelationshipType) (int64, error) {
	res := edgeQuery(r.orm.WithContext(ctx), userID, relatedUserID, relType).Delete(&model.Relationship{})
	return res.RowsAffected, res.Error
}

// ListAfter 按插入顺序（自增ID）分页读取 userID 发出的某类边
func (r *RelationshipRepository) ListAfter(ctx context.Context, userID uint, relType model.RelationshipType, afterID uint, limit int) ([]*model.Relationship, error) {
	var edges []*model.Relationship
	err := r.orm.WithContext(ctx).
		Where("user_id = ? AND relationship_type = ? AND id > ?", userID, relType, afterID).
		Order("id ASC").
		Limit(limit).
		Find(&edges).Error
	return edges, err
}
