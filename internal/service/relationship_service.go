package service

import (
	"context"
	"fmt"
	"iter"
	"time"

	"social-graph/internal/model"
	"social-graph/internal/repository"
	"social-graph/pkg/apperr"
	"social-graph/pkg/db"
	"social-graph/pkg/metrics"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// DefaultPageSize 列表默认每页数量
	DefaultPageSize = 20
	// MaxPageSize 列表最大每页数量
	MaxPageSize = 100
)

// Notifier 关系建立后的通知出口（可为空）
type Notifier interface {
	RelationshipAdded(edge *model.Relationship)
}

// RelationshipService 关系账本
// 好友与拉黑只是 relationship_type 的两个取值，共用一套有向边逻辑
type RelationshipService struct {
	db       *gorm.DB
	users    *repository.UserRepository
	edges    *repository.RelationshipRepository
	notifier Notifier
	timeout  time.Duration
	log      *zap.Logger
}

func NewRelationshipService(orm *gorm.DB, users *repository.UserRepository, edges *repository.RelationshipRepository, notifier Notifier, timeout time.Duration, log *zap.Logger) *RelationshipService {
	return &RelationshipService{
		db:       orm,
		users:    users,
		edges:    edges,
		notifier: notifier,
		timeout:  timeout,
		log:      log,
	}
}

func checkType(relType model.RelationshipType) error {
	if !relType.Valid() {
		return apperr.Validation(fmt.Sprintf("unknown relationship type %q", relType))
	}
	return nil
}

// checkMutation 变更前的校验：类型合法、操作者即边的所有者、不能指向自己
func checkMutation(actorID, userID, otherID uint, relType model.RelationshipType) error {
	if err := checkType(relType); err != nil {
		return err
	}
	if actorID == 0 {
		return apperr.ErrUnauthenticated
	}
	if actorID != userID {
		return apperr.New(apperr.KindForbidden, "users may only manage their own relationships")
	}
	if userID == otherID {
		return apperr.ErrSelfReference
	}
	return nil
}

// IsRelated 是否存在 userID -> otherID 的某类边
func (s *RelationshipService) IsRelated(ctx context.Context, userID, otherID uint, relType model.RelationshipType) (bool, error) {
	if err := checkType(relType); err != nil {
		return false, err
	}
	if userID == otherID {
		return false, nil
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	ok, err := s.edges.Exists(ctx, userID, otherID, relType)
	if err != nil {
		return false, storageErr(err)
	}
	return ok, nil
}

// AddRelationship 建立 userID -> otherID 的边
// 已存在时幂等成功（created=false）；并发插入由唯一索引收敛为一条
func (s *RelationshipService) AddRelationship(ctx context.Context, actorID, userID, otherID uint, relType model.RelationshipType) (*model.Relationship, bool, error) {
	if err := checkMutation(actorID, userID, otherID, relType); err != nil {
		return nil, false, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var (
		edge    *model.Relationship
		created bool
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := s.users.WithTx(tx)
		edges := s.edges.WithTx(tx)

		n, err := users.CountExisting(ctx, userID, otherID)
		if err != nil {
			return err
		}
		if n != 2 {
			return apperr.NotFound("user not found")
		}

		// 快速路径：已存在直接返回
		existing, err := edges.Find(ctx, userID, otherID, relType)
		if err != nil {
			return err
		}
		if existing != nil {
			edge = existing
			return nil
		}

		candidate := &model.Relationship{
			UserID:           userID,
			RelatedUserID:    otherID,
			RelationshipType: relType,
			CreatedAt:        time.Now(),
		}
		created, err = edges.Insert(ctx, candidate)
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return apperr.NotFound("user not found")
			}
			return err
		}
		if created {
			edge = candidate
		}
		return nil
	})
	if err != nil {
		metrics.ObserveRelationship("add", string(relType), metrics.ResultError)
		return nil, false, storageErr(err)
	}

	if edge == nil {
		// 另一个请求抢先插入，当前事务的快照中可能不可见，提交后再读
		edge, err = s.edges.Find(ctx, userID, otherID, relType)
		if err != nil {
			return nil, false, storageErr(err)
		}
		if edge == nil {
			edge = &model.Relationship{UserID: userID, RelatedUserID: otherID, RelationshipType: relType}
		}
	}

	if created {
		metrics.ObserveRelationship("add", string(relType), metrics.ResultCreated)
		s.log.Info("关系已建立",
			zap.Uint("user_id", userID),
			zap.Uint("related_user_id", otherID),
			zap.String("type", string(relType)),
		)
		// 拉黑不通知对方
		if relType == model.RelationshipFriend && s.notifier != nil {
			s.notifier.RelationshipAdded(edge)
		}
	} else {
		metrics.ObserveRelationship("add", string(relType), metrics.ResultExisted)
	}
	return edge, created, nil
}

// RemoveRelationship 删除 userID -> otherID 的边，不存在时幂等成功（removed=false）
func (s *RelationshipService) RemoveRelationship(ctx context.Context, actorID, userID, otherID uint, relType model.RelationshipType) (bool, error) {
	if err := checkMutation(actorID, userID, otherID, relType); err != nil {
		return false, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := s.edges.WithTx(tx).Delete(ctx, userID, otherID, relType)
		removed = n
		return err
	})
	if err != nil {
		metrics.ObserveRelationship("remove", string(relType), metrics.ResultError)
		return false, storageErr(err)
	}

	if removed > 0 {
		metrics.ObserveRelationship("remove", string(relType), metrics.ResultRemoved)
		s.log.Info("关系已解除",
			zap.Uint("user_id", userID),
			zap.Uint("related_user_id", otherID),
			zap.String("type", string(relType)),
		)
		return true, nil
	}
	metrics.ObserveRelationship("remove", string(relType), metrics.ResultAbsent)
	return false, nil
}

// AuthorizeList 好友列表对所有登录用户可见，拉黑列表仅本人可见
func (s *RelationshipService) AuthorizeList(actorID, userID uint, relType model.RelationshipType) error {
	if err := checkType(relType); err != nil {
		return err
	}
	if actorID == 0 {
		return apperr.ErrUnauthenticated
	}
	if relType == model.RelationshipBlocked && actorID != userID {
		return apperr.New(apperr.KindForbidden, "block lists are private")
	}
	return nil
}

// ListPage 按插入顺序读取一页，next 为下一页游标（0 表示没有更多）
func (s *RelationshipService) ListPage(ctx context.Context, userID uint, relType model.RelationshipType, afterID uint, limit int) ([]*model.Relationship, uint, error) {
	if err := checkType(relType); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.users.CountExisting(ctx, userID)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	if n == 0 {
		return nil, 0, apperr.NotFound(fmt.Sprintf("user %d not found", userID))
	}

	// 多取一条判断是否还有下一页
	edges, err := s.edges.ListAfter(ctx, userID, relType, afterID, limit+1)
	if err != nil {
		return nil, 0, storageErr(err)
	}
	var next uint
	if len(edges) > limit {
		edges = edges[:limit]
		next = edges[limit-1].ID
	}
	return edges, next, nil
}

// ListRelationships 惰性遍历 userID 发出的某类边，按插入顺序分批读取
// 每次 range 都从头开始，可重复遍历
func (s *RelationshipService) ListRelationships(ctx context.Context, userID uint, relType model.RelationshipType) iter.Seq2[*model.Relationship, error] {
	return func(yield func(*model.Relationship, error) bool) {
		if err := checkType(relType); err != nil {
			yield(nil, err)
			return
		}
		var after uint
		for {
			batch, err := s.fetchBatch(ctx, userID, relType, after)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, edge := range batch {
				if !yield(edge, nil) {
					return
				}
				after = edge.ID
			}
			if len(batch) < DefaultPageSize {
				return
			}
		}
	}
}

func (s *RelationshipService) fetchBatch(ctx context.Context, userID uint, relType model.RelationshipType, afterID uint) ([]*model.Relationship, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	batch, err := s.edges.ListAfter(ctx, userID, relType, afterID, DefaultPageSize)
	if err != nil {
		return nil, storageErr(err)
	}
	return batch, nil
}
