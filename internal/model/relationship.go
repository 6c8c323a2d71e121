package model

import (
	"time"
)

// RelationshipType 关系类型
type RelationshipType string

const (
	RelationshipFriend  RelationshipType = "friend"
	RelationshipBlocked RelationshipType = "blocked"
)

// Valid 是否为已知的关系类型
func (t RelationshipType) Valid() bool {
	switch t {
	case RelationshipFriend, RelationshipBlocked:
		return true
	}
	return false
}

// Relationship 有向关系边 user_id -> related_user_id
// 好友与拉黑共用同一张表，按 relationship_type 区分
// A->B 的 friend 边不代表存在 B->A 的边
// (user_id, related_user_id, relationship_type) 唯一，由存储层约束保证

type Relationship struct {
	ID               uint             `gorm:"primaryKey"`
	UserID           uint             `gorm:"not null;index:ix_user_related_user,priority:1;uniqueIndex:ux_relationship_edge,priority:1;comment:关系所有者"`
	RelatedUserID    uint             `gorm:"not null;index:ix_user_related_user,priority:2;uniqueIndex:ux_relationship_edge,priority:2;comment:目标用户"`
	RelationshipType RelationshipType `gorm:"type:varchar(16);not null;index:ix_relationship_type;uniqueIndex:ux_relationship_edge,priority:3;comment:关系类型"`
	CreatedAt        time.Time        `gorm:"comment:创建时间"`

	// 仅用于生成外键约束，不做预加载
	Owner   *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	Related *User `gorm:"foreignKey:RelatedUserID;constraint:OnDelete:CASCADE"`
}

func (Relationship) TableName() string { return "relationship" }

// AutoMigrateModels 需要迁移的模型，顺序即建表顺序
func AutoMigrateModels() []interface{} {
	return []interface{}{&User{}, &Relationship{}}
}
