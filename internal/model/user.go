package model

import (
	"time"
)

// User 用户模型
// 索引与唯一约束：用户名唯一、邮箱唯一
// 说明：密码仅存储哈希（PasswordHash），不存储明文，也不参与序列化

type User struct {
	ID           uint      `gorm:"primaryKey"`
	Username     string    `gorm:"type:varchar(64);not null;uniqueIndex:ux_user_username;comment:用户名"`
	Email        string    `gorm:"type:varchar(128);not null;uniqueIndex:ux_user_email;comment:邮箱"`
	PasswordHash string    `gorm:"type:varchar(255);not null;comment:密码哈希"`
	CreatedAt    time.Time `gorm:"comment:创建时间"`
	UpdatedAt    time.Time `gorm:"comment:更新时间"`
}

// TableName 指定表名（因全局配置使用单数表名，这里与结构体名一致为 user）
func (User) TableName() string { return "user" }
