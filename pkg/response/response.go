package response

import (
	"net/http"
	"time"

	"social-graph/internal/model"
	"social-graph/pkg/apperr"

	"github.com/gin-gonic/gin"
)

// timeLayout 对外时间格式
const timeLayout = time.RFC3339

// Response 统一响应结构
type Response struct {
	Code    int         `json:"code"`            // 状态码：0表示成功，其他为HTTP错误码
	Message string      `json:"message"`         // 响应消息
	Kind    string      `json:"kind,omitempty"`  // 错误类别（机器可读）
	Data    interface{} `json:"data,omitempty"`  // 响应数据
	Error   string      `json:"error,omitempty"` // 错误详情（仅在开发环境显示）
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// SuccessWithMessage 带自定义消息的成功响应
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// Created 201 创建成功
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Code:    0,
		Message: message,
		Data:    data,
	})
}

// Fail 按业务错误类别输出响应
// 非业务错误只返回通用信息，详情仅在 debug 模式下附带
func Fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	resp := Response{
		Code:    status,
		Message: apperr.MessageOf(err),
		Kind:    string(apperr.KindOf(err)),
	}
	if gin.Mode() == gin.DebugMode && err != nil {
		resp.Error = err.Error()
	}
	_ = c.Error(err)
	c.JSON(status, resp)
}

// BadRequest 400错误
func BadRequest(c *gin.Context, message string) {
	Fail(c, apperr.Validation(message))
}

// Unauthorized 401错误
func Unauthorized(c *gin.Context, message string) {
	Fail(c, apperr.New(apperr.KindUnauthenticated, message))
}

// TooManyRequests 429错误
func TooManyRequests(c *gin.Context, message string) {
	Fail(c, apperr.New(apperr.KindTooManyAttempts, message))
}

// UserInfo 用户信息（隐藏敏感字段）
type UserInfo struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

// FilterUserInfo 过滤用户信息，隐藏密码哈希
func FilterUserInfo(user *model.User) *UserInfo {
	if user == nil {
		return nil
	}

	return &UserInfo{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(timeLayout),
	}
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	User *UserInfo `json:"user"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   string    `json:"expires_at"`
	User        *UserInfo `json:"user"`
}

// RelationshipInfo 关系边
type RelationshipInfo struct {
	ID               uint   `json:"id"`
	UserID           uint   `json:"user_id"`
	RelatedUserID    uint   `json:"related_user_id"`
	RelationshipType string `json:"relationship_type"`
	CreatedAt        string `json:"created_at"`
}

// FilterRelationshipInfo 关系边转换为对外结构
func FilterRelationshipInfo(r *model.Relationship) *RelationshipInfo {
	if r == nil {
		return nil
	}
	return &RelationshipInfo{
		ID:               r.ID,
		UserID:           r.UserID,
		RelatedUserID:    r.RelatedUserID,
		RelationshipType: string(r.RelationshipType),
		CreatedAt:        r.CreatedAt.UTC().Format(timeLayout),
	}
}

// RelationshipPage 关系列表分页
type RelationshipPage struct {
	Items      []*RelationshipInfo `json:"items"`
	NextCursor uint                `json:"next_cursor,omitempty"`
}

// FilterRelationshipPage 列表转换，空列表输出 []
func FilterRelationshipPage(items []*model.Relationship, next uint) *RelationshipPage {
	page := &RelationshipPage{
		Items:      make([]*RelationshipInfo, 0, len(items)),
		NextCursor: next,
	}
	for _, r := range items {
		page.Items = append(page.Items, FilterRelationshipInfo(r))
	}
	return page
}

// RelationStatus 是否存在关系
type RelationStatus struct {
	UserID           uint   `json:"user_id"`
	RelatedUserID    uint   `json:"related_user_id"`
	RelationshipType string `json:"relationship_type"`
	Related          bool   `json:"related"`
}
