package handler

import (
	"strconv"

	"social-graph/internal/model"
	"social-graph/internal/service"
	"social-graph/pkg/jwt"
	"social-graph/pkg/response"

	"github.com/gin-gonic/gin"
)

// RelationshipHandler 一种关系类型的一组路由
// 好友与拉黑各挂一个实例，逻辑完全相同
type RelationshipHandler struct {
	svc     *service.RelationshipService
	relType model.RelationshipType
}

func NewRelationshipHandler(svc *service.RelationshipService, relType model.RelationshipType) *RelationshipHandler {
	return &RelationshipHandler{svc: svc, relType: relType}
}

// Register 挂载 GET / , GET|PUT|DELETE /:other_id
func (h *RelationshipHandler) Register(g *gin.RouterGroup) {
	g.GET("", h.List)
	g.GET("/:other_id", h.Get)
	g.PUT("/:other_id", h.Add)
	g.DELETE("/:other_id", h.Remove)
}

func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.BadRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

func (h *RelationshipHandler) pair(c *gin.Context) (uint, uint, bool) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return 0, 0, false
	}
	otherID, ok := parseID(c, "other_id")
	if !ok {
		return 0, 0, false
	}
	return userID, otherID, true
}

// List 分页列出 user_id 发出的边，?after=<cursor>&limit=<n>
func (h *RelationshipHandler) List(c *gin.Context) {
	userID, ok := parseID(c, "user_id")
	if !ok {
		return
	}
	var q struct {
		After uint `form:"after"`
		Limit int  `form:"limit"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid pagination parameters")
		return
	}
	if err := h.svc.AuthorizeList(jwt.GetUserID(c), userID, h.relType); err != nil {
		response.Fail(c, err)
		return
	}

	items, next, err := h.svc.ListPage(c.Request.Context(), userID, h.relType, q.After, q.Limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, response.FilterRelationshipPage(items, next))
}

// Get 查询 user_id -> other_id 是否存在该类关系
func (h *RelationshipHandler) Get(c *gin.Context) {
	userID, otherID, ok := h.pair(c)
	if !ok {
		return
	}
	if err := h.svc.AuthorizeList(jwt.GetUserID(c), userID, h.relType); err != nil {
		response.Fail(c, err)
		return
	}
	related, err := h.svc.IsRelated(c.Request.Context(), userID, otherID, h.relType)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, &response.RelationStatus{
		UserID:           userID,
		RelatedUserID:    otherID,
		RelationshipType: string(h.relType),
		Related:          related,
	})
}

// Add 建立关系，新建返回 201，已存在返回 200
func (h *RelationshipHandler) Add(c *gin.Context) {
	userID, otherID, ok := h.pair(c)
	if !ok {
		return
	}
	edge, created, err := h.svc.AddRelationship(c.Request.Context(), jwt.GetUserID(c), userID, otherID, h.relType)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if created {
		response.Created(c, "created", response.FilterRelationshipInfo(edge))
		return
	}
	response.SuccessWithMessage(c, "already exists", response.FilterRelationshipInfo(edge))
}

// Remove 解除关系，不存在时同样返回 200
func (h *RelationshipHandler) Remove(c *gin.Context) {
	userID, otherID, ok := h.pair(c)
	if !ok {
		return
	}
	removed, err := h.svc.RemoveRelationship(c.Request.Context(), jwt.GetUserID(c), userID, otherID, h.relType)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"removed": removed})
}
