package handler

import (
	"time"

	"social-graph/internal/service"
	"social-graph/pkg/jwt"
	"social-graph/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	users *service.UserService
	auth  *service.AuthService
}

func NewUserHandler(users *service.UserService, auth *service.AuthService) *UserHandler {
	return &UserHandler{users: users, auth: auth}
}

// Register 用户注册
func (h *UserHandler) Register(c *gin.Context) {
	type req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	user, err := h.users.Register(c.Request.Context(), r.Username, r.Email, r.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Created(c, "注册成功", &response.RegisterResponse{
		User: response.FilterUserInfo(user),
	})
}

// Login 用户登录
// 用户名不存在与密码错误返回相同的 401
func (h *UserHandler) Login(c *gin.Context) {
	type req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	cred, err := h.auth.Login(c.Request.Context(), r.Username, r.Password, c.ClientIP())
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.SuccessWithMessage(c, "登录成功", &response.LoginResponse{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
		ExpiresAt:   cred.ExpiresAt.UTC().Format(time.RFC3339),
		User:        response.FilterUserInfo(cred.User),
	})
}

// Logout 用户登出（需要JWT认证）：吊销当前令牌
func (h *UserHandler) Logout(c *gin.Context) {
	if err := h.auth.Logout(c.Request.Context(), jwt.GetClaims(c)); err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "已登出", nil)
}

// GetProfile 获取当前用户资料（需要JWT认证）
func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), jwt.GetUserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// ChangePassword 修改密码，需要提供当前密码
func (h *UserHandler) ChangePassword(c *gin.Context) {
	type req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	userID := jwt.GetUserID(c)
	if err := h.users.CheckPassword(ctx, userID, r.CurrentPassword); err != nil {
		response.Fail(c, err)
		return
	}
	if err := h.users.UpdatePassword(ctx, userID, r.NewPassword); err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "密码已更新", nil)
}

// ChangeEmail 修改邮箱
func (h *UserHandler) ChangeEmail(c *gin.Context) {
	type req struct {
		Email string `json:"email"`
	}
	var r req
	if err := c.ShouldBindJSON(&r); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	ctx := c.Request.Context()
	userID := jwt.GetUserID(c)
	if err := h.users.UpdateEmail(ctx, userID, r.Email); err != nil {
		response.Fail(c, err)
		return
	}
	user, err := h.users.GetByID(ctx, userID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.SuccessWithMessage(c, "邮箱已更新", response.FilterUserInfo(user))
}
