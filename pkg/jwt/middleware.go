package jwt

import (
	"context"
	"strings"

	"social-graph/pkg/apperr"
	"social-graph/pkg/logger"
	"social-graph/pkg/response"

	"github.com/gin-gonic/gin"
)

const (
	// ContextUserIDKey 用户ID在gin.Context中的键名
	ContextUserIDKey = "user_id"
	// ContextUsernameKey 用户名在gin.Context中的键名，请求日志会记录
	ContextUsernameKey = logger.UsernameKey
	// ContextClaimsKey JWT声明在gin.Context中的键名
	ContextClaimsKey = "jwt_claims"
)

// Authenticator 校验令牌（签名、有效期、吊销状态）
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*CustomClaims, error)
}

// AuthMiddleware JWT认证中间件
// 从请求头中提取Authorization: Bearer <token>
// 验证token并将用户信息存入gin.Context
func AuthMiddleware(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := BearerToken(c)
		if !ok {
			response.Fail(c, apperr.New(apperr.KindUnauthenticated, "missing or malformed Authorization header"))
			c.Abort()
			return
		}

		claims, err := auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}

		// 将用户信息存入Context
		userID, _ := claims.UserID()
		c.Set(ContextUserIDKey, userID)
		c.Set(ContextUsernameKey, claims.Username())
		c.Set(ContextClaimsKey, claims)

		c.Next()
	}
}

// BearerToken 提取 Bearer 令牌
func BearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	return token, token != ""
}

// GetUserID 从gin.Context中获取用户ID
func GetUserID(c *gin.Context) uint {
	if userID, exists := c.Get(ContextUserIDKey); exists {
		if id, ok := userID.(uint); ok {
			return id
		}
	}
	return 0
}

// GetClaims 从gin.Context中获取JWT声明
func GetClaims(c *gin.Context) *CustomClaims {
	if claims, exists := c.Get(ContextClaimsKey); exists {
		if c, ok := claims.(*CustomClaims); ok {
			return c
		}
	}
	return nil
}
