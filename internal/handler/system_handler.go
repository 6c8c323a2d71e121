package handler

import (
	"context"
	"net/http"
	"time"

	"social-graph/pkg/cache"
	"social-graph/pkg/db"
	"social-graph/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SystemHandler 健康检查与功能开关
type SystemHandler struct {
	orm   *gorm.DB
	cache cache.Cache
	flags map[string]bool
}

func NewSystemHandler(orm *gorm.DB, c cache.Cache, flags map[string]bool) *SystemHandler {
	// 启动时拷贝一份，运行期只读
	copied := make(map[string]bool, len(flags))
	for k, v := range flags {
		copied[k] = v
	}
	return &SystemHandler{orm: orm, cache: c, flags: copied}
}

// FeatureFlags 原样返回配置中的功能开关
func (h *SystemHandler) FeatureFlags(c *gin.Context) {
	response.Success(c, h.flags)
}

// Health 数据库与缓存连通性
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status, code := "ok", http.StatusOK
	dbStatus, cacheStatus := "ok", "ok"
	if err := db.HealthCheck(ctx, h.orm); err != nil {
		dbStatus, status, code = "down", "degraded", http.StatusServiceUnavailable
	}
	if err := h.cache.Ping(ctx); err != nil {
		cacheStatus, status, code = "down", "degraded", http.StatusServiceUnavailable
	}
	c.JSON(code, response.Response{
		Code:    0,
		Message: status,
		Data: gin.H{
			"status":   status,
			"database": dbStatus,
			"cache":    cacheStatus,
			"time":     time.Now().UTC().Format(time.RFC3339),
		},
	})
}
