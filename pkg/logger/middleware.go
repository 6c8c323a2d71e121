package logger

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// TraceIDKey 请求追踪ID在gin.Context中的键名
	TraceIDKey = "trace_id"
	// TraceIDHeader 请求追踪ID响应头
	TraceIDHeader = "X-Trace-ID"
	// UsernameKey 已认证用户名在gin.Context中的键名，由认证中间件写入
	UsernameKey = "username"
)

// TraceID 为每个请求注入追踪ID
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}
		c.Set(TraceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)
		c.Next()
	}
}

// GetTraceID 获取请求追踪ID
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKey)
}

// RequestLogger 请求日志记录器
// 不记录请求体，避免密码与令牌落盘
func RequestLogger(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("trace_id", GetTraceID(c)),
		}
		if username := c.GetString(UsernameKey); username != "" {
			fields = append(fields, zap.String("username", username))
		}
		if errs := c.Errors.ByType(gin.ErrorTypeAny); len(errs) > 0 {
			fields = append(fields, zap.String("error", errs.String()))
		}

		// 根据状态码选择日志级别
		switch {
		case status >= 500:
			l.Error("HTTP请求错误", fields...)
		case status >= 400:
			l.Warn("HTTP请求警告", fields...)
		default:
			l.Info("HTTP请求成功", fields...)
		}
	}
}

// Recovery panic 恢复，单个请求失败不影响进程
func Recovery(l *zap.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		l.Error("HTTP请求发生panic",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("ip", c.ClientIP()),
			zap.String("trace_id", GetTraceID(c)),
			zap.Any("panic", recovered),
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "internal server error",
		})
	})
}
