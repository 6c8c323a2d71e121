// Package ratelimit 按客户端IP的令牌桶限流
package ratelimit

import (
	"sync"
	"time"

	"social-graph/pkg/response"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// maxTracked 超过该数量时清理空闲IP
const maxTracked = 10000

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter 每个IP一个令牌桶
type Limiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	r        rate.Limit
	b        int
}

// New r = 每秒请求数, b = 突发容量
func New(r float64, b int) *Limiter {
	return &Limiter{
		limiters: make(map[string]*ipLimiter),
		r:        rate.Limit(r),
		b:        b,
	}
}

// Allow 判断该IP本次请求是否放行
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	il, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= maxTracked {
			l.sweepLocked(10 * time.Minute)
		}
		il = &ipLimiter{limiter: rate.NewLimiter(l.r, l.b)}
		l.limiters[ip] = il
	}
	il.lastSeen = time.Now()
	return il.limiter.Allow()
}

// Sweep 清理长时间未访问的IP
func (l *Limiter) Sweep(idle time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.sweepLocked(idle)
}

func (l *Limiter) sweepLocked(idle time.Duration) {
	cutoff := time.Now().Add(-idle)
	for ip, il := range l.limiters {
		if il.lastSeen.Before(cutoff) {
			delete(l.limiters, ip)
		}
	}
}

// Middleware gin 中间件，超限返回 429
func (l *Limiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.ClientIP()) {
			response.TooManyRequests(c, "rate limit exceeded")
			c.Abort()
			return
		}
		c.Next()
	}
}
