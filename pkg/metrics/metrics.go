// Package metrics Prometheus 指标
package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 关系变更结果
const (
	ResultCreated = "created"
	ResultExisted = "existed"
	ResultRemoved = "removed"
	ResultAbsent  = "absent"
	ResultError   = "error"
)

var (
	relationshipMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social_graph",
		Name:      "relationship_mutations_total",
		Help:      "Relationship add/remove operations by type and outcome.",
	}, []string{"op", "type", "result"})

	loginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social_graph",
		Name:      "login_attempts_total",
		Help:      "Login attempts by outcome.",
	}, []string{"result"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "social_graph",
		Name:      "registrations_total",
		Help:      "Registration attempts by outcome.",
	}, []string{"result"})
)

// ObserveRelationship 记录一次关系变更
func ObserveRelationship(op, relType, result string) {
	relationshipMutations.WithLabelValues(op, relType, result).Inc()
}

// ObserveLogin 记录一次登录
func ObserveLogin(result string) {
	loginAttempts.WithLabelValues(result).Inc()
}

// ObserveRegistration 记录一次注册
func ObserveRegistration(result string) {
	registrations.WithLabelValues(result).Inc()
}

// Handler /metrics 路由
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
