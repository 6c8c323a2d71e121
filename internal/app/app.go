// Package app 启动时装配的应用上下文：数据库、缓存、服务与路由
package app

import (
	"errors"
	"fmt"

	"social-graph/config"
	"social-graph/internal/handler"
	"social-graph/internal/model"
	"social-graph/internal/repository"
	"social-graph/internal/service"
	"social-graph/pkg/cache"
	"social-graph/pkg/db"
	"social-graph/pkg/jwt"
	"social-graph/pkg/logger"
	"social-graph/pkg/metrics"
	"social-graph/pkg/password"
	"social-graph/pkg/ratelimit"
	"social-graph/pkg/websocket"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// App 进程内唯一的依赖集合，显式传递给各组件
type App struct {
	Config *config.Config
	Log    *zap.Logger
	DB     *gorm.DB
	Cache  cache.Cache

	Users         *service.UserService
	Auth          *service.AuthService
	Relationships *service.RelationshipService
	Notifier      *websocket.Manager
	Limiter       *ratelimit.Limiter
}

// New 连接存储、迁移表结构并装配服务
func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	if log == nil {
		log = zap.NewNop()
	}

	orm, err := db.InitDB(cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(orm, model.AutoMigrateModels()...); err != nil {
		_ = db.CloseDB(orm)
		return nil, fmt.Errorf("自动迁移失败: %w", err)
	}

	c, err := cache.NewCache(cfg.Redis)
	if err != nil {
		_ = db.CloseDB(orm)
		return nil, err
	}

	return Assemble(cfg, log, orm, c), nil
}

// Assemble 使用已就绪的数据库与缓存装配服务
func Assemble(cfg *config.Config, log *zap.Logger, orm *gorm.DB, c cache.Cache) *App {
	timeout := cfg.Database.QueryTimeout
	userRepo := repository.NewUserRepository(orm)
	edgeRepo := repository.NewRelationshipRepository(orm)
	hasher := password.NewHasher(cfg.Security.BcryptCost)
	notifier := websocket.NewManager(log.Named("ws"))

	users := service.NewUserService(orm, userRepo, hasher, timeout, log.Named("user"))
	auth := service.NewAuthService(users, jwt.NewJWTService(cfg.JWT), c,
		cfg.Security.LoginMaxAttempts, cfg.Security.LoginLockout, log.Named("auth"))
	relationships := service.NewRelationshipService(orm, userRepo, edgeRepo, notifier, timeout, log.Named("relationship"))

	return &App{
		Config:        cfg,
		Log:           log,
		DB:            orm,
		Cache:         c,
		Users:         users,
		Auth:          auth,
		Relationships: relationships,
		Notifier:      notifier,
		Limiter:       ratelimit.New(cfg.Security.RateLimitRPS, cfg.Security.RateLimitBurst),
	}
}

// Router 构建全部路由
func (a *App) Router() *gin.Engine {
	router := gin.New()
	router.Use(logger.TraceID())
	router.Use(logger.RequestLogger(a.Log))
	router.Use(logger.Recovery(a.Log))

	userHandler := handler.NewUserHandler(a.Users, a.Auth)
	systemHandler := handler.NewSystemHandler(a.DB, a.Cache, a.Config.FeatureFlags)
	authRequired := jwt.AuthMiddleware(a.Auth)

	router.GET("/health", systemHandler.Health)
	router.GET("/metrics", metrics.Handler())
	router.GET("/feature-flags", systemHandler.FeatureFlags)

	// 公开接口（按IP限流）
	auth := router.Group("/auth")
	auth.Use(a.Limiter.Middleware())
	{
		auth.POST("/register", userHandler.Register)
		auth.POST("/login", userHandler.Login)
		auth.POST("/logout", authRequired, userHandler.Logout)
	}

	// 需要认证的接口
	v1 := router.Group("/api/v1")
	v1.Use(authRequired)
	{
		me := v1.Group("/users/me")
		me.GET("", userHandler.GetProfile)
		me.PUT("/password", userHandler.ChangePassword)
		me.PUT("/email", userHandler.ChangeEmail)

		handler.NewRelationshipHandler(a.Relationships, model.RelationshipFriend).
			Register(v1.Group("/users/:user_id/friends"))
		handler.NewRelationshipHandler(a.Relationships, model.RelationshipBlocked).
			Register(v1.Group("/users/:user_id/blocks"))
	}

	// WebSocket路由
	router.GET("/ws", a.Notifier.Handler(a.Auth, a.Config.WebSocket))

	return router
}

// Close 释放缓存与数据库连接
func (a *App) Close() error {
	return errors.Join(a.Cache.Close(), db.CloseDB(a.DB))
}
