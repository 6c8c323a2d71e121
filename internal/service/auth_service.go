package service

import (
	"context"
	"strconv"
	"time"

	"social-graph/internal/model"
	"social-graph/pkg/apperr"
	"social-graph/pkg/cache"
	"social-graph/pkg/jwt"
	"social-graph/pkg/metrics"

	"go.uber.org/zap"
)

const (
	loginFailuresPrefix = "sg:auth:login_failures:"
	revokedTokenPrefix  = "sg:auth:revoked:"
)

// Credential 登录成功后签发的凭证
type Credential struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *model.User
}

// AuthService 登录、令牌校验与登出
type AuthService struct {
	users       *UserService
	tokens      *jwt.JWTService
	cache       cache.Cache
	maxAttempts int
	lockout     time.Duration
	log         *zap.Logger
}

func NewAuthService(users *UserService, tokens *jwt.JWTService, c cache.Cache, maxAttempts int, lockout time.Duration, log *zap.Logger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		cache:       c,
		maxAttempts: maxAttempts,
		lockout:     lockout,
		log:         log,
	}
}

func loginFailuresKey(username string) string {
	return loginFailuresPrefix + normalizeUsername(username)
}

// Login 校验凭证并签发令牌
// 连续失败达到上限后在锁定窗口内直接拒绝
func (s *AuthService) Login(ctx context.Context, username, plainPassword, clientIP string) (*Credential, error) {
	key := loginFailuresKey(username)

	if s.maxAttempts > 0 {
		locked, err := s.isLocked(ctx, key)
		if err != nil {
			// 计数不可用时放行，仅告警
			s.log.Warn("读取登录失败计数失败", zap.Error(err))
		}
		if locked {
			metrics.ObserveLogin("locked")
			s.log.Warn("登录被锁定", zap.String("username", username), zap.String("client_ip", clientIP))
			return nil, apperr.ErrTooManyAttempts
		}
	}

	u, err := s.users.VerifyCredentials(ctx, username, plainPassword)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInvalidCredentials {
			metrics.ObserveLogin("invalid")
			s.recordFailure(ctx, key)
			s.log.Info("登录失败", zap.String("username", username), zap.String("client_ip", clientIP))
		} else {
			metrics.ObserveLogin("error")
		}
		return nil, err
	}

	token, claims, err := s.tokens.GenerateToken(u.ID, u.Username)
	if err != nil {
		metrics.ObserveLogin("error")
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "failed to issue token", err)
	}

	if s.maxAttempts > 0 {
		if err := s.cache.Del(ctx, key); err != nil {
			s.log.Warn("清除登录失败计数失败", zap.Error(err))
		}
	}

	metrics.ObserveLogin("success")
	s.log.Info("用户登录成功", zap.Uint("user_id", u.ID), zap.String("client_ip", clientIP))
	return &Credential{
		AccessToken: token,
		ExpiresAt:   claims.ExpiresAt.Time,
		User:        u,
	}, nil
}

func (s *AuthService) isLocked(ctx context.Context, key string) (bool, error) {
	v, ok, err := s.cache.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false, nil
	}
	return n >= s.maxAttempts, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key string) {
	if s.maxAttempts <= 0 {
		return
	}
	if _, err := s.cache.Incr(ctx, key, s.lockout); err != nil {
		s.log.Warn("记录登录失败计数失败", zap.Error(err))
	}
}

// Authenticate 校验访问令牌，已登出的令牌视为无效
// 吊销列表不可用时拒绝请求
func (s *AuthService) Authenticate(ctx context.Context, token string) (*jwt.CustomClaims, error) {
	claims, err := s.tokens.ValidateToken(token)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindUnauthenticated, "invalid or expired token", err)
	}
	if claims.ID != "" {
		revoked, err := s.cache.Exists(ctx, revokedTokenPrefix+claims.ID)
		if err != nil {
			return nil, apperr.Storage(err)
		}
		if revoked {
			return nil, apperr.New(apperr.KindUnauthenticated, "token has been revoked")
		}
	}
	return claims, nil
}

// Logout 吊销令牌直到其自然过期
func (s *AuthService) Logout(ctx context.Context, claims *jwt.CustomClaims) error {
	if claims == nil || claims.ID == "" {
		return apperr.ErrUnauthenticated
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	if err := s.cache.Set(ctx, revokedTokenPrefix+claims.ID, "1", ttl); err != nil {
		return apperr.Storage(err)
	}

	userID, _ := claims.UserID()
	s.log.Info("用户已登出", zap.Uint("user_id", userID))
	return nil
}
