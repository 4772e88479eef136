// Package service 提供JWT令牌的签发与校验功能。
package service

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/config"
	"github.com/MorseWayne/admin_panel/internal/domain"
)

// JWT相关错误定义
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// exp 等时间声明默认只保留整秒，按毫秒编码才能让令牌恰在签发后 ttl 过期
func init() {
	jwt.TimePrecision = time.Millisecond
}

// Claims 定义JWT载荷结构
// 继承jwt.RegisteredClaims以获得标准声明字段
type Claims struct {
	UserID int64           `json:"user_id"`
	Role   domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

// JWTService 定义令牌签发与校验接口
type JWTService interface {
	// Issue 为身份签发令牌，ttl <= 0 时使用配置的默认有效期
	Issue(userID int64, role domain.UserRole, ttl time.Duration) (token string, expiresAt time.Time, err error)
	// Verify 校验令牌，失败时返回 ErrInvalidToken 或 ErrTokenExpired
	Verify(token string) (domain.Principal, error)
}

// jwtService 是JWTService接口的实现，签名密钥在构造后不再变化
type jwtService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
	logger *zap.Logger
}

// JWTOption 可选配置
type JWTOption func(*jwtService)

// WithClock 替换时间源，测试用
func WithClock(now func() time.Time) JWTOption {
	return func(s *jwtService) { s.now = now }
}

// NewJWTService 创建JWT服务实例，issuer 一般为应用名
func NewJWTService(cfg config.JWTConfig, issuer string, logger *zap.Logger, opts ...JWTOption) JWTService {
	s := &jwtService{
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		issuer: issuer,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue 签发 HS256 令牌
func (s *jwtService) Issue(userID int64, role domain.UserRole, ttl time.Duration) (string, time.Time, error) {
	if ttl <= 0 {
		ttl = s.ttl
	}
	// 时间声明按毫秒编码，签发时刻同样取整，使 exp 恰为签发后 ttl
	now := s.now().Truncate(jwt.TimePrecision)
	expiresAt := now.Add(ttl)

	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.issuer,
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("failed to sign token", zap.Error(err))
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}

	return token, claims.ExpiresAt.Time, nil
}

// Verify 校验签名、算法、签发者与有效期，任一项不满足即拒绝
func (s *jwtService) Verify(tokenString string) (domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Principal{}, ErrTokenExpired
		}
		s.logger.Debug("token validation failed", zap.Error(err))
		return domain.Principal{}, ErrInvalidToken
	}
	if !token.Valid {
		return domain.Principal{}, ErrInvalidToken
	}

	// 载荷中的身份必须自洽
	if claims.Subject != strconv.FormatInt(claims.UserID, 10) || claims.UserID <= 0 {
		return domain.Principal{}, ErrInvalidToken
	}
	if !claims.Role.Valid() {
		return domain.Principal{}, ErrInvalidToken
	}

	return domain.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}
