// Package middleware 提供JWT认证和授权中间件。
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/domain"
	"github.com/MorseWayne/admin_panel/internal/resp"
	"github.com/MorseWayne/admin_panel/internal/service"
)

const bearerPrefix = "Bearer "

// bearerToken 从Authorization头中提取令牌，格式不符时返回错误信息
func bearerToken(r *http.Request) (string, string) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", "authorization header required"
	}
	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", "invalid authorization header format"
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, bearerPrefix))
	if token == "" {
		return "", "token required"
	}
	return token, ""
}

// AuthMiddleware JWT认证中间件
// 验证请求头中的JWT令牌，并将身份注入到请求上下文中
func AuthMiddleware(jwtService service.JWTService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			token, problem := bearerToken(r)
			if problem != "" {
				logger.Warn("authentication rejected", zap.String("request_id", reqID), zap.String("reason", problem))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, problem, reqID, "")
				return
			}

			principal, err := jwtService.Verify(token)
			if err != nil {
				logger.Warn("token validation failed",
					zap.String("request_id", reqID),
					zap.Error(err),
				)

				msg := "invalid token"
				if errors.Is(err, service.ErrTokenExpired) {
					msg = "token expired"
				}
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, msg, reqID, "")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// OptionalAuth 可选认证中间件
// 存在有效令牌时注入身份，否则按匿名请求继续处理，从不拒绝请求
func OptionalAuth(jwtService service.JWTService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, problem := bearerToken(r)
			if problem != "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := jwtService.Verify(token)
			if err != nil {
				logger.Debug("optional auth token validation failed",
					zap.String("request_id", RequestIDFromContext(r.Context())),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

// RequireRole 角色授权中间件
// 未认证返回401，角色不在允许集合内返回403
func RequireRole(logger *zap.Logger, roles ...domain.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := RequestIDFromContext(r.Context())

			principal, ok := PrincipalFromContext(r.Context())
			if !ok {
				logger.Warn("principal not found in context", zap.String("request_id", reqID))
				resp.Error(w, http.StatusUnauthorized, resp.CodeUnauthorized, "authentication required", reqID, "")
				return
			}

			if !domain.Allow(principal, roles...) {
				logger.Warn("insufficient permissions",
					zap.String("request_id", reqID),
					zap.Int64("user_id", principal.UserID),
					zap.String("user_role", string(principal.Role)),
					zap.Any("allowed_roles", roles),
				)
				resp.Error(w, http.StatusForbidden, resp.CodeForbidden, "insufficient permissions", reqID, "")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin 管理员权限中间件
func RequireAdmin(logger *zap.Logger) func(http.Handler) http.Handler {
	return RequireRole(logger, domain.UserRoleAdmin)
}
