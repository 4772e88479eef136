package limiter

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/resp"
)

// MiddlewareConfig 中间件配置
type MiddlewareConfig struct {
	// 限流器
	Limiter Limiter

	// Key生成函数，默认按客户端IP
	KeyGenerator func(*gin.Context) string

	// RequestID 读取请求ID写入错误响应
	RequestID func(*http.Request) string

	Logger *zap.Logger
}

// DefaultKeyGenerator 默认Key生成器（基于IP）
func DefaultKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// PathKeyGenerator 路径 + IP 的Key生成器，同一IP在不同路由上分别计数
func PathKeyGenerator(c *gin.Context) string {
	return fmt.Sprintf("path:%s:ip:%s", c.FullPath(), c.ClientIP())
}

// RateLimitMiddleware 创建限流中间件。
// 限流器故障时放行请求并记录日志，登录接口不因 Redis 抖动而整体不可用。
func RateLimitMiddleware(config MiddlewareConfig) gin.HandlerFunc {
	if config.KeyGenerator == nil {
		config.KeyGenerator = DefaultKeyGenerator
	}
	if config.RequestID == nil {
		config.RequestID = func(*http.Request) string { return "" }
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := config.KeyGenerator(c)

		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		result, err := config.Limiter.Allow(ctx, key)
		if err != nil {
			config.Logger.Error("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(result.Remaining, 0), 10))
		if !result.Allowed {
			if result.RetryAfter > 0 {
				c.Header("Retry-After", strconv.FormatInt(int64(result.RetryAfter/time.Second), 10))
			}
			config.Logger.Warn("rate limit reached", zap.String("key", key))
			resp.Error(c.Writer, http.StatusTooManyRequests, resp.CodeTooMany,
				"too many requests, please try again later", config.RequestID(c.Request), "")
			c.Abort()
			return
		}

		c.Next()
	}
}
