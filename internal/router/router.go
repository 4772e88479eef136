// Package router 提供 HTTP 路由设置和中间件配置功能
package router

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/api"
	"github.com/MorseWayne/admin_panel/internal/config"
	"github.com/MorseWayne/admin_panel/internal/limiter"
	mw "github.com/MorseWayne/admin_panel/internal/middleware"
	"github.com/MorseWayne/admin_panel/internal/resp"
	"github.com/MorseWayne/admin_panel/internal/service"
)

// Dependencies 包含路由设置所需的所有依赖
type Dependencies struct {
	UserHandler     *api.UserHandler
	ProductHandler  *api.ProductHandler
	CategoryHandler *api.CategoryHandler
	JWTService      service.JWTService

	// AuthLimiter 为 nil 时不限流
	AuthLimiter limiter.Limiter

	// HealthCheck 可选，返回错误时 /healthz 报 503
	HealthCheck func(ctx context.Context) error
}

// Router 路由器接口
type Router interface {
	Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler
}

// GinRouter Gin路由器实现
type GinRouter struct {
	engine *gin.Engine
	deps   *Dependencies
	logger *zap.Logger
	cfg    *config.Config
}

// New 创建新的路由器实例
func New() Router {
	return &GinRouter{}
}

// Setup 设置路由和中间件，返回包裹了标准库中间件链的处理器
func (r *GinRouter) Setup(cfg *config.Config, deps *Dependencies, lg *zap.Logger) http.Handler {
	// 根据环境设置 Gin 模式
	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r.engine = gin.New()
	r.deps = deps
	r.logger = lg
	r.cfg = cfg

	r.engine.NoRoute(r.notFound)
	r.setupRoutes()

	// 请求进入时执行顺序为 request ID → access log → CORS → timeout → recovery → gin
	var handler http.Handler = r.engine
	handler = mw.Recovery(lg)(handler)
	handler = mw.Timeout(cfg.App.RequestTimeout)(handler)
	handler = mw.CORS(mw.CORSConfig{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: cfg.CORS.AllowedMethods,
		AllowedHeaders: cfg.CORS.AllowedHeaders,
	})(handler)
	handler = mw.AccessLog(lg)(handler)
	handler = mw.RequestID(handler)

	return handler
}

// setupRoutes 设置所有路由
func (r *GinRouter) setupRoutes() {
	// 健康检查
	r.engine.GET("/healthz", r.healthCheck)

	authenticated := r.adapt(mw.AuthMiddleware(r.deps.JWTService, r.logger))
	adminOnly := r.adapt(mw.RequireAdmin(r.logger))

	apiGroup := r.engine.Group("/api")
	{
		// 认证路由（无需认证，按路由 + 客户端IP限流，注册不占用登录的额度）
		auth := apiGroup.Group("/auth")
		if r.deps.AuthLimiter != nil {
			auth.Use(limiter.RateLimitMiddleware(limiter.MiddlewareConfig{
				Limiter:      r.deps.AuthLimiter,
				KeyGenerator: limiter.PathKeyGenerator,
				RequestID:    func(req *http.Request) string { return mw.RequestIDFromContext(req.Context()) },
				Logger:       r.logger,
			}))
		}
		{
			auth.POST("/login", r.wrapHandler(r.deps.UserHandler.Login))
			auth.POST("/register", r.wrapHandler(r.deps.UserHandler.Register))
		}

		// 用户路由：me 对任意已认证角色开放，其余需要管理员
		users := apiGroup.Group("/users")
		users.Use(authenticated)
		{
			users.GET("/me", r.wrapHandler(r.deps.UserHandler.GetProfile))
			users.PUT("/me", r.wrapHandler(r.deps.UserHandler.UpdateProfile))

			users.GET("", adminOnly, r.wrapHandler(r.deps.UserHandler.ListUsers))
			users.POST("", adminOnly, r.wrapHandler(r.deps.UserHandler.CreateUser))
			users.GET("/:id", adminOnly, r.wrapHandler(r.deps.UserHandler.GetUser))
			users.PUT("/:id", adminOnly, r.wrapHandler(r.deps.UserHandler.UpdateUser))
			users.DELETE("/:id", adminOnly, r.wrapHandler(r.deps.UserHandler.DeleteUser))
		}

		// 商品路由：读需要认证，写需要管理员
		products := apiGroup.Group("/products")
		products.Use(authenticated)
		{
			products.GET("", r.wrapHandler(r.deps.ProductHandler.ListProducts))
			products.GET("/:id", r.wrapHandler(r.deps.ProductHandler.GetProduct))
			products.POST("", adminOnly, r.wrapHandler(r.deps.ProductHandler.CreateProduct))
			products.PUT("/:id", adminOnly, r.wrapHandler(r.deps.ProductHandler.UpdateProduct))
			products.DELETE("/:id", adminOnly, r.wrapHandler(r.deps.ProductHandler.DeleteProduct))
		}

		categories := apiGroup.Group("/categories")
		categories.Use(authenticated)
		{
			categories.GET("", r.wrapHandler(r.deps.CategoryHandler.ListCategories))
			categories.POST("", adminOnly, r.wrapHandler(r.deps.CategoryHandler.CreateCategory))
		}
	}
}

// healthCheck 健康检查处理器
func (r *GinRouter) healthCheck(c *gin.Context) {
	reqID := mw.RequestIDFromContext(c.Request.Context())
	if r.deps.HealthCheck != nil {
		if err := r.deps.HealthCheck(c.Request.Context()); err != nil {
			r.logger.Warn("health check failed", zap.String("request_id", reqID), zap.Error(err))
			resp.JSON(c.Writer, http.StatusServiceUnavailable, map[string]any{
				"status":  "unavailable",
				"version": r.cfg.App.Version,
			}, reqID, "")
			return
		}
	}
	resp.OK(c.Writer, map[string]any{
		"status":  "ok",
		"version": r.cfg.App.Version,
	}, reqID, "")
}

func (r *GinRouter) notFound(c *gin.Context) {
	resp.Error(c.Writer, http.StatusNotFound, resp.CodeNotFound, "route not found",
		mw.RequestIDFromContext(c.Request.Context()), "")
}

// wrapHandler 将标准的 http.HandlerFunc 包装为 gin.HandlerFunc，路径参数通过 r.PathValue 读取
func (r *GinRouter) wrapHandler(handler http.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range c.Params {
			c.Request.SetPathValue(p.Key, p.Value)
		}
		handler(c.Writer, c.Request)
	}
}

// adapt 将标准库中间件转换为 gin 中间件，中间件未调用 next 时中止后续处理
func (r *GinRouter) adapt(m func(http.Handler) http.Handler) gin.HandlerFunc {
	return func(c *gin.Context) {
		passed := false
		m(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			passed = true
			c.Request = req
			c.Next()
		})).ServeHTTP(c.Writer, c.Request)
		if !passed {
			c.Abort()
		}
	}
}
