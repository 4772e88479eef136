package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/MorseWayne/admin_panel/internal/api"
	"github.com/MorseWayne/admin_panel/internal/cache"
	"github.com/MorseWayne/admin_panel/internal/config"
	"github.com/MorseWayne/admin_panel/internal/database"
	"github.com/MorseWayne/admin_panel/internal/limiter"
	"github.com/MorseWayne/admin_panel/internal/logger"
	"github.com/MorseWayne/admin_panel/internal/repo"
	"github.com/MorseWayne/admin_panel/internal/router"
	"github.com/MorseWayne/admin_panel/internal/service"
)

// stores 仓储集合，由 mysql 或内存实现提供
type stores struct {
	users      repo.UserRepository
	products   repo.ProductRepository
	categories repo.CategoryRepository
	ping       func(ctx context.Context) error
	close      func() error
}

// initConfigAndLogger 初始化配置和日志器
func initConfigAndLogger() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	lg, err := logger.New(cfg.App.Env, cfg.Log.Level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, lg, nil
}

// initStores 按 DB_DRIVER 初始化存储，mysql 时在启动 HTTP 服务前执行迁移
func initStores(ctx context.Context, cfg *config.Config, lg *zap.Logger) (*stores, error) {
	if cfg.Database.Driver == "memory" {
		lg.Warn("using in-memory store, data will be lost on restart")
		mem := repo.NewMemoryStore()
		return &stores{
			users:      mem.Users(),
			products:   mem.Products(),
			categories: mem.Categories(),
			ping:       func(context.Context) error { return nil },
			close:      func() error { return nil },
		}, nil
	}

	db, err := database.New(ctx, cfg.Database, lg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	lg.Sugar().Infow("using migrations directory", "path", cfg.Migrations.Dir)
	if err := db.RunMigrations(cfg.Migrations.Dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run database migrations: %w", err)
	}

	return &stores{
		users:      repo.NewUserRepository(db.DB),
		products:   repo.NewProductRepository(db.DB),
		categories: repo.NewCategoryRepository(db.DB),
		ping:       db.PingContext,
		close:      db.Close,
	}, nil
}

// initRedis 缓存类型为 redis 时连接 Redis，连接失败返回 nil 并回退到进程内实现
func initRedis(ctx context.Context, cfg *config.Config, lg *zap.Logger) *redis.Client {
	if !cfg.Cache.Enabled || cfg.Cache.Type != "redis" {
		return nil
	}
	client, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		lg.Sugar().Warnw("failed to connect to Redis, falling back to memory", "addr", cfg.Redis.Addr(), "error", err)
		return nil
	}
	lg.Sugar().Infow("redis connected", "addr", cfg.Redis.Addr())
	return client
}

// initCache 初始化缓存实例
func initCache(cfg *config.Config, client *redis.Client, lg *zap.Logger) cache.Cache {
	cacheCfg := cfg.Cache
	var cmd redis.Cmdable
	if client != nil {
		cmd = client
	} else if cacheCfg.Type == "redis" {
		cacheCfg.Type = "memory"
	}

	c, err := cache.New(cacheCfg, cmd, cfg.App.Name+":")
	if err != nil {
		lg.Sugar().Warnw("invalid cache configuration, cache disabled", "error", err)
		return cache.NewNullCache()
	}
	lg.Sugar().Infow("cache initialized", "enabled", cacheCfg.Enabled, "type", cacheCfg.Type, "ttl", cacheCfg.TTL)
	return c
}

// initLimiter 登录限流器，有 Redis 时跨实例共享计数
func initLimiter(cfg *config.Config, client *redis.Client) limiter.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	lc := limiter.Config{
		Rate:      cfg.RateLimit.LoginLimit,
		Window:    cfg.RateLimit.Window,
		KeyPrefix: cfg.App.Name + ":ratelimit:auth",
	}
	if client != nil {
		return limiter.NewFixedWindowLimiter(client, lc)
	}
	return limiter.NewMemoryFixedWindowLimiter(lc)
}

// initDependencies 初始化依赖注入链：仓储 -> 服务 -> API处理器
func initDependencies(cfg *config.Config, st *stores, c cache.Cache, authLimiter limiter.Limiter, lg *zap.Logger) (*router.Dependencies, service.UserService) {
	productRepo := repo.NewCachedProductRepository(st.products, c, cfg.Cache.TTL, lg)
	categoryRepo := repo.NewCachedCategoryRepository(st.categories, c, cfg.Cache.TTL, lg)

	hasher := service.NewPasswordHasher(cfg.Security)
	jwtService := service.NewJWTService(cfg.JWT, cfg.App.Name, lg)
	userService := service.NewUserService(st.users, hasher, jwtService, lg)
	productService := service.NewProductService(productRepo, categoryRepo, lg)
	categoryService := service.NewCategoryService(categoryRepo, lg)

	return &router.Dependencies{
		UserHandler:     api.NewUserHandler(userService, lg),
		ProductHandler:  api.NewProductHandler(productService, lg),
		CategoryHandler: api.NewCategoryHandler(categoryService, lg),
		JWTService:      jwtService,
		AuthLimiter:     authLimiter,
		HealthCheck:     st.ping,
	}, userService
}

// bootstrapAdmin 配置了管理员邮箱时确保管理员存在
func bootstrapAdmin(ctx context.Context, cfg *config.Config, users service.UserService, lg *zap.Logger) error {
	if cfg.Admin.Email == "" {
		return nil
	}
	if cfg.Admin.Password == "" {
		return fmt.Errorf("ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	admin, err := users.EnsureAdmin(ctx, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	lg.Sugar().Infow("admin account ready", "user_id", admin.ID, "email", admin.Email)
	return nil
}

// startServer 启动服务器并处理优雅关闭
func startServer(cfg *config.Config, handler http.Handler, lg *zap.Logger) {
	addr := fmt.Sprintf(":%d", cfg.App.Port)
	lg.Sugar().Infow("server starting", "addr", addr)
	srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 5 * time.Second}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.ListenAndServe()
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-serverErrCh:
		if err != nil && err != http.ErrServerClosed {
			lg.Sugar().Errorw("server error", "err", err)
			return
		}
	case <-quit:
		lg.Sugar().Infow("shutdown signal received")
	}

	// 优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		lg.Sugar().Errorw("server shutdown error", "err", err)
	}
	lg.Sugar().Infow("server exited")
}

// main 为应用入口，协调各个组件的初始化和启动
func main() {
	// 1) 加载配置和初始化日志
	cfg, lg, err := initConfigAndLogger()
	if err != nil {
		log.Fatalf("failed to initialize config and logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	ctx := context.Background()

	// 2) 初始化存储并执行迁移
	st, err := initStores(ctx, cfg, lg)
	if err != nil {
		lg.Sugar().Fatalw("failed to initialize store", "err", err)
	}
	defer func() {
		if err := st.close(); err != nil {
			lg.Sugar().Errorw("failed to close database connection", "err", err)
		}
	}()

	// 3) 初始化 Redis、缓存与限流
	redisClient := initRedis(ctx, cfg, lg)
	if redisClient != nil {
		defer redisClient.Close()
	}
	c := initCache(cfg, redisClient, lg)
	authLimiter := initLimiter(cfg, redisClient)

	// 4) 初始化应用依赖并引导管理员账号
	deps, users := initDependencies(cfg, st, c, authLimiter, lg)
	if err := bootstrapAdmin(ctx, cfg, users, lg); err != nil {
		lg.Sugar().Fatalw("failed to bootstrap admin", "err", err)
	}

	// 5) 设置路由和中间件
	handler := router.New().Setup(cfg, deps, lg)

	// 6) 启动 HTTP 服务器
	startServer(cfg, handler, lg)
}
