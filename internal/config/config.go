// Package config 负责加载与校验应用配置。
// 配置来源优先级：进程环境变量 > .env 文件 > 默认值。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config 聚合应用的全部配置，进程启动时构建一次，之后只读。
type Config struct {
	App        AppConfig        `envconfig:"APP"`
	Log        LogConfig        `envconfig:"LOG"`
	Database   DatabaseConfig   `envconfig:"DB"`
	Migrations MigrationsConfig `envconfig:"MIGRATIONS"`
	Redis      RedisConfig      `envconfig:"REDIS"`
	Cache      CacheConfig      `envconfig:"CACHE"`
	JWT        JWTConfig        `envconfig:"JWT"`
	Security   SecurityConfig   `envconfig:"SECURITY"`
	CORS       CORSConfig       `envconfig:"CORS"`
	RateLimit  RateLimitConfig  `envconfig:"RATE_LIMIT"`
	Admin      AdminConfig      `envconfig:"ADMIN"`
}

// AppConfig 应用基础配置
type AppConfig struct {
	Name            string        `split_words:"true" default:"admin-panel"`
	Env             string        `split_words:"true" default:"dev"` // dev | test | prod
	Version         string        `split_words:"true" default:"0.1.0"`
	Port            int           `split_words:"true" default:"4000"`
	RequestTimeout  time.Duration `split_words:"true" default:"10s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"10s"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `split_words:"true" default:"info"`
	Encoding string `split_words:"true" default:""` // json | console，留空按环境选择
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string `split_words:"true" default:"mysql"` // mysql | memory
	Host     string `split_words:"true" default:"127.0.0.1"`
	Port     int    `split_words:"true" default:"3306"`
	User     string `split_words:"true" default:"root"`
	Password string `split_words:"true" default:""`
	Name     string `split_words:"true" default:"admin_panel"`
}

// MigrationsConfig 迁移文件配置
type MigrationsConfig struct {
	Dir string `split_words:"true" default:"migrations"`
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Host     string `split_words:"true" default:"127.0.0.1"`
	Port     int    `split_words:"true" default:"6379"`
	Password string `split_words:"true" default:""`
	DB       int    `split_words:"true" default:"0"`
}

// Addr 返回 host:port 形式的地址
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CacheConfig 缓存配置
type CacheConfig struct {
	Enabled bool          `split_words:"true" default:"true"`
	Type    string        `split_words:"true" default:"memory"` // redis | memory
	TTL     time.Duration `split_words:"true" default:"5m"`
}

// JWTConfig 令牌签发配置
type JWTConfig struct {
	Secret string        `split_words:"true" default:"default_secret"`
	TTL    time.Duration `split_words:"true" default:"24h"`
}

// SecurityConfig 密码哈希配置
type SecurityConfig struct {
	BcryptCost int `split_words:"true" default:"10"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins []string `split_words:"true" default:"http://localhost:3000"`
	AllowedMethods []string `split_words:"true" default:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `split_words:"true" default:"Content-Type,Authorization,X-Request-ID"`
}

// RateLimitConfig 登录限流配置
type RateLimitConfig struct {
	Enabled    bool          `split_words:"true" default:"true"`
	LoginLimit int64         `split_words:"true" default:"10"`
	Window     time.Duration `split_words:"true" default:"1m"`
}

// AdminConfig 启动时引导创建的管理员账号，Email 为空时跳过
type AdminConfig struct {
	Name     string `split_words:"true" default:"Administrator"`
	Email    string `split_words:"true" default:""`
	Password string `split_words:"true" default:""`
}

// IsProd 是否生产环境
func (c *Config) IsProd() bool {
	return c.App.Env == "prod"
}

// Load 读取 .env（若存在）与环境变量并返回校验后的配置。
func Load() (*Config, error) {
	envFile := os.Getenv("APP_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	// .env 仅用于本地开发，缺失不视为错误；已存在的环境变量不会被覆盖
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验配置的取值范围。
func (c *Config) Validate() error {
	var problems []string

	switch c.App.Env {
	case "dev", "test", "prod":
	default:
		problems = append(problems, fmt.Sprintf("APP_ENV must be dev|test|prod, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		problems = append(problems, fmt.Sprintf("APP_PORT out of range: %d", c.App.Port))
	}
	switch c.Database.Driver {
	case "mysql", "memory":
	default:
		problems = append(problems, fmt.Sprintf("DB_DRIVER must be mysql|memory, got %q", c.Database.Driver))
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		problems = append(problems, "JWT_SECRET is required")
	}
	if c.IsProd() && c.JWT.Secret == "default_secret" {
		problems = append(problems, "JWT_SECRET must be changed in prod")
	}
	if c.JWT.TTL <= 0 {
		problems = append(problems, "JWT_TTL must be positive")
	}
	if c.Cache.Enabled && c.Cache.TTL <= 0 {
		problems = append(problems, "CACHE_TTL must be positive")
	}
	if c.RateLimit.Enabled && (c.RateLimit.LoginLimit <= 0 || c.RateLimit.Window < time.Second) {
		problems = append(problems, "RATE_LIMIT_LOGIN_LIMIT must be positive and RATE_LIMIT_WINDOW at least 1s")
	}
	if c.Admin.Email != "" && len(c.Admin.Password) < 6 {
		problems = append(problems, "ADMIN_PASSWORD must be at least 6 characters")
	}

	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
