package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis Lua脚本：固定窗口算法，判断与计数在同一脚本内原子完成
const fixedWindowScript = `
-- KEYS[1]: 计数器key
-- ARGV[1]: 限制数量(rate)
-- ARGV[2]: 时间窗口(window秒)
-- ARGV[3]: 请求数量
-- ARGV[4]: 当前时间戳

local key = KEYS[1]
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local requests = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local window_start = math.floor(now / window) * window
local window_key = key .. ":" .. window_start

local current_requests = tonumber(redis.call('GET', window_key) or 0)

if current_requests + requests > limit then
    local retry_after = window_start + window - now
    return {0, limit - current_requests, retry_after, current_requests}
end

local new_count = redis.call('INCRBY', window_key, requests)
redis.call('EXPIRE', window_key, window)
return {1, limit - new_count, 0, new_count}
`

// FixedWindowLimiter 基于 Redis 的固定窗口限流器，多实例部署时共享计数
type FixedWindowLimiter struct {
	client redis.Cmdable
	config Config
	now    func() time.Time
}

// NewFixedWindowLimiter 创建固定窗口限流器
func NewFixedWindowLimiter(client redis.Cmdable, config Config) *FixedWindowLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "limiter:fw"
	}
	return &FixedWindowLimiter{client: client, config: config, now: time.Now}
}

// getKey 生成Redis key
func (fw *FixedWindowLimiter) getKey(key string) string {
	return fmt.Sprintf("%s:%s", fw.config.KeyPrefix, key)
}

// Allow 检查是否允许请求通过
func (fw *FixedWindowLimiter) Allow(ctx context.Context, key string) (*LimitResult, error) {
	result := fw.client.Eval(ctx, fixedWindowScript,
		[]string{fw.getKey(key)},
		fw.config.Rate,
		fw.config.windowSeconds(),
		int64(1),
		fw.now().Unix(),
	)
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("execute fixed window script: %w", err)
	}

	values, ok := result.Val().([]interface{})
	if !ok || len(values) != 4 {
		return nil, fmt.Errorf("unexpected script result %v", result.Val())
	}
	ints := make([]int64, 4)
	for i, v := range values {
		n, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("unexpected script result element %d: %T", i, v)
		}
		ints[i] = n
	}

	return &LimitResult{
		Allowed:       ints[0] == 1,
		Remaining:     ints[1],
		RetryAfter:    time.Duration(ints[2]) * time.Second,
		TotalRequests: ints[3],
	}, nil
}

// MemoryFixedWindowLimiter 进程内固定窗口限流器，未配置 Redis 时使用
type MemoryFixedWindowLimiter struct {
	mu      sync.Mutex
	config  Config
	now     func() time.Time
	windows map[string]memoryWindow
}

type memoryWindow struct {
	start int64
	count int64
}

// NewMemoryFixedWindowLimiter 创建进程内限流器
func NewMemoryFixedWindowLimiter(config Config) *MemoryFixedWindowLimiter {
	return &MemoryFixedWindowLimiter{
		config:  config,
		now:     time.Now,
		windows: make(map[string]memoryWindow),
	}
}

// Allow 检查是否允许请求通过，语义与 Redis 脚本一致
func (m *MemoryFixedWindowLimiter) Allow(_ context.Context, key string) (*LimitResult, error) {
	window := m.config.windowSeconds()
	now := m.now().Unix()
	start := now / window * window

	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.windows[key]
	if w.start != start {
		w = memoryWindow{start: start}
		// 顺带清理已经过期的窗口
		for k, other := range m.windows {
			if other.start < start {
				delete(m.windows, k)
			}
		}
	}

	if w.count+1 > m.config.Rate {
		m.windows[key] = w
		return &LimitResult{
			Allowed:       false,
			Remaining:     m.config.Rate - w.count,
			RetryAfter:    time.Duration(start+window-now) * time.Second,
			TotalRequests: w.count,
		}, nil
	}

	w.count++
	m.windows[key] = w
	return &LimitResult{
		Allowed:       true,
		Remaining:     m.config.Rate - w.count,
		TotalRequests: w.count,
	}, nil
}
