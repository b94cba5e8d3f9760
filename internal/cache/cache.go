package cache

import (
	"strings"
	"time"
)

// Config 缓存配置
type Config struct {
	// 缓存类型: "memory", "redis" 等
	Type string
	// Redis连接地址 (仅Redis缓存使用)
	RedisAddr string
	// Redis密码 (仅Redis缓存使用)
	RedisPassword string
	// Redis数据库编号 (仅Redis缓存使用)
	RedisDB int
	// 键前缀，用于隔离同一Redis实例上的不同应用 (仅Redis缓存使用)
	KeyPrefix string
	// 默认缓存过期时间
	DefaultTTL time.Duration
	// 自动清理间隔时间 (仅内存缓存使用)
	CleanupInterval time.Duration
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		Type:            "memory",
		DefaultTTL:      time.Hour * 24,
		CleanupInterval: time.Minute * 10,
	}
}

// Cache 缓存接口
// 存取作业状态和生成结果等短生命周期数据
type Cache interface {
	// Get 查询缓存值，found为false表示未命中
	Get(key string) (value string, found bool, err error)

	// Set 写入缓存值，ttl为0时使用默认过期时间，负值表示永不过期
	Set(key string, value string, ttl time.Duration) error

	// Delete 删除指定键
	Delete(key string) error

	// Clear 清空当前实例管理的所有缓存
	Clear() error
}

// Factory 缓存工厂函数类型
type Factory func(config Config) (Cache, error)

// 注册的缓存实现
var registry = make(map[string]Factory)

// RegisterCache 注册缓存实现
func RegisterCache(name string, factory Factory) {
	registry[name] = factory
}

// NewCache 创建缓存实例
// 未注册的类型回退到内存缓存
func NewCache(config Config) (Cache, error) {
	factory, ok := registry[config.Type]
	if !ok {
		return NewMemoryCache(config)
	}
	return factory(config)
}

// 作业相关的缓存键前缀
const (
	// JobStatusKeyPrefix 作业状态缓存键前缀
	JobStatusKeyPrefix = "job_status"
	// JobResultKeyPrefix 作业生成结果缓存键前缀
	JobResultKeyPrefix = "job_result"
)

// JobStatusKey 生成作业状态的缓存键
func JobStatusKey(jobID string) string {
	return GenerateCacheKey(JobStatusKeyPrefix, jobID)
}

// JobResultKey 生成作业结果的缓存键
func JobResultKey(jobID string) string {
	return GenerateCacheKey(JobResultKeyPrefix, jobID)
}

// GenerateCacheKey 生成标准化的缓存键
// 前缀和各部分之间以冒号分隔
func GenerateCacheKey(prefix string, parts ...string) string {
	if len(parts) == 0 {
		return prefix
	}
	return prefix + ":" + strings.Join(parts, ":")
}
