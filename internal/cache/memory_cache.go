package cache

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// 内存缓存的兜底参数，配置缺省时使用
const (
	fallbackTTL             = 24 * time.Hour
	fallbackCleanupInterval = 10 * time.Minute
)

// MemoryCache 进程内缓存，封装go-cache
// 单机部署时用于作业状态和生成结果的快速查询
type MemoryCache struct {
	store *gocache.Cache
}

// NewMemoryCache 创建一个新的内存缓存
func NewMemoryCache(config Config) (Cache, error) {
	ttl := config.DefaultTTL
	if ttl <= 0 {
		ttl = fallbackTTL
	}

	interval := config.CleanupInterval
	if interval <= 0 {
		interval = fallbackCleanupInterval
	}

	return &MemoryCache{
		store: gocache.New(ttl, interval),
	}, nil
}

// Get 获取缓存内容
func (m *MemoryCache) Get(key string) (string, bool, error) {
	value, found := m.store.Get(key)
	if !found {
		return "", false, nil
	}

	// 本缓存只存字符串，其他类型视为未命中
	str, ok := value.(string)
	if !ok {
		return "", false, nil
	}
	return str, true, nil
}

// Set 设置缓存内容，ttl为0时使用默认过期时间
func (m *MemoryCache) Set(key string, value string, ttl time.Duration) error {
	switch {
	case ttl == 0:
		m.store.SetDefault(key, value)
	case ttl < 0:
		m.store.Set(key, value, gocache.NoExpiration)
	default:
		m.store.Set(key, value, ttl)
	}
	return nil
}

// Delete 删除缓存项
func (m *MemoryCache) Delete(key string) error {
	m.store.Delete(key)
	return nil
}

// Clear 清空所有缓存
func (m *MemoryCache) Clear() error {
	m.store.Flush()
	return nil
}

func init() {
	RegisterCache("memory", NewMemoryCache)
}
