package cache

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMemoryCache 内存缓存的读写、过期和清空
func TestMemoryCache(t *testing.T) {
	config := Config{
		Type:            "memory",
		DefaultTTL:      time.Second * 2,
		CleanupInterval: time.Second,
	}
	cache, err := NewMemoryCache(config)
	assert.NoError(t, err)
	assert.NotNil(t, cache)

	// 写入后立即读回，ttl为0使用默认过期时间
	err = cache.Set("job-1-status", "processing", 0)
	assert.NoError(t, err)

	val, found, err := cache.Get("job-1-status")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "processing", val)

	// 未命中
	val, found, err = cache.Get("no-such-key")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 短TTL的条目过期后不可见
	err = cache.Set("transient", "soon-gone", time.Millisecond*500)
	assert.NoError(t, err)

	time.Sleep(time.Second)

	val, found, err = cache.Get("transient")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 删除后不可见
	err = cache.Set("stale", "stale-value", 0)
	assert.NoError(t, err)

	err = cache.Delete("stale")
	assert.NoError(t, err)

	val, found, err = cache.Get("stale")
	assert.NoError(t, err)
	assert.False(t, found)

	// Clear清空全部条目
	err = cache.Set("job-2-status", "completed", 0)
	assert.NoError(t, err)

	err = cache.Clear()
	assert.NoError(t, err)

	val, found, err = cache.Get("job-2-status")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestRedisCache 基于miniredis验证Redis缓存行为
func TestRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	defer mr.Close()

	config := Config{
		Type:       "redis",
		RedisAddr:  mr.Addr(),
		DefaultTTL: time.Second * 2,
	}

	cache, err := NewRedisCache(config)
	require.NoError(t, err)
	assert.NotNil(t, cache)

	// 写入并读回
	err = cache.Set("job-9-status", "rendering", 0)
	assert.NoError(t, err)

	val, found, err := cache.Get("job-9-status")
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "rendering", val)

	// 未命中
	val, found, err = cache.Get("no-such-key")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// miniredis不自动推进时间，手动快进触发过期
	err = cache.Set("transient", "soon-gone", time.Second)
	assert.NoError(t, err)

	mr.FastForward(time.Second * 2)

	val, found, err = cache.Get("transient")
	assert.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, val)

	// 删除后不可见
	err = cache.Set("stale", "stale-value", 0)
	assert.NoError(t, err)

	err = cache.Delete("stale")
	assert.NoError(t, err)

	val, found, err = cache.Get("stale")
	assert.NoError(t, err)
	assert.False(t, found)
}

// TestRedisCacheKeyPrefix 测试带键前缀的Redis缓存
func TestRedisCacheKeyPrefix(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err, "Failed to start miniredis")
	defer mr.Close()

	// 两个带不同前缀的缓存实例共享同一个Redis
	cacheA, err := NewRedisCache(Config{
		Type:      "redis",
		RedisAddr: mr.Addr(),
		KeyPrefix: "appa:",
	})
	require.NoError(t, err)

	cacheB, err := NewRedisCache(Config{
		Type:      "redis",
		RedisAddr: mr.Addr(),
		KeyPrefix: "appb:",
	})
	require.NoError(t, err)

	// 相同的键在不同前缀下互不可见
	err = cacheA.Set("shared-key", "value-a", 0)
	assert.NoError(t, err)
	err = cacheB.Set("shared-key", "value-b", 0)
	assert.NoError(t, err)

	valA, foundA, err := cacheA.Get("shared-key")
	assert.NoError(t, err)
	assert.True(t, foundA)
	assert.Equal(t, "value-a", valA)

	valB, foundB, err := cacheB.Get("shared-key")
	assert.NoError(t, err)
	assert.True(t, foundB)
	assert.Equal(t, "value-b", valB)

	// 带前缀的Clear只影响自己的键
	err = cacheA.Clear()
	assert.NoError(t, err)

	_, foundA, err = cacheA.Get("shared-key")
	assert.NoError(t, err)
	assert.False(t, foundA, "Clear should remove keys under the prefix")

	_, foundB, err = cacheB.Get("shared-key")
	assert.NoError(t, err)
	assert.True(t, foundB, "Clear should not touch keys under another prefix")
}

// TestCacheFactory 工厂按配置类型创建缓存实例
func TestCacheFactory(t *testing.T) {
	// 默认配置创建内存缓存
	memConfig := DefaultConfig()
	memCache, err := NewCache(memConfig)
	assert.NoError(t, err)
	assert.NotNil(t, memCache)

	// redis类型走注册的工厂
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	redisConfig := Config{
		Type:      "redis",
		RedisAddr: mr.Addr(),
	}

	redisCache, err := NewCache(redisConfig)
	assert.NoError(t, err)
	require.NotNil(t, redisCache)

	err = redisCache.Set("factory-test", "value", 0)
	assert.NoError(t, err)

	redisCache.Delete("factory-test")

	// 未注册的类型回退到内存缓存
	unknownConfig := Config{
		Type: "unknown-type",
	}
	unknownCache, err := NewCache(unknownConfig)
	assert.NoError(t, err)
	assert.NotNil(t, unknownCache)
}

// TestGenerateCacheKey 缓存键拼接规则
func TestGenerateCacheKey(t *testing.T) {
	// 只有前缀
	key := GenerateCacheKey("prefix")
	assert.Equal(t, "prefix", key)

	// 单个部分
	key = GenerateCacheKey("prefix", "part1")
	assert.Equal(t, "prefix:part1", key)

	// 多个部分依次以冒号连接
	key = GenerateCacheKey("prefix", "part1", "part2", "part3")
	assert.Equal(t, "prefix:part1:part2:part3", key)
}

// TestJobCacheKeys 测试作业缓存键生成
func TestJobCacheKeys(t *testing.T) {
	assert.Equal(t, "job_status:job-42", JobStatusKey("job-42"))
	assert.Equal(t, "job_result:job-42", JobResultKey("job-42"))
}
