// Package cache 提供基于 allegro/bigcache 的进程内共享缓存.
package cache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/allegro/bigcache/v3"
	"github.com/wyfcoding/bstlca/config"
)

const defaultEntriesInWindow = 4096

// ErrCorruptEntry 缓存项长度不符合预期.
var ErrCorruptEntry = errors.New("cache: corrupt entry")

// BigCache 封装 bigcache，提供字节与 int64 两种存取方式，并发安全.
// bigcache 对所有键使用统一的过期窗口，不支持单键 TTL。
type BigCache struct {
	cache  *bigcache.BigCache
	hits   atomic.Int64
	misses atomic.Int64
}

// NewBigCache 按配置创建 BigCache。Shards 必须是 2 的幂。
func NewBigCache(cfg config.BigCacheConfig) (*BigCache, error) {
	bc := bigcache.DefaultConfig(cfg.LifeWindow)
	if cfg.Shards > 0 {
		bc.Shards = cfg.Shards
	}
	if cfg.CleanWindow > 0 {
		bc.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntrySize > 0 {
		bc.MaxEntrySize = cfg.MaxEntrySize
	}
	// 默认窗口条目数面向 HTTP 会话级缓存，预分配过大
	bc.MaxEntriesInWindow = defaultEntriesInWindow
	if cfg.MaxEntriesInWindow > 0 {
		bc.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	bc.HardMaxCacheSize = cfg.HardMaxCacheSize
	bc.Verbose = cfg.Verbose

	c, err := bigcache.New(context.Background(), bc)
	if err != nil {
		return nil, fmt.Errorf("初始化 bigcache 失败: %w", err)
	}
	return &BigCache{cache: c}, nil
}

// Get 读取原始字节，未命中时 ok 为 false.
func (c *BigCache) Get(key string) (data []byte, ok bool, err error) {
	data, err = c.cache.Get(key)
	switch {
	case err == nil:
		c.hits.Add(1)
		return data, true, nil
	case errors.Is(err, bigcache.ErrEntryNotFound):
		c.misses.Add(1)
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// Set 写入原始字节.
func (c *BigCache) Set(key string, data []byte) error {
	return c.cache.Set(key, data)
}

// GetInt64 读取以大端序存储的 int64.
func (c *BigCache) GetInt64(key string) (int64, bool, error) {
	data, ok, err := c.Get(key)
	if err != nil || !ok {
		return 0, ok, err
	}
	if len(data) != 8 {
		return 0, false, fmt.Errorf("%w: key %s has %d bytes", ErrCorruptEntry, key, len(data))
	}
	return int64(binary.BigEndian.Uint64(data)), true, nil
}

// SetInt64 以大端序写入 int64.
func (c *BigCache) SetInt64(key string, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	return c.Set(key, buf[:])
}

// Delete 删除一个或多个键，不存在的键被忽略.
func (c *BigCache) Delete(keys ...string) error {
	for _, key := range keys {
		if err := c.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
			return err
		}
	}
	return nil
}

// Len 返回当前条目数.
func (c *BigCache) Len() int {
	return c.cache.Len()
}

// Stats 返回命中与未命中次数.
func (c *BigCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Close 关闭底层缓存.
func (c *BigCache) Close() error {
	return c.cache.Close()
}
