package lca

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/wyfcoding/bstlca/cache"
	"github.com/wyfcoding/bstlca/tree"
)

// MemoKey 记忆化键：节点身份（指针）与有序化后的查询值对.
// 以指针而非节点值作为身份，值相同的不同节点不会被合并。
type MemoKey struct {
	Node   *tree.Node
	Lo, Hi int
}

// MemoCache 记忆化存储。条目一经写入不再失效，树在构建后不可变，缓存结果始终有效。
type MemoCache interface {
	// Get 返回缓存结果；ok 为 false 表示未命中。结果本身可以是 nil。
	Get(key MemoKey) (result *tree.Node, ok bool)
	Set(key MemoKey, result *tree.Node)
	Len() int
}

// mapCache 默认实现，非并发安全，由单个 Memoized 独占.
type mapCache map[MemoKey]*tree.Node

func (c mapCache) Get(key MemoKey) (*tree.Node, bool) {
	n, ok := c[key]
	return n, ok
}

func (c mapCache) Set(key MemoKey, result *tree.Node) { c[key] = result }

func (c mapCache) Len() int { return len(c) }

// BigCacheMemo 将记忆化结果存入共享的 bigcache.
//
// 键为 (树 ID, 树实例标识, 节点下标, lo, hi)，值为结果节点下标（-1 表示无结果），
// 读取时经 Tree.NodeAt 还原为节点。实例标识保证 ID 相同的两棵树不会读到彼此的条目。
// 同一 bigcache 可被多棵树、多个 Memoized 共享；
// 不属于该树的节点（例如 tree.NewNode 创建的）不会被缓存。
type BigCacheMemo struct {
	t     *tree.Tree
	c     *cache.BigCache
	count atomic.Int64
}

// NewBigCacheMemo 创建绑定到树 t 的 bigcache 记忆化存储.
func NewBigCacheMemo(t *tree.Tree, c *cache.BigCache) *BigCacheMemo {
	return &BigCacheMemo{t: t, c: c}
}

func (m *BigCacheMemo) key(k MemoKey) (string, bool) {
	if k.Node == nil || k.Node.Index() < 0 {
		return "", false
	}
	if owned, ok := m.t.NodeAt(k.Node.Index()); !ok || owned != k.Node {
		return "", false
	}
	return fmt.Sprintf("lca:%d:%s:%d:%d:%d", m.t.ID(), m.t.Instance(), k.Node.Index(), k.Lo, k.Hi), true
}

// Get 实现 MemoCache.
func (m *BigCacheMemo) Get(k MemoKey) (*tree.Node, bool) {
	key, ok := m.key(k)
	if !ok {
		return nil, false
	}
	idx, ok, err := m.c.GetInt64(key)
	if err != nil {
		slog.Warn("memo cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if idx < 0 {
		return nil, true
	}
	n, found := m.t.NodeAt(int(idx))
	if !found {
		return nil, false
	}
	return n, true
}

// Set 实现 MemoCache.
func (m *BigCacheMemo) Set(k MemoKey, result *tree.Node) {
	key, ok := m.key(k)
	if !ok {
		return
	}
	idx := int64(-1)
	if result != nil {
		idx = int64(result.Index())
	}
	if err := m.c.SetInt64(key, idx); err != nil {
		slog.Warn("memo cache write failed", "key", key, "error", err)
		return
	}
	m.count.Add(1)
}

// Len 返回本实例写入的条目数.
func (m *BigCacheMemo) Len() int {
	return int(m.count.Load())
}
