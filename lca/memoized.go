package lca

import "github.com/wyfcoding/bstlca/tree"

// Memoized 自顶向下的记忆化搜索.
//
// 在每个节点上以 (节点, min(p,q), max(p,q)) 为键查缓存；命中则直接返回。
// 否则按 BST 有序性下降：两值都小于节点值走左子树，都大于走右子树，
// 其余情况（分居两侧或等于节点值）当前节点即为答案。
// 下降路径上的每个键都会写入同一结果。缓存只增不减，跨多次查询复用。
//
// Memoized 不是并发安全的。
type Memoized struct {
	cache  MemoCache
	hits   int64
	misses int64
}

// MemoOption Memoized 的构造选项.
type MemoOption func(*Memoized)

// WithMemoCache 替换默认的 map 缓存，例如 NewBigCacheMemo.
func WithMemoCache(c MemoCache) MemoOption {
	return func(m *Memoized) { m.cache = c }
}

// NewMemoized 创建记忆化策略.
func NewMemoized(opts ...MemoOption) *Memoized {
	m := &Memoized{cache: make(mapCache)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Name 实现 Finder.
func (m *Memoized) Name() string { return NameMemoized }

// FindLCA 实现 Finder。p 或 q 不在树中时返回 nil.
func (m *Memoized) FindLCA(root *tree.Node, p, q int) *tree.Node {
	if !tree.Contains(root, p) || !tree.Contains(root, q) {
		return nil
	}
	return m.Descend(root, p, q)
}

// Descend 不做存在性检查的原始记忆化下降.
// 即使某个值不在树中，只要两值在某节点分叉也会返回该节点；
// 直到走出树仍未分叉时返回 nil。
func (m *Memoized) Descend(node *tree.Node, p, q int) *tree.Node {
	lo, hi := order(p, q)

	var visited []MemoKey
	var result *tree.Node
	for node != nil {
		key := MemoKey{Node: node, Lo: lo, Hi: hi}
		if cached, ok := m.cache.Get(key); ok {
			m.hits++
			result = cached
			break
		}
		m.misses++
		visited = append(visited, key)

		if hi < node.Value() {
			node = node.Left()
			continue
		}
		if lo > node.Value() {
			node = node.Right()
			continue
		}
		result = node
		break
	}

	for _, key := range visited {
		m.cache.Set(key, result)
	}
	return result
}

// Hits 返回缓存命中次数.
func (m *Memoized) Hits() int64 { return m.hits }

// Misses 返回缓存未命中次数.
func (m *Memoized) Misses() int64 { return m.misses }

// Len 返回缓存条目数.
func (m *Memoized) Len() int { return m.cache.Len() }
