package tree

import (
	"math/bits"
	"sort"

	"github.com/google/uuid"
	"github.com/wyfcoding/bstlca/idgen"
)

// Tree 持有一棵由层序序列构建的树，以及按下标查找节点的索引。
// 构建后只读，可被多个查询复用。
type Tree struct {
	root     *Node
	nodes    map[int]*Node
	id       int64
	instance string
	height   int
	maxIndex int
}

// Option 构建选项.
type Option func(*options)

type options struct {
	gen idgen.Generator
}

// WithIDGenerator 指定树 ID 生成器，默认使用 idgen.Default()。
func WithIDGenerator(g idgen.Generator) Option {
	return func(o *options) { o.gen = g }
}

// New 从层序序列构建 Tree。空序列得到一棵空树（Root 为 nil）。
func New(seq []*int, opts ...Option) *Tree {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.gen == nil {
		o.gen = idgen.Default()
	}

	root, nodes := build(seq)
	t := &Tree{root: root, nodes: nodes, id: o.gen.Generate(), instance: uuid.NewString(), maxIndex: -1}
	for idx := range nodes {
		if d := depthOfIndex(idx) + 1; d > t.height {
			t.height = d
		}
		if idx > t.maxIndex {
			t.maxIndex = idx
		}
	}
	return t
}

// Root 返回根节点.
func (t *Tree) Root() *Node { return t.root }

// ID 返回生成器分配的树 ID.
// 不同生成器（或同毫秒内相同机器号的 Snowflake）可能给出相同的 ID。
func (t *Tree) ID() int64 { return t.id }

// Instance 返回构建时随机生成的实例标识，即使 ID 相同也互不相同.
func (t *Tree) Instance() string { return t.instance }

// Len 返回节点数.
func (t *Tree) Len() int { return len(t.nodes) }

// Height 返回树高，空树为 0，仅有根为 1.
func (t *Tree) Height() int { return t.height }

// NodeAt 按层序下标返回节点.
func (t *Tree) NodeAt(index int) (*Node, bool) {
	n, ok := t.nodes[index]
	return n, ok
}

// Depth 返回节点深度（根为 0）；节点不属于这棵树时返回 -1.
func (t *Tree) Depth(n *Node) int {
	if n == nil || n.index < 0 {
		return -1
	}
	if owned, ok := t.nodes[n.index]; !ok || owned != n {
		return -1
	}
	return depthOfIndex(n.index)
}

// LevelOrder 将树还原为层序序列，末尾的空位被裁掉.
func (t *Tree) LevelOrder() []*int {
	seq := make([]*int, t.maxIndex+1)
	for idx, n := range t.nodes {
		v := n.value
		seq[idx] = &v
	}
	return seq
}

// Indices 返回所有节点下标（升序）.
func (t *Tree) Indices() []int {
	out := make([]int, 0, len(t.nodes))
	for idx := range t.nodes {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func depthOfIndex(idx int) int {
	return bits.Len(uint(idx+1)) - 1
}
