package lca

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/bstlca/cache"
	"github.com/wyfcoding/bstlca/config"
	"github.com/wyfcoding/bstlca/idgen"
	"github.com/wyfcoding/bstlca/tree"
	"github.com/wyfcoding/bstlca/xerrors"
)

func sampleTree() *tree.Tree {
	return tree.New(tree.Values(6, 2, 8, 0, 4, 7, 9, nil, nil, 3, 5), tree.WithIDGenerator(&idgen.Sequence{}))
}

func finders() []Finder {
	return []Finder{NewMemoized(), NewConstructive(), NewBruteForce()}
}

func valueOf(t *testing.T, n *tree.Node) int {
	t.Helper()
	require.NotNil(t, n)
	return n.Value()
}

func TestScenarios(t *testing.T) {
	root := sampleTree().Root()
	cases := []struct {
		p, q, want int
	}{
		{2, 8, 6},
		{0, 4, 2},
		{3, 5, 4},
		{8, 2, 6},
		{7, 9, 8},
		{0, 5, 2},
		{3, 9, 6},
	}
	for _, f := range finders() {
		for _, c := range cases {
			assert.Equal(t, c.want, valueOf(t, f.FindLCA(root, c.p, c.q)), "%s(%d,%d)", f.Name(), c.p, c.q)
		}
	}
}

func TestAncestorCase(t *testing.T) {
	root := sampleTree().Root()
	for _, f := range finders() {
		assert.Equal(t, 2, valueOf(t, f.FindLCA(root, 2, 5)), f.Name())
		assert.Equal(t, 2, valueOf(t, f.FindLCA(root, 3, 2)), f.Name())
		assert.Equal(t, 6, valueOf(t, f.FindLCA(root, 6, 9)), f.Name())
		assert.Equal(t, 8, valueOf(t, f.FindLCA(root, 9, 8)), f.Name())
	}
}

func TestSameValue(t *testing.T) {
	tr := sampleTree()
	for _, f := range finders() {
		for _, idx := range tr.Indices() {
			n, _ := tr.NodeAt(idx)
			assert.Same(t, n, f.FindLCA(tr.Root(), n.Value(), n.Value()), "%s(%d,%d)", f.Name(), n.Value(), n.Value())
		}
	}
}

func TestAbsentValuesReturnNil(t *testing.T) {
	root := sampleTree().Root()
	pairs := [][2]int{{1, 8}, {8, 1}, {2, 10}, {-5, 100}, {1, 1}, {4, 6 + 100}}
	for _, f := range finders() {
		for _, pq := range pairs {
			assert.Nil(t, f.FindLCA(root, pq[0], pq[1]), "%s(%d,%d)", f.Name(), pq[0], pq[1])
		}
		assert.Nil(t, f.FindLCA(nil, 1, 2), f.Name())
	}
}

func TestRawSearchesWithoutPresenceCheck(t *testing.T) {
	root := sampleTree().Root()

	// 1 不在树中，但 1 与 8 在根处分叉
	assert.Equal(t, 6, valueOf(t, NewMemoized().Descend(root, 1, 8)))
	// 后序搜索只找到 8
	assert.Equal(t, 8, valueOf(t, NewConstructive().Search(root, 1, 8)))
	// 两值都落在同一侧且走出树
	assert.Nil(t, NewMemoized().Descend(root, 10, 11))
	assert.Nil(t, NewConstructive().Search(root, 10, 11))
}

func TestAgreementOnAllPairs(t *testing.T) {
	tr := sampleTree()
	root := tr.Root()
	values := tree.InOrder(root)
	memo, cons, brute := NewMemoized(), NewConstructive(), NewBruteForce()

	for _, p := range values {
		for _, q := range values {
			want := cons.FindLCA(root, p, q)
			require.NotNil(t, want)
			assert.Same(t, want, memo.FindLCA(root, p, q), "memoized(%d,%d)", p, q)
			assert.Same(t, want, brute.FindLCA(root, p, q), "bruteforce(%d,%d)", p, q)
		}
	}
}

// randomBST 用有序唯一值随机选根递归构造 BST.
func randomBST(r *rand.Rand, vals []int) *tree.Node {
	if len(vals) == 0 {
		return nil
	}
	mid := r.IntN(len(vals))
	return tree.NewNode(vals[mid], randomBST(r, vals[:mid]), randomBST(r, vals[mid+1:]))
}

func TestAgreementOnRandomBSTs(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	for range 50 {
		size := 1 + r.IntN(30)
		set := make(map[int]struct{})
		for len(set) < size {
			set[r.IntN(200)-100] = struct{}{}
		}
		vals := make([]int, 0, len(set))
		for v := range set {
			vals = append(vals, v)
		}
		slices.Sort(vals)

		root := randomBST(r, vals)
		require.NoError(t, tree.ValidateBST(root))

		memo, cons, brute := NewMemoized(), NewConstructive(), NewBruteForce()
		for range 40 {
			p := vals[r.IntN(len(vals))]
			q := vals[r.IntN(len(vals))]
			want := cons.FindLCA(root, p, q)
			require.NotNil(t, want)
			assert.Same(t, want, memo.FindLCA(root, p, q))
			assert.Same(t, want, brute.FindLCA(root, p, q))

			// want 是两者的公共祖先，且两者不在它的同一个子树里
			lo, hi := order(p, q)
			assert.True(t, lo <= want.Value() && want.Value() <= hi)
		}
	}
}

func TestMemoizationIdempotent(t *testing.T) {
	tr := sampleTree()
	root := tr.Root()
	before := tree.FormatSequence(tr.LevelOrder())

	m := NewMemoized()
	first := m.FindLCA(root, 3, 5)
	size := m.Len()
	misses := m.Misses()
	require.Equal(t, 4, first.Value())

	for range 5 {
		assert.Same(t, first, m.FindLCA(root, 3, 5))
		assert.Same(t, first, m.FindLCA(root, 5, 3))
	}
	assert.Equal(t, size, m.Len(), "repeat queries must not grow the cache")
	assert.Equal(t, misses, m.Misses())
	assert.Equal(t, int64(10), m.Hits())
	assert.Equal(t, before, tree.FormatSequence(tr.LevelOrder()))
}

func TestMemoCachesEveryNodeOnDescent(t *testing.T) {
	root := sampleTree().Root()
	m := NewMemoized()

	// 6 -> 2 -> 4，三个键
	require.Equal(t, 4, m.Descend(root, 3, 5).Value())
	assert.Equal(t, 3, m.Len())

	// 从子树节点 2 直接开始的同一查询命中缓存
	hits := m.Hits()
	assert.Equal(t, 4, m.Descend(root.Left(), 5, 3).Value())
	assert.Equal(t, hits+1, m.Hits())
}

func TestMemoKeyUsesNodeIdentity(t *testing.T) {
	// 两个值都为 5 的不同节点
	a := tree.NewNode(5, tree.NewNode(1, nil, nil), nil)
	b := tree.NewNode(5, nil, tree.NewNode(9, nil, nil))
	m := NewMemoized()

	assert.Same(t, a, m.Descend(a, 1, 5))
	assert.Same(t, b, m.Descend(b, 1, 5))
	assert.Equal(t, 2, m.Len())
}

func TestPathTo(t *testing.T) {
	tr := sampleTree()
	root := tr.Root()
	b := NewBruteForce()

	for _, idx := range tr.Indices() {
		target, _ := tr.NodeAt(idx)
		path := b.PathTo(root, target.Value())
		require.NotEmpty(t, path)
		assert.Same(t, root, path[0])
		assert.Same(t, target, path[len(path)-1])
		assert.Len(t, path, tr.Depth(target)+1)
	}

	got := b.PathTo(root, 5)
	vals := make([]int, len(got))
	for i, n := range got {
		vals[i] = n.Value()
	}
	assert.Equal(t, []int{6, 2, 4, 5}, vals)

	assert.Empty(t, b.PathTo(root, 1))
	assert.Empty(t, b.PathTo(nil, 1))
}

func TestConstructiveIgnoresOrdering(t *testing.T) {
	// 非 BST：1 的左孩子 5，右孩子 0，5 下挂 3
	root := tree.Build(tree.Values(1, 5, 0, 3))
	require.Error(t, tree.ValidateBST(root))

	c := NewConstructive()
	assert.Equal(t, 1, valueOf(t, c.FindLCA(root, 3, 0)))
	assert.Equal(t, 5, valueOf(t, c.FindLCA(root, 3, 5)))
}

func TestDeepChainDoesNotOverflow(t *testing.T) {
	const depth = 200000
	var root *tree.Node
	for v := depth; v >= 1; v-- {
		root = tree.NewNode(v, nil, root)
	}
	// 右斜链，1 为根
	c := NewConstructive()
	assert.Equal(t, depth-1, valueOf(t, c.FindLCA(root, depth-1, depth)))
	assert.Equal(t, depth, len(NewBruteForce().PathTo(root, depth)))
}

func TestBigCacheMemoAgreesWithMap(t *testing.T) {
	bc, err := cache.NewBigCache(config.BigCacheConfig{LifeWindow: time.Minute, Shards: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bc.Close() })

	tr := sampleTree()
	root := tr.Root()
	shared := NewMemoized(WithMemoCache(NewBigCacheMemo(tr, bc)))
	plain := NewMemoized()
	values := tree.InOrder(root)

	for _, p := range values {
		for _, q := range values {
			assert.Same(t, plain.FindLCA(root, p, q), shared.FindLCA(root, p, q), "(%d,%d)", p, q)
		}
	}
	assert.Nil(t, shared.FindLCA(root, 1, 8))
	assert.Positive(t, shared.Hits())

	// 第二个实例共享同一 bigcache，首次查询即命中
	again := NewMemoized(WithMemoCache(NewBigCacheMemo(tr, bc)))
	assert.Equal(t, 6, valueOf(t, again.FindLCA(root, 2, 8)))
	assert.Equal(t, int64(1), again.Hits())
	assert.Zero(t, again.Misses())

	// 另一棵同形树使用不同的命名空间
	other := tree.New(tree.Values(6, 2, 8, 0, 4, 7, 9, nil, nil, 3, 5), tree.WithIDGenerator(fixedID(99)))
	fresh := NewMemoized(WithMemoCache(NewBigCacheMemo(other, bc)))
	assert.Same(t, other.Root(), fresh.FindLCA(other.Root(), 2, 8))
	assert.Zero(t, fresh.Hits())
}

func TestBigCacheMemoSameTreeID(t *testing.T) {
	bc, err := cache.NewBigCache(config.BigCacheConfig{LifeWindow: time.Minute, Shards: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bc.Close() })

	a := tree.New(tree.Values(6, 2, 8, 0, 4, 7, 9, nil, nil, 3, 5), tree.WithIDGenerator(fixedID(7)))
	b := tree.New(tree.Ints(4, 0, 8), tree.WithIDGenerator(fixedID(7)))
	require.Equal(t, a.ID(), b.ID())
	assert.NotEqual(t, a.Instance(), b.Instance())

	// a 中 (0,4) 的结果是下标 3 的节点 2；b 中下标 3 不存在
	assert.Equal(t, 2, valueOf(t, NewMemoized(WithMemoCache(NewBigCacheMemo(a, bc))).FindLCA(a.Root(), 0, 4)))

	mb := NewMemoized(WithMemoCache(NewBigCacheMemo(b, bc)))
	assert.Same(t, b.Root(), mb.FindLCA(b.Root(), 0, 4))
	assert.Zero(t, mb.Hits())
}

func TestBigCacheMemoSkipsForeignNodes(t *testing.T) {
	bc, err := cache.NewBigCache(config.BigCacheConfig{LifeWindow: time.Minute, Shards: 8})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bc.Close() })

	memo := NewBigCacheMemo(sampleTree(), bc)
	n := tree.NewNode(1, nil, nil)
	memo.Set(MemoKey{Node: n, Lo: 1, Hi: 1}, n)
	_, ok := memo.Get(MemoKey{Node: n, Lo: 1, Hi: 1})
	assert.False(t, ok)
	assert.Zero(t, memo.Len())
}

type fixedID int64

func (f fixedID) Generate() int64 { return int64(f) }

func TestNew(t *testing.T) {
	for _, name := range Names() {
		f, err := New(name)
		require.NoError(t, err)
		assert.Equal(t, name, f.Name())
	}
	_, err := New("dijkstra")
	assert.True(t, errors.Is(err, xerrors.ErrUnknownStrategy))
}
