package lca

import "github.com/wyfcoding/bstlca/tree"

// Constructive 自底向上的后序搜索，不依赖 BST 有序性.
type Constructive struct{}

// NewConstructive 创建构造式策略.
func NewConstructive() *Constructive { return &Constructive{} }

// Name 实现 Finder.
func (c *Constructive) Name() string { return NameConstructive }

// FindLCA 实现 Finder。p 或 q 不在树中时返回 nil。
// 存在性用全树遍历判断，与树是否有序无关。
func (c *Constructive) FindLCA(root *tree.Node, p, q int) *tree.Node {
	if tree.Find(root, p) == nil || tree.Find(root, q) == nil {
		return nil
	}
	return c.Search(root, p, q)
}

// Search 不做存在性检查的原始后序搜索.
//
// 节点值等于 p 或 q 时直接返回该节点，不再向下；否则左右两侧都有结果时当前节点
// 即为 LCA，只有一侧有结果时向上传递该结果。用显式栈代替递归，防止深树栈溢出。
func (c *Constructive) Search(root *tree.Node, p, q int) *tree.Node {
	type frame struct {
		n       *tree.Node
		visited bool
	}

	var results []*tree.Node
	stack := []frame{{n: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch {
		case f.n == nil:
			results = append(results, nil)
		case !f.visited:
			if v := f.n.Value(); v == p || v == q {
				results = append(results, f.n)
				continue
			}
			stack = append(stack, frame{n: f.n, visited: true}, frame{n: f.n.Right()}, frame{n: f.n.Left()})
		default:
			right := results[len(results)-1]
			left := results[len(results)-2]
			results = results[:len(results)-2]

			switch {
			case left != nil && right != nil:
				results = append(results, f.n)
			case left != nil:
				results = append(results, left)
			default:
				results = append(results, right)
			}
		}
	}
	return results[0]
}
