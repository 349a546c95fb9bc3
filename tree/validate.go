package tree

import "github.com/wyfcoding/bstlca/xerrors"

// ValidateBST 检查树是否满足严格 BST 有序性：左子树所有值小于节点，右子树所有值大于节点.
// 重复值视为违规。空树合法。返回的错误可用 errors.Is(err, xerrors.ErrNotBST) 判断。
func ValidateBST(root *Node) error {
	type bound struct {
		n            *Node
		lo, hi       int
		hasLo, hasHi bool
	}
	if root == nil {
		return nil
	}
	stack := []bound{{n: root}}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		v := b.n.value
		if (b.hasLo && v <= b.lo) || (b.hasHi && v >= b.hi) {
			return xerrors.NotBST(v, b.n.index)
		}
		// 先压右后压左，违规按前序报告
		if b.n.right != nil {
			stack = append(stack, bound{n: b.n.right, lo: v, hasLo: true, hi: b.hi, hasHi: b.hasHi})
		}
		if b.n.left != nil {
			stack = append(stack, bound{n: b.n.left, lo: b.lo, hasLo: b.hasLo, hi: v, hasHi: true})
		}
	}
	return nil
}
