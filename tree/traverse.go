package tree

// Contains 按 BST 有序性下降查找 value，只在合法 BST 上有意义.
func Contains(root *Node, value int) bool {
	for n := root; n != nil; {
		switch {
		case value == n.value:
			return true
		case value < n.value:
			n = n.left
		default:
			n = n.right
		}
	}
	return false
}

// Find 不依赖有序性，前序遍历返回第一个值等于 value 的节点.
func Find(root *Node, value int) *Node {
	var found *Node
	Walk(root, func(n *Node) bool {
		if n.value == value {
			found = n
			return false
		}
		return true
	})
	return found
}

// Walk 前序遍历，fn 返回 false 时提前结束.
func Walk(root *Node, fn func(*Node) bool) {
	if root == nil {
		return
	}
	stack := []*Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(n) {
			return
		}
		if n.right != nil {
			stack = append(stack, n.right)
		}
		if n.left != nil {
			stack = append(stack, n.left)
		}
	}
}

// InOrder 返回中序遍历的值序列；合法 BST 上该序列严格递增.
func InOrder(root *Node) []int {
	var out []int
	var stack []*Node
	n := root
	for n != nil || len(stack) > 0 {
		for n != nil {
			stack = append(stack, n)
			n = n.left
		}
		n = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		out = append(out, n.value)
		n = n.right
	}
	return out
}
