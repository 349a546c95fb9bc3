// Package tree 提供由层序序列构建的不可变二叉树.
package tree

import "strconv"

// Node 二叉树节点。子节点在构造时确定，之后不再修改。
// 节点身份以指针为准；Index 是节点在层序序列中的位置，仅在同一棵树内唯一。
type Node struct {
	value int
	left  *Node
	right *Node
	index int
}

// NewNode 创建一个节点，index 记为 -1（非层序构建）。
func NewNode(value int, left, right *Node) *Node {
	return &Node{value: value, left: left, right: right, index: -1}
}

// Value 返回节点值.
func (n *Node) Value() int { return n.value }

// Left 返回左子节点，可能为 nil.
func (n *Node) Left() *Node { return n.left }

// Right 返回右子节点，可能为 nil.
func (n *Node) Right() *Node { return n.right }

// Index 返回节点在层序序列中的下标；由 NewNode 创建的节点返回 -1.
func (n *Node) Index() int { return n.index }

// IsLeaf 是否为叶子节点.
func (n *Node) IsLeaf() bool { return n.left == nil && n.right == nil }

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return strconv.Itoa(n.value)
}

// ValueOf 返回节点值的指针，nil 节点返回 nil。
// 调用方据此区分“无结果”与值 0。
func ValueOf(n *Node) *int {
	if n == nil {
		return nil
	}
	v := n.value
	return &v
}
