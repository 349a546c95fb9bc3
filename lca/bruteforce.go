package lca

import "github.com/wyfcoding/bstlca/tree"

// BruteForce 分别求出根到 p、q 的路径，再逐位比较取最后一个公共节点.
type BruteForce struct{}

// NewBruteForce 创建暴力策略.
func NewBruteForce() *BruteForce { return &BruteForce{} }

// Name 实现 Finder.
func (b *BruteForce) Name() string { return NameBruteForce }

// PathTo 按 BST 有序性下降，返回从 root 到值为 value 的节点的路径（含两端）.
// 找不到时返回空路径。
func (b *BruteForce) PathTo(root *tree.Node, value int) []*tree.Node {
	var path []*tree.Node
	for n := root; n != nil; {
		path = append(path, n)
		if n.Value() == value {
			return path
		}
		if value < n.Value() {
			n = n.Left()
		} else {
			n = n.Right()
		}
	}
	return nil
}

// FindLCA 实现 Finder。任一路径为空时结果为 nil.
func (b *BruteForce) FindLCA(root *tree.Node, p, q int) *tree.Node {
	pathP := b.PathTo(root, p)
	pathQ := b.PathTo(root, q)

	var common *tree.Node
	for i := 0; i < len(pathP) && i < len(pathQ); i++ {
		if pathP[i] != pathQ[i] {
			break
		}
		common = pathP[i]
	}
	return common
}
