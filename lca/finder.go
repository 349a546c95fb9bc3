// Package lca 实现二叉搜索树上最近公共祖先（LCA）的三种独立求解策略.
//
// 所有策略在“无结果”时返回 nil，而不是错误。对于同一棵合法 BST 与同一对查询值，
// 三种策略返回值相同的节点：
//   - p 或 q 不在树中时，一律返回 nil；
//   - p == q 且存在时，返回持有该值的节点。
//
// Memoized 与 BruteForce 依赖 BST 有序性，在非 BST 上结果无定义；
// 调用方应先用 tree.ValidateBST 校验。
package lca

import (
	"github.com/wyfcoding/bstlca/tree"
	"github.com/wyfcoding/bstlca/xerrors"
)

// 策略名称.
const (
	NameMemoized     = "memoized"
	NameConstructive = "constructive"
	NameBruteForce   = "bruteforce"
)

// Finder 求 LCA 的统一接口.
type Finder interface {
	Name() string
	FindLCA(root *tree.Node, p, q int) *tree.Node
}

// Names 返回所有策略名称，顺序固定.
func Names() []string {
	return []string{NameMemoized, NameConstructive, NameBruteForce}
}

// New 按名称创建策略；memoized 使用默认的进程内缓存.
func New(name string) (Finder, error) {
	switch name {
	case NameMemoized:
		return NewMemoized(), nil
	case NameConstructive:
		return NewConstructive(), nil
	case NameBruteForce:
		return NewBruteForce(), nil
	default:
		return nil, xerrors.UnknownStrategy(name)
	}
}

func order(p, q int) (lo, hi int) {
	if p <= q {
		return p, q
	}
	return q, p
}
