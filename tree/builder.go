package tree

// Build 按完全二叉树下标规则从层序序列构建树并返回根节点.
//
// 下标 i 的左孩子位于 2i+1，右孩子位于 2i+2；越界或值为 nil 的位置不产生节点。
// 序列为空或根缺失时返回 nil。构建不检查任何有序性，也不会报错。
func Build(seq []*int) *Node {
	root, _ := build(seq)
	return root
}

// build 使用显式栈代替递归，同时返回按下标索引的节点表.
func build(seq []*int) (*Node, map[int]*Node) {
	nodes := make(map[int]*Node)
	if len(seq) == 0 || seq[0] == nil {
		return nil, nodes
	}

	// 先按下标创建全部可达节点，再自底向上连接子节点，保证节点一经发布即不再修改。
	type frame struct {
		idx      int
		expanded bool
	}
	stack := []frame{{idx: 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !f.expanded {
			stack = append(stack, frame{idx: f.idx, expanded: true})
			for _, c := range [2]int{2*f.idx + 2, 2*f.idx + 1} {
				if present(seq, c) {
					stack = append(stack, frame{idx: c})
				}
			}
			continue
		}

		n := &Node{value: *seq[f.idx], index: f.idx}
		n.left = nodes[2*f.idx+1]
		n.right = nodes[2*f.idx+2]
		nodes[f.idx] = n
	}
	return nodes[0], nodes
}

func present(seq []*int, i int) bool {
	return i < len(seq) && seq[i] != nil
}

// Ints 将 int 切片转换为层序序列，便于构造无空洞的输入.
func Ints(values ...int) []*int {
	seq := make([]*int, len(values))
	for i := range values {
		v := values[i]
		seq[i] = &v
	}
	return seq
}

// Values 将 int 与 nil 混合的参数转换为层序序列，nil 表示该位置无节点.
// 其他类型的参数会引发 panic，仅用于字面量构造。
func Values(values ...any) []*int {
	seq := make([]*int, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case nil:
		case int:
			seq[i] = &x
		default:
			panic("tree.Values: unsupported element type")
		}
	}
	return seq
}
