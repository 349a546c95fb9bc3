package xerrors

// 以下哨兵错误仅用于 errors.Is 匹配，返回给调用方的错误由对应构造函数新建.
var (
	// ErrEmptySequence 层序序列为空或根节点缺失。
	ErrEmptySequence = New(ErrInvalidArg, 400101, "empty sequence", "level-order sequence has no root", nil)
	// ErrInvalidToken 序列中存在无法解析的元素。
	ErrInvalidToken = New(ErrInvalidArg, 400102, "invalid token", "tokens must be integers or null/None/nil", nil)
	// ErrNotBST 树不满足二叉搜索树的严格有序性。
	ErrNotBST = New(ErrInvalidArg, 400103, "not a binary search tree", "left subtree must be smaller and right subtree larger", nil)
	// ErrUnknownStrategy 未知的 LCA 策略名称。
	ErrUnknownStrategy = New(ErrInvalidArg, 400104, "unknown strategy", "supported: memoized, constructive, bruteforce", nil)
	// ErrStrategyDisagreement 不同策略在合法 BST 上给出了不同结果。
	ErrStrategyDisagreement = New(ErrInternal, 500101, "strategy disagreement", "lca strategies returned different nodes", nil)
)

// EmptySequence 创建空序列错误.
func EmptySequence() *Error {
	return New(ErrInvalidArg, ErrEmptySequence.Code, ErrEmptySequence.Message, ErrEmptySequence.Detail, nil)
}

// InvalidToken 创建非法元素错误，记录元素位置与原文.
func InvalidToken(pos int, token string, cause error) *Error {
	return New(ErrInvalidArg, ErrInvalidToken.Code, ErrInvalidToken.Message, ErrInvalidToken.Detail, cause).
		WithContext("position", pos).
		WithContext("token", token)
}

// NotBST 创建非 BST 错误，记录违规节点.
func NotBST(value, index int) *Error {
	return New(ErrInvalidArg, ErrNotBST.Code, ErrNotBST.Message, "", nil).
		WithDetail("node %d at index %d violates ordering", value, index).
		WithContext("value", value).
		WithContext("index", index)
}

// UnknownStrategy 创建未知策略错误.
func UnknownStrategy(name string) *Error {
	return New(ErrInvalidArg, ErrUnknownStrategy.Code, ErrUnknownStrategy.Message, ErrUnknownStrategy.Detail, nil).
		WithContext("strategy", name)
}

// StrategyDisagreement 创建策略结果不一致错误.
func StrategyDisagreement(p, q int, results map[string]string) *Error {
	return New(ErrInternal, ErrStrategyDisagreement.Code, ErrStrategyDisagreement.Message, ErrStrategyDisagreement.Detail, nil).
		WithContext("p", p).
		WithContext("q", q).
		WithContext("results", results)
}
