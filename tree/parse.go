package tree

import (
	"strconv"
	"strings"

	"github.com/wyfcoding/bstlca/xerrors"
)

// ParseSequence 解析逗号分隔的层序序列，如 "[6,2,8,null,4]".
// null、None、nil 以及空元素表示该位置无节点。
func ParseSequence(s string) ([]*int, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "[")
	s = strings.TrimSuffix(s, "]")
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	tokens := strings.Split(s, ",")
	seq := make([]*int, len(tokens))
	for i, raw := range tokens {
		tok := strings.TrimSpace(raw)
		switch strings.ToLower(tok) {
		case "", "null", "none", "nil":
			continue
		}
		v, err := strconv.Atoi(tok)
		if err != nil {
			return nil, xerrors.InvalidToken(i, tok, err)
		}
		seq[i] = &v
	}
	return seq, nil
}

// FormatSequence 将层序序列格式化为 ParseSequence 可读的字符串.
func FormatSequence(seq []*int) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range seq {
		if i > 0 {
			b.WriteByte(',')
		}
		if v == nil {
			b.WriteString("null")
			continue
		}
		b.WriteString(strconv.Itoa(*v))
	}
	b.WriteByte(']')
	return b.String()
}
