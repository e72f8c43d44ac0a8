package lock

import (
	"strconv"
	"strings"
)

// Write renders a tree in canonical text form. Parsing the result with a
// dialect that supports every kind in the tree yields a tree that writes to
// the same text.
func Write(n *Node) string {
	var b strings.Builder
	write(&b, n, KindNone)
	return b.String()
}

func needsParens(n *Node, parent Kind) bool {
	switch n.Kind {
	case KindOr:
		return parent == KindAnd || parent == KindNot || isUnaryPrefix(parent)
	case KindAnd:
		return parent == KindNot || isUnaryPrefix(parent)
	case KindNot:
		return isUnaryPrefix(parent)
	}
	return false
}

func isUnaryPrefix(k Kind) bool {
	switch k {
	case KindIs, KindCarry, KindIndirect, KindOwner, KindIndirect2:
		return true
	}
	return false
}

func write(b *strings.Builder, n *Node, parent Kind) {
	if n == nil {
		return
	}
	if needsParens(n, parent) {
		b.WriteByte('(')
		defer b.WriteByte(')')
	}
	switch n.Kind {
	case KindAnd:
		write(b, n.Left, KindAnd)
		b.WriteByte(AndToken)
		write(b, n.Right, KindAnd)
	case KindOr:
		write(b, n.Left, KindOr)
		b.WriteByte(OrToken)
		write(b, n.Right, KindOr)
	case KindNot:
		b.WriteByte(NotToken)
		write(b, n.Left, KindNot)
	case KindIs:
		b.WriteByte(IsToken)
		write(b, n.Left, KindIs)
	case KindCarry:
		b.WriteByte(CarryToken)
		write(b, n.Left, KindCarry)
	case KindOwner:
		b.WriteByte(OwnerToken)
		write(b, n.Left, KindOwner)
	case KindIndirect:
		b.WriteByte(IndirToken)
		write(b, n.Left, KindIndirect)
	case KindIndirect2:
		b.WriteByte(IndirToken)
		write(b, n.Left, KindIndirect2)
		b.WriteByte(EvalToken)
		b.WriteString(escapeName(textOf(n.Right)))
	case KindAttr:
		b.WriteString(escapeName(textOf(n.Left)))
		b.WriteByte(AttrToken)
		b.WriteString(escapePattern(textOf(n.Right)))
	case KindEval:
		b.WriteString(escapeName(textOf(n.Left)))
		b.WriteByte(EvalToken)
		b.WriteString(escapePattern(textOf(n.Right)))
	case KindClass:
		b.WriteString(escapeName(n.Text))
		b.WriteByte(ClassToken)
		b.WriteString(escapePattern(textOf(n.Left)))
	case KindRef:
		b.WriteByte(RefToken)
		b.WriteString(strconv.Itoa(n.Ref))
	case KindText:
		b.WriteString(escapeName(n.Text))
	case KindTrue:
		b.WriteString("#TRUE")
	case KindFalse:
		b.WriteString("#FALSE")
	}
}

// textOf returns the string carried by an operand of attr, eval, class and
// indirect2 nodes. Those operands are text leaves in parsed trees, but a
// reference is tolerated for hand-built ones.
func textOf(n *Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == KindRef {
		return "#" + strconv.Itoa(n.Ref)
	}
	return n.Text
}

func escapeName(s string) string {
	if s == "" {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\', c == AndToken, c == OrToken, c == NotToken, c == '(', c == ')',
			c == AttrToken, c == EvalToken, c == ClassToken:
			b.WriteByte('\\')
		case i == 0 && strings.IndexByte("=+$@#", c) >= 0:
			b.WriteByte('\\')
		case c == ' ' && (i == 0 || i == len(s)-1):
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

func escapePattern(s string) string {
	if !strings.ContainsAny(s, "\\&|)") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\', AndToken, OrToken, ')':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
