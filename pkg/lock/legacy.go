package lock

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseLegacy reads the fully parenthesized key form that older flatfiles
// keep in the object header, e.g. "(1&(!(+2|$3)))". References are bare
// numbers and every compound term carries its own parentheses. An empty key
// or the obsolete "-" key means the object is unlocked and yields nil.
func ParseLegacy(text string) (*Node, error) {
	text = strings.TrimRight(text, "\r\n")
	if text == "" || text[0] == '-' {
		return nil, nil
	}
	p := &legacyParser{src: text}
	n, err := p.parse()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.src) {
		return nil, &SyntaxError{Text: text, Pos: p.pos, Msg: "trailing characters after key"}
	}
	return n, nil
}

type legacyParser struct {
	src string
	pos int
}

func (p *legacyParser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *legacyParser) fail(msg string) error {
	return &SyntaxError{Text: p.src, Pos: p.pos, Msg: msg}
}

func (p *legacyParser) expect(c byte) error {
	if p.peek() != c {
		return p.fail(fmt.Sprintf("expected %q", c))
	}
	p.pos++
	return nil
}

func (p *legacyParser) parse() (*Node, error) {
	if p.peek() != '(' {
		return p.parseTerm()
	}
	p.pos++

	var k Kind
	switch p.peek() {
	case NotToken:
		k = KindNot
	case IndirToken:
		k = KindIndirect
	case IsToken:
		k = KindIs
	case CarryToken:
		k = KindCarry
	case OwnerToken:
		k = KindOwner
	}
	if k != KindNone {
		p.pos++
		sub, err := p.parse()
		if err != nil {
			return nil, err
		}
		if err := p.expect(')'); err != nil {
			return nil, err
		}
		return &Node{Kind: k, Left: sub}, nil
	}

	left, err := p.parse()
	if err != nil {
		return nil, err
	}
	var n *Node
	switch p.peek() {
	case AndToken:
		n = &Node{Kind: KindAnd, Left: left}
	case OrToken:
		n = &Node{Kind: KindOr, Left: left}
	default:
		return nil, p.fail("expected & or | in key")
	}
	p.pos++
	right, err := p.parse()
	if err != nil {
		return nil, err
	}
	n.Right = right
	if err := p.expect(')'); err != nil {
		return nil, err
	}
	return n, nil
}

// parseTerm reads a number, or a name optionally followed by :value or
// /value. Values run to the next ), & or | with no escaping.
func (p *legacyParser) parseTerm() (*Node, error) {
	start := p.pos
	c := p.peek()
	if c == '-' || (c >= '0' && c <= '9') {
		p.pos++
		for p.peek() >= '0' && p.peek() <= '9' {
			p.pos++
		}
		if sep := p.peek(); sep != AttrToken && sep != EvalToken {
			n, err := strconv.Atoi(p.src[start:p.pos])
			if err != nil {
				return nil, p.fail("bad number in key")
			}
			return Ref(n), nil
		}
	}
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == AttrToken || c == EvalToken || c == ')' || c == AndToken || c == OrToken {
			break
		}
		p.pos++
	}
	name := p.src[start:p.pos]
	if name == "" {
		return nil, p.fail("empty term in key")
	}
	sep := p.peek()
	if sep != AttrToken && sep != EvalToken {
		return Text(name), nil
	}
	p.pos++
	vstart := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ')' || c == AndToken || c == OrToken {
			break
		}
		p.pos++
	}
	if sep == AttrToken {
		return Attr(name, p.src[vstart:p.pos]), nil
	}
	return Eval(name, p.src[vstart:p.pos]), nil
}

// WriteLegacy renders a tree in the header key form read by ParseLegacy.
// Penn-only kinds have no header representation.
func WriteLegacy(n *Node) (string, error) {
	var b strings.Builder
	if err := writeLegacy(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeLegacy(b *strings.Builder, n *Node) error {
	if n == nil {
		return fmt.Errorf("lock: nil node in key")
	}
	switch n.Kind {
	case KindAnd, KindOr:
		b.WriteByte('(')
		if err := writeLegacy(b, n.Left); err != nil {
			return err
		}
		if n.Kind == KindAnd {
			b.WriteByte(AndToken)
		} else {
			b.WriteByte(OrToken)
		}
		if err := writeLegacy(b, n.Right); err != nil {
			return err
		}
		b.WriteByte(')')
	case KindNot, KindIs, KindCarry, KindOwner, KindIndirect:
		b.WriteByte('(')
		b.WriteByte(prefixToken(n.Kind))
		if err := writeLegacy(b, n.Left); err != nil {
			return err
		}
		b.WriteByte(')')
	case KindRef:
		b.WriteString(strconv.Itoa(n.Ref))
	case KindText:
		b.WriteString(n.Text)
	case KindAttr, KindEval:
		b.WriteString(textOf(n.Left))
		if n.Kind == KindAttr {
			b.WriteByte(AttrToken)
		} else {
			b.WriteByte(EvalToken)
		}
		b.WriteString(textOf(n.Right))
	default:
		return &UnsupportedError{Kind: n.Kind, Dialect: "header key"}
	}
	return nil
}

func prefixToken(k Kind) byte {
	switch k {
	case KindNot:
		return NotToken
	case KindIs:
		return IsToken
	case KindCarry:
		return CarryToken
	case KindOwner:
		return OwnerToken
	default:
		return IndirToken
	}
}
