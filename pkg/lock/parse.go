package lock

import (
	"fmt"
	"strconv"
	"strings"
)

// Lock expression token characters.
const (
	NotToken   = '!'
	AndToken   = '&'
	OrToken    = '|'
	IndirToken = '@'
	CarryToken = '+'
	IsToken    = '='
	OwnerToken = '$'
	AttrToken  = ':'
	EvalToken  = '/'
	ClassToken = '^'
	RefToken   = '#'
)

// SyntaxError reports a lock string that could not be parsed.
type SyntaxError struct {
	Text string
	Pos  int
	Msg  string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("lock %q: %s at offset %d", e.Text, e.Msg, e.Pos)
}

// parser holds the state for parsing one lock string.
type parser struct {
	src string
	pos int
	d   Dialect
}

// Parse parses a lock string in the given dialect.
// Grammar:
//
//	E → T ('|' E)?
//	T → F ('&' T)?
//	F → '!' F | '=' L | '+' L | '$' L | '@' L ('/' name)? | L
//	L → '(' E ')' | '#' number | '#TRUE' | '#FALSE' | name ':' pattern | name '/' pattern | name '^' pattern | name
//
// A backslash escapes the byte that follows it inside names and patterns.
func Parse(text string, d Dialect) (*Node, error) {
	p := &parser{src: text, d: d}
	p.skipSpaces()
	if p.eof() {
		return nil, p.failAt(0, "empty lock")
	}
	n, err := p.parseE()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if !p.eof() {
		return nil, p.failAt(p.pos, fmt.Sprintf("unexpected %q", p.src[p.pos]))
	}
	return n, nil
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() byte {
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) skipSpaces() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *parser) failAt(pos int, msg string) error {
	return &SyntaxError{Text: p.src, Pos: pos, Msg: msg}
}

func (p *parser) parseE() (*Node, error) {
	left, err := p.parseT()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.peek() == OrToken {
		p.pos++
		right, err := p.parseE()
		if err != nil {
			return nil, err
		}
		return Or(left, right), nil
	}
	return left, nil
}

func (p *parser) parseT() (*Node, error) {
	left, err := p.parseF()
	if err != nil {
		return nil, err
	}
	p.skipSpaces()
	if p.peek() == AndToken {
		p.pos++
		right, err := p.parseT()
		if err != nil {
			return nil, err
		}
		return And(left, right), nil
	}
	return left, nil
}

func (p *parser) parseF() (*Node, error) {
	p.skipSpaces()
	switch p.peek() {
	case NotToken:
		p.pos++
		sub, err := p.parseF()
		if err != nil {
			return nil, err
		}
		return Not(sub), nil
	case IsToken:
		return p.parseUnary(KindIs)
	case CarryToken:
		return p.parseUnary(KindCarry)
	case OwnerToken:
		return p.parseUnary(KindOwner)
	case IndirToken:
		return p.parseIndirect()
	}
	return p.parseLiteral()
}

// parseUnary handles the =X, +X and $X forms, whose operand must be a single
// term rather than a compound expression.
func (p *parser) parseUnary(k Kind) (*Node, error) {
	start := p.pos
	p.pos++
	sub, err := p.parseLiteral()
	if err != nil {
		return nil, err
	}
	switch sub.Kind {
	case KindRef, KindText:
	case KindAttr, KindEval:
		if k == KindOwner {
			return nil, p.failAt(start, "owner lock needs an object")
		}
	default:
		return nil, p.failAt(start, fmt.Sprintf("%s lock cannot apply to %s", k, sub.Kind))
	}
	return &Node{Kind: k, Left: sub}, nil
}

func (p *parser) parseIndirect() (*Node, error) {
	start := p.pos
	p.pos++
	p.skipSpaces()

	var obj *Node
	if p.peek() == '(' {
		sub, err := p.parseLiteral()
		if err != nil {
			return nil, err
		}
		obj = sub
	} else {
		at := p.pos
		tok, escaped := p.scanName()
		if tok == "" {
			return nil, p.failAt(start, "missing object after @")
		}
		atom, err := p.atom(tok, escaped, at)
		if err != nil {
			return nil, err
		}
		obj = atom
	}
	if obj.Kind != KindRef && obj.Kind != KindText {
		return nil, p.failAt(start, fmt.Sprintf("indirect lock cannot apply to %s", obj.Kind))
	}

	if p.peek() == EvalToken {
		if !p.d.Indirect2 {
			return nil, p.failAt(p.pos, "named indirect locks are not supported")
		}
		p.pos++
		name, _ := p.scanName()
		if name == "" {
			return nil, p.failAt(p.pos, "missing lock name after /")
		}
		return Indirect2(obj, name), nil
	}
	return Indirect(obj), nil
}

func (p *parser) parseLiteral() (*Node, error) {
	p.skipSpaces()
	if p.peek() == '(' {
		open := p.pos
		p.pos++
		sub, err := p.parseE()
		if err != nil {
			return nil, err
		}
		p.skipSpaces()
		if p.peek() != ')' {
			return nil, p.failAt(open, "unbalanced parenthesis")
		}
		p.pos++
		return sub, nil
	}

	start := p.pos
	tok, escaped := p.scanName()
	switch p.peek() {
	case AttrToken, EvalToken:
		sep := p.src[p.pos]
		if tok == "" {
			return nil, p.failAt(start, "missing attribute name")
		}
		p.pos++
		pattern := p.scanPattern()
		if sep == AttrToken {
			return Attr(tok, pattern), nil
		}
		return Eval(tok, pattern), nil
	case ClassToken:
		if p.d.Class {
			if tok == "" {
				return nil, p.failAt(start, "missing lock class")
			}
			p.pos++
			return Class(tok, Text(p.scanPattern())), nil
		}
	}
	if tok == "" {
		return nil, p.failAt(start, "expected lock term")
	}
	return p.atom(tok, escaped, start)
}

// atom classifies a bare token as an object reference, a boolean or text.
func (p *parser) atom(tok string, escaped bool, at int) (*Node, error) {
	if escaped || tok[0] != RefToken {
		return Text(tok), nil
	}
	rest := tok[1:]
	if n, err := strconv.Atoi(rest); err == nil {
		return Ref(n), nil
	}
	if p.d.Booleans {
		switch strings.ToUpper(rest) {
		case "TRUE":
			return True(), nil
		case "FALSE":
			return False(), nil
		}
	}
	return nil, p.failAt(at, fmt.Sprintf("bad object reference %q", tok))
}

func (p *parser) isNameStop(c byte) bool {
	switch c {
	case AndToken, OrToken, NotToken, '(', ')', AttrToken, EvalToken:
		return true
	case ClassToken:
		return p.d.Class
	}
	return false
}

// scanName reads a name token up to the next operator. Unescaped spaces at
// either end are dropped. The second result reports whether the first byte
// was escaped, which keeps \#5 from being read as a reference.
func (p *parser) scanName() (string, bool) {
	var b strings.Builder
	keep := 0
	escapedFirst := false
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			if b.Len() == 0 {
				escapedFirst = true
			}
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
			keep = b.Len()
			continue
		}
		if p.isNameStop(c) {
			break
		}
		p.pos++
		if c == ' ' && b.Len() == 0 {
			continue
		}
		b.WriteByte(c)
		if c != ' ' {
			keep = b.Len()
		}
	}
	return b.String()[:keep], escapedFirst
}

// scanPattern reads an attribute pattern up to the next &, | or ).
func (p *parser) scanPattern() string {
	var b strings.Builder
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '\\' && p.pos+1 < len(p.src) {
			b.WriteByte(p.src[p.pos+1])
			p.pos += 2
			continue
		}
		if c == AndToken || c == OrToken || c == ')' {
			break
		}
		b.WriteByte(c)
		p.pos++
	}
	return b.String()
}
