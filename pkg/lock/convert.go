package lock

import "fmt"

// UnsupportedError reports a node kind that the target grammar cannot
// express.
type UnsupportedError struct {
	Kind    Kind
	Dialect string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("lock: %s has no equivalent in %s grammar", e.Kind, e.Dialect)
}

type converter struct {
	to         Dialect
	renameAttr func(string) string
}

// ConvertOption adjusts a conversion.
type ConvertOption func(*converter)

// WithAttrRenamer rewrites the attribute name of every attr and eval node,
// so lock text follows attribute renames made elsewhere in a conversion.
func WithAttrRenamer(fn func(string) string) ConvertOption {
	return func(c *converter) { c.renameAttr = fn }
}

// Convert builds an equivalent tree for the target dialect. The source tree
// is left untouched. Boolean leaves become text "1"/"0" when the target has
// no boolean kind; indirect2 and class nodes fail when unsupported, and the
// whole conversion fails with them.
func Convert(src *Node, to Dialect, opts ...ConvertOption) (*Node, error) {
	if src == nil {
		return nil, fmt.Errorf("lock: nothing to convert")
	}
	c := &converter{to: to}
	for _, opt := range opts {
		opt(c)
	}
	return c.convert(src)
}

func (c *converter) convert(n *Node) (*Node, error) {
	if n == nil {
		return nil, fmt.Errorf("lock: missing operand")
	}
	switch n.Kind {
	case KindRef:
		return Ref(n.Ref), nil

	case KindText:
		return Text(n.Text), nil

	case KindTrue, KindFalse:
		if c.to.Booleans {
			return &Node{Kind: n.Kind}, nil
		}
		if n.Kind == KindTrue {
			return Text("1"), nil
		}
		return Text("0"), nil

	case KindIs, KindCarry, KindIndirect, KindOwner, KindNot:
		sub, err := c.convert(n.Left)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: n.Kind, Left: sub}, nil

	case KindAnd, KindOr:
		left, err := c.convert(n.Left)
		if err != nil {
			return nil, err
		}
		right, err := c.convert(n.Right)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: n.Kind, Left: left, Right: right}, nil

	case KindAttr, KindEval:
		name, err := c.convert(n.Left)
		if err != nil {
			return nil, err
		}
		if c.renameAttr != nil && name.Kind == KindText {
			name.Text = c.renameAttr(name.Text)
		}
		value, err := c.convert(n.Right)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: n.Kind, Left: name, Right: value}, nil

	case KindIndirect2:
		if !c.to.Indirect2 {
			return nil, &UnsupportedError{Kind: n.Kind, Dialect: c.to.Name}
		}
		obj, err := c.convert(n.Left)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindIndirect2, Left: obj, Right: Text(textOf(n.Right))}, nil

	case KindClass:
		if !c.to.Class {
			return nil, &UnsupportedError{Kind: n.Kind, Dialect: c.to.Name}
		}
		value, err := c.convert(n.Left)
		if err != nil {
			return nil, err
		}
		return Class(n.Text, value), nil

	case KindNone:
		return nil, fmt.Errorf("lock: uninitialized node")
	}
	return nil, fmt.Errorf("lock: unknown node kind %s", n.Kind)
}

// ConvertText parses text in one dialect and writes the equivalent lock in
// another.
func ConvertText(text string, from, to Dialect, opts ...ConvertOption) (string, error) {
	n, err := Parse(text, from)
	if err != nil {
		return "", err
	}
	out, err := Convert(n, to, opts...)
	if err != nil {
		return "", err
	}
	return Write(out), nil
}
