// Package lock implements the lock-key expression language shared by the MUSH
// lineages: a small boolean tree over object references and attribute
// patterns. One tree type serves every lineage; grammar differences are
// carried by a Dialect value.
package lock

import "fmt"

// Kind tags a lock node.
type Kind int

const (
	KindNone      Kind = iota // uninitialized; never part of a finished tree
	KindIs                    // =X
	KindCarry                 // +X
	KindIndirect              // @X
	KindIndirect2             // @X/Y (Penn only)
	KindOwner                 // $X
	KindAnd                   // X&Y
	KindOr                    // X|Y
	KindNot                   // !X
	KindAttr                  // X:Y
	KindEval                  // X/Y
	KindClass                 // X^Y (Penn only)
	KindRef                   // #N
	KindText                  // bare text
	KindTrue                  // #TRUE (Penn only)
	KindFalse                 // #FALSE (Penn only)
)

var kindNames = [...]string{
	KindNone:      "none",
	KindIs:        "is",
	KindCarry:     "carry",
	KindIndirect:  "indirect",
	KindIndirect2: "indirect2",
	KindOwner:     "owner",
	KindAnd:       "and",
	KindOr:        "or",
	KindNot:       "not",
	KindAttr:      "attr",
	KindEval:      "eval",
	KindClass:     "class",
	KindRef:       "ref",
	KindText:      "text",
	KindTrue:      "true",
	KindFalse:     "false",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Arity is the number of child nodes a kind owns.
func (k Kind) Arity() int {
	switch k {
	case KindIs, KindCarry, KindIndirect, KindOwner, KindNot, KindClass:
		return 1
	case KindIndirect2, KindAnd, KindOr, KindAttr, KindEval:
		return 2
	default:
		return 0
	}
}

// Node is one element of a lock expression tree. Each node exclusively owns
// its children.
//
// Unary kinds use Left. Binary kinds use Left and Right. KindClass keeps the
// class name in Text and the value in Left. KindRef uses Ref and KindText uses
// Text.
type Node struct {
	Kind  Kind
	Left  *Node
	Right *Node
	Ref   int
	Text  string
}

// Is builds =x: x itself, not something it carries.
func Is(x *Node) *Node { return &Node{Kind: KindIs, Left: x} }

// Carry builds +x: something the player carries.
func Carry(x *Node) *Node { return &Node{Kind: KindCarry, Left: x} }

// Indirect builds @x: pass the default lock of x.
func Indirect(x *Node) *Node { return &Node{Kind: KindIndirect, Left: x} }

// Owner builds $x: owned by the owner of x.
func Owner(x *Node) *Node { return &Node{Kind: KindOwner, Left: x} }

// Not builds !x.
func Not(x *Node) *Node { return &Node{Kind: KindNot, Left: x} }

// And builds x&y.
func And(x, y *Node) *Node { return &Node{Kind: KindAnd, Left: x, Right: y} }

// Or builds x|y.
func Or(x, y *Node) *Node { return &Node{Kind: KindOr, Left: x, Right: y} }

// Ref builds a reference to object #n.
func Ref(n int) *Node { return &Node{Kind: KindRef, Ref: n} }

// Text builds a bare word, such as a player name or an attribute name.
func Text(s string) *Node { return &Node{Kind: KindText, Text: s} }

// True builds the lock that always passes.
func True() *Node { return &Node{Kind: KindTrue} }

// False builds the lock that never passes.
func False() *Node { return &Node{Kind: KindFalse} }

// Indirect2 builds @X/Y: the lock named y on object x.
func Indirect2(x *Node, name string) *Node {
	return &Node{Kind: KindIndirect2, Left: x, Right: Text(name)}
}

// Attr builds an attribute-match lock name:pattern.
func Attr(name, pattern string) *Node {
	return &Node{Kind: KindAttr, Left: Text(name), Right: Text(pattern)}
}

// Eval builds an evaluation lock name/result.
func Eval(name, result string) *Node {
	return &Node{Kind: KindEval, Left: Text(name), Right: Text(result)}
}

// Class builds a Penn class lock such as flag^WIZARD.
func Class(class string, value *Node) *Node {
	return &Node{Kind: KindClass, Text: class, Left: value}
}

// Check verifies that every node in the tree has exactly the children its
// kind requires and that no KindNone node remains.
func (n *Node) Check() error {
	if n == nil {
		return fmt.Errorf("lock: nil node")
	}
	if n.Kind <= KindNone || n.Kind > KindFalse {
		return fmt.Errorf("lock: invalid node kind %s", n.Kind)
	}
	switch n.Kind.Arity() {
	case 0:
		if n.Left != nil || n.Right != nil {
			return fmt.Errorf("lock: leaf %s has children", n.Kind)
		}
		return nil
	case 1:
		if n.Left == nil || n.Right != nil {
			return fmt.Errorf("lock: %s needs exactly one operand", n.Kind)
		}
		return n.Left.Check()
	default:
		if n.Left == nil || n.Right == nil {
			return fmt.Errorf("lock: %s needs two operands", n.Kind)
		}
		if err := n.Left.Check(); err != nil {
			return err
		}
		return n.Right.Check()
	}
}

// Equal reports whether two trees are structurally identical.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Kind != o.Kind {
		return false
	}
	switch n.Kind {
	case KindRef:
		return n.Ref == o.Ref
	case KindText:
		return n.Text == o.Text
	case KindClass:
		if n.Text != o.Text {
			return false
		}
	}
	return n.Left.Equal(o.Left) && n.Right.Equal(o.Right)
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Left = n.Left.Clone()
	c.Right = n.Right.Clone()
	return &c
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	n.Left.Walk(fn)
	n.Right.Walk(fn)
}

// Refs returns every object reference mentioned in the tree.
func (n *Node) Refs() []int {
	var refs []int
	n.Walk(func(x *Node) bool {
		if x.Kind == KindRef {
			refs = append(refs, x.Ref)
		}
		return true
	})
	return refs
}

func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	return Write(n)
}

// Dialect describes the grammar one lineage accepts.
type Dialect struct {
	Name      string
	Indirect2 bool // @obj/LockName
	Class     bool // class^value
	Booleans  bool // #TRUE / #FALSE
}

// Classic is the grammar of the TinyMUSH-derived lineages.
var Classic = Dialect{Name: "classic"}

// Penn is the PennMUSH grammar.
var Penn = Dialect{Name: "penn", Indirect2: true, Class: true, Booleans: true}

// Supports reports whether the dialect can express a node kind.
func (d Dialect) Supports(k Kind) bool {
	switch k {
	case KindIndirect2:
		return d.Indirect2
	case KindClass:
		return d.Class
	case KindTrue, KindFalse:
		return d.Booleans
	case KindNone:
		return false
	}
	return true
}
