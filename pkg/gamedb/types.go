package gamedb

import (
	"fmt"
	"strings"

	"github.com/crystal-mush/mushconv/pkg/lock"
)

// DBRef is the fundamental object reference type in MUSH.
type DBRef int

const (
	Nothing   DBRef = -1
	Ambiguous DBRef = -2
	Home      DBRef = -3
	NoPerm    DBRef = -4
)

// IsSentinel reports whether r is one of the special "no object" values.
func (r DBRef) IsSentinel() bool {
	return r <= Nothing && r >= NoPerm
}

func (r DBRef) String() string { return fmt.Sprintf("#%d", int(r)) }

// Field identifies one optional scalar of an Object. Flatfiles may omit any
// of them, so presence is tracked explicitly.
type Field uint32

const (
	FieldName Field = 1 << iota
	FieldLocation
	FieldContents
	FieldExits
	FieldLink
	FieldNext
	FieldParent
	FieldOwner
	FieldZone
	FieldPennies
	FieldType
	FieldFlags
	FieldPowers
	FieldWarnings
	FieldCreated
	FieldModified
	FieldAccessed
	FieldLock
	FieldLockCount
	FieldAttrCount
)

var fieldNames = map[Field]string{
	FieldName:      "name",
	FieldLocation:  "location",
	FieldContents:  "contents",
	FieldExits:     "exits",
	FieldLink:      "link",
	FieldNext:      "next",
	FieldParent:    "parent",
	FieldOwner:     "owner",
	FieldZone:      "zone",
	FieldPennies:   "pennies",
	FieldType:      "type",
	FieldFlags:     "flags",
	FieldPowers:    "powers",
	FieldWarnings:  "warnings",
	FieldCreated:   "created",
	FieldModified:  "modified",
	FieldAccessed:  "accessed",
	FieldLock:      "lock",
	FieldLockCount: "lockcount",
	FieldAttrCount: "attrcount",
}

func (f Field) String() string {
	if s, ok := fieldNames[f]; ok {
		return s
	}
	return fmt.Sprintf("field(%#x)", uint32(f))
}

// RefFields are the fields that point at other objects.
var RefFields = []Field{
	FieldLocation, FieldContents, FieldExits, FieldLink, FieldNext, FieldParent, FieldOwner, FieldZone,
}

// Lock is one entry of a named lock list.
type Lock struct {
	Name    string
	Creator DBRef
	Flags   []string
	Derefs  int
	Key     string     // text as stored
	Expr    *lock.Node // nil when Key did not parse
}

// Object represents a MUSH database object.
type Object struct {
	DBRef   DBRef
	Present Field

	Name     string
	Location DBRef
	Contents DBRef
	Exits    DBRef
	Link     DBRef
	Next     DBRef
	Parent   DBRef
	Owner    DBRef
	Zone     DBRef
	Pennies  int

	// Type is the native type code for named lineages; positional lineages
	// keep it in the low bits of Flags[0].
	Type       uint32
	Flags      [3]uint32
	Powers     [2]uint32
	FlagNames  []string
	PowerNames []string
	Warnings   uint32

	Created  int64
	Modified int64
	Accessed int64

	Attrs []*Attribute

	// Lock is the default lock of positional lineages. LockText keeps the
	// stored key when it could not be parsed.
	Lock     *lock.Node
	LockText string

	// Locks is the lock list of named lineages.
	Locks []*Lock

	LockCount int
	AttrCount int
}

// NewObject returns an object whose reference fields all hold Nothing.
func NewObject(ref DBRef) *Object {
	return &Object{
		DBRef:    ref,
		Location: Nothing,
		Contents: Nothing,
		Exits:    Nothing,
		Link:     Nothing,
		Next:     Nothing,
		Parent:   Nothing,
		Owner:    Nothing,
		Zone:     Nothing,
	}
}

// Has reports whether every given field is present.
func (o *Object) Has(f Field) bool { return o.Present&f == f }

// Mark records fields as present.
func (o *Object) Mark(f Field) { o.Present |= f }

// Ref returns a reference field and whether it is present.
func (o *Object) Ref(f Field) (DBRef, bool) {
	p := o.refPtr(f)
	if p == nil {
		return Nothing, false
	}
	return *p, o.Has(f)
}

// SetRef stores a reference field and marks it present.
func (o *Object) SetRef(f Field, r DBRef) {
	if p := o.refPtr(f); p != nil {
		*p = r
		o.Mark(f)
	}
}

func (o *Object) refPtr(f Field) *DBRef {
	switch f {
	case FieldLocation:
		return &o.Location
	case FieldContents:
		return &o.Contents
	case FieldExits:
		return &o.Exits
	case FieldLink:
		return &o.Link
	case FieldNext:
		return &o.Next
	case FieldParent:
		return &o.Parent
	case FieldOwner:
		return &o.Owner
	case FieldZone:
		return &o.Zone
	}
	return nil
}

// Attr returns the first attribute with the given number.
func (o *Object) Attr(num int) *Attribute {
	for _, a := range o.Attrs {
		if a.Number == num {
			return a
		}
	}
	return nil
}

// AttrNamed returns the first attribute whose name matches, ignoring case.
func (o *Object) AttrNamed(name string) *Attribute {
	for _, a := range o.Attrs {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

// NamedLock returns the lock list entry with the given name.
func (o *Object) NamedLock(name string) *Lock {
	for _, l := range o.Locks {
		if strings.EqualFold(l.Name, name) {
			return l
		}
	}
	return nil
}

// Clone returns a deep copy of o.
func (o *Object) Clone() *Object {
	c := *o
	c.FlagNames = append([]string(nil), o.FlagNames...)
	c.PowerNames = append([]string(nil), o.PowerNames...)
	c.Lock = o.Lock.Clone()
	c.Attrs = make([]*Attribute, len(o.Attrs))
	for i, a := range o.Attrs {
		c.Attrs[i] = a.Clone()
	}
	c.Locks = make([]*Lock, len(o.Locks))
	for i, l := range o.Locks {
		nl := *l
		nl.Flags = append([]string(nil), l.Flags...)
		nl.Expr = l.Expr.Clone()
		c.Locks[i] = &nl
	}
	return &c
}

// RemoveAttr drops every attribute with the given number.
func (o *Object) RemoveAttr(num int) {
	out := o.Attrs[:0]
	for _, a := range o.Attrs {
		if a.Number != num {
			out = append(out, a)
		}
	}
	o.Attrs = out
}
